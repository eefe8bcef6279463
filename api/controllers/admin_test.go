package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/points"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

func TestAdminAdjustPointsSuccess(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()
	var captured points.AdjustInput
	svc := &testPointsService{
		adjustFn: func(ctx context.Context, input points.AdjustInput) (*models.PointTransaction, error) {
			captured = input
			return &models.PointTransaction{
				ID:           uuid.New(),
				UserID:       input.UserID,
				Type:         enums.PointTransactionTypeAdjust,
				Points:       input.Delta,
				BalanceAfter: 150,
			}, nil
		},
	}

	body := `{"user_id":"` + userID.String() + `","delta":50,"reason":"  goodwill credit  "}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/points/adjust", strings.NewReader(body)), adminID)
	resp := httptest.NewRecorder()
	AdminAdjustPoints(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.UserID != userID || captured.Delta != 50 {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.AdminUserID != adminID {
		t.Fatalf("expected admin attribution, got %s", captured.AdminUserID)
	}
	if captured.Reason != "goodwill credit" {
		t.Fatalf("expected trimmed reason, got %q", captured.Reason)
	}
}

func TestAdminAdjustPointsRequiresReason(t *testing.T) {
	body := `{"user_id":"` + uuid.NewString() + `","delta":50}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/points/adjust", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminAdjustPoints(&testPointsService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminAdjustPointsSurfacesOverdraft(t *testing.T) {
	svc := &testPointsService{
		adjustFn: func(ctx context.Context, input points.AdjustInput) (*models.PointTransaction, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientPoints, "insufficient points")
		},
	}
	body := `{"user_id":"` + uuid.NewString() + `","delta":-500,"reason":"correction"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/points/adjust", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminAdjustPoints(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusUnprocessableEntity)
}

func TestAdminCreateBenefitSuccess(t *testing.T) {
	var captured benefits.CreateBenefitInput
	svc := &testBenefitsService{
		createFn: func(ctx context.Context, input benefits.CreateBenefitInput) (*models.Benefit, error) {
			captured = input
			return &models.Benefit{
				ID:          uuid.New(),
				Name:        input.Name,
				Type:        input.Type,
				MemberLevel: input.MemberLevel,
				IsActive:    true,
			}, nil
		},
	}

	body := `{"name":"gold coupon","type":"discount_coupon","member_level":"gold","value":"15%"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/benefits", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminCreateBenefit(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusCreated)
	if captured.Type != enums.BenefitTypeDiscountCoupon || captured.MemberLevel != enums.MemberLevelGold {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestAdminCreateBenefitRejectsMissingName(t *testing.T) {
	body := `{"type":"discount_coupon","member_level":"gold"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/benefits", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminCreateBenefit(&testBenefitsService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminListBenefitsReturnsPage(t *testing.T) {
	svc := &testBenefitsService{
		listBenefitsFn: func(ctx context.Context, page pagination.Params) (pagination.Page[models.Benefit], error) {
			return pagination.NewPage([]models.Benefit{
				{ID: uuid.New(), Name: "a"},
				{ID: uuid.New(), Name: "b"},
			}, 2, page), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/admin/benefits", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminListBenefits(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	var envelope struct {
		Data pagination.Page[benefitResponse] `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Total != 2 || len(envelope.Data.Items) != 2 {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestAdminDistributeSingleBenefit(t *testing.T) {
	userID := uuid.New()
	benefitID := uuid.New()
	svc := &testBenefitsService{
		distributeFn: func(ctx context.Context, uid, bid uuid.UUID, period string) (*models.BenefitDistribution, error) {
			if uid != userID || bid != benefitID || period != "2024-03" {
				t.Fatalf("unexpected args %s %s %s", uid, bid, period)
			}
			return &models.BenefitDistribution{ID: uuid.New(), UserID: uid, BenefitID: bid, Period: period}, nil
		},
	}

	body := `{"user_id":"` + userID.String() + `","benefit_id":"` + benefitID.String() + `","period":"2024-03"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/benefits/distribute", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminDistributeBenefits(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusCreated)
}

func TestAdminDistributeMonthly(t *testing.T) {
	userID := uuid.New()
	svc := &testBenefitsService{
		distributeMonthlyFn: func(ctx context.Context, uid uuid.UUID, period string) (benefits.MonthlyGrant, error) {
			if uid != userID || period != "2024-03" {
				t.Fatalf("unexpected args %s %s", uid, period)
			}
			return benefits.MonthlyGrant{
				Distributions: []models.BenefitDistribution{
					{ID: uuid.New(), UserID: uid, Period: period},
					{ID: uuid.New(), UserID: uid, Period: period},
				},
				Skipped: 1,
			}, nil
		},
	}

	body := `{"user_id":"` + userID.String() + `","period":"2024-03"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/benefits/distribute", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminDistributeBenefits(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusCreated)
	var envelope struct {
		Data struct {
			Items   []distributionResponse `json:"items"`
			Skipped int                    `json:"skipped"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Items) != 2 {
		t.Fatalf("unexpected items %+v", envelope.Data.Items)
	}
	if envelope.Data.Skipped != 1 {
		t.Fatalf("expected skipped=1, got %d", envelope.Data.Skipped)
	}
}

func TestAdminDistributeSurfacesConflict(t *testing.T) {
	svc := &testBenefitsService{
		distributeMonthlyFn: func(ctx context.Context, uid uuid.UUID, period string) (benefits.MonthlyGrant, error) {
			return benefits.MonthlyGrant{}, pkgerrors.New(pkgerrors.CodeConflict, "benefit already distributed")
		},
	}
	body := `{"user_id":"` + uuid.NewString() + `","period":"2024-03"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/benefits/distribute", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	AdminDistributeBenefits(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusConflict)
}
