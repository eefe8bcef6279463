package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/loyalty-backend/internal/orders"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

func TestAdminListUsersReturnsPage(t *testing.T) {
	svc := &testUsersService{
		listFn: func(ctx context.Context, page pagination.Params) (pagination.Page[models.User], error) {
			return pagination.NewPage([]models.User{
				{ID: uuid.New(), Email: "a@example.com"},
				{ID: uuid.New(), Email: "b@example.com", IsLocked: true},
			}, 2, page), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminListUsers(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	var envelope struct {
		Data pagination.Page[userResponse] `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Total != 2 || len(envelope.Data.Items) != 2 {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
	if !envelope.Data.Items[1].IsLocked {
		t.Fatalf("expected lock state to survive, got %+v", envelope.Data.Items[1])
	}
}

func TestAdminUpdateUserChangesLevel(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()
	var captured users.AdminUpdateInput
	svc := &testUsersService{
		updateFn: func(ctx context.Context, input users.AdminUpdateInput) (*models.User, error) {
			captured = input
			return &models.User{ID: input.UserID, MemberLevel: *input.MemberLevel}, nil
		},
	}

	body := `{"member_level":"platinum"}`
	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+userID.String(), strings.NewReader(body)), adminID)
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminUpdateUser(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.UserID != userID || captured.AdminUserID != adminID {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.MemberLevel == nil || *captured.MemberLevel != enums.MemberLevelPlatinum {
		t.Fatalf("unexpected level %v", captured.MemberLevel)
	}
}

func TestAdminUpdateUserRejectsBadID(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/nope", strings.NewReader(`{}`)), uuid.New())
	req = addRouteParam(req, "userId", "nope")
	resp := httptest.NewRecorder()
	AdminUpdateUser(&testUsersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminLockUserPassesReason(t *testing.T) {
	adminID := uuid.New()
	userID := uuid.New()
	var captured users.LockInput
	svc := &testUsersService{
		lockFn: func(ctx context.Context, input users.LockInput) (*models.User, error) {
			captured = input
			return &models.User{ID: input.UserID, IsLocked: true}, nil
		},
	}

	body := `{"reason":"  chargeback abuse  "}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/lock", strings.NewReader(body)), adminID)
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminLockUser(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.UserID != userID || captured.AdminUserID != adminID {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.Reason != "chargeback abuse" {
		t.Fatalf("expected trimmed reason, got %q", captured.Reason)
	}
}

func TestAdminLockUserRequiresReason(t *testing.T) {
	userID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/lock", strings.NewReader(`{}`)), uuid.New())
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminLockUser(&testUsersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestAdminUnlockUserSurfacesNotFound(t *testing.T) {
	userID := uuid.New()
	svc := &testUsersService{
		unlockFn: func(ctx context.Context, uid, adminID uuid.UUID) (*models.User, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/unlock", nil), uuid.New())
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminUnlockUser(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusNotFound)
}

func TestAdminListOrdersPassesFilters(t *testing.T) {
	var captured orders.ListAllInput
	svc := &testOrdersService{
		listAllFn: func(ctx context.Context, input orders.ListAllInput) (pagination.Page[models.Order], error) {
			captured = input
			return pagination.NewPage([]models.Order{{ID: uuid.New()}}, 1, input.Page), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=completed&from=2024-01-01", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminListOrders(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.Status == nil || *captured.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected status filter %v", captured.Status)
	}
	if captured.From == nil {
		t.Fatal("expected from filter")
	}
}
