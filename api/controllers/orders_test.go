package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyalty-backend/internal/orders"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

type testOrdersService struct {
	createFn   func(ctx context.Context, input orders.CreateInput) (*models.Order, error)
	completeFn func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	refundFn   func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	getFn      func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	listFn     func(ctx context.Context, input orders.ListInput) (pagination.Page[models.Order], error)
	listAllFn  func(ctx context.Context, input orders.ListAllInput) (pagination.Page[models.Order], error)
}

func (s *testOrdersService) Create(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, nil
}

func (s *testOrdersService) Complete(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if s.completeFn != nil {
		return s.completeFn(ctx, orderID, userID)
	}
	return nil, nil
}

func (s *testOrdersService) Refund(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if s.refundFn != nil {
		return s.refundFn(ctx, orderID, userID)
	}
	return nil, nil
}

func (s *testOrdersService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID, userID)
	}
	return nil, nil
}

func (s *testOrdersService) List(ctx context.Context, input orders.ListInput) (pagination.Page[models.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return pagination.Page[models.Order]{}, nil
}

func (s *testOrdersService) ListAll(ctx context.Context, input orders.ListAllInput) (pagination.Page[models.Order], error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx, input)
	}
	return pagination.Page[models.Order]{}, nil
}

func TestOrderCreateSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &testOrdersService{
		createFn: func(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
			if input.UserID != userID {
				t.Fatalf("unexpected user %s", input.UserID)
			}
			if !input.Amount.Equal(decimal.RequireFromString("100.50")) {
				t.Fatalf("unexpected amount %s", input.Amount)
			}
			return &models.Order{
				ID:      uuid.New(),
				OrderNo: "ORD202403151030001234",
				UserID:  input.UserID,
				Amount:  input.Amount,
				Status:  enums.OrderStatusPending,
			}, nil
		},
	}

	body := `{"amount":"100.50","product_name":"widget"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	OrderCreate(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusCreated)
	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestOrderCreateRejectsBadAmount(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"amount":"abc"}`)), uuid.New())
	resp := httptest.NewRecorder()
	OrderCreate(&testOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestOrderCreateRejectsMissingAmount(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`)), uuid.New())
	resp := httptest.NewRecorder()
	OrderCreate(&testOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestOrderCompletePassesIDs(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &testOrdersService{
		completeFn: func(ctx context.Context, oid, uid uuid.UUID) (*models.Order, error) {
			if oid != orderID || uid != userID {
				t.Fatalf("unexpected ids %s %s", oid, uid)
			}
			return &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusCompleted}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete", nil), userID)
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	OrderComplete(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusOK)
}

func TestOrderCompleteRejectsBadID(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/bogus/complete", nil), uuid.New())
	req = addRouteParam(req, "orderId", "bogus")
	resp := httptest.NewRecorder()
	OrderComplete(&testOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusBadRequest)
}

func TestOrderRefundPassesIDs(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &testOrdersService{
		refundFn: func(ctx context.Context, oid, uid uuid.UUID) (*models.Order, error) {
			called = true
			return &models.Order{ID: oid, UserID: uid, Status: enums.OrderStatusRefunded}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/refund", nil), userID)
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	OrderRefund(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusOK)
	if !called {
		t.Fatal("expected refund called")
	}
}

func TestOrderListPassesStatusFilter(t *testing.T) {
	userID := uuid.New()
	var captured orders.ListInput
	svc := &testOrdersService{
		listFn: func(ctx context.Context, input orders.ListInput) (pagination.Page[models.Order], error) {
			captured = input
			return pagination.NewPage([]models.Order{}, 0, input.Page), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=completed", nil), userID)
	resp := httptest.NewRecorder()
	OrderList(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.Status == nil || *captured.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed filter got %v", captured.Status)
	}
}

func TestOrderGetRequiresUserContext(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	OrderGet(&testOrdersService{}, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusUnauthorized)
}
