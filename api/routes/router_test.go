package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/orders"
	"github.com/angelmondragon/loyalty-backend/internal/points"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	pkgAuth "github.com/angelmondragon/loyalty-backend/pkg/auth"
	"github.com/angelmondragon/loyalty-backend/pkg/config"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, input users.UpdateProfileInput) (*models.User, error) {
	return &models.User{ID: input.UserID}, nil
}

func (stubUsersService) List(ctx context.Context, page pagination.Params) (pagination.Page[models.User], error) {
	return pagination.NewPage([]models.User{}, 0, page), nil
}

func (stubUsersService) Update(ctx context.Context, input users.AdminUpdateInput) (*models.User, error) {
	return &models.User{ID: input.UserID}, nil
}

func (stubUsersService) Lock(ctx context.Context, input users.LockInput) (*models.User, error) {
	return &models.User{ID: input.UserID, IsLocked: true}, nil
}

func (stubUsersService) Unlock(ctx context.Context, userID, adminUserID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

type stubPointsService struct{}

func (stubPointsService) Earn(ctx context.Context, input points.EarnInput) (*models.PointTransaction, error) {
	return &models.PointTransaction{}, nil
}

func (stubPointsService) DeductForRefund(ctx context.Context, input points.RefundDeductInput) (*models.PointTransaction, error) {
	return &models.PointTransaction{}, nil
}

func (stubPointsService) Adjust(ctx context.Context, input points.AdjustInput) (*models.PointTransaction, error) {
	return &models.PointTransaction{}, nil
}

func (stubPointsService) Balance(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID, AvailablePoints: 10}, nil
}

func (stubPointsService) ListTransactions(ctx context.Context, input points.ListTransactionsInput) (pagination.Page[models.PointTransaction], error) {
	return pagination.NewPage([]models.PointTransaction{}, 0, input.Page), nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}, nil
}

func (stubOrdersService) Complete(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusCompleted}, nil
}

func (stubOrdersService) Refund(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusRefunded}, nil
}

func (stubOrdersService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) List(ctx context.Context, input orders.ListInput) (pagination.Page[models.Order], error) {
	return pagination.NewPage([]models.Order{}, 0, input.Page), nil
}

func (stubOrdersService) ListAll(ctx context.Context, input orders.ListAllInput) (pagination.Page[models.Order], error) {
	return pagination.NewPage([]models.Order{}, 0, input.Page), nil
}

type stubBenefitsService struct{}

func (stubBenefitsService) Distribute(ctx context.Context, userID, benefitID uuid.UUID, period string) (*models.BenefitDistribution, error) {
	return &models.BenefitDistribution{}, nil
}

func (stubBenefitsService) DistributeMonthly(ctx context.Context, userID uuid.UUID, period string) (benefits.MonthlyGrant, error) {
	return benefits.MonthlyGrant{}, nil
}

func (stubBenefitsService) CreateBenefit(ctx context.Context, input benefits.CreateBenefitInput) (*models.Benefit, error) {
	return &models.Benefit{}, nil
}

func (stubBenefitsService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Benefit, error) {
	return nil, nil
}

func (stubBenefitsService) ListBenefits(ctx context.Context, page pagination.Params) (pagination.Page[models.Benefit], error) {
	return pagination.NewPage([]models.Benefit{}, 0, page), nil
}

func (stubBenefitsService) UserDistributions(ctx context.Context, userID uuid.UUID, page pagination.Params) (pagination.Page[models.BenefitDistribution], error) {
	return pagination.NewPage([]models.BenefitDistribution{}, 0, page), nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: jwtCfg,
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	router := NewRouter(cfg, logg, stubPinger{}, stubPinger{}, stubUsersService{}, stubPointsService{}, stubOrdersService{}, stubBenefitsService{})
	return router, jwtCfg
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsBypassAuth(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, resp.Code)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/members/me"},
		{http.MethodGet, "/api/v1/points/balance"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/benefits"},
		{http.MethodPost, "/api/v1/admin/points/adjust"},
		{http.MethodGet, "/api/v1/admin/users"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s returned %d, want 401", p.method, p.path, resp.Code)
		}
	}
}

func TestMemberTokenReachesMemberRoutes(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.ActorRoleMember)

	for _, path := range []string{"/api/v1/points/balance", "/api/v1/members/me"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAdminRoutesRejectMemberTokens(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.ActorRoleMember)

	for _, path := range []string{"/api/v1/admin/benefits", "/api/v1/admin/users", "/api/v1/admin/orders"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 got %d", path, resp.Code)
		}
	}
}

func TestAdminRoutesAllowAdminTokens(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.ActorRoleAdmin)

	for _, path := range []string{"/api/v1/admin/benefits", "/api/v1/admin/users", "/api/v1/admin/orders"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}
