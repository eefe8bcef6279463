package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/loyalty-backend/api/controllers"
	"github.com/angelmondragon/loyalty-backend/api/middleware"
	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/orders"
	"github.com/angelmondragon/loyalty-backend/internal/points"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/config"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	coordination controllers.Pinger,
	usersService users.Service,
	pointsService points.Service,
	ordersService orders.Service,
	benefitsService benefits.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(database, coordination, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/members", func(r chi.Router) {
			r.Get("/me", controllers.MemberProfile(usersService, logg))
			r.Patch("/me", controllers.MemberUpdateProfile(usersService, logg))
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/balance", controllers.PointsBalance(pointsService, logg))
			r.Get("/transactions", controllers.PointsTransactions(pointsService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderGet(ordersService, logg))
			r.Post("/{orderId}/complete", controllers.OrderComplete(ordersService, logg))
			r.Post("/{orderId}/refund", controllers.OrderRefund(ordersService, logg))
		})

		r.Route("/benefits", func(r chi.Router) {
			r.Get("/", controllers.BenefitsForUser(benefitsService, logg))
			r.Get("/my-benefits", controllers.MyBenefits(benefitsService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/points/adjust", controllers.AdminAdjustPoints(pointsService, logg))
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(usersService, logg))
				r.Patch("/{userId}", controllers.AdminUpdateUser(usersService, logg))
				r.Post("/{userId}/lock", controllers.AdminLockUser(usersService, logg))
				r.Post("/{userId}/unlock", controllers.AdminUnlockUser(usersService, logg))
			})
			r.Get("/orders", controllers.AdminListOrders(ordersService, logg))
			r.Route("/benefits", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateBenefit(benefitsService, logg))
				r.Get("/", controllers.AdminListBenefits(benefitsService, logg))
				r.Post("/distribute", controllers.AdminDistributeBenefits(benefitsService, logg))
			})
		})
	})

	return r
}
