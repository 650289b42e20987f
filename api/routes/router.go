package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenloop/greenloop-backend/api/controllers"
	"github.com/greenloop/greenloop-backend/api/middleware"
	"github.com/greenloop/greenloop-backend/internal/auth"
	"github.com/greenloop/greenloop-backend/internal/classify"
	"github.com/greenloop/greenloop-backend/internal/companies"
	"github.com/greenloop/greenloop-backend/internal/dispatch"
	"github.com/greenloop/greenloop-backend/internal/marketplace"
	"github.com/greenloop/greenloop-backend/internal/notifications"
	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/internal/prices"
	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/pkg/auth/session"
	"github.com/greenloop/greenloop-backend/pkg/config"
	"github.com/greenloop/greenloop-backend/pkg/db"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	"github.com/greenloop/greenloop-backend/pkg/logger"
	"github.com/greenloop/greenloop-backend/pkg/metrics"
	"github.com/greenloop/greenloop-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type roleService interface {
	middleware.RoleResolver
	controllers.RoleGranter
}

// Services bundles everything the router mounts.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Roles         roleService
	Profiles      profiles.Service
	Prices        prices.Service
	Companies     companies.Service
	Marketplace   marketplace.Service
	Pickups       pickups.Service
	Dispatch      dispatch.Service
	Rewards       controllers.RewardsReader
	Classify      classify.Service
	Notifications notifications.Service
	Users         controllers.UserDirectory
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	promRegistry := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(metrics.NewHTTPMetrics(promRegistry)),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadyCheck{Name: "postgres", Ping: pingOf(dbP)},
			controllers.ReadyCheck{Name: "redis", Ping: pingOf(redisClient)},
		))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/partner-login", controllers.PartnerAuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register-partner", controllers.AuthRegisterPartner(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(svcs.AdminRegister, cfg, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit())

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.GetProfile(svcs.Profiles, logg))
			r.Put("/", controllers.UpdateProfile(svcs.Profiles, logg))
		})

		r.Get("/v1/prices", controllers.ListPrices(svcs.Prices, logg))

		r.Route("/v1/companies", func(r chi.Router) {
			r.Get("/", controllers.ListCompanies(svcs.Companies, logg))
			r.Get("/{companyId}", controllers.GetCompany(svcs.Companies, logg))
		})

		r.Route("/v1/marketplace", func(r chi.Router) {
			r.Get("/art", controllers.ListArtItems(svcs.Marketplace, logg))
			r.Post("/art", controllers.CreateArtItem(svcs.Marketplace, logg))
			r.Post("/art/{itemId}/sold", controllers.MarkArtItemSold(svcs.Marketplace, logg))
			r.Get("/needs", controllers.ListNeedThings(svcs.Marketplace, logg))
			r.Post("/needs", controllers.CreateNeedThing(svcs.Marketplace, logg))
			r.Post("/needs/{needId}/fulfilled", controllers.MarkNeedThingFulfilled(svcs.Marketplace, logg))
		})

		r.Route("/v1/pickups", func(r chi.Router) {
			r.Post("/", controllers.CreatePickup(svcs.Pickups, logg))
			r.Get("/", controllers.ListPickups(svcs.Pickups, logg))
			r.Get("/{pickupId}", controllers.GetPickup(svcs.Pickups, logg))
			r.Post("/{pickupId}/cancel", controllers.CancelPickup(svcs.Pickups, logg))
		})

		r.Get("/v1/rewards", controllers.GetRewards(svcs.Rewards, logg))
		r.Post("/v1/scan/analyze", controllers.AnalyzeScan(svcs.Classify, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/v1/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.AppRoleDeliveryPartner, logg))
			r.Get("/ping", controllers.PartnerPing())
			r.Get("/assignments", controllers.PartnerAssignments(svcs.Dispatch, logg))
			r.Get("/assignments/completed", controllers.PartnerCompletedAssignments(svcs.Dispatch, logg))
			r.Post("/assignments/{assignmentId}/start", controllers.PartnerStartAssignment(svcs.Dispatch, logg))
			r.Post("/assignments/{assignmentId}/complete", controllers.PartnerCompleteAssignment(svcs.Dispatch, logg))
			r.Post("/availability", controllers.PartnerSetAvailability(svcs.Dispatch, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(enums.AppRoleAdmin, logg))
		r.Use(middleware.RequireResolvedRole(svcs.Roles, logg, enums.AppRoleAdmin))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit())

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/pickups", func(r chi.Router) {
			r.Get("/", controllers.AdminListPickups(svcs.Pickups, logg))
			r.Get("/stats", controllers.AdminPickupStats(svcs.Pickups, svcs.Dispatch, logg))
			r.Post("/{pickupId}/assign", controllers.AdminAssignPickup(svcs.Dispatch, logg))
			r.Post("/{pickupId}/cancel", controllers.AdminCancelPickup(svcs.Dispatch, logg))
			r.Post("/{pickupId}/complete", controllers.AdminCompletePickup(svcs.Dispatch, logg))
		})

		r.Get("/v1/partners", controllers.AdminListPartners(svcs.Dispatch, logg))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(svcs.Users, logg))
			r.Post("/{userId}/role", controllers.AdminGrantRole(svcs.Roles, logg))
		})

		r.Put("/v1/prices/{wasteType}", controllers.AdminUpdatePrice(svcs.Prices, logg))

		r.Route("/v1/companies", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCompany(svcs.Companies, logg))
			r.Post("/{companyId}/active", controllers.AdminSetCompanyActive(svcs.Companies, logg))
		})
	})

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingOf(p pinger) func(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}
