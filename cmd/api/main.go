package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/api/routes"
	"github.com/greenloop/greenloop-backend/internal/auth"
	"github.com/greenloop/greenloop-backend/internal/classify"
	"github.com/greenloop/greenloop-backend/internal/companies"
	"github.com/greenloop/greenloop-backend/internal/dispatch"
	"github.com/greenloop/greenloop-backend/internal/marketplace"
	"github.com/greenloop/greenloop-backend/internal/notifications"
	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/internal/prices"
	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/internal/rewards"
	"github.com/greenloop/greenloop-backend/internal/roles"
	"github.com/greenloop/greenloop-backend/internal/users"
	"github.com/greenloop/greenloop-backend/pkg/auth/session"
	"github.com/greenloop/greenloop-backend/pkg/config"
	"github.com/greenloop/greenloop-backend/pkg/db"
	"github.com/greenloop/greenloop-backend/pkg/logger"
	"github.com/greenloop/greenloop-backend/pkg/migrate"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
	"github.com/greenloop/greenloop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	userRepo := users.NewRepository(gormDB)
	roleRepo := roles.NewRepository(gormDB)
	profileRepo := profiles.NewRepository(gormDB)
	priceRepo := prices.NewRepository(gormDB)
	companyRepo := companies.NewRepository(gormDB)
	marketRepo := marketplace.NewRepository(gormDB)
	pickupRepo := pickups.NewRepository(gormDB)
	dispatchRepo := dispatch.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	roleService, err := roles.NewService(roleRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create roles service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		RoleResolver:   roleService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerParams := auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	}
	registerService, err := auth.NewRegisterService(registerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}
	adminRegisterService, err := auth.NewAdminRegisterService(registerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin register service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profileRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profiles service", err)
		os.Exit(1)
	}

	priceService, err := prices.NewService(priceRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create prices service", err)
		os.Exit(1)
	}

	companyService, err := companies.NewService(companyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create companies service", err)
		os.Exit(1)
	}

	marketService, err := marketplace.NewService(marketRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create marketplace service", err)
		os.Exit(1)
	}

	pickupService, err := pickups.NewService(pickupRepo, priceRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create pickups service", err)
		os.Exit(1)
	}

	rewardService, err := rewards.NewService(func(tx *gorm.DB) rewards.PriceLookup {
		return prices.NewRepository(tx)
	}, profileRepo, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(
		dispatchRepo,
		pickupRepo,
		profileRepo,
		roleService,
		rewardService,
		dbClient,
		outboxSvc,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	classifyGateway, err := classify.NewGateway(cfg.AIGateway, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create classify gateway", err)
		os.Exit(1)
	}
	classifyService, err := classify.NewService(classifyGateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create classify service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Register:      registerService,
			AdminRegister: adminRegisterService,
			Roles:         roleService,
			Profiles:      profileService,
			Prices:        priceService,
			Companies:     companyService,
			Marketplace:   marketService,
			Pickups:       pickupService,
			Dispatch:      dispatchService,
			Rewards:       rewardService,
			Classify:      classifyService,
			Notifications: notificationService,
			Users:         userRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
