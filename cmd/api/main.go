package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/assetdesk/asset-service/internal/api/http"
	"github.com/assetdesk/asset-service/internal/api/http/handlers"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/observability"
	"github.com/assetdesk/asset-service/internal/persistence"
	"github.com/assetdesk/asset-service/internal/repository"
	"github.com/assetdesk/asset-service/internal/service"
	"github.com/assetdesk/asset-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	tx := persistence.NewTxManager(pg.PoolHandle())

	pool := pg.PoolHandle()
	assetRepo := repository.NewAssetRepository(pool)
	businessUnitRepo := repository.NewBusinessUnitRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	deploymentRepo := repository.NewDeploymentRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)
	retirementRepo := repository.NewRetirementRepository(pool)
	disposalRepo := repository.NewDisposalRepository(pool)
	maintenanceRepo := repository.NewMaintenanceRepository(pool)
	entryRepo := repository.NewDepreciationEntryRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	auditService := service.NewAuditService(auditRepo, logger)
	settingsService := service.NewSettingsService(service.SettingsDependencies{
		SettingRepo: settingRepo,
		Cache:       redis,
		CacheTTL:    cfg.Redis.SettingsTTL(),
		Tx:          tx,
		Audit:       auditService,
		Logger:      logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:         userRepo,
		RoleRepo:         roleRepo,
		BusinessUnitRepo: businessUnitRepo,
		Tokens:           tokens,
		Tx:               tx,
		Audit:            auditService,
		Logger:           logger,
	})
	seeded, err := authService.Bootstrap(ctx, service.BootstrapInput{
		UnitCode: cfg.Auth.BootstrapUnitCode,
		UnitName: cfg.Auth.BootstrapUnitName,
		Email:    cfg.Auth.BootstrapAdminEmail,
		Password: cfg.Auth.BootstrapAdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to bootstrap administrator", zap.Error(err))
	}
	if seeded {
		logger.Info("bootstrap administrator created", zap.String("email", cfg.Auth.BootstrapAdminEmail))
	}

	lifecycleDeps := service.LifecycleDependencies{
		AssetRepo:        assetRepo,
		EmployeeRepo:     employeeRepo,
		DepartmentRepo:   departmentRepo,
		BusinessUnitRepo: businessUnitRepo,
		DeploymentRepo:   deploymentRepo,
		TransferRepo:     transferRepo,
		RetirementRepo:   retirementRepo,
		DisposalRepo:     disposalRepo,
		MaintenanceRepo:  maintenanceRepo,
		Settings:         settingsService,
		Tx:               tx,
		Audit:            auditService,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	}
	deploymentService := service.NewDeploymentService(lifecycleDeps)
	depreciationService := service.NewDepreciationService(service.DepreciationDependencies{
		AssetRepo:  assetRepo,
		EntryRepo:  entryRepo,
		Tx:         tx,
		Audit:      auditService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(ctx, notificationService)

	var scheduler *worker.Scheduler
	if cfg.Worker.Enabled {
		scheduler = worker.NewScheduler(cfg.Worker, worker.SchedulerDependencies{
			Depreciation: depreciationService,
			Overdue:      deploymentService,
			Locker:       redis,
			Metrics:      metrics,
			Logger:       logger,
		})
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService),
		Users: handlers.NewUsersHandler(service.NewUserService(service.UserDependencies{
			UserRepo:   userRepo,
			RoleRepo:   roleRepo,
			BcryptCost: cfg.Auth.BcryptCost,
			Tx:         tx,
			Audit:      auditService,
		})),
		Org: handlers.NewOrgHandler(service.NewOrgService(service.OrgDependencies{
			BusinessUnitRepo: businessUnitRepo,
			RoleRepo:         roleRepo,
			DepartmentRepo:   departmentRepo,
			EmployeeRepo:     employeeRepo,
			Tx:               tx,
			Audit:            auditService,
		})),
		Employees: handlers.NewEmployeesHandler(service.NewEmployeeService(service.EmployeeDependencies{
			EmployeeRepo:   employeeRepo,
			DepartmentRepo: departmentRepo,
			RoleRepo:       roleRepo,
			DeploymentRepo: deploymentRepo,
			Tx:             tx,
			Audit:          auditService,
		})),
		Assets: handlers.NewAssetsHandler(service.NewAssetService(service.AssetDependencies{
			AssetRepo:      assetRepo,
			DepartmentRepo: departmentRepo,
			Settings:       settingsService,
			Tx:             tx,
			Audit:          auditService,
			Dispatcher:     dispatcher,
			Logger:         logger,
		})),
		Depreciation:   handlers.NewDepreciationHandler(depreciationService),
		Deployments:    handlers.NewDeploymentsHandler(deploymentService),
		Transfers:      handlers.NewTransfersHandler(service.NewTransferService(lifecycleDeps)),
		Dispositions:   handlers.NewDispositionsHandler(service.NewRetirementService(lifecycleDeps), service.NewDisposalService(lifecycleDeps)),
		Maintenance:    handlers.NewMaintenanceHandler(service.NewMaintenanceService(lifecycleDeps)),
		Audit:          handlers.NewAuditHandler(auditService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(assetRepo, settingsService)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo, roleRepo),
		LoginLimiter:   auth.NewRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst),
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
