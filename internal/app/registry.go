package app

import (
	"time"

	"the-work-standard/internal/attendance"
	"the-work-standard/internal/auth"
	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/company"
	"the-work-standard/internal/config"
	"the-work-standard/internal/messaging/kafka"
	"the-work-standard/internal/middleware"
	"the-work-standard/internal/profile"
	"the-work-standard/internal/rbac"
	"the-work-standard/internal/rbac/infra"
	"the-work-standard/internal/shared/token"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg *config.APIConfig,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	companyRepo := company.NewCachedRepository(company.NewRepository(gormDB), rdb, cfg.CompanyCodeCacheTTL, logger)
	profileRepo := profile.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Shared ---
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authMW := middleware.AuthMiddleware(issuer)
	sessionBus := auth.NewRedisEventBus(rdb, logger)
	auditLogger := bootstrap.NewStdoutAuditLogger(logger)

	policy, err := attendancePolicy(cfg)
	if err != nil {
		return err
	}

	// --- Services ---
	companyService := company.NewService(companyRepo)
	authOpts := []auth.Option{auth.WithLogger(logger)}
	if cfg.RequireEmailConfirmation {
		authOpts = append(authOpts, auth.WithEmailConfirmation(bootstrap.NewStdoutConfirmationSender(logger)))
	}
	authService := auth.NewService(gormDB, authRepo, outboxRepo, companyService, rbacService, issuer, sessionBus, authOpts...)
	profileService := profile.NewService(profileRepo, sessionBus, auditLogger, logger)
	attendanceService := attendance.NewService(gormDB, attendanceRepo, policy, attendance.WithLogger(logger))

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction())
	companyHandler := company.NewHandler(companyService, logger)
	profileHandler := profile.NewHandler(profileService, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW, rbacService)
		company.RegisterRoutes(api, companyHandler, authMW)
		profile.RegisterRoutes(api, profileHandler, authMW, rbacService, logger)
		attendance.RegisterRoutes(api, attendanceHandler, authMW, rbacService, rdb)
		rbac.RegisterRoutes(api, rbacHandler, authMW)
	}

	return nil
}

func attendancePolicy(cfg *config.APIConfig) (attendance.Policy, error) {
	loc, err := time.LoadLocation(cfg.AttendanceTimezone)
	if err != nil {
		return attendance.Policy{}, err
	}
	lateAfter, err := config.ParseClock(cfg.LateAfter)
	if err != nil {
		return attendance.Policy{}, err
	}
	workdayEnd, err := config.ParseClock(cfg.WorkdayEnd)
	if err != nil {
		return attendance.Policy{}, err
	}
	return attendance.Policy{Location: loc, LateAfter: lateAfter, WorkdayEnd: workdayEnd}, nil
}
