package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shoplane/api/internal/audit"
	"shoplane/api/internal/config"
	"shoplane/api/internal/mail"
	"shoplane/api/internal/middleware"
	"shoplane/api/internal/models"
	"shoplane/api/internal/ratelimit"
	"shoplane/api/internal/repository"
	"shoplane/api/internal/service"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	auth      *service.AuthService
	twoFactor *service.TwoFactorService
	db        *pgxpool.Pool
	cache     *redis.Client
	limiter   ratelimit.Limiter
	users     *repository.UserRepository
	sessions  *repository.SessionRepository
	csrf      *repository.CSRFRepository
	auditLog  *repository.AuditRepository
	recorder  *audit.Recorder
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, limiter ratelimit.Limiter, mailer mail.Mailer, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	csrfRepo := repository.NewCSRFRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	recorder := audit.NewRecorder(auditRepo, log)
	authSvc := service.NewAuthService(userRepo, sessionRepo, csrfRepo, otpRepo, recorder, mailer, cfg, log)
	twoFactorSvc := service.NewTwoFactorService(userRepo, otpRepo, authSvc, recorder, mailer, cfg, log)

	return HandlerSet{
		log:       log,
		cfg:       cfg,
		auth:      authSvc,
		twoFactor: twoFactorSvc,
		db:        db,
		cache:     cache,
		limiter:   limiter,
		users:     userRepo,
		sessions:  sessionRepo,
		csrf:      csrfRepo,
		auditLog:  auditRepo,
		recorder:  recorder,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.BrowserSession(h.cfg))
	if h.cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(h.limiter, h.log))
	}

	authGate := middleware.Auth(h.cfg, h.users, h.sessions, h.auth)
	csrfGuard := middleware.CSRF(h.csrf)

	auth := v1.Group("/auth")
	{
		auth.GET("/csrf", h.IssueCSRF)

		// Unauthenticated flows bind CSRF to the browser session.
		auth.POST("/register", csrfGuard, h.RegisterAccount)
		auth.POST("/login", csrfGuard, h.Login)
		auth.POST("/login/2fa", csrfGuard, h.VerifyTwoFactorLogin)
		auth.POST("/refresh", csrfGuard, h.Refresh)
		auth.POST("/password/forgot", csrfGuard, h.ForgotPassword)
		auth.POST("/password/reset", csrfGuard, h.ResetPassword)
		// Both arrive from mailed links, so they are GETs outside the
		// anti-forgery guard; the single-use token is the proof.
		auth.GET("/2fa/disable/confirm", h.ConfirmTwoFactorDisable)
		auth.GET("/email/verify", h.VerifyEmail)

		protected := auth.Group("")
		protected.Use(authGate, csrfGuard)
		protected.GET("/me", h.Me)
		protected.POST("/logout", h.Logout)
		protected.GET("/sessions", h.ListSessions)
		protected.GET("/activity", h.AccountActivity)
		protected.DELETE("/sessions/:id", h.RevokeSession)
		protected.POST("/sessions/revoke-others", h.RevokeOtherSessions)
		protected.POST("/2fa/setup", h.SetupTwoFactor)
		protected.POST("/2fa/verify", h.VerifyAndEnableTwoFactor)
		protected.POST("/2fa/disable", h.RequestTwoFactorDisable)
		protected.POST("/email/resend", h.ResendEmailVerification)
	}

	admin := v1.Group("/admin")
	admin.Use(authGate, csrfGuard, middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleStaff))
	admin.POST("/users/:id/status", h.SetAccountStatus)
}
