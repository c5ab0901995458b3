package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/config"
	s3infra "github.com/Emmanuelamanga/cos-platform/internal/infra/s3"
	tginfra "github.com/Emmanuelamanga/cos-platform/internal/infra/telegram"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	redrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/redis"
	"github.com/Emmanuelamanga/cos-platform/internal/security"
	accountsvc "github.com/Emmanuelamanga/cos-platform/internal/services/accounts"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	dashboardsvc "github.com/Emmanuelamanga/cos-platform/internal/services/dashboard"
	evidencesvc "github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
	"github.com/Emmanuelamanga/cos-platform/internal/services/notify"
	ratesvc "github.com/Emmanuelamanga/cos-platform/internal/services/rate"
	verificationsvc "github.com/Emmanuelamanga/cos-platform/internal/services/verification"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	telegram   *notify.TelegramNotifier
	httpRouter http.Handler
}

// New wires every collaborator. A backend that cannot be reached at start-up
// leaves the app in degraded mode; the affected pages answer with advisories.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, pgrepo.PoolConfig{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
		AppName:  "cos-api",
	}); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := redrepo.Ping(pingCtx, redisClient); err != nil {
		log.Warn("redis unreachable, sessions will fail until it recovers", zap.Error(err))
	}
	cancel()

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
		bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s3infra.EnsureBucket(bucketCtx, s3Client, cfg.S3.Bucket, cfg.S3.Region); err != nil {
			log.Warn("evidence bucket unavailable, uploads will fail until it recovers", zap.Error(err))
		}
		cancel()
	}

	var (
		notifier notify.Notifier = notify.Nop{}
		telegram *notify.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		if bot, err := tginfra.NewBot(cfg.Telegram.BotToken); err != nil {
			log.Warn("telegram init failed, notifications disabled", zap.Error(err))
		} else {
			telegram = notify.NewTelegramNotifier(bot, cfg.Telegram.ModeratorsChatID, log)
			notifier = telegram
		}
	}

	var cipher *security.SecretCipher
	if cfg.Auth.TOTPSecretKey != "" {
		if c, err := security.NewSecretCipher(cfg.Auth.TOTPSecretKey); err != nil {
			log.Warn("totp secret key rejected, two-factor setup disabled", zap.Error(err))
		} else {
			cipher = c
		}
	}

	caseRepo := pgrepo.NewCaseRepo(pool)
	verificationRepo := pgrepo.NewVerificationRepo(pool)
	accountRepo := pgrepo.NewAccountRepo(pool)
	evidenceRepo := pgrepo.NewEvidenceRepo(pool)
	referenceRepo := pgrepo.NewReferenceRepo(pool)

	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL),
		Sessions: redrepo.NewSessionRepo(redisClient),
		Accounts: accountRepo,
		Resets:   redrepo.NewResetTokenRepo(redisClient),
		Limiter:  ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), "signin", cfg.Auth.SignInMaxAttempts, cfg.Auth.SignInWindow),
		Cipher:   cipher,
		Logger:   log,
	}, authsvc.Config{
		RefreshTTL:    cfg.Auth.RefreshTTL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		TOTPIssuer:    cfg.Auth.TOTPIssuer,
	})

	evidenceLimits := evidencesvc.Limits{
		MaxFiles:     cfg.Evidence.MaxFiles,
		MaxFileBytes: cfg.Evidence.MaxFileBytes,
		Concurrency:  cfg.Evidence.UploadConcurrency,
		SignedURLTTL: cfg.S3.PresignTTL,
	}
	evidenceService := evidencesvc.NewService(
		evidenceRepo,
		evidencesvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.Region),
		evidenceLimits,
		log,
	)
	caseService := casesvc.NewService(casesvc.Dependencies{
		Cases:     caseRepo,
		Reference: referenceRepo,
		Cache:     redrepo.NewCacheRepo(redisClient),
		Evidence:  evidenceService,
		Notifier:  notifier,
		Logger:    log,
	})
	verificationService := verificationsvc.NewService(verificationRepo, notifier, log)
	accountService := accountsvc.NewService(accountRepo, log)
	dashboardService := dashboardsvc.NewService(caseRepo, verificationRepo, accountRepo, log)

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		CaseService:         caseService,
		VerificationService: verificationService,
		AccountService:      accountService,
		DashboardService:    dashboardService,
		EvidenceLimits:      evidenceLimits,
		Cookies: handlers.SessionCookies{
			AccessName:  cfg.Auth.AccessCookie,
			RefreshName: cfg.Auth.RefreshCookie,
			Secure:      cfg.Auth.CookieSecure,
		},
		GatePolicy: cfg.Auth.GateFailurePolicy,
		Logger:     log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		telegram:   telegram,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.telegram != nil {
		if err := a.telegram.Wait(ctx); err != nil {
			a.logger.Warn("pending notifications abandoned", zap.Error(err))
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
