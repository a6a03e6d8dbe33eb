package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/arunprabus/health-api/docs"
	"github.com/arunprabus/health-api/internal/config"
	"github.com/arunprabus/health-api/internal/db"
	"github.com/arunprabus/health-api/internal/handler"
	gh "github.com/arunprabus/health-api/internal/http"
	"github.com/arunprabus/health-api/internal/identity"
	"github.com/arunprabus/health-api/internal/network"
	"github.com/arunprabus/health-api/internal/ratelimit"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/internal/scheduler"
	"github.com/arunprabus/health-api/internal/service"
	"github.com/arunprabus/health-api/internal/storage"
	"github.com/arunprabus/health-api/pkg/logger"
	"github.com/arunprabus/health-api/pkg/snowflake"
)

const (
	snowflakeNode    = 1
	shutdownTimeout  = 10 * time.Second
	requestBodyLimit = "1M" // uploads carry their own limit
	jwksTimeout      = 10 * time.Second
)

// @title Health Dashboard API
// @version 1.0
// @description Health profile, document upload and authentication API.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "module", "main", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(snowflakeNode); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	users := repository.NewUserRepository(database)
	profiles := repository.NewProfileRepository(database)
	uploads := repository.NewUploadRepository(database)
	settings := repository.NewSettingsRepository(database)
	health := repository.NewHealthRepository(database)

	clients, err := network.NewClientFactory(cfg.OutboundProxy)
	if err != nil {
		return err
	}

	store, filesDir, err := newObjectStore(ctx, cfg, clients)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(users, settings, service.AuthConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL})
	authenticators := []service.Authenticator{authService}

	var cognitoHandler *handler.CognitoHandler
	if cfg.Cognito.Enabled() {
		cognitoService, err := newCognitoService(ctx, cfg, users, clients)
		if err != nil {
			return err
		}
		authenticators = append(authenticators, cognitoService)
		cognitoHandler = handler.NewCognitoHandler(cognitoService)
		logger.Info("managed identity enabled", "module", "main", "user_pool", cfg.Cognito.UserPoolID)
	}

	profileService := service.NewProfileService(profiles, store)
	uploadService := service.NewUploadService(profiles, uploads, store, cfg.Storage.MaxBytes)

	apiLimiter, err := ratelimit.New(cfg.RateLimit.Limiter())
	if err != nil {
		return fmt.Errorf("api limiter: %w", err)
	}
	authLimiter, err := ratelimit.New(cfg.AuthRateLimit.Limiter())
	if err != nil {
		return fmt.Errorf("auth limiter: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := gh.NewMetrics(registry)

	e := gh.NewRouter(gh.Deps{
		Auth:          handler.NewAuthHandler(authService, cfg.Production()),
		Cognito:       cognitoHandler,
		Profile:       handler.NewProfileHandler(profileService),
		Upload:        handler.NewUploadHandler(uploadService),
		Health:        handler.NewHealthHandler(health, time.Now()),
		Authenticator: service.NewChainAuthenticator(authenticators...),
		APILimiter:    apiLimiter,
		AuthLimiter:   authLimiter,
		Metrics:       metrics,
		BasePath:      cfg.BasePath,
		FilesDir:      filesDir,
		CORSOrigins:   cfg.CORSOrigins,
		BodyLimit:     requestBodyLimit,
		TrustProxy:    cfg.TrustProxy,
		Swagger:       cfg.Swagger,
		Production:    cfg.Production(),
	})

	if cfg.SweepInterval > 0 {
		sweeper := scheduler.New(scheduler.Task{
			Name: "ratelimit-sweep",
			Run:  gh.SweepLimiters(map[string]*ratelimit.Limiter{"api": apiLimiter, "auth": authLimiter}, metrics),
		}, cfg.SweepInterval)
		sweeper.Start()
		defer sweeper.Stop()
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "module", "main", "addr", cfg.Addr, "env", cfg.Env, "storage", store.Info().Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down", "module", "main")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	apiLimiter.Reset()
	authLimiter.Reset()
	return nil
}

// newObjectStore returns the configured store and, for the local backend, the directory
// the router serves documents from.
func newObjectStore(ctx context.Context, cfg config.Config, clients *network.ClientFactory) (storage.ObjectStore, string, error) {
	if cfg.Storage.Backend == config.BackendLocal {
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.BasePath+gh.FilesPrefix)
		if err != nil {
			return nil, "", err
		}
		logger.Warn("using local document storage", "module", "main", "dir", cfg.Storage.UploadDir)
		return local, cfg.Storage.UploadDir, nil
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.Storage.Region, clients)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}
	return storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Region), "", nil
}

func newCognitoService(ctx context.Context, cfg config.Config, users repository.UserRepository, clients *network.ClientFactory) (service.CognitoAuthService, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Cognito.Region, clients)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	provider := identity.NewCognitoProvider(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.Cognito.ClientID, cfg.Cognito.RPS)
	verifier := identity.NewVerifier(identity.VerifierConfig{
		Region:     cfg.Cognito.Region,
		UserPoolID: cfg.Cognito.UserPoolID,
		ClientID:   cfg.Cognito.ClientID,
		HTTPClient: clients.NewHTTPClient(jwksTimeout),
	})
	return service.NewCognitoAuthService(provider, verifier, users), nil
}

func loadAWSConfig(ctx context.Context, region string, clients *network.ClientFactory) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(clients.NewHTTPClient(0)),
	)
}
