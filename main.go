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

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/handlers"
	"github.com/gazra/gazra/backend/go-services/internal/auth"
	"github.com/gazra/gazra/backend/go-services/internal/config"
	"github.com/gazra/gazra/backend/go-services/internal/database"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/internal/media"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
	"github.com/gazra/gazra/backend/go-services/pkg/metrics"
	"github.com/gazra/gazra/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: log=%s store=%s keycloak=%v redis=%v minio=%v", logger.LevelString(), cfg.Store.Backend, cfg.Keycloak.Issuer() != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("document store unavailable: %v", err)
	}
	defer closeStore()

	ready := map[string]handlers.Pinger{"store": store}

	// Redis backs the shared rate limiter and the logout blacklist
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		}
		defer rdb.Close()
		ready["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var mediaSvc *media.Service
	if cfg.MinIO.Endpoint != "" {
		objs, err := media.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("media storage disabled: %v", err)
		} else {
			mediaSvc = media.NewService(objs, cfg.MinIO.URLExpiry)
		}
	}

	issuer := auth.NewIssuer(cfg.JWT.Secret)
	verifier := auth.Chain{issuer}
	if iss := cfg.Keycloak.Issuer(); iss != "" {
		oidcVer, err := auth.NewOIDCVerifier(ctx, iss, cfg.Keycloak.ClientID, cfg.Keycloak.AdminRole)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = append(auth.Chain{oidcVer}, verifier...)
		}
	}
	blacklist := auth.NewBlacklist(rdb)
	requireAuth := middleware.AuthMiddleware(verifier, blacklist)

	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	handlers.RegisterHealth(r, ready)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cols := handlers.NewCollectionsHandler(store)
	cols.RegisterPublic(r, limit)
	mediaH := handlers.NewMediaHandler(mediaSvc)
	mediaH.RegisterPublic(r)

	creds := auth.Credentials{Username: cfg.Admin.Username, PasswordHash: cfg.Admin.PasswordHash}
	handlers.NewAuthHandler(creds, issuer, blacklist, cfg.JWT.AccessTokenTTL).Register(r, limit, requireAuth)

	admin := r.Group("/admin/api", requireAuth)
	cols.RegisterAdmin(admin)
	mediaH.RegisterAdmin(admin)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      c.Handler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting site API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// openStore connects the configured document store. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, func(), error) {
	if cfg.Store.Backend != config.BackendMongo {
		logger.Warnf("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), func() {}, nil
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return docstore.NewMongoStore(client.Database(cfg.MongoDB.Database)), closeFn, nil
}
