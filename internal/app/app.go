package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tutorhub/tutor-server/handlers"
	"github.com/tutorhub/tutor-server/internal/config"
	"github.com/tutorhub/tutor-server/internal/database"
	"github.com/tutorhub/tutor-server/internal/oidc"
	"github.com/tutorhub/tutor-server/internal/revocation"
	"github.com/tutorhub/tutor-server/internal/storage"
	"github.com/tutorhub/tutor-server/internal/tokens"
	"github.com/tutorhub/tutor-server/internal/tutorial/handler"
	"github.com/tutorhub/tutor-server/internal/tutorial/repository"
	"github.com/tutorhub/tutor-server/internal/tutorial/service"
	"github.com/tutorhub/tutor-server/internal/users"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/metrics"
	"github.com/tutorhub/tutor-server/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

const mongoConnectAttempts = 5

// Deps are the collaborators the router is assembled from. Only Tutorials is
// required; every other field switches a feature on when set.
type Deps struct {
	Tutorials *service.Service
	Verifier  middleware.Verifier
	Redis     *redis.Client
	Users     *users.Service
	Covers    handler.CoverStore
}

// NewRouter builds the gin engine with the global middleware chain and all routes.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.CORS.AllowedOrigins))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	opts := []handler.Option{handler.WithTokenTTL(cfg.JWT.AccessTokenTTL)}
	if d.Verifier != nil {
		opts = append(opts, handler.WithVerifier(d.Verifier))
	}
	if d.Redis != nil {
		opts = append(opts, handler.WithRevocations(revocation.New(d.Redis)))
	}
	if d.Users != nil {
		opts = append(opts, handler.WithUsers(d.Users))
	}
	if d.Covers != nil {
		opts = append(opts, handler.WithCovers(d.Covers))
	}
	handler.RegisterTutorialRoutes(r, d.Tutorials, opts...)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// SelectVerifier picks the identity provider: OIDC discovery when an issuer is
// configured, then the shared HS256 secret, then the insecure claims reader.
// It returns nil when none is configured; guarded routes then answer 401.
func SelectVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if issuer := cfg.Keycloak.Issuer(); issuer != "" {
		v, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			logger.Infof("identity: OIDC issuer %s", issuer)
			return v
		}
		logger.Warnf("failed to initialize OIDC verifier for %s: %v", issuer, err)
	}
	if cfg.JWT.Secret != "" {
		logger.Infof("identity: HS256 shared secret")
		return tokens.NewHMACVerifier(cfg.JWT.Secret)
	}
	if cfg.JWT.AllowInsecureToken {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	logger.Warn("no identity provider configured; guarded routes will reject every request")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer connects the backing stores named in cfg and returns the HTTP server
// plus a closer for those connections.
func NewServer(ctx context.Context, cfg *config.Config) (*http.Server, io.Closer, error) {
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts, time.Second)
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})}
	db := client.Database(cfg.MongoDB.Database)

	deps := Deps{
		Tutorials: tutorialService(ctx, db.Collection(cfg.MongoDB.Collection)),
		Verifier:  SelectVerifier(ctx, cfg),
		Users:     users.NewService(users.NewMongoProfileRepository(db.Collection("users"))),
	}

	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = rc.Close()
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			deps.Redis = rc
			closers = append(closers, rc)
		}
	}

	if cfg.MinIO.Endpoint != "" {
		covers, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("cover storage disabled: %v", err)
		} else {
			deps.Covers = covers
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	logger.Info("server configured",
		"addr", srv.Addr,
		"identity", deps.Verifier != nil,
		"redis", deps.Redis != nil,
		"covers", deps.Covers != nil,
	)
	return srv, resourceCloser{closers: closers}, nil
}

func tutorialService(ctx context.Context, col *mongo.Collection) *service.Service {
	repo := repository.NewMongoRepo(col)
	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureIndexes(ictx); err != nil {
		logger.Warnf("ensure tutorial indexes: %v", err)
	}
	return service.New(repo)
}

// Describe is a one-line summary of cfg for the startup log.
func Describe(cfg *config.Config) string {
	return fmt.Sprintf("env=%s oidc=%v hs256=%v redis=%v minio=%v rate_limit=%v",
		cfg.Server.Environment, cfg.Keycloak.Issuer() != "", cfg.JWT.Secret != "",
		cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.RateLimit.Enabled)
}
