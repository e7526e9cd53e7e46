package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/finsim/auth-service/handlers"
	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/database"
	"github.com/finsim/auth-service/internal/signing"
	"github.com/finsim/auth-service/internal/tokens"
	"github.com/finsim/auth-service/internal/tokenstore"
	"github.com/finsim/auth-service/pkg/logger"
	"github.com/finsim/auth-service/pkg/metrics"
	"github.com/finsim/auth-service/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: redis=%v mongo=%v mode=%s lifetime=%s secret_set=%v",
		cfg.Redis.Host != "", cfg.MongoDB.URI != "", cfg.Token.Mode, cfg.Token.Lifetime, cfg.Token.Secret != "")

	signer, err := signing.Load(cfg.Token.Secret)
	if err != nil {
		logger.Fatalf("failed to initialize signing key: %v", err)
	}

	ctx := context.Background()

	// token store: Redis preferred, Mongo as fallback when configured
	var repo tokenstore.Repository
	var storePing func(context.Context) error
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		// retry/backoff to tolerate startup races with the store container
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			redisClient, errConn = database.ConnectRedis(ctx, cfg.Redis.Host+":"+cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to Redis: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to Redis after %d attempts: %v", maxAttempts, errConn)
		}
		repo = tokenstore.NewRedisRepository(redisClient, "")
		storePing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Infof("using Redis token store at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	} else if cfg.MongoDB.URI != "" {
		client, errConn := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB: %v", errConn)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		col := client.Database(cfg.MongoDB.Database).Collection("tokens")
		mrepo, errRepo := tokenstore.NewMongoRepository(ctx, col)
		if errRepo != nil {
			logger.Fatalf("could not initialize Mongo token store: %v", errRepo)
		}
		repo = mrepo
		storePing = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		logger.Infof("using MongoDB token store (database %s)", cfg.MongoDB.Database)
	} else {
		logger.Fatalf("no token store configured: set REDIS_HOST or MONGODB_URI")
	}

	issuer := tokens.NewIssuer(repo, signer, cfg.Token.Mode, cfg.Token.Lifetime)
	verifier := tokens.NewVerifier(repo, signer, cfg.Token.Mode)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint: 200 only when the token store answers
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := storePing(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "store": err.Error(), "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "uptime": time.Since(startTime).String()})
	})

	h := handlers.NewAuthHandler(cfg, issuer, verifier)
	h.Register(r.Group("/"))
	handlers.RegisterStatus(r)
	handlers.RegisterSwagger(r)

	// protected sample endpoint returning the verified session identity
	api := r.Group("/api/v1")
	api.GET("/session", middleware.AuthMiddleware(verifier), func(c *gin.Context) {
		identity, _ := c.Get(middleware.IdentityKey)
		c.JSON(http.StatusOK, gin.H{"session": identity})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting auth service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
