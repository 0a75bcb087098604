package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"roadtrip/auth"
	"roadtrip/autocom"
	"roadtrip/config"
	"roadtrip/db"
	"roadtrip/logger"
	"roadtrip/middleware"
	"roadtrip/mq"
	"roadtrip/places"
	"roadtrip/pois"
	"roadtrip/ratelim"
	"roadtrip/rdx"
	"roadtrip/routes"
	"roadtrip/trips"
	"roadtrip/users"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type stores struct {
	pois       pois.Store
	users      users.Store
	localities autocom.Index
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Store == "memory" {
		logrus.Warn("using in-memory stores, data is lost on restart")
		return stores{pois: pois.NewMemoryStore(), users: users.NewMemoryStore(), localities: autocom.NewMemoryIndex()}, nil
	}
	if err := db.Init(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
		return stores{}, err
	}
	return stores{
		pois:  pois.NewMongoStore(db.POICollection),
		users: users.NewMongoStore(db.UserCollection),
	}, nil
}

// connectRedis is optional; a failure only disables caching and Redis events.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logrus.WithError(err).Warn("redis unavailable, continuing without it")
		return nil
	}
	return client
}

func newFinder(cfg config.Config, client *redis.Client) places.Finder {
	if cfg.GoogleMapsAPIKey == "" {
		logrus.Warn("GOOGLE_MAPS_API_KEY is not set, external place search returns no results")
		return places.Unconfigured{}
	}
	finder, err := places.NewGoogleFinder(cfg.GoogleMapsAPIKey)
	if err != nil {
		logrus.WithError(err).Error("google places client")
		return places.Unconfigured{}
	}
	if client == nil {
		return finder
	}
	return places.NewCachedFinder(finder, rdx.NewCache(client, "places:"), cfg.PlacesCacheTTL)
}

// localityIndex reads what the importer wrote to Redis; without Redis
// suggestions come back empty.
func localityIndex(s stores, client *redis.Client) autocom.Index {
	if client != nil {
		return autocom.NewRedisIndex(client, autocom.LocalitiesKey)
	}
	if s.localities != nil {
		return s.localities
	}
	return autocom.NewMemoryIndex()
}

func newPublisher(cfg config.Config, client *redis.Client) mq.Publisher {
	switch cfg.MQBackend {
	case "nats":
		pub, err := mq.ConnectNats(cfg.NatsURL, 5)
		if err != nil {
			logrus.WithError(err).Warn("nats unavailable, trip events disabled")
			return mq.Noop{}
		}
		return pub
	case "redis":
		if client == nil {
			logrus.Warn("MQ_BACKEND=redis without a reachable REDIS_ADDR, trip events disabled")
			return mq.Noop{}
		}
		return mq.NewRedisPublisher(client)
	}
	return mq.Noop{}
}

func setupRouter(cfg config.Config, s stores, finder places.Finder, bus mq.Publisher, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	secret := []byte(cfg.JWTSecret)

	routes.AddHealthRoutes(router)
	routes.AddPoiRoutes(router, pois.NewHandler(pois.NewService(s.pois)))
	routes.AddLocalityRoutes(router, autocom.NewHandler(s.localities))
	routes.AddPlaceRoutes(router, places.NewHandler(finder))
	routes.AddAuthRoutes(router, auth.NewHandler(s.users, secret), rateLimiter)
	routes.AddTripRoutes(router, trips.NewHandler(s.users, bus), middleware.Identity{
		Secret:      secret,
		AllowHeader: cfg.AuthHeaderIdentity,
	})
	return router
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStores(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open stores")
	}
	redisClient := connectRedis(ctx, cfg)
	bus := newPublisher(cfg, redisClient)
	s.localities = localityIndex(s, redisClient)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitPerMinute)
	rateLimiter.StartJanitor(ctx, 10*time.Minute)

	router := setupRouter(cfg, s, newFinder(cfg, redisClient), bus, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "x-user-id"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	port := cfg.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		if err := bus.Close(); err != nil {
			logrus.WithError(err).Warn("closing message bus")
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	})

	go func() {
		logrus.Infof("server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received; shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	db.Disconnect(shutdownCtx)
	logrus.Info("server stopped cleanly")
}
