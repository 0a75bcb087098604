package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port               string
	MongoURI           string
	MongoDatabase      string
	Store              string
	RedisAddr          string
	RedisPassword      string
	PlacesCacheTTL     time.Duration
	GoogleMapsAPIKey   string
	JWTSecret          string
	AuthHeaderIdentity bool
	MQBackend          string
	NatsURL            string
	RateLimitPerMinute int
	LogFile            string
	LogLevel           string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on env vars")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Port:               getEnv("PORT", "5001"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "epicroadtrip"),
		Store:              strings.ToLower(getEnv("STORE", "mongo")),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		PlacesCacheTTL:     getDuration("PLACES_CACHE_TTL", 10*time.Minute),
		GoogleMapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		AuthHeaderIdentity: getBool("AUTH_HEADER_IDENTITY", true),
		MQBackend:          strings.ToLower(getEnv("MQ_BACKEND", "")),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 30),
		LogFile:            getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
