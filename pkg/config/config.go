package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Detectors DetectorConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// DetectorConfig holds tunable fraud-detector thresholds.
// Every value here can be overridden per deployment/region without a code change.
type DetectorConfig struct {
	SimilarityThreshold   float64 // minimum pairwise similarity before an account is a suspect
	AccountAlertThreshold float64 // minimum multi-accounting risk score to emit an alert
	HighRiskThreshold     float64 // critical severity band for the account engine
	GPSAlertThreshold     float64 // minimum GPS confidence score to emit an alert
	MaxSpeedKmh           float64 // speeds above this are physically impossible for a ride
	MaxTeleportDistanceM  float64 // meters; larger jumps in under MinUpdateIntervalS are teleports
	MinUpdateIntervalS    float64 // seconds between GPS updates below which a large jump is a teleport
	CandidateConcurrency  int     // worker limit for candidate-pool comparison
	AnalysisCacheTTL      int     // seconds to cache per-subject analysis summaries
	ServiceAreas          string  // semicolon-separated "Name:minLat:maxLat:minLng:maxLng" boxes; empty keeps defaults
	RestrictedZones       string  // semicolon-separated "Name:lat:lng:radiusMeters" circles; empty keeps defaults
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "trustsafety"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Detectors: DetectorConfig{
			SimilarityThreshold:   getEnvAsFloat("SIMILARITY_THRESHOLD", 70),
			AccountAlertThreshold: getEnvAsFloat("ACCOUNT_ALERT_THRESHOLD", 70),
			HighRiskThreshold:     getEnvAsFloat("HIGH_RISK_THRESHOLD", 85),
			GPSAlertThreshold:     getEnvAsFloat("GPS_ALERT_THRESHOLD", 70),
			MaxSpeedKmh:           getEnvAsFloat("MAX_SPEED_KMH", 200),
			MaxTeleportDistanceM:  getEnvAsFloat("MAX_TELEPORT_DISTANCE_M", 10000),
			MinUpdateIntervalS:    getEnvAsFloat("MIN_UPDATE_INTERVAL_S", 2),
			CandidateConcurrency:  getEnvAsInt("CANDIDATE_CONCURRENCY", 8),
			AnalysisCacheTTL:      getEnvAsInt("ANALYSIS_CACHE_TTL", 600),
			ServiceAreas:          getEnv("SERVICE_AREAS", ""),
			RestrictedZones:       getEnv("RESTRICTED_ZONES", ""),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
