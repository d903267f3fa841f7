package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort       string  // Application port
	DBUser        string  // Database user
	DBPassword    string  // Database password
	DBHost        string  // Database host
	DBPort        string  // Database port
	DBName        string  // Database name
	JWTSecret     string  // JWT secret key
	RedisAddr     string  // Redis server address
	RedisPass     string  // Redis password
	RedisDB       int     // Redis database number
	MarketAPIKey  string  // Alpha Vantage API key
	MarketBaseURL string  // Quote API base URL, overridable for tests
	StartingCash  float64 // Cash seeded into new accounts
	QuoteTTL      int     // Quote cache TTL in seconds
	SnapshotSpec  string  // Cron spec for the price snapshot job, empty disables it
	IsProd        bool    // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	startingCash, err := strconv.ParseFloat(os.Getenv("STARTING_CASH"), 64)
	if err != nil || startingCash < 0 {
		startingCash = 10000 // Default opening balance
	}
	quoteTTL, err := strconv.Atoi(os.Getenv("QUOTE_TTL_SECONDS"))
	if err != nil || quoteTTL <= 0 {
		quoteTTL = 300 // Default quote cache TTL
	}
	baseURL := os.Getenv("MARKET_BASE_URL")
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &Config{
		AppPort:       os.Getenv("APP_PORT"),              // Application port
		DBUser:        os.Getenv("DB_USER"),               // Database user
		DBPassword:    os.Getenv("DB_PASSWORD"),           // Database password
		DBHost:        os.Getenv("DB_HOST"),               // Database host
		DBPort:        os.Getenv("DB_PORT"),               // Database port
		DBName:        os.Getenv("DB_NAME"),               // Database name
		JWTSecret:     os.Getenv("JWT_SECRET"),            // JWT secret key
		RedisAddr:     os.Getenv("REDIS_ADDR"),            // Redis server address
		RedisPass:     os.Getenv("REDIS_PASS"),            // Redis password
		RedisDB:       redisDB,                            // Redis database number
		MarketAPIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"), // Quote API key
		MarketBaseURL: baseURL,                            // Quote API base URL
		StartingCash:  startingCash,                       // Opening balance for new users
		QuoteTTL:      quoteTTL,                           // Quote cache TTL in seconds
		SnapshotSpec:  os.Getenv("PRICE_SNAPSHOT_CRON"),   // Snapshot job schedule
		IsProd:        os.Getenv("IS_PROD") == "true",     // Is production environment
	}
}
