package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	JWTSecret         string
	MongoURI          string
	DBName            string
	RedisAddr         string // empty disables the cross-instance version feed
	SkipAuth          bool
	Environment       string
	AppId             string
	MaxRoleDepth      int // role inheritance chain depth guard
	DecisionCacheSize int // bounded LRU entry count
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "go-taskhub"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "go-taskhub"),
		MaxRoleDepth:      getEnvInt("MAX_ROLE_DEPTH", 32),
		DecisionCacheSize: getEnvInt("DECISION_CACHE_SIZE", 4096),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Printf("Invalid value for %s, using default %d\n", key, fallback)
	}
	return fallback
}
