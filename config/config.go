package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	AppUrl    string
	JWTKey    string
	SaltRound int

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SendGridApiKey    string
	SendGridFromEmail string
	SendGridFromName  string

	AwsRegion          string
	AwsAccessKeyId     string
	AwsSecretAccessKey string
	AwsBucketName      string
	AwsCdnDomain       string

	// Job pipeline tuning. Flow-control knobs, not business rules.
	JobBatchSize       int
	CertBatchSize      int
	CertBatchDelayMs   int
	MaxBackfillBatches int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		AppUrl:    getEnv("APP_URL", "http://localhost:3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "certhub"),

		SendGridApiKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@example.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Certificates Team"),

		AwsRegion:          getEnv("AWS_REGION", "us-east-1"),
		AwsAccessKeyId:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AwsSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AwsBucketName:      getEnv("AWS_BUCKET_NAME", ""),
		AwsCdnDomain:       getEnv("AWS_CDN_DOMAIN", ""),

		JobBatchSize:       getEnvInt("JOB_BATCH_SIZE", 10),
		CertBatchSize:      getEnvInt("CERT_BATCH_SIZE", 50),
		CertBatchDelayMs:   getEnvInt("CERT_BATCH_DELAY_MS", 1000),
		MaxBackfillBatches: getEnvInt("MAX_BACKFILL_BATCHES", 10),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridApiKey == "" {
		log.Println("Warning: SENDGRID_API_KEY is empty. Email delivery will fail.")
	}
	if AppConfig.AwsBucketName == "" {
		log.Println("Warning: AWS_BUCKET_NAME is empty. Certificate uploads will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
