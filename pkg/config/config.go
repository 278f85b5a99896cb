package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	MongoURI string
	MongoDB  string
	// PostgresUrl backs notifications and chat transcripts; SQLitePath is used when it is empty
	PostgresUrl  string
	SQLitePath   string
	MaxOpenConns int
	DBTimeout    time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail        string
	AdminPasswordHash string

	AllowedOrigins []string

	GoogleMapsAPIKey        string
	FirebaseCredentialsPath string

	Mail MailConfig

	OtpTTL time.Duration

	Storage StorageConfig
}

// MailConfig configures the SMTP transport used for OTP mails
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig selects where uploaded images are kept
type StorageConfig struct {
	Type      string // local or s3
	UploadDir string
	BaseURL   string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Load reads the environment, after loading an optional .env file
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "5000"),
		Env:                     getEnv("ENV", "development"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                 getEnv("MONGO_DATABASE", "prehome"),
		PostgresUrl:             getEnv("POSTGRES_CONN_STR", ""),
		SQLitePath:              getEnv("SQLITE_PATH", "prehome.db"),
		MaxOpenConns:            getInt("DB_MAX_OPEN_CONNS", 10),
		DBTimeout:               getDuration("DB_TIMEOUT", 10*time.Second),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTTTL:                  getDuration("JWT_TTL", time.Hour),
		AdminEmail:              getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:       getEnv("ADMIN_PASSWORD_HASH", ""),
		AllowedOrigins:          getList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"}),
		GoogleMapsAPIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", getEnv("SMTP_USER", "")),
		},
		OtpTTL: getDuration("OTP_TTL", 10*time.Minute),
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
			BaseURL:   getEnv("UPLOAD_BASE_URL", "/uploads"),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "auto"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
	}
}

// ErrMissingJWTSecret is returned by Validate outside development when JWT_SECRET is unset
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Validate checks settings that have no safe default. In development an unset
// JWT secret is replaced by a random one, so tokens die with the process.
func (c *Config) Validate() error {
	if c.JWTSecret != "" {
		return nil
	}
	if c.Env != "development" {
		return fmt.Errorf("%w when ENV=%q", ErrMissingJWTSecret, c.Env)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate jwt secret: %w", err)
	}
	c.JWTSecret = hex.EncodeToString(key)
	log.Println("JWT_SECRET not set, using a random per-process secret.")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
