package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	Env          string // "development" or "production"
	DatabasePath string

	UploadPath    string // Base path for uploaded resumes
	MaxUploadSize int64  // In bytes

	JWTSecret     string
	JWTExpiry     time.Duration
	CookieExpiry  time.Duration
	ResetTokenTTL time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	GeocoderURL       string
	GeocoderUserAgent string

	AllowedOrigins []string
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_SIZE", "2097152"), 10, 64)
	if err != nil {
		return nil, err
	}

	jwtExpiry, err := time.ParseDuration(getEnv("JWT_EXPIRES", "168h"))
	if err != nil {
		return nil, err
	}

	cookieDays, err := strconv.Atoi(getEnv("COOKIE_EXPIRES_DAYS", "7"))
	if err != nil {
		return nil, err
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:   port,
		Env:          getEnv("APP_ENV", "development"),
		DatabasePath: getEnv("DATABASE_PATH", "./jobster.db"),

		UploadPath:    getEnv("UPLOAD_PATH", "./public/uploads"),
		MaxUploadSize: maxUpload,

		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiry:     jwtExpiry,
		CookieExpiry:  time.Duration(cookieDays) * 24 * time.Hour,
		ResetTokenTTL: 30 * time.Minute,

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: smtpPort,
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "noreply@jobster.local"),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "jobster-be/1.0"),

		AllowedOrigins: []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
