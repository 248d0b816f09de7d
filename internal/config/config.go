package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string
	GymTimezone     string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	QRTokenTTL      time.Duration

	CookieDomain string
	CookieSecure bool

	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOBucketProgress string
	MinIOPublicURL      string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PasswordResetTTL       time.Duration
	PasswordResetOTPLength int

	PaymentGatewayBaseURL   string
	PaymentGatewaySecretKey string
	PaymentReturnURL        string

	ProgressPhotoMaxBytes int64
	ProgressPhotoMaxDim   int
}

// Load reads configuration from the environment. Missing required keys are a
// startup failure: must() panics so a misconfigured process never serves.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	otpLen := 6
	if v, err := strconv.Atoi(getenv("PASSWORD_RESET_OTP_LENGTH", "6")); err == nil && v > 0 {
		otpLen = v
	}

	photoMax := int64(5 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("PROGRESS_PHOTO_MAX_BYTES", "5242880"), 10, 64); err == nil && v > 0 {
		photoMax = v
	}

	photoDim := 1920
	if v, err := strconv.Atoi(getenv("PROGRESS_PHOTO_MAX_DIMENSION", "1920")); err == nil && v > 0 {
		photoDim = v
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		GoogleAudience:  getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		GymTimezone:     getenv("GYM_TIMEZONE", "UTC"),

		AccessTokenTTL:  mustDuration("ACCESS_TOKEN_TTL", "15m"),
		RefreshTokenTTL: mustDuration("REFRESH_TOKEN_TTL", "720h"),
		QRTokenTTL:      mustDuration("QR_TOKEN_TTL", "5m"),

		CookieDomain: getenv("COOKIE_DOMAIN", ""),
		CookieSecure: getenv("COOKIE_SECURE", "true") == "true",

		MinIOEndpoint:       must("MINIO_ENDPOINT"),
		MinIOAccessKey:      must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:      must("MINIO_SECRET_KEY"),
		MinIOUseSSL:         getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketProgress: getenv("MINIO_BUCKET_PROGRESS", "gympoint-progress"),
		MinIOPublicURL:      getenv("MINIO_PUBLIC_URL", ""),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		PasswordResetTTL:       mustDuration("PASSWORD_RESET_TTL", "15m"),
		PasswordResetOTPLength: otpLen,

		PaymentGatewayBaseURL:   getenv("PAYMENT_GATEWAY_BASE_URL", ""),
		PaymentGatewaySecretKey: getenv("PAYMENT_GATEWAY_SECRET_KEY", ""),
		PaymentReturnURL:        getenv("PAYMENT_RETURN_URL", ""),

		ProgressPhotoMaxBytes: photoMax,
		ProgressPhotoMaxDim:   photoDim,
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

func mustDuration(k, d string) time.Duration {
	raw := getenv(k, d)
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		panic("invalid duration for " + k + ": " + raw)
	}
	return parsed
}
