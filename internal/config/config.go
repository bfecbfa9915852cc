package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ienerzy/auth-service/internal/utils"
)

// Config holds all application configuration, including secrets and limits.
type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	TokenExpiry        time.Duration
	RefreshTokenExpiry time.Duration

	OTPLength      int
	OTPExpiry      time.Duration
	OTPMaxAttempts int

	LoginLimitPerWindow int
	OTPLimitPerWindow   int
	RateLimitWindow     time.Duration
	// RateLimitFailOpen keeps the limiter advisory: a counter-storage fault
	// allows the request instead of blocking all traffic. Deliberate
	// availability-over-strictness tradeoff; do not flip silently.
	RateLimitFailOpen bool

	RSAPrivateKey *rsa.PrivateKey
	RSAPublicKey  *rsa.PublicKey

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string
	SendGridAPIKey   string
	SendGridFrom     string
	// SMSSandboxMode skips the Twilio call and logs the code instead.
	SMSSandboxMode bool
}

const (
	AppName = "ienerzy-auth-service"

	DefaultTokenExpiry        = 24 * time.Hour
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour

	OTPLength             = 6
	DefaultOTPExpiry      = 5 * time.Minute
	DefaultOTPMaxAttempts = 3

	DefaultLoginLimitPerWindow = 5
	DefaultOTPLimitPerWindow   = 3
	DefaultRateLimitWindow     = time.Minute
)

// LoadConfig reads configuration from the environment (optionally seeded
// from a .env file) and terminates the process on anything unusable.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found; relying on process environment")
	}

	appPort := getEnv("APP_PORT", "8080")
	appUrl := getEnv("APP_URL", "http://localhost:"+appPort)

	dbUrl := os.Getenv("DATABASE_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DATABASE_URL is required")
	}

	privateKey, publicKey := loadRSAKeys()

	return &Config{
		AppName: AppName,
		AppPort: appPort,
		AppUrl:  appUrl,
		DBUrl:   dbUrl,

		TokenExpiry:        getDurationEnv("TOKEN_EXPIRY", DefaultTokenExpiry),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiry),

		OTPLength:      OTPLength,
		OTPExpiry:      getDurationEnv("OTP_EXPIRY", DefaultOTPExpiry),
		OTPMaxAttempts: getIntEnv("OTP_MAX_ATTEMPTS", DefaultOTPMaxAttempts),

		LoginLimitPerWindow: getIntEnv("LOGIN_RATE_LIMIT", DefaultLoginLimitPerWindow),
		OTPLimitPerWindow:   getIntEnv("OTP_RATE_LIMIT", DefaultOTPLimitPerWindow),
		RateLimitWindow:     getDurationEnv("RATE_LIMIT_WINDOW", DefaultRateLimitWindow),
		RateLimitFailOpen:   getBoolEnv("RATE_LIMIT_FAIL_OPEN", true),

		RSAPrivateKey: privateKey,
		RSAPublicKey:  publicKey,

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  os.Getenv("TWILIO_FROM_PHONE"),
		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:     getEnv("SENDGRID_FROM_EMAIL", "no-reply@ienerzy.in"),
		SMSSandboxMode:   getBoolEnv("SMS_SANDBOX_MODE", false),
	}
}

// loadRSAKeys decodes the base64-encoded PEM signing keypair from the
// environment.
func loadRSAKeys() (*rsa.PrivateKey, *rsa.PublicKey) {
	privB64 := os.Getenv("JWT_PRIVATE_KEY_BASE64")
	if privB64 == "" {
		utils.Logger.Fatal("JWT_PRIVATE_KEY_BASE64 is required")
	}
	privPEM, err := base64.StdEncoding.DecodeString(privB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("JWT_PRIVATE_KEY_BASE64 is not valid base64")
	}

	block, _ := pem.Decode(privPEM)
	if block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for JWT private key")
	}

	var privateKey *rsa.PrivateKey
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		privateKey = key
	} else {
		keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to parse JWT private key")
		}
		rsaKey, ok := keyAny.(*rsa.PrivateKey)
		if !ok {
			utils.Logger.Fatal("JWT private key is not RSA")
		}
		privateKey = rsaKey
	}

	return privateKey, &privateKey.PublicKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %t", key, v, fallback)
		return fallback
	}
	return b
}
