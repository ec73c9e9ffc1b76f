package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/auth_service/pkg/config"
)

const (
	DefaultIssuer     = "auth-service"
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

type CookieConfig struct {
	Domain string
	Secure bool
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Config is built once in main and handed to constructors; nothing below main reads env.
type Config struct {
	AuthAddr    string
	DatabaseURL string
	LogLevel    string

	PrivateKey    *rsa.PrivateKey
	KeyID         string
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string

	JWKSURI       string
	JWKSRateLimit int

	Cookie CookieConfig

	KafkaBrokers []string
	KafkaTopic   string

	Elastic ElasticConfig
}

// Load reads .env and the environment. Missing signing material is fatal.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func FromEnv() (*Config, error) {
	addr := pkgcfg.EnvDefault("AUTH_ADDR", ":5501")

	cfg := &Config{
		AuthAddr:      addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      pkgcfg.EnvDefault("LOG_LEVEL", "info"),
		KeyID:         pkgcfg.EnvDefault("JWKS_KEY_ID", "auth-service-key"),
		RefreshSecret: []byte(os.Getenv("REFRESH_TOKEN_SECRET")),
		AccessTTL:     pkgcfg.EnvDurationDefault("ACCESS_TOKEN_TTL", DefaultAccessTTL),
		RefreshTTL:    pkgcfg.EnvDurationDefault("REFRESH_TOKEN_TTL", DefaultRefreshTTL),
		Issuer:        pkgcfg.EnvDefault("TOKEN_ISSUER", DefaultIssuer),
		JWKSURI:       pkgcfg.EnvDefault("JWKS_URI", "http://localhost"+addr+"/.well-known/jwks.json"),
		JWKSRateLimit: pkgcfg.EnvIntDefault("JWKS_RATE_LIMIT", 10),
		Cookie: CookieConfig{
			Domain: pkgcfg.EnvDefault("COOKIE_DOMAIN", "localhost"),
			Secure: pkgcfg.EnvBoolDefault("COOKIE_SECURE", false),
		},
		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   pkgcfg.EnvDefault("KAFKA_TOPIC", "user_events"),
		Elastic: ElasticConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgcfg.EnvDefault("AUDIT_INDEX", "auth-audit"),
		},
	}

	pemData := os.Getenv("PRIVATE_KEY")
	if pemData == "" {
		if path := os.Getenv("PRIVATE_KEY_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read PRIVATE_KEY_FILE: %w", err)
			}
			pemData = string(b)
		}
	}
	if pemData == "" {
		return nil, errors.New("missing required env PRIVATE_KEY or PRIVATE_KEY_FILE")
	}
	key, err := ParsePrivateKey(pemData)
	if err != nil {
		return nil, err
	}
	cfg.PrivateKey = key

	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("missing required env REFRESH_TOKEN_SECRET")
	}

	return cfg, nil
}

// ParsePrivateKey accepts PKCS#1 or PKCS#8 PEM; literal "\n" sequences from env files are
// expanded first.
func ParsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	pemData = strings.ReplaceAll(pemData, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
