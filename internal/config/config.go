package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSUAPBaseURL = "https://suap.ifrn.edu.br"
	DefaultSUAPTimeout = 15 * time.Second
)

var (
	DefaultTokenEndpoints = []string{
		"/api/token/pair",
	}

	// DefaultProfileEndpoints lists the profile endpoints in the order they
	// are tried. /api/rh/eu/ returns the complete personal data.
	DefaultProfileEndpoints = []string{
		"/api/rh/eu/",
		"/api/ensino/meus-dados-aluno/",
		"/api/rh/meus-dados/",
		"/api/v2/rh/eu/",
		"/api/v2/ensino/meus-dados-aluno/",
		"/api/v2/rh/meus-dados/",
	}
)

type Config struct {
	Env     string // dev / prod
	AppPort string

	// SUAP
	SUAPBaseURL          string
	SUAPTokenEndpoints   []string
	SUAPProfileEndpoints []string
	SUAPTimeout          time.Duration
	SUAPFailOpen         bool

	AdminMatriculas []string

	SessionTTL      time.Duration
	RegistrationTTL time.Duration
	CookieSecure    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty DSN selects the in-memory stores (dev only).
	DatabaseDSN string

	BcryptCost int
}

// Load reads the process environment. A .env file in the working
// directory is loaded first when present; real env vars win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:     getEnv("ENV", "dev"),
		AppPort: getEnv("APP_PORT", "8080"),

		SUAPBaseURL:          strings.TrimRight(getEnv("SUAP_API_BASE_URL", DefaultSUAPBaseURL), "/"),
		SUAPTokenEndpoints:   getList("SUAP_TOKEN_ENDPOINTS", DefaultTokenEndpoints),
		SUAPProfileEndpoints: getList("SUAP_PROFILE_ENDPOINTS", DefaultProfileEndpoints),

		AdminMatriculas: getList("ADMIN_MATRICULAS", nil),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
	}

	if _, err := url.ParseRequestURI(cfg.SUAPBaseURL); err != nil {
		return Config{}, fmt.Errorf("invalid SUAP_API_BASE_URL %q: %w", cfg.SUAPBaseURL, err)
	}

	var err error
	if cfg.SUAPTimeout, err = getDuration("SUAP_TIMEOUT", DefaultSUAPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SUAPFailOpen, err = getBool("SUAP_FAIL_OPEN", true); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RegistrationTTL, err = getDuration("REGISTRATION_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", true); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return Config{}, err
	}

	// sessions cannot live anywhere else
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("missing required env var: REDIS_ADDR")
	}
	if cfg.DatabaseDSN == "" && cfg.Env == "prod" {
		return Config{}, fmt.Errorf("missing required env var: DATABASE_DSN")
	}

	return cfg, nil
}

// IsAdminMatricula reports whether matricula is a configured admin.
func (c Config) IsAdminMatricula(matricula string) bool {
	for _, m := range c.AdminMatriculas {
		if m == matricula {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getList splits a comma-separated value, dropping blanks.
func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}
