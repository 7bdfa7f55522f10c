package config

import (
	"os"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	// RedisAddr switches the state/session stores to the shared redis
	// backend when set (required for multi-instance online mode).
	RedisAddr string

	EnableAdminAPI bool
	AdminUser      string
	AdminPassHash  string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// LTI 1.3 / OIDC (tool side)
	LTIToolRedirectURI string // PUBLIC_URL + /lti/launch unless overridden
	LTIPrivateKeyPEM   string // RSA private key for the tool's own JWKS

	// Seed platform registration from env (single-platform deployments).
	LTIPlatformIssuer      string
	LTIPlatformClientID    string
	LTIPlatformAuthURL     string
	LTIPlatformTokenURL    string
	LTIPlatformJWKSURL     string
	LTIPlatformDeployments []string

	StateTTL   time.Duration
	SessionTTL time.Duration
	JWKSTTL    time.Duration
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	pub := os.Getenv("PUBLIC_URL")
	defRedirect := ""
	if pub != "" {
		defRedirect = strings.TrimSuffix(pub, "/") + "/lti/launch"
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  addr,
		PublicURL: pub,

		DBDriver:  envOr("DB_DRIVER", "sqlite"),
		DBDSN:     envOr("DB_DSN", ""),
		RedisAddr: os.Getenv("REDIS_ADDR"),

		EnableAdminAPI: envBool("ENABLE_ADMIN_API", true),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://smepro.lamar.edu"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		LTIToolRedirectURI: envOr("LTI_TOOL_REDIRECT_URI", defRedirect),
		LTIPrivateKeyPEM:   os.Getenv("LTI_PRIVATE_KEY"),

		LTIPlatformIssuer:      os.Getenv("LTI_PLATFORM_ISSUER"),
		LTIPlatformClientID:    os.Getenv("LTI_PLATFORM_CLIENT_ID"),
		LTIPlatformAuthURL:     os.Getenv("LTI_PLATFORM_AUTH_URL"),
		LTIPlatformTokenURL:    os.Getenv("LTI_PLATFORM_TOKEN_URL"),
		LTIPlatformJWKSURL:     os.Getenv("LTI_PLATFORM_JWKS_URL"),
		LTIPlatformDeployments: csvOr("LTI_PLATFORM_DEPLOYMENT_IDS", ""),

		StateTTL:   envDur("LTI_STATE_TTL", 10*time.Minute),
		SessionTTL: envDur("LTI_SESSION_TTL", 24*time.Hour),
		JWKSTTL:    envDur("LTI_JWKS_TTL", time.Hour),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
