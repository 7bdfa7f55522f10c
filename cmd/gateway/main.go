package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/smepro/smepro-gateway/internal/auth/jwks"
	auth "github.com/smepro/smepro-gateway/internal/auth/middleware"
	"github.com/smepro/smepro-gateway/internal/config"
	"github.com/smepro/smepro-gateway/internal/db"
	"github.com/smepro/smepro-gateway/internal/lti"
	"github.com/smepro/smepro-gateway/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()

	// --- DB (platform registry) ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	registry := lti.NewSQLRegistry(dbh)

	// Seed a platform from env for single-platform deployments.
	if cfg.LTIPlatformIssuer != "" {
		if _, err := registry.Register(ctx, lti.Platform{
			Issuer:        cfg.LTIPlatformIssuer,
			ClientID:      cfg.LTIPlatformClientID,
			AuthLoginURL:  cfg.LTIPlatformAuthURL,
			AuthTokenURL:  cfg.LTIPlatformTokenURL,
			JWKSURL:       cfg.LTIPlatformJWKSURL,
			DeploymentIDs: cfg.LTIPlatformDeployments,
		}); err != nil {
			log.Fatalf("platform seed failed: %v", err)
		}
	}

	// --- State / session stores ---
	var states lti.StateStore
	var sessions lti.SessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		states = lti.NewRedisStateStore(rdb)
		sessions = lti.NewRedisSessionStore(rdb)
	} else {
		states = lti.NewMemStateStore()
		sessions = lti.NewMemSessionStore()
	}

	keys := lti.NewJWKSCache()
	keys.TTL = cfg.JWKSTTL

	issuer := lti.NewSessionIssuer(sessions)
	issuer.TTL = cfg.SessionTTL

	svc := &lti.Service{
		Registry:    registry,
		States:      states,
		Validator:   lti.NewValidator(keys),
		Sessions:    issuer,
		RedirectURI: cfg.LTIToolRedirectURI,
		StateTTL:    cfg.StateTTL,
	}

	// --- Tool signing key (served to platforms via /lti/jwks) ---
	toolKey, err := jwks.LoadOrGenerate(cfg.LTIPrivateKeyPEM)
	if err != nil {
		log.Fatalf("tool key: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-LTI-Token"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/lti", func(lr chi.Router) {
		lti.Mount(lr, svc)
		lr.Get("/jwks", jwks.Handler(toolKey.PublicJWKS()))
	})
	r.Get("/.well-known/jwks.json", jwks.Handler(toolKey.PublicJWKS()))

	// Session-guarded surface: downstream collaborators (report
	// generation, dataset analysis) mount behind these guards and read
	// user_role / course_id from the session in the request context.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.SessionMiddleware(issuer))
		pr.Get("/api/v1/me", meHandler())
		pr.With(rbac.Require("report:generate")).
			Post("/api/v1/reports", notImplemented("report generation"))
		pr.With(rbac.RequireAny("report:view-own", "report:view-all")).
			Get("/api/v1/reports", notImplemented("report listing"))
		pr.With(rbac.Require("dataset:analyze")).
			Post("/api/v1/data/analyze", notImplemented("dataset analysis"))
	})

	if cfg.EnableAdminAPI {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(auth.AdminBasicAuth(cfg.AdminUser, cfg.AdminPassHash))
			ar.Mount("/platforms", lti.RegistryRoutes(registry))
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// meHandler echoes the resolved launch session, the boundary handed to
// the guardrails/ontology collaborators.
func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.SessionFromContext(r.Context())
		lti.WriteJSON(w, http.StatusOK, sess)
	}
}

func notImplemented(what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, what+" not implemented in this gateway", http.StatusNotImplemented)
	}
}
