package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth/credentials"
	"github.com/allyfhpontes/reutilizaif/internal/auth/handler"
	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
	"github.com/allyfhpontes/reutilizaif/internal/auth/provider/suap"
	"github.com/allyfhpontes/reutilizaif/internal/auth/resolver"
	"github.com/allyfhpontes/reutilizaif/internal/config"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/market"
	"github.com/allyfhpontes/reutilizaif/internal/middleware"
	"github.com/allyfhpontes/reutilizaif/internal/session"
	"github.com/allyfhpontes/reutilizaif/internal/validation"
)

// deps are the ports the router is built from.
type deps struct {
	Provider provider.CredentialProvider
	Sessions session.Store
	Accounts resolver.Resolver
	Products market.Store
}

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	suapProvider, err := suap.New(suap.Config{
		BaseURL:          cfg.SUAPBaseURL,
		TokenEndpoints:   cfg.SUAPTokenEndpoints,
		ProfileEndpoints: cfg.SUAPProfileEndpoints,
		Timeout:          cfg.SUAPTimeout,
		FailOpen:         cfg.SUAPFailOpen,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := newRouter(cfg, deps{
		Provider: suapProvider,
		Sessions: session.NewRedisStore(infra.Redis.Client),
		Accounts: infra.Accounts,
		Products: infra.Products,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return router, infra.Close, nil
}

func newRouter(cfg config.Config, d deps) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	credentialService := credentials.NewService(
		d.Provider,
		d.Accounts,
		credentials.NewHasher(cfg.BcryptCost),
	)

	authHandler := handler.NewHandler(
		credentialService,
		d.Sessions,
		d.Accounts,
		handler.Config{
			SessionTTL:      cfg.SessionTTL,
			RegistrationTTL: cfg.RegistrationTTL,
			CookieSecure:    cfg.CookieSecure,
			ConfigAdmin:     cfg.IsAdminMatricula,
		},
	)

	marketHandler := market.NewHandler(market.NewService(d.Products, d.Accounts))

	authMiddleware := middleware.NewAuthMiddleware(d.Sessions, adminCheck(cfg, d.Accounts))
	requireAdmin := middleware.GinRequireAdmin()

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// ----------------------------
	// Public Routes
	// ----------------------------

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(router)
	marketHandler.RegisterPublicRoutes(router)

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	authHandler.RegisterAPIRoutes(api, requireAdmin)
	marketHandler.RegisterAPIRoutes(api)

	admin := api.Group("/admin")
	admin.Use(requireAdmin)

	authHandler.RegisterAdminRoutes(admin)
	marketHandler.RegisterAdminRoutes(admin)

	return router, nil
}

// adminCheck grants admin to configured matriculas and to accounts
// promoted through the API.
func adminCheck(cfg config.Config, accounts resolver.Resolver) middleware.AdminCheck {
	return func(ctx context.Context, matricula string) bool {
		if cfg.IsAdminMatricula(matricula) {
			return true
		}

		acc, err := accounts.Lookup(ctx, matricula)
		if err != nil {
			if !errors.Is(err, resolver.ErrNotFound) {
				logger.Warn("admin lookup failed", map[string]any{
					"matricula": matricula,
					"error":     err.Error(),
				})
			}
			return false
		}
		return acc.IsAdmin
	}
}
