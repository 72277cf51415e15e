package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/handlers"
	"github.com/Novice130/At-tayyibun/internal/jobs"
	"github.com/Novice130/At-tayyibun/internal/middleware"
	"github.com/Novice130/At-tayyibun/internal/requests"
	"github.com/Novice130/At-tayyibun/internal/storage"
)

// Deps carries everything the route handlers need.
type Deps struct {
	DB       *db.DB
	Requests *requests.Service
	Photos   *storage.PhotoStore
	Expiry   *jobs.RequestExpiry
	Cleanup  *jobs.TokenCleanup
	YAML     *config.YAMLConfig
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	authMiddleware := middleware.NewAuthMiddleware(deps.DB)

	requestHandler := handlers.NewRequestHandler(deps.Requests, deps.DB)
	sharedHandler := handlers.NewSharedHandler(deps.Requests)
	profileHandler := handlers.NewProfileHandler(deps.DB, deps.Photos, deps.YAML, s.Cfg)
	photoHandler := handlers.NewPhotoHandler(deps.DB, deps.Photos, s.Cfg)
	userHandler := handlers.NewUserHandler(deps.DB)
	jobsHandler := handlers.NewJobsHandler(deps.Expiry, deps.Cleanup, s.Cfg)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	// Auth routes - OIDC is required for all member access
	if s.Cfg.OIDCIssuer == "" {
		log.Fatal("OIDC_ISSUER is required. All users must be authenticated.")
	}

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, deps.DB)
	if err != nil {
		return err
	}

	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Probes and metrics
	s.App.Get("/healthz", healthHandler.Live)
	s.App.Get("/readyz", healthHandler.Ready)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.App.Group("/api")

	// Share token redemption is public: the token is the credential, and
	// requesters may open the emailed link without a session.
	api.Get("/requests/shared/:token", sharedHandler.Redeem)

	// Scheduler-triggered jobs, guarded by X-Job-Token
	api.Post("/jobs/request-expiry", jobsHandler.RunRequestExpiry)
	api.Post("/jobs/token-cleanup", jobsHandler.RunTokenCleanup)

	// Member routes
	api.Get("/me", authMiddleware.RequireAuth, userHandler.Me)
	api.Get("/options", authMiddleware.RequireAuth, profileHandler.Options)

	api.Get("/profile", authMiddleware.RequireAuth, profileHandler.Show)
	api.Put("/profile", authMiddleware.RequireAuth, profileHandler.Update)
	api.Get("/browse", authMiddleware.RequireAuth, profileHandler.Browse)
	api.Get("/profiles/:publicId", authMiddleware.RequireAuth, profileHandler.ShowPublic)
	api.Post("/profiles/:publicId/skip", authMiddleware.RequireAuth, profileHandler.Skip)

	api.Post("/photos", authMiddleware.RequireAuth, photoHandler.Create)
	api.Get("/photos", authMiddleware.RequireAuth, photoHandler.List)
	api.Post("/photos/:id/confirm", authMiddleware.RequireAuth, photoHandler.Confirm)
	api.Post("/photos/:id/primary", authMiddleware.RequireAuth, photoHandler.SetPrimary)
	api.Delete("/photos/:id", authMiddleware.RequireAuth, photoHandler.Delete)

	api.Post("/requests", authMiddleware.RequireAuth, requestHandler.Create)
	api.Get("/requests/incoming", authMiddleware.RequireAuth, requestHandler.Incoming)
	api.Get("/requests/outgoing", authMiddleware.RequireAuth, requestHandler.Outgoing)
	api.Put("/requests/:id/respond", authMiddleware.RequireAuth, requestHandler.Respond)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	admin.Get("/users", userHandler.List)
	admin.Post("/users/:id/role", userHandler.UpdateRole)
	admin.Post("/users/:id/deactivate", userHandler.Deactivate)
	admin.Post("/users/:id/reactivate", userHandler.Reactivate)

	return nil
}
