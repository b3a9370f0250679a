package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/igralnica/internal/auth"
	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
)

// Options configure the router.
type Options struct {
	// JWTSecret signs local account tokens. Without it the login endpoint
	// is not registered.
	JWTSecret string
	// RequestRate is the number of requests a user may create per minute.
	RequestRate int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(ds docstore.Store, verifier auth.Verifier, opts Options) http.Handler {
	authHandler := &AuthHandler{Store: ds, JWTSecret: opts.JWTSecret}
	requestsHandler := &RequestsHandler{Store: ds}
	systemsHandler := &SystemsHandler{Store: ds}
	usersHandler := &UsersHandler{Store: ds}
	notificationsHandler := &NotificationsHandler{Store: ds}
	analyticsHandler := &AnalyticsHandler{Store: ds}
	streamHandler := &StreamHandler{Store: ds}

	requireAdmin := RequireRole(model.RoleAdmin)
	limiter := newUserLimiter(opts.RequestRate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		// Public: login.
		if opts.JWTSecret != "" {
			api.Post("/auth/login", authHandler.Login)
		}

		api.Group(func(authed chi.Router) {
			authed.Use(AuthMiddleware(verifier, ds))

			authed.Get("/me", authHandler.Me)

			authed.Route("/requests", func(rr chi.Router) {
				rr.Post("/check", requestsHandler.Check)
				rr.With(limiter.Middleware).Post("/", requestsHandler.Create)
				rr.Get("/mine", requestsHandler.Mine)
				rr.Get("/{id}", requestsHandler.Get)
				rr.Post("/{id}/return", requestsHandler.Return)

				rr.Group(func(admin chi.Router) {
					admin.Use(requireAdmin)
					admin.Get("/", requestsHandler.List)
					admin.Get("/flagged", requestsHandler.Flagged)
					admin.Post("/{id}/approve", requestsHandler.Approve)
					admin.Post("/{id}/reject", requestsHandler.Reject)
					admin.Post("/{id}/checkout", requestsHandler.Checkout)
					admin.Post("/{id}/confirm-return", requestsHandler.ConfirmReturn)
					admin.Post("/{id}/mark-returned", requestsHandler.MarkReturned)
				})
			})

			authed.Route("/systems", func(sr chi.Router) {
				sr.Get("/", systemsHandler.List)
				sr.With(requireAdmin).Get("/alerts", systemsHandler.Alerts)
				sr.Get("/{id}", systemsHandler.Get)
				sr.Get("/{id}/image", systemsHandler.GetImage)

				sr.Group(func(admin chi.Router) {
					admin.Use(requireAdmin)
					admin.Post("/", systemsHandler.Create)
					admin.Put("/{id}", systemsHandler.Update)
					admin.Delete("/{id}", systemsHandler.Delete)
					admin.Put("/{id}/image", systemsHandler.UploadImage)
				})
			})

			authed.Route("/users", func(ur chi.Router) {
				ur.Use(requireAdmin)
				ur.Get("/", usersHandler.List)
				ur.Get("/departments", usersHandler.Departments)
				ur.Put("/{id}/role", usersHandler.UpdateRole)
				ur.Put("/{id}/status", usersHandler.UpdateStatus)
				ur.Put("/{id}/department", usersHandler.UpdateDepartment)
			})

			authed.Route("/notifications", func(nr chi.Router) {
				nr.Use(requireAdmin)
				nr.Get("/", notificationsHandler.List)
				nr.Post("/{id}/read", notificationsHandler.MarkRead)
			})

			authed.Route("/analytics", func(ar chi.Router) {
				ar.Use(requireAdmin)
				ar.Get("/", analyticsHandler.Summary)
				ar.Get("/returns", analyticsHandler.Returns)
			})

			authed.Route("/stream", func(st chi.Router) {
				st.Get("/requests", streamHandler.Requests)
				st.Get("/systems", streamHandler.Systems)
				st.With(requireAdmin).Get("/notifications", streamHandler.Notifications)
			})
		})
	})

	return r
}
