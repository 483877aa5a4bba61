package httpserver

import (
	"net/http"
	"time"

	"ballot-app-go/internal/config"
	usersdomain "ballot-app-go/internal/domain/users"
	"ballot-app-go/internal/transport/httpserver/handler"
	authmw "ballot-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.JWTAuth, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	staff := authmw.RequireRole(usersdomain.RoleEmployee, usersdomain.RoleAdmin)
	voters := authmw.RequireRole(usersdomain.RoleMember, usersdomain.RoleOfficer)
	overseers := authmw.RequireRole(usersdomain.RoleOfficer, usersdomain.RoleEmployee, usersdomain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/ballots", handlers.Ballots.ListBallots)
			r.With(staff).Post("/ballots", handlers.Ballots.CreateBallot)

			r.Route("/ballots/{ballot_id}", func(r chi.Router) {
				r.Get("/", handlers.Ballots.GetBallot)
				r.With(staff).Patch("/", handlers.Ballots.UpdateBallot)
				r.With(staff).Delete("/", handlers.Ballots.DeleteBallot)

				r.With(voters).Post("/votes", handlers.Ballots.CastVote)
				r.Get("/votes/me", handlers.Ballots.MyVote)

				r.Get("/results", handlers.Ballots.Results)
				r.With(overseers).Get("/voters", handlers.Ballots.Voters)
			})
		})
	})

	return r
}
