package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenitybook/internal/amenity"
	"amenitybook/internal/api"
	"amenitybook/internal/auth"
	"amenitybook/internal/reservation"
	"amenitybook/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	// Reservations is built on DB when nil.
	Reservations *reservation.Service
	Clock        reservation.Clock
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	clock := deps.Clock
	if clock == nil {
		clock = reservation.SystemClock
	}
	svc := deps.Reservations
	if svc == nil {
		svc = reservation.NewService(
			reservation.NewRepository(deps.DB, deps.Cfg.TxMaxAttempts),
			clock,
			deps.Cfg.Location(),
		)
	}
	reservationHandlers := reservation.Handlers{Service: svc, Verbose: !deps.Cfg.IsProd()}

	verifier := auth.Verifier{
		Secret:   deps.Cfg.Auth.JWTSecret,
		Issuer:   deps.Cfg.Auth.Issuer,
		Audience: deps.Cfg.Auth.Audience,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
		}))
		r.Use(api.BearerAuth(verifier, func() time.Time { return clock.Now() }))

		if deps.DB != nil {
			amenityHandlers := amenity.Handlers{Repo: amenity.NewRepository(deps.DB)}
			r.Get("/amenities", amenityHandlers.List)
		}
		r.Get("/amenities/{id}/availability", reservationHandlers.Availability)

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", reservationHandlers.Create)
			r.Get("/", reservationHandlers.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reservationHandlers.Get)
				r.Delete("/", reservationHandlers.Cancel)
				r.Get("/events", reservationHandlers.Events)
				r.Get("/fee-quote", reservationHandlers.FeeQuote)

				r.Put("/approve", reservationHandlers.Approve)
				r.Put("/reject", reservationHandlers.Reject)
				r.Put("/complete", reservationHandlers.Complete)

				r.Post("/propose-modification", reservationHandlers.ProposeModification)
				r.Put("/accept-modification", reservationHandlers.AcceptModification)
				r.Put("/reject-modification", reservationHandlers.RejectModification)

				r.Post("/assess-damages", reservationHandlers.AssessDamages)
				r.Put("/review-damage-assessment", reservationHandlers.ReviewDamageAssessment)
			})
		})
	})

	return r
}
