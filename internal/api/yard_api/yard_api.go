package yard_api

import (
	"net/http"
	"time"

	"github.com/BearBump/YardBox/internal/services/dwell"
	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type YardAPI struct {
	svc  *facility.Service
	calc *dwell.Calculator

	validate *validator.Validate

	limiter   RateLimiter
	perMinute int64
}

func New(svc *facility.Service, calc *dwell.Calculator) *YardAPI {
	return &YardAPI{
		svc:      svc,
		calc:     calc,
		validate: newValidator(),
	}
}

// WithRateLimit limits every client IP to perMinute requests; zero disables it.
func (a *YardAPI) WithRateLimit(l RateLimiter, perMinute int) *YardAPI {
	a.limiter = l
	a.perMinute = int64(perMinute)
	return a
}

// Routes mounts the REST surface under /api.
func (a *YardAPI) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RealIP)
		r.Use(a.rateLimit(time.Minute))

		r.Get("/state", a.getState)
		r.Get("/shipped", a.searchShipped)
		r.Get("/history", a.listHistory)

		r.Route("/trailers", func(r chi.Router) {
			r.Post("/", a.createTrailer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getTrailer)
				r.Patch("/", a.updateTrailer)
				r.Delete("/", a.deleteTrailer)
				r.Get("/timeline", a.timeline)

				r.Post("/move-to-door", a.moveToDoor)
				r.Post("/move-to-yard", a.moveToYard)
				r.Post("/move-to-yard-slot", a.moveToYardSlot)
				r.Post("/move-to-staging", a.moveToStaging)
				r.Post("/check-in", a.checkIn)
				r.Post("/queue", a.enqueue)
				r.Post("/reassign", a.reassign)
				r.Post("/cancel-queue", a.cancelQueue)
				r.Post("/ship", a.ship)
				r.Post("/reset-dwell", a.resetDwell)
			})
		})

		r.Post("/appointments", a.addAppointment)
		r.Put("/appointments/order", a.reorderAppointments)

		r.Route("/doors", func(r chi.Router) {
			r.Post("/", a.createDoor)
			r.Put("/order", a.reorderDoors)
			r.Patch("/{ref}", a.updateDoor)
			r.Delete("/{ref}", a.deleteDoor)
		})

		r.Post("/yard-slots", a.createYardSlot)
		r.Delete("/yard-slots/{ref}", a.deleteYardSlot)

		r.Route("/carriers", func(r chi.Router) {
			r.Get("/", a.listCarriers)
			r.Post("/", a.createCarrier)
			r.Patch("/{id}", a.updateCarrier)
			r.Delete("/{id}", a.deleteCarrier)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/daily", a.daily)
			r.Get("/range", a.dailyRange)
			r.Post("/recalculate", a.recalculate)
			r.Get("/violations", a.violations)
			r.Get("/export.xlsx", a.exportXLSX)
		})
	})
}

// Handler is a standalone router with the API mounted.
func (a *YardAPI) Handler() http.Handler {
	r := chi.NewRouter()
	a.Routes(r)
	return r
}
