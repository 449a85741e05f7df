package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/go-pereval-api/internal/cache"
	"github.com/petermazzocco/go-pereval-api/internal/handlers"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	applog "github.com/petermazzocco/go-pereval-api/internal/middleware"
	"github.com/petermazzocco/go-pereval-api/internal/storage"
)

type Deps struct {
	Store              handlers.PerevalStore
	ActivityCache      *cache.ActivityCache
	Uploader           storage.Uploader
	ImageMaxWidth      int
	RateLimitPerMinute int
	Log                *logger.Logger
}

func NewRouter(d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.HealthHandler(w, r, d.Store)
	})

	r.Group(func(r chi.Router) {
		if d.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				d.RateLimitPerMinute,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}

		r.Route("/submitData", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.SubmitDataHandler(w, r, d.Store, log)
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.ListPerevalsHandler(w, r, d.Store, log)
			})
			r.Post("/images", func(w http.ResponseWriter, r *http.Request) {
				handlers.UploadImageHandler(w, r, d.Uploader, d.ImageMaxWidth, log)
			})
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.GetPerevalHandler(w, r, d.Store, log)
			})
			r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdatePerevalHandler(w, r, d.Store, log)
			})
		})

		r.Get("/activities", func(w http.ResponseWriter, r *http.Request) {
			handlers.ListActivitiesHandler(w, r, d.Store, d.ActivityCache, log)
		})
	})

	return r
}
