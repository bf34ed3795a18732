package wire

import (
	"net/http"

	"pesa-smart-plan/internal/adaptor"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/middleware"
	"pesa-smart-plan/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the pieces of it that need shutting down.
type App struct {
	Router      *chi.Mux
	RateLimiter *middleware.RateLimiter
}

// Close stops background goroutines owned by the router.
func (a *App) Close() {
	a.RateLimiter.Stop()
}

// Wiring builds handlers over service and mounts every route. metrics is
// served at /metrics; pass nil to leave it unmounted.
func Wiring(service *usecase.Service, config *utils.Config, metrics http.Handler, logger *zap.Logger) *App {
	handler := adaptor.NewHandler(service, logger)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute:       config.RateLimit.SendCodePerMinute,
		Burst:           config.RateLimit.SendCodeBurst,
		CleanupInterval: config.Cleanup.Interval,
	}, logger)

	router := setupRouter(handler, service, limiter, config, metrics, logger)

	return &App{
		Router:      router,
		RateLimiter: limiter,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	limiter *middleware.RateLimiter,
	config *utils.Config,
	metrics http.Handler,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Telemetry())
	r.Use(middleware.CORS(config.App.CORSOrigin))
	r.Use(middleware.ClientInfo)

	auth := middleware.AuthSession(service.Account, logger)

	// Apply routes
	wireCode(r, handler.Code, limiter)
	wireRegistration(r, handler.Registration, limiter)
	wireAccount(r, handler.Account, auth)
	wireFee(r, handler.Fee)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	return r
}
