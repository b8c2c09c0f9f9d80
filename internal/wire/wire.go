package wire

import (
	"net/http"

	"transport-booking/internal/adaptor"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/notification"
	"transport-booking/internal/scheduler"
	"transport-booking/internal/usecase"
	"transport-booking/pkg/database"
	"transport-booking/pkg/middleware"
	"transport-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the infrastructure pieces built by main.
type Deps struct {
	Repo     *repository.Repository
	Tx       database.Transactor
	Provider usecase.PaymentProvider
	Notifier notification.Notifier
	Redis    *redis.Client
}

// App holds what main needs to run and stop the service
type App struct {
	Router    *chi.Mux
	Scheduler *scheduler.Scheduler
}

// Wiring builds services, the scheduler and the router
func Wiring(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, deps.Tx, deps.Provider, deps.Notifier, config, logger)
	sched := scheduler.New(service.Inventory, service.Booking, config.Scheduler, logger)
	handler := adaptor.NewHandler(service, sched, logger)

	router := setupRouter(handler, deps, config, logger)

	return &App{
		Router:    router,
		Scheduler: sched,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	deps Deps,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics())

	idempotent := middleware.Idempotency(deps.Redis, config.Redis.IdempotencyTTL, logger)
	authenticated := middleware.Authenticate(deps.Repo.Session, config.JWT.Secret, logger)

	wireBooking(r, handler.Booking, authenticated, idempotent)
	wirePayment(r, handler.Payment, handler.Webhook, authenticated, idempotent)
	wireCatalog(r, handler.Catalog)
	wireAdmin(r, handler.Admin, authenticated, logger)

	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
