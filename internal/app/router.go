package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kapas-trade/kapas-trade/internal/contracts"
	"github.com/kapas-trade/kapas-trade/internal/dospec"
	"github.com/kapas-trade/kapas-trade/internal/inventory"
	"github.com/kapas-trade/kapas-trade/internal/observability"
	"github.com/kapas-trade/kapas-trade/internal/payments"
	"github.com/kapas-trade/kapas-trade/internal/procurement"
	"github.com/kapas-trade/kapas-trade/internal/rbac"
	"github.com/kapas-trade/kapas-trade/internal/sales"
	"github.com/kapas-trade/kapas-trade/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RBACMiddleware     rbac.Middleware
	DOSpecHandler      *dospec.Handler
	InventoryHandler   *inventory.Handler
	SalesHandler       *sales.Handler
	ProcurementHandler *procurement.Handler
	ContractsHandler   *contracts.Handler
	PaymentsHandler    *payments.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router for the trading API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		RBAC:    params.RBACMiddleware,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/do-specs", params.DOSpecHandler.MountRoutes)
		r.Route("/inventory/lots", params.InventoryHandler.MountRoutes)
		r.Route("/sales-configs", params.SalesHandler.MountConfigRoutes)
		r.Route("/sales-orders", params.SalesHandler.MountOrderRoutes)
		r.Route("/procurement/cost-sheets", params.ProcurementHandler.MountRoutes)
		r.Route("/contracts", params.ContractsHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
