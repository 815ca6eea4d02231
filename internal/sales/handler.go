package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kapas-trade/kapas-trade/internal/allocation"
	"github.com/kapas-trade/kapas-trade/internal/inventory"
	"github.com/kapas-trade/kapas-trade/internal/platform/httpx"
	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// Handler serves sales configuration and order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountConfigRoutes attaches sales configuration routes.
func (h *Handler) MountConfigRoutes(r chi.Router) {
	r.Post("/", h.createConfig)
	r.Get("/{id}", h.getConfig)
}

// MountOrderRoutes attaches sales order routes.
func (h *Handler) MountOrderRoutes(r chi.Router) {
	r.Post("/", h.processOrder)
	r.Get("/{id}", h.getOrder)
	r.Post("/{id}/confirm", h.confirmOrder)
	r.Post("/{id}/cancel", h.cancelOrder)
}

func (h *Handler) createConfig(w http.ResponseWriter, r *http.Request) {
	var input CreateConfigInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cfg, err := h.service.CreateConfig(r.Context(), input)
	if err != nil {
		h.logger.Error("sales create config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cfg)
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	cfg, err := h.service.GetConfig(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "sales configuration not found")
			return
		}
		h.logger.Error("sales get config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	var input ProcessOrderInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.ProcessOrder(r.Context(), input, actor.ID)
	if err != nil {
		h.respondOrderError(w, err, "sales process order")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondOrderError(w, err, "sales get order")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Confirm(r.Context(), id, actor.ID)
	if err != nil {
		h.respondOrderError(w, err, "sales confirm order")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Cancel(r.Context(), id, actor.ID)
	if err != nil {
		h.respondOrderError(w, err, "sales cancel order")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNothingSelected):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid State", err.Error())
	case errors.Is(err, inventory.ErrConflict):
		// Lost the commit race: the client should re-run the proposal.
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, allocation.ErrInvalidRequest):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, allocation.ErrInfrastructure):
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
