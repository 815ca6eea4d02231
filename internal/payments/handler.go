package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kapas-trade/kapas-trade/internal/platform/httpx"
	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// Handler serves the payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/outstanding", h.outstanding)
	r.Get("/{id}", h.get)
	r.Post("/{id}/settle", h.settle)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var input RecordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", paymentValidationDetail(err))
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	p, err := h.service.Record(r.Context(), input, actor.ID)
	if err != nil {
		h.respondError(w, err, "payment record")
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input SettleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", paymentValidationDetail(err))
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	p, err := h.service.Settle(r.Context(), id, input, actor.ID)
	if err != nil {
		h.respondError(w, err, "payment settle")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "payment get")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().UTC()
	if raw := r.URL.Query().Get("due_before"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid due_before date")
			return
		}
		cutoff = parsed
	}
	list, err := h.service.Outstanding(r.Context(), cutoff)
	if err != nil {
		h.respondError(w, err, "payments outstanding")
		return
	}
	if list == nil {
		list = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "payment not found")
	case errors.Is(err, ErrDuplicateUTR):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "utr already recorded")
	case errors.Is(err, ErrAlreadySettled):
		httpx.Problem(w, http.StatusConflict, "Conflict", "payment already settled")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func paymentValidationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}
