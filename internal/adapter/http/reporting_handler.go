package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

type ReportingHandler struct {
	service interfaces.ReportingService
	clock   domain.Clock
	logger  logger.Logger
}

func NewReportingHandler(service interfaces.ReportingService, clock domain.Clock, logger logger.Logger) *ReportingHandler {
	return &ReportingHandler{
		service: service,
		clock:   clock,
		logger:  logger,
	}
}

// parseRange reads range=today|<n>d, or from/to dates for a custom range.
func (h *ReportingHandler) parseRange(r *http.Request) (metrics.Range, error) {
	q := r.URL.Query()
	now := h.clock.Now()

	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := parseInstant(q.Get("from"))
		if err != nil {
			return metrics.Range{}, err
		}
		to, err := parseInstant(q.Get("to"))
		if err != nil {
			return metrics.Range{}, err
		}
		if from.IsZero() {
			from = now
		}
		if to.IsZero() {
			to = now
		}
		return metrics.Custom(from, to), nil
	}

	switch v := q.Get("range"); {
	case v == "" || v == "today":
		return metrics.Today(now), nil
	case strings.HasSuffix(v, "d"):
		n, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil || n < 1 {
			return metrics.Range{}, fmt.Errorf("invalid range %q", v)
		}
		return metrics.LastDays(now, n), nil
	default:
		return metrics.Range{}, fmt.Errorf("range must be today or <n>d, got %q", v)
	}
}

func (h *ReportingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := h.parseRange(r)
	if err != nil {
		respondError(w, "Invalid query", http.StatusBadRequest, []ValidationError{{Field: "range", Message: err.Error()}})
		return
	}

	summary, err := h.service.Summary(r.Context(), rng)
	if err != nil {
		respondServiceError(w, r, h.logger, "summary_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *ReportingHandler) Export(w http.ResponseWriter, r *http.Request) {
	rng, err := h.parseRange(r)
	if err != nil {
		respondError(w, "Invalid query", http.StatusBadRequest, []ValidationError{{Field: "range", Message: err.Error()}})
		return
	}

	var body strings.Builder
	if err := h.service.Export(r.Context(), rng, &body); err != nil {
		respondServiceError(w, r, h.logger, "export_failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="orders-%s.csv"`, rng.From.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body.String()))
}

func (h *ReportingHandler) Timers(w http.ResponseWriter, r *http.Request) {
	timers, err := h.service.Timers(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, h.logger, "timers_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, timers)
}
