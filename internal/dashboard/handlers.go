package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockCast/internal/calculator"
	"StockCast/internal/collector"
	"StockCast/internal/forecast"
	"StockCast/internal/logger"
	"StockCast/internal/model"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Handler serves the dashboard page and its JSON API.
type Handler struct {
	svc *Service
}

// NewHandler creates a new dashboard handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Router builds the full route table with middleware applied.
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(MetricsMiddleware()))

	router.HandleFunc("/", h.Index).Methods("GET")

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/tickers", h.ListTickers).Methods("GET")
	v1.HandleFunc("/series", h.GetSeries).Methods("GET")
	v1.HandleFunc("/forecast", h.GetForecast).Methods("GET")
	v1.HandleFunc("/view", h.GetView).Methods("GET")
	v1.HandleFunc("/forecasts/recent", h.RecentForecasts).Methods("GET")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	chain := ChainMiddleware(
		RequestIDMiddleware(),
		LoggingMiddleware(),
		RecoveryMiddleware(),
	)
	return chain(router)
}

// Index handles GET /: the full HTML page re-rendered from the query string.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query(), h.svc.Options)
	if err != nil {
		v := &View{Title: h.svc.Options.Title, Tickers: h.svc.Options.Tickers, Selection: sel}
		v.Err = err
		v.Message = err.Error()
		writePage(w, http.StatusBadRequest, v, h.svc.Options)
		return
	}
	v := h.svc.Render(r.Context(), sel)
	if v.Err != nil {
		logger.Warn("render stopped",
			logger.String("request_id", RequestID(r.Context())),
			logger.String("ticker", sel.Ticker),
			logger.ErrorField(v.Err),
		)
	}
	// Render errors are part of the page, like the rest of its content.
	writePage(w, http.StatusOK, v, h.svc.Options)
}

// ListTickers handles GET /api/v1/tickers
func (h *Handler) ListTickers(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": h.svc.Options.Tickers,
		"count":   len(h.svc.Options.Tickers),
	})
}

// GetSeries handles GET /api/v1/series
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query(), h.svc.Options)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	series, err := h.svc.Loader.Load(r.Context(), sel.Ticker, sel.Start, sel.End)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	resp := map[string]interface{}{
		"series": series,
		"count":  series.Len(),
	}
	if sel.ShowIndicators {
		resp["indicators"] = calculator.Overlay(series.Bars)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetForecast handles GET /api/v1/forecast
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query(), h.svc.Options)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	fc, err := h.svc.Forecast(r.Context(), sel.Ticker, sel.Start, sel.End, sel.Horizon.TotalDays())
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, fc)
}

// GetView handles GET /api/v1/view: the same content as the page, as JSON.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query(), h.svc.Options)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	v := h.svc.Render(r.Context(), sel)
	status := http.StatusOK
	if v.Err != nil {
		status = statusFor(v.Err)
	}
	respondWithJSON(w, status, v)
}

// RecentForecasts handles GET /api/v1/forecasts/recent
func (h *Handler) RecentForecasts(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRecentLimit {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer in 1..200")
			return
		}
		limit = n
	}
	runs, err := h.svc.Recorder.RecentForecasts(limit)
	if err != nil {
		logger.Error("list recent forecasts", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve forecast runs")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// statusFor maps a render or load error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrInsufficientData), errors.Is(err, forecast.ErrNegativeHorizon):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrNoData), errors.Is(err, collector.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// selectionQuery is used by the page to build links that keep the state.
func selectionQuery(sel model.Selection) string {
	return Encode(sel).Encode()
}
