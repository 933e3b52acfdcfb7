package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"stockcast/dashboard"
	"stockcast/forecast"
	"stockcast/market"
)

var dash *dashboard.Dashboard

func SetDashboard(d *dashboard.Dashboard) {
	dash = d
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handlePage)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/forecast", handleForecast)
	mux.HandleFunc("GET /api/history", handleHistory)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePage runs one dashboard interaction. Errors are part of the page, so the
// status is always 200 unless rendering itself fails.
func handlePage(w http.ResponseWriter, r *http.Request) {
	if dash == nil {
		http.Error(w, "dashboard not initialized", http.StatusServiceUnavailable)
		return
	}

	interaction := dashboard.Interaction{
		Days:     parseDays(r, forecast.DefaultHorizon),
		Generate: r.URL.Query().Get("generate") != "",
	}
	page := dash.Run(r.Context(), interaction)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type forecastPoint struct {
	Date           string  `json:"date"`
	PredictedClose float64 `json:"predicted_close"`
}

func handleForecast(w http.ResponseWriter, r *http.Request) {
	if dash == nil {
		http.Error(w, "dashboard not initialized", http.StatusServiceUnavailable)
		return
	}

	days := forecast.DefaultHorizon
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil {
			http.Error(w, "days must be an integer", http.StatusBadRequest)
			return
		}
		days = d
	}

	result, history, err := dash.Forecast(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	points := make([]forecastPoint, len(result.Rows))
	for i, row := range result.Rows {
		points[i] = forecastPoint{
			Date:           row.Date.Format(market.DateLayout),
			PredictedClose: row.Rounded().InexactFloat64(),
		}
	}
	response := map[string]interface{}{
		"symbol":        history.Symbol,
		"days":          result.Steps,
		"trained_until": history.Last().Date.Format(market.DateLayout),
		"forecast":      points,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	if dash == nil {
		http.Error(w, "dashboard not initialized", http.StatusServiceUnavailable)
		return
	}

	history, err := dash.History(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

func parseDays(r *http.Request, fallback int) int {
	days := fallback
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil {
			days = d
		}
	}
	return days
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrHorizonOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
