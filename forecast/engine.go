// Package forecast turns model predictions into dated forecast results.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockcast/market"
	"stockcast/ml"
)

const (
	MinHorizon     = 1
	MaxHorizon     = 90
	DefaultHorizon = 30
)

// ErrNonFinite reports a NaN or infinite prediction. Such results are never cached.
var ErrNonFinite = errors.New("model returned a non-finite prediction")

var ErrHorizonOutOfRange = fmt.Errorf("forecast horizon must be between %d and %d", MinHorizon, MaxHorizon)

// Row is one forecast table entry.
type Row struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted_close"`
}

// Rounded returns the prediction rounded half away from zero to cents.
func (r Row) Rounded() decimal.Decimal {
	return decimal.NewFromFloat(r.Predicted).Round(2)
}

type Result struct {
	Steps int   `json:"days"`
	Rows  []Row `json:"forecast"`
}

// Points returns the forecast as a price series suitable for charting.
func (r *Result) Points() []market.PricePoint {
	points := make([]market.PricePoint, len(r.Rows))
	for i, row := range r.Rows {
		points[i] = market.PricePoint{Date: row.Date, Close: row.Predicted}
	}
	return points
}

// Engine runs a model and dates its predictions. Predictions are memoized per
// horizon, which relies on the model being deterministic and stateless.
type Engine struct {
	model  ml.Forecaster
	cache  *lru.Cache[int, []float64]
	logger *zap.Logger
}

// NewEngine wraps model. cacheSize <= 0 disables memoization.
func NewEngine(model ml.Forecaster, cacheSize int, logger *zap.Logger) (*Engine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &Engine{model: model, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[int, []float64](cacheSize)
		if err != nil {
			return nil, err
		}
		engine.cache = cache
	}
	return engine, nil
}

// ValidateHorizon reports whether steps is an accepted forecast horizon.
func ValidateHorizon(steps int) error {
	if steps < MinHorizon || steps > MaxHorizon {
		return fmt.Errorf("%w: got %d", ErrHorizonOutOfRange, steps)
	}
	return nil
}

// Run forecasts steps business days past the end of history.
func (e *Engine) Run(ctx context.Context, history *market.Series, steps int) (*Result, error) {
	if err := ValidateHorizon(steps); err != nil {
		return nil, err
	}
	if history == nil || history.Len() == 0 {
		return nil, market.ErrEmptySeries
	}

	predictions, err := e.predict(ctx, steps)
	if err != nil {
		return nil, err
	}

	dates := market.BusinessDaysAfter(history.Last().Date, steps)
	rows := make([]Row, steps)
	for i := range rows {
		rows[i] = Row{Date: dates[i], Predicted: predictions[i]}
	}
	return &Result{Steps: steps, Rows: rows}, nil
}

func (e *Engine) predict(ctx context.Context, steps int) ([]float64, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(steps); ok {
			return cached, nil
		}
	}

	start := time.Now()
	predictions, err := e.model.Forecast(ctx, steps)
	if err != nil {
		return nil, err
	}
	if len(predictions) != steps {
		return nil, fmt.Errorf("model returned %d predictions for %d steps", len(predictions), steps)
	}
	for i, v := range predictions {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w at step %d", ErrNonFinite, i+1)
		}
	}
	e.logger.Debug("forecast computed",
		zap.Int("steps", steps),
		zap.Duration("elapsed", time.Since(start)))

	if e.cache != nil {
		e.cache.Add(steps, append([]float64(nil), predictions...))
	}
	return predictions, nil
}
