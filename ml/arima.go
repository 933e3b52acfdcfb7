package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// ARIMA is a fitted ARIMA(p,d,q) model with a constant on the differenced scale.
// History holds recent observations on the original scale and Residuals the most
// recent innovations on the differenced scale; both end at the last fitted point.
type ARIMA struct {
	Order     Order     `json:"order"`
	Const     float64   `json:"const"`
	AR        []float64 `json:"ar"`
	MA        []float64 `json:"ma"`
	History   []float64 `json:"history"`
	Residuals []float64 `json:"residuals"`
}

func (m *ARIMA) Describe() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", m.Order.P, m.Order.D, m.Order.Q)
}

func (m *ARIMA) Validate() error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 {
		return errors.New("arima order must not be negative")
	}
	if len(m.AR) != m.Order.P {
		return fmt.Errorf("arima: expected %d ar coefficients, got %d", m.Order.P, len(m.AR))
	}
	if len(m.MA) != m.Order.Q {
		return fmt.Errorf("arima: expected %d ma coefficients, got %d", m.Order.Q, len(m.MA))
	}
	if need := m.Order.D + m.Order.P; len(m.History) < need || len(m.History) == 0 {
		return fmt.Errorf("arima: need at least %d history values, got %d", max(need, 1), len(m.History))
	}
	if len(m.Residuals) < m.Order.Q {
		return fmt.Errorf("arima: need at least %d residuals, got %d", m.Order.Q, len(m.Residuals))
	}
	return nil
}

func (m *ARIMA) Forecast(ctx context.Context, steps int) ([]float64, error) {
	if steps <= 0 {
		return nil, errors.New("steps must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	// lastLevels[i] is the final value of the series differenced i times.
	series := append([]float64(nil), m.History...)
	lastLevels := make([]float64, m.Order.D)
	for i := 0; i < m.Order.D; i++ {
		lastLevels[i] = series[len(series)-1]
		series = difference(series)
	}

	p, q := m.Order.P, m.Order.Q
	values := make([]float64, 0, p+steps)
	values = append(values, series[len(series)-p:]...)
	errs := append([]float64(nil), m.Residuals[len(m.Residuals)-q:]...)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		next := m.Const
		for i := 1; i <= p; i++ {
			next += m.AR[i-1] * values[len(values)-i]
		}
		for j := 1; j <= q; j++ {
			next += m.MA[j-1] * errs[len(errs)-j]
		}
		values = append(values, next)
		errs = append(errs, 0)
		out[h] = next
	}

	for level := m.Order.D - 1; level >= 0; level-- {
		prev := lastLevels[level]
		for h := range out {
			out[h] += prev
			prev = out[h]
		}
	}

	for h, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("arima: non-finite forecast at step %d", h+1)
		}
	}
	return out, nil
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}
