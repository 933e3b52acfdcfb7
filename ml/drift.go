package ml

import (
	"context"
	"errors"
)

// Drift is a random walk with drift: the h-step forecast is Last + h*Drift.
type Drift struct {
	Last  float64 `json:"last"`
	Drift float64 `json:"drift"`
}

func (m *Drift) Describe() string {
	return "Random walk with drift"
}

func (m *Drift) Forecast(ctx context.Context, steps int) ([]float64, error) {
	if steps <= 0 {
		return nil, errors.New("steps must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, steps)
	for h := range out {
		out[h] = m.Last + float64(h+1)*m.Drift
	}
	return out, nil
}
