package market

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotIncreasing is returned when a series has duplicate or out-of-order dates.
var ErrNotIncreasing = errors.New("dates are not strictly increasing")

// ErrEmptySeries is returned when a source yields no observations.
var ErrEmptySeries = errors.New("price series is empty")

type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is an ordered closing-price history. It is never modified after loading.
type Series struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Source yields the historical series.
type Source interface {
	Load(ctx context.Context) (*Series, error)
}

func (s *Series) Len() int {
	return len(s.Points)
}

// Last returns the most recent observation.
func (s *Series) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Validate checks the series is non-empty with strictly increasing dates.
func (s *Series) Validate() error {
	if len(s.Points) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("%w: %s follows %s", ErrNotIncreasing,
				s.Points[i].Date.Format(DateLayout), s.Points[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}
