package ml

import (
	"context"
	"math"
	"testing"
)

func assertClose(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestARIMAForecast(t *testing.T) {
	tests := []struct {
		name  string
		model ARIMA
		want  []float64
	}{
		{
			name:  "ar1",
			model: ARIMA{Order: Order{P: 1}, Const: 1, AR: []float64{0.5}, History: []float64{10}},
			want:  []float64{6, 4, 3},
		},
		{
			name:  "random walk with drift",
			model: ARIMA{Order: Order{D: 1}, Const: 2, History: []float64{100}},
			want:  []float64{102, 104, 106},
		},
		{
			name: "arima111",
			model: ARIMA{
				Order:     Order{P: 1, D: 1, Q: 1},
				AR:        []float64{0.5},
				MA:        []float64{0.4},
				History:   []float64{10, 12},
				Residuals: []float64{1},
			},
			want: []float64{13.4, 14.1, 14.45},
		},
		{
			name:  "second difference",
			model: ARIMA{Order: Order{D: 2}, History: []float64{1, 2, 4}},
			want:  []float64{6, 8, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.model.Forecast(context.Background(), len(tt.want))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertClose(t, got, tt.want)
		})
	}
}

func TestARIMAForecastIsStateless(t *testing.T) {
	model := &ARIMA{
		Order:     Order{P: 2, D: 1, Q: 1},
		Const:     0.1,
		AR:        []float64{0.3, -0.1},
		MA:        []float64{0.2},
		History:   []float64{100, 101, 103, 102},
		Residuals: []float64{0.5, -0.3},
	}
	long, err := model.Forecast(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	short, err := model.Forecast(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	again, err := model.Forecast(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, short, long[:3])
	assertClose(t, again, long)
	assertClose(t, model.History, []float64{100, 101, 103, 102})
}

func TestARIMAValidate(t *testing.T) {
	tests := map[string]ARIMA{
		"ar length":     {Order: Order{P: 2}, AR: []float64{0.1}, History: []float64{1, 2}},
		"ma length":     {Order: Order{Q: 1}, History: []float64{1}, Residuals: []float64{0}},
		"short history": {Order: Order{P: 1, D: 1}, AR: []float64{0.1}, History: []float64{1}},
		"no history":    {},
		"residuals":     {Order: Order{Q: 1}, MA: []float64{0.1}, History: []float64{1}},
	}
	for name, model := range tests {
		t.Run(name, func(t *testing.T) {
			if err := model.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
			if _, err := model.Forecast(context.Background(), 1); err == nil {
				t.Fatal("expected forecast error")
			}
		})
	}
}

func TestARIMARejectsNonPositiveSteps(t *testing.T) {
	model := &ARIMA{History: []float64{1}}
	if _, err := model.Forecast(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero steps")
	}
}

func TestARIMANonFinite(t *testing.T) {
	model := &ARIMA{Order: Order{P: 1}, AR: []float64{math.MaxFloat64}, History: []float64{math.MaxFloat64}}
	if _, err := model.Forecast(context.Background(), 2); err == nil {
		t.Fatal("expected non-finite error")
	}
}

func TestDriftForecast(t *testing.T) {
	model := &Drift{Last: 50, Drift: -0.5}
	got, err := model.Forecast(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, got, []float64{49.5, 49, 48.5, 48})
}
