package dashboard

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stockcast/forecast"
	"stockcast/market"
	"stockcast/ml"
)

const sampleCSV = `Date,Close
2024-01-26,192.42
2024-01-29,191.73
2024-01-30,188.04
2024-01-31,184.40
`

type fixture struct {
	dir       string
	dataPath  string
	modelPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:       dir,
		dataPath:  filepath.Join(dir, "AAPL.csv"),
		modelPath: filepath.Join(dir, "arima_model.json"),
	}
	if err := os.WriteFile(f.dataPath, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) writeModel(t *testing.T, model ml.ARIMA) {
	t.Helper()
	trained := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if err := ml.SaveModel(f.modelPath, "arima", trained, model); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) dashboard() *Dashboard {
	source := &market.CSVSource{Path: f.dataPath, Symbol: "AAPL", DateColumn: "Date", CloseColumn: "Close"}
	return New(Settings{
		Title:      "Apple Stock Price Prediction using ARIMA",
		ChartTitle: "Apple Stock Price Forecast",
		DataPath:   f.dataPath,
		ModelPath:  f.modelPath,
		CacheSize:  16,
	}, source, nil)
}

var randomWalk = ml.ARIMA{Order: ml.Order{D: 1}, Const: 0.5, History: []float64{184.40}}

func TestRunIdle(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)

	page := f.dashboard().Run(context.Background(), Interaction{Days: forecast.DefaultHorizon})
	if page.Halted {
		t.Fatalf("unexpected halt: %+v", page.Messages)
	}
	if page.State != StateIdle {
		t.Errorf("expected idle state, got %s", page.State)
	}
	if page.Controls == nil || page.Controls.Value != 30 || page.Controls.Min != 1 || page.Controls.Max != 90 {
		t.Errorf("unexpected controls %+v", page.Controls)
	}
	if page.Forecast != nil {
		t.Errorf("forecast should not be shown without a trigger")
	}
	if page.Info.TrainedUntil != "2024-01-31" || page.Info.LastClose != "$184.40" {
		t.Errorf("unexpected info %+v", page.Info)
	}
	if len(page.Messages) != 1 || page.Messages[0].Kind != MessageSuccess {
		t.Errorf("expected a success message, got %+v", page.Messages)
	}
	if page.Footer == "" {
		t.Errorf("expected disclaimer footer")
	}
}

func TestRunForecastDisplayed(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)

	page := f.dashboard().Run(context.Background(), Interaction{Days: 3, Generate: true})
	if page.State != StateForecastDisplayed {
		t.Fatalf("expected forecast state, got %s (%+v)", page.State, page.Messages)
	}
	if page.Heading != "Forecast for next 3 days" {
		t.Errorf("unexpected heading %q", page.Heading)
	}
	want := []TableRow{
		{Date: "2024-02-01", PredictedClose: "184.90"},
		{Date: "2024-02-02", PredictedClose: "185.40"},
		{Date: "2024-02-05", PredictedClose: "185.90"},
	}
	if len(page.Forecast.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(page.Forecast.Rows))
	}
	for i := range want {
		if page.Forecast.Rows[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], page.Forecast.Rows[i])
		}
	}
	if len(page.Forecast.ChartPNG) == 0 {
		t.Errorf("expected chart")
	}
}

func TestRunSingleDay(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)

	page := f.dashboard().Run(context.Background(), Interaction{Days: 1, Generate: true})
	if page.Forecast == nil || len(page.Forecast.Rows) != 1 {
		t.Fatalf("expected exactly one row, got %+v", page.Forecast)
	}
}

func TestRunMissingModelHalts(t *testing.T) {
	f := newFixture(t)

	page := f.dashboard().Run(context.Background(), Interaction{Days: 30, Generate: true})
	if !page.Halted {
		t.Fatal("expected page to halt")
	}
	if page.Controls != nil || page.Forecast != nil || page.Info != nil || page.Footer != "" {
		t.Fatalf("halted page must not show further widgets: %+v", page)
	}
	if len(page.Messages) != 1 || !strings.Contains(page.Messages[0].Text, "'arima_model.json' not found") {
		t.Fatalf("unexpected messages %+v", page.Messages)
	}
}

func TestRunModelAppearsLater(t *testing.T) {
	f := newFixture(t)
	d := f.dashboard()

	if page := d.Run(context.Background(), Interaction{Days: 5}); !page.Halted {
		t.Fatal("expected halt without model")
	}
	f.writeModel(t, randomWalk)
	if page := d.Run(context.Background(), Interaction{Days: 5}); page.Halted {
		t.Fatalf("expected recovery once model exists: %+v", page.Messages)
	}
}

func TestRunMalformedDataHalts(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)
	if err := os.WriteFile(f.dataPath, []byte("Date,Price\n2024-01-31,1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	page := f.dashboard().Run(context.Background(), Interaction{Days: 5, Generate: true})
	if !page.Halted || page.Controls != nil {
		t.Fatalf("expected halt on malformed data: %+v", page)
	}
}

func TestRunForecastErrorIsRecoverable(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, ml.ARIMA{Order: ml.Order{P: 1}, AR: []float64{math.MaxFloat64}, History: []float64{math.MaxFloat64}})

	page := f.dashboard().Run(context.Background(), Interaction{Days: 5, Generate: true})
	if page.Halted {
		t.Fatal("forecast errors must not halt the page")
	}
	if page.Forecast != nil {
		t.Fatal("no partial table expected")
	}
	if page.State != StateIdle {
		t.Errorf("expected idle state, got %s", page.State)
	}
	last := page.Messages[len(page.Messages)-1]
	if last.Kind != MessageError || !strings.Contains(last.Text, "non-finite forecast") {
		t.Fatalf("expected error text in message, got %+v", last)
	}
	if page.Controls == nil {
		t.Fatal("controls must stay available")
	}
}

func TestRunWithInjectedModelError(t *testing.T) {
	f := newFixture(t)
	source := &market.CSVSource{Path: f.dataPath, DateColumn: "Date", CloseColumn: "Close"}
	d := New(Settings{ModelPath: f.modelPath}, source, nil, WithModelLoader(func(string) (*ml.Loaded, error) {
		return &ml.Loaded{Forecaster: failingModel{}}, nil
	}))

	page := d.Run(context.Background(), Interaction{Days: 10, Generate: true})
	last := page.Messages[len(page.Messages)-1]
	if last.Text != "Forecasting error: convergence failed" {
		t.Fatalf("unexpected message %q", last.Text)
	}
}

func TestRunOutOfRangeHorizon(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)

	page := f.dashboard().Run(context.Background(), Interaction{Days: 91, Generate: true})
	if page.Forecast != nil {
		t.Fatal("expected no forecast")
	}
	if page.Controls.Value != 90 {
		t.Errorf("expected slider clamped to 90, got %d", page.Controls.Value)
	}
}

func TestForecastUnavailable(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.dashboard().Forecast(context.Background(), 5)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestForecastRejectsHorizonBeforeLoading(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)
	for _, days := range []int{0, forecast.MaxHorizon + 1} {
		result, history, err := f.dashboard().Forecast(context.Background(), days)
		if !errors.Is(err, forecast.ErrHorizonOutOfRange) {
			t.Fatalf("days=%d: expected ErrHorizonOutOfRange, got %v", days, err)
		}
		if result != nil || history != nil {
			t.Fatalf("days=%d: expected no result", days)
		}
	}
}

func TestRunOverflowingDriftIsRecoverable(t *testing.T) {
	f := newFixture(t)
	if err := ml.SaveModel(f.modelPath, "drift", time.Time{}, ml.Drift{Last: 1e308, Drift: 1e308}); err != nil {
		t.Fatal(err)
	}
	page := f.dashboard().Run(context.Background(), Interaction{Days: 3, Generate: true})
	if page.Halted || page.Forecast != nil {
		t.Fatalf("expected recoverable error, got %+v", page)
	}
	last := page.Messages[len(page.Messages)-1]
	if last.Kind != MessageError || !strings.Contains(last.Text, "non-finite") {
		t.Fatalf("unexpected message %+v", last)
	}
}

func TestPageRender(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)

	page := f.dashboard().Run(context.Background(), Interaction{Days: 2, Generate: true})
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Predicted Close", "2024-02-01", "184.90", "data:image/png;base64,", "Generate Forecast"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestStartWatchingReloadsModel(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, randomWalk)
	d := f.dashboard()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.StartWatching(ctx); err != nil {
		t.Fatal(err)
	}

	page := d.Run(ctx, Interaction{Days: 1, Generate: true})
	if page.Forecast.Rows[0].PredictedClose != "184.90" {
		t.Fatalf("unexpected first forecast %+v", page.Forecast.Rows)
	}

	f.writeModel(t, ml.ARIMA{Order: ml.Order{D: 1}, Const: -1, History: []float64{184.40}})
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		page = d.Run(ctx, Interaction{Days: 1, Generate: true})
		if page.Forecast != nil && page.Forecast.Rows[0].PredictedClose == "183.40" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("model change was not picked up")
}

type failingModel struct{}

func (failingModel) Forecast(ctx context.Context, steps int) ([]float64, error) {
	return nil, errors.New("convergence failed")
}
