// Package dashboard runs one dashboard interaction at a time: load the cached
// history and model, show the controls and, when asked, the forecast table and chart.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"stockcast/chart"
	"stockcast/forecast"
	"stockcast/market"
	"stockcast/ml"
)

// ErrUnavailable wraps failures to load the history or the model.
var ErrUnavailable = errors.New("dashboard unavailable")

const disclaimer = "This is for educational purposes only. Not financial advice."

type Settings struct {
	Title      string
	ChartTitle string
	DataPath   string // watched for changes; empty when history is not file based
	ModelPath  string
	CacheSize  int
}

// Interaction is a single user action: the slider position and whether the
// forecast button was pressed.
type Interaction struct {
	Days     int  `json:"days"`
	Generate bool `json:"generate"`
}

type sessionModel struct {
	loaded *ml.Loaded
	engine *forecast.Engine
}

type Dashboard struct {
	settings  Settings
	history   *memo[*market.Series]
	model     *memo[*sessionModel]
	loadModel func(path string) (*ml.Loaded, error)
	printer   *message.Printer
	logger    *zap.Logger
}

type Option func(*Dashboard)

// WithModelLoader replaces ml.LoadModel.
func WithModelLoader(load func(path string) (*ml.Loaded, error)) Option {
	return func(d *Dashboard) {
		d.loadModel = load
	}
}

func New(settings Settings, source market.Source, logger *zap.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		settings:  settings,
		loadModel: ml.LoadModel,
		printer:   message.NewPrinter(language.English),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.history = newMemo(func(ctx context.Context) (*market.Series, error) {
		series, err := source.Load(ctx)
		if err != nil {
			return nil, err
		}
		d.logger.Info("price history loaded",
			zap.String("symbol", series.Symbol),
			zap.Int("points", series.Len()),
			zap.Time("last", series.Last().Date))
		return series, nil
	})
	d.model = newMemo(func(ctx context.Context) (*sessionModel, error) {
		loaded, err := d.loadModel(d.settings.ModelPath)
		if err != nil {
			return nil, err
		}
		engine, err := forecast.NewEngine(loaded, d.settings.CacheSize, d.logger)
		if err != nil {
			return nil, err
		}
		d.logger.Info("model loaded",
			zap.String("path", d.settings.ModelPath),
			zap.String("model", loaded.Describe()))
		return &sessionModel{loaded: loaded, engine: engine}, nil
	})
	return d
}

// Run executes one interaction from the top and returns the resulting page.
// Load failures halt the page; forecast failures are reported and leave it usable.
func (d *Dashboard) Run(ctx context.Context, in Interaction) *Page {
	page := &Page{Title: d.settings.Title, State: StateIdle}

	history, err := d.history.Get(ctx)
	if err != nil {
		d.logger.Error("failed to load price history", zap.Error(err))
		page.halt(fmt.Sprintf("Failed to load price data: %v", err))
		return page
	}

	model, err := d.model.Get(ctx)
	if err != nil {
		d.logger.Error("failed to load model", zap.String("path", d.settings.ModelPath), zap.Error(err))
		if errors.Is(err, os.ErrNotExist) {
			page.halt(fmt.Sprintf("'%s' not found. Upload it to the repo.", filepath.Base(d.settings.ModelPath)))
		} else {
			page.halt(fmt.Sprintf("Failed to load model: %v", err))
		}
		return page
	}
	page.addMessage(MessageSuccess, fmt.Sprintf("%s model loaded successfully!", model.loaded.Describe()))

	last := history.Last()
	if trained := model.loaded.TrainedUntil; !trained.IsZero() && !market.Day(trained).Equal(last.Date) {
		d.logger.Warn("model and history end on different dates",
			zap.Time("trained_until", trained),
			zap.Time("history_end", last.Date))
	}
	page.Info = &Info{
		Model:        model.loaded.Describe(),
		TrainedUntil: last.Date.Format(market.DateLayout),
		LastClose:    d.printer.Sprintf("$%.2f", last.Close),
	}
	page.Controls = &Controls{
		Min:   forecast.MinHorizon,
		Max:   forecast.MaxHorizon,
		Value: clampHorizon(in.Days),
	}
	page.Footer = disclaimer

	if !in.Generate {
		return page
	}

	page.Heading = fmt.Sprintf("Forecast for next %d days", in.Days)
	view, err := d.forecastView(ctx, history, model.engine, in.Days)
	if err != nil {
		d.logger.Warn("forecast failed", zap.Int("days", in.Days), zap.Error(err))
		page.addMessage(MessageError, fmt.Sprintf("Forecasting error: %v", err))
		return page
	}
	page.Forecast = view
	page.State = StateForecastDisplayed
	return page
}

func (d *Dashboard) forecastView(ctx context.Context, history *market.Series, engine *forecast.Engine, days int) (*ForecastView, error) {
	result, err := engine.Run(ctx, history, days)
	if err != nil {
		return nil, err
	}
	png, err := chart.RenderPNG(history.Points, result.Points(), chart.DefaultOptions(d.settings.ChartTitle))
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	rows := make([]TableRow, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = TableRow{
			Date:           row.Date.Format(market.DateLayout),
			PredictedClose: row.Rounded().StringFixed(2),
		}
	}
	return &ForecastView{Days: days, Rows: rows, ChartPNG: png}, nil
}

// Forecast runs the forecast without rendering. Load failures wrap ErrUnavailable.
func (d *Dashboard) Forecast(ctx context.Context, days int) (*forecast.Result, *market.Series, error) {
	if err := forecast.ValidateHorizon(days); err != nil {
		return nil, nil, err
	}
	history, err := d.History(ctx)
	if err != nil {
		return nil, nil, err
	}
	model, err := d.model.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	result, err := model.engine.Run(ctx, history, days)
	if err != nil {
		return nil, nil, err
	}
	return result, history, nil
}

// History returns the cached price history. Load failures wrap ErrUnavailable.
func (d *Dashboard) History(ctx context.Context) (*market.Series, error) {
	history, err := d.history.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return history, nil
}

func clampHorizon(days int) int {
	switch {
	case days < forecast.MinHorizon:
		return forecast.MinHorizon
	case days > forecast.MaxHorizon:
		return forecast.MaxHorizon
	default:
		return days
	}
}
