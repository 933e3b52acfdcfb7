package ml

import "context"

// Forecaster is a fitted time-series model. Forecast returns exactly steps point
// predictions following the end of the data the model was fitted on, and never
// changes the model's state.
type Forecaster interface {
	Forecast(ctx context.Context, steps int) ([]float64, error)
}

// Describer is implemented by models that can name themselves, e.g. "ARIMA(1,1,1)".
type Describer interface {
	Describe() string
}

// Describe returns a display name for model.
func Describe(model Forecaster) string {
	if d, ok := model.(Describer); ok {
		return d.Describe()
	}
	return "forecasting model"
}
