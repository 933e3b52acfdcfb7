package dashboard

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// State is where a page ended up after one interaction.
type State string

const (
	StateIdle              State = "idle"
	StateForecastDisplayed State = "forecast_displayed"
)

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

type Info struct {
	Model        string `json:"model"`
	TrainedUntil string `json:"trained_until"`
	LastClose    string `json:"last_close"`
}

type Controls struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Value int `json:"value"`
}

type TableRow struct {
	Date           string `json:"date"`
	PredictedClose string `json:"predicted_close"`
}

type ForecastView struct {
	Days     int        `json:"days"`
	Rows     []TableRow `json:"rows"`
	ChartPNG []byte     `json:"chart_png"`
}

// ChartSrc returns the chart as an inline image URL.
func (f *ForecastView) ChartSrc() template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(f.ChartPNG))
}

// Page is the view model produced by one interaction. Nil sections are not shown.
type Page struct {
	Title    string        `json:"title"`
	State    State         `json:"state"`
	Halted   bool          `json:"halted"`
	Messages []Message     `json:"messages"`
	Info     *Info         `json:"info,omitempty"`
	Controls *Controls     `json:"controls,omitempty"`
	Heading  string        `json:"heading,omitempty"`
	Forecast *ForecastView `json:"forecast,omitempty"`
	Footer   string        `json:"footer,omitempty"`
}

func (p *Page) addMessage(kind MessageKind, text string) {
	p.Messages = append(p.Messages, Message{Kind: kind, Text: text})
}

func (p *Page) halt(text string) {
	p.addMessage(MessageError, text)
	p.Halted = true
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	return pageTemplate.Execute(w, p)
}
