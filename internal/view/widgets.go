// Package view composes a normalized DashboardState into the fixed widget
// set of the dashboard page: trend charts, current-conditions cards, map,
// unit toggle. Charts are described as typed view models and drawn
// client-side by Chart.js; the Go side never emits chart markup by hand.
package view

import (
	"fmt"
	"time"

	"WeatherDeck/internal/model"
)

// Dataset is one plotted line or bar group.
type Dataset struct {
	Label  string    `json:"label"`
	Unit   string    `json:"unit"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// ChartWidget is the view model for one chart. Empty widgets render an
// empty-state placeholder instead of a canvas: a missing upstream field is a
// presentation concern, not an error.
type ChartWidget struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Kind     string    `json:"kind"` // "line" or "bar"
	AxisUnit string    `json:"axis_unit"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	Empty    bool      `json:"empty"`
}

// SummaryCard is one current-conditions KPI tile.
type SummaryCard struct {
	Title string
	Value string
	Style string
}

// Page is everything the dashboard template needs for one render.
type Page struct {
	Title         string
	LocationName  string
	MapImageURL   string
	Units         model.UnitSystem
	Cards         []SummaryCard
	Charts        []ChartWidget
	LastRefreshed string
	ErrorMessage  string
	HasState      bool
	GeneratedAt   time.Time
}

// Colors matching the original dashboard's series palette.
var seriesColors = map[string]string{
	model.FieldTempMax:      "#d62728",
	model.FieldTempMin:      "#1f77b4",
	model.FieldTempMean:     "#9467bd",
	model.FieldWindMax:      "#ff7f0e",
	model.FieldWindMean:     "#2ca02c",
	model.FieldWindMin:      "#17becf",
	model.FieldHumidityMax:  "#8c2d04",
	model.FieldHumidityMean: "#08306b",
	model.FieldHumidityMin:  "#00441b",
	model.FieldPrecipSum:    "#3182bd",
	model.FieldRainSum:      "#6baed6",
	model.FieldTemp:         "#d62728",
}

const (
	dailyLabelLayout  = "Jan 02"
	hourlyLabelLayout = "Jan 02 15:04"
)

// BuildPage assembles the page view model from the latest snapshot. units is
// the currently desired unit system, shown on the toggle even before the
// first successful refresh; state may be nil (no successful refresh yet);
// lastErr, when non-nil, surfaces as a banner while any existing state keeps
// displaying.
func BuildPage(title, locationName, mapImageURL string, units model.UnitSystem, state *model.DashboardState, lastErr error) Page {
	p := Page{
		Title:        title,
		LocationName: locationName,
		MapImageURL:  mapImageURL,
		Units:        units,
		GeneratedAt:  time.Now(),
	}
	if lastErr != nil {
		p.ErrorMessage = fmt.Sprintf("Last refresh failed: %v. Showing previously fetched data.", lastErr)
	}
	if state == nil {
		return p
	}

	p.HasState = true
	p.Units = state.Units
	p.LastRefreshed = state.LastRefreshed.Format("2006-01-02 15:04 MST")
	p.Cards = buildCards(state.Current)
	p.Charts = []ChartWidget{
		chartFrom(state.Daily, "daily-temperature", "Daily Temperature Trends", "line", dailyLabelLayout,
			model.FieldTempMax, model.FieldTempMin, model.FieldTempMean),
		chartFrom(state.Hourly, "hourly-temperature", "Hourly Temperature", "line", hourlyLabelLayout,
			model.FieldTemp),
		chartFrom(state.Daily, "daily-wind", "Daily Wind Speed Trends", "line", dailyLabelLayout,
			model.FieldWindMax, model.FieldWindMean, model.FieldWindMin),
		chartFrom(state.Daily, "daily-humidity", "Daily Relative Humidity Trends", "line", dailyLabelLayout,
			model.FieldHumidityMax, model.FieldHumidityMean, model.FieldHumidityMin),
		chartFrom(state.Daily, "daily-precipitation", "Daily Precipitation", "bar", dailyLabelLayout,
			model.FieldPrecipSum, model.FieldRainSum),
	}
	return p
}

// chartFrom builds one widget from whichever of the requested fields are
// present. The x-axis comes from the first present series; all series of one
// cadence group share it by construction.
func chartFrom(group map[string]model.TimeSeries, id, title, kind, labelLayout string, fields ...string) ChartWidget {
	w := ChartWidget{ID: id, Title: title, Kind: kind}
	for _, f := range fields {
		s, ok := group[f]
		if !ok {
			continue
		}
		if len(w.Labels) == 0 {
			w.AxisUnit = s.Unit
			w.Labels = make([]string, len(s.Timestamps))
			for i, t := range s.Timestamps {
				w.Labels[i] = t.Format(labelLayout)
			}
		}
		w.Datasets = append(w.Datasets, Dataset{
			Label:  s.Label,
			Unit:   s.Unit,
			Color:  seriesColors[f],
			Values: s.Values,
		})
	}
	w.Empty = len(w.Datasets) == 0
	return w
}

func buildCards(cc model.CurrentConditions) []SummaryCard {
	card := func(title, style string, v *float64, unit string) SummaryCard {
		c := SummaryCard{Title: title, Value: "–", Style: style}
		if v != nil {
			c.Value = fmt.Sprintf("%.2f %s", *v, unit)
		}
		return c
	}
	return []SummaryCard{
		card("Temperature Now", "dark", cc.Temperature, cc.TempUnit),
		card("Today's High", "danger", cc.TodayMax, cc.TempUnit),
		card("Today's Low", "primary", cc.TodayMin, cc.TempUnit),
		card("Max Wind", "info", cc.WindSpeed, cc.WindUnit),
		card("Mean Humidity", "success", cc.Humidity, cc.HumidityUnit),
	}
}
