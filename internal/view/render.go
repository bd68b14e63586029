package view

import (
	"strconv"
	"time"

	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// Phrasebook resolves a known default-language phrase to its key.
type Phrasebook interface {
	KeyFor(phrase string) (string, bool)
}

const (
	defaultWeatherIcon = "⛅"
	timeLayout         = "15:04:05"
)

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func text(class, s string) *Node { return &Node{Class: class, Text: s} }

func bound(class string, b *Binding) *Node { return &Node{Class: class, Binding: b} }

// Unavailable is the placeholder region shown when a pull fails before
// anything was rendered.
func Unavailable(class, key string) *Node {
	return &Node{Class: class, Children: []*Node{bound("unavailable", Label(key))}}
}

func clock(t time.Time) *Binding {
	if t.IsZero() {
		return Bind("{last_updated}: {unknown_time}", nil)
	}
	return Bind("{last_updated}: {time}", map[string]string{"time": t.Local().Format(timeLayout)})
}

// RenderSensors builds the sensors region: header plus one card per entry
// in snapshot order, or the no-sensors placeholder.
func RenderSensors(snap entities.SensorSnapshot) *Node {
	header := &Node{
		ID:      "sensors-header",
		Class:   "sensors-header",
		Binding: Bind("{field_sensors} ({count} {active})", map[string]string{"count": strconv.Itoa(len(snap))}),
	}
	grid := &Node{ID: "sensors-container", Class: "sensor-grid"}
	if len(snap) == 0 {
		grid.Children = []*Node{bound("no-sensors", Label("no_sensors"))}
	}
	for _, e := range snap {
		grid.Children = append(grid.Children, sensorCard(e))
	}
	return &Node{Class: "sensors", Children: []*Node{header, grid}}
}

func sensorCard(e entities.SensorEntry) *Node {
	r := e.Record
	meta := &Node{Class: "sensor-meta", Children: []*Node{
		text("battery", "🔋 "+strconv.Itoa(r.Battery)+"%"),
		text("location", "📍 "+num(r.Location.X)+","+num(r.Location.Y)),
		bound("last-update", clock(r.LastUpdate)),
	}}
	readings := &Node{Class: "sensor-readings", Children: []*Node{
		reading("moisture", strconv.Itoa(r.Moisture)+"%", r.MoistureStatus),
		reading("temperature", num(r.Temperature)+"°C", r.TempStatus),
		reading("humidity", strconv.Itoa(r.Humidity)+"%", r.HumidityStatus),
	}}
	return &Node{
		ID:    "sensor-" + e.ID,
		Class: "sensor-item",
		Attrs: map[string]string{"sensor-id": e.ID},
		Children: []*Node{
			text("sensor-name", e.DisplayName()),
			meta,
			readings,
		},
	}
}

func reading(key, value string, s entities.Status) *Node {
	return &Node{Class: "reading", Attrs: map[string]string{"reading": key}, Children: []*Node{
		bound("reading-label", Label(key)),
		text("reading-value "+StatusClass(s), value),
		bound("reading-status "+StatusClass(s), Label(statusKey(s))),
	}}
}

// RenderFieldMap builds one cell per grid value, row major.
func RenderFieldMap(fm entities.FieldMap) *Node {
	root := &Node{ID: "fieldMap", Class: "field-map"}
	for y, row := range fm.Grid {
		for x, v := range row {
			pos := strconv.Itoa(x) + "," + strconv.Itoa(y)
			root.Children = append(root.Children, &Node{
				Class: "map-cell moisture-" + MoistureBand(v),
				Text:  num(v) + "%",
				Title: "Position: " + pos + " - Moisture: " + num(v) + "%",
				Attrs: map[string]string{"x": strconv.Itoa(x), "y": strconv.Itoa(y), "value": num(v)},
			})
		}
	}
	return root
}

// RenderRecommendations lists recommendations in order.
func RenderRecommendations(recs []string) *Node {
	root := &Node{ID: "recommendationsList", Class: "recommendations"}
	if len(recs) == 0 {
		root.Children = []*Node{bound("recommendation-loading", Label("no_recommendations"))}
		return root
	}
	for _, r := range recs {
		root.Children = append(root.Children, text("recommendation-item", r))
	}
	return root
}

// RenderMapInfo shows sensor count and generation time of the map.
func RenderMapInfo(fm entities.FieldMap) *Node {
	t, _ := entities.ParseTime(fm.GeneratedAt)
	return &Node{Class: "map-info", Children: []*Node{
		{ID: "sensorCount", Class: "sensor-count", Binding: Bind("{sensors_label}: {count}", map[string]string{"count": strconv.Itoa(fm.SensorCount)})},
		{ID: "mapTime", Class: "map-time", Binding: clock(t)},
	}}
}

// RenderHealth shows the health score with its gauge percentage.
func RenderHealth(h entities.FieldHealth) *Node {
	score := num(h.HealthScore)
	return &Node{Class: "field-health", Children: []*Node{
		{ID: "healthScore", Class: "health-score", Text: score},
		{ID: "healthCrop", Class: "health-crop", Binding: Bind("{crop}: {value}", map[string]string{"value": h.Crop})},
		{ID: "healthRange", Class: "health-range", Binding: Bind("{optimal_range}: {value}", map[string]string{"value": h.OptimalRange})},
		{Class: "health-circle", Attrs: map[string]string{"percent": score}},
	}}
}

// RenderWeather shows current conditions and the first alert. Known
// phrases are bound to their key here, when the text is received.
func RenderWeather(w entities.WeatherSnapshot, pb Phrasebook) *Node {
	root := &Node{Class: "weather"}
	if c := w.Current; c != nil {
		icon := c.Icon
		if icon == "" {
			icon = defaultWeatherIcon
		}
		root.Children = append(root.Children,
			&Node{ID: "weatherTemp", Class: "weather-temp", Text: num(c.Temperature) + "°C"},
			phrase(&Node{ID: "weatherDesc", Class: "weather-desc"}, c.Description, pb),
			&Node{ID: "weatherIcon", Class: "weather-icon", Text: icon},
		)
	}
	alert := &Node{ID: "weatherAlert", Class: "weather-alert", Hidden: true}
	if a, ok := w.FirstAlert(); ok {
		alert.Hidden = false
		alert.Children = []*Node{phrase(&Node{ID: "alertText", Class: "alert-text"}, a, pb)}
	}
	root.Children = append(root.Children, alert)
	return root
}

func phrase(n *Node, s string, pb Phrasebook) *Node {
	if pb != nil {
		if key, ok := pb.KeyFor(s); ok {
			n.Binding = Label(key)
			return n
		}
	}
	n.Text = s
	return n
}

// RenderYield shows a yield prediction.
func RenderYield(p entities.YieldPrediction) *Node {
	return &Node{Class: "yield", Children: []*Node{
		{ID: "predictedYield", Class: "predicted-yield", Text: p.PredictedYield.String()},
		{ID: "averageYield", Class: "average-yield", Binding: Bind("{value} {tons}", map[string]string{"value": p.AverageYield.String()})},
		{ID: "yieldTrend", Class: "yield-trend", Binding: Bind("{value} {average}", map[string]string{"value": p.Trend.String()})},
		{ID: "confidenceLevel", Class: ConfidenceClass(p.Confidence), Text: string(p.Confidence)},
		{ID: "yieldRecommendation", Class: "yield-recommendation", Text: p.Recommendation},
	}}
}

// RenderYieldUnavailable is the yield region after a failed pull.
func RenderYieldUnavailable() *Node {
	return &Node{Class: "yield", Children: []*Node{
		{ID: "yieldRecommendation", Class: "yield-recommendation", Binding: Label("prediction_unavailable")},
	}}
}

// RenderHarvest shows a harvest prediction.
func RenderHarvest(p entities.HarvestPrediction) *Node {
	return &Node{Class: "harvest", Children: []*Node{
		{ID: "harvestDate", Class: "harvest-date", Text: p.OptimalHarvestDate.String()},
		{ID: "daysRemaining", Class: "days-remaining", Text: p.DaysRemaining.String()},
		{ID: "harvestStatus", Class: "harvest-status", Text: p.Status.String()},
		{ID: "harvestMessage", Class: "harvest-message", Text: p.Message},
	}}
}

// RenderHarvestUnavailable is the harvest region after a failed pull.
func RenderHarvestUnavailable() *Node {
	return &Node{Class: "harvest", Children: []*Node{
		{ID: "harvestMessage", Class: "harvest-message", Binding: Label("harvest_unavailable")},
	}}
}

// Menu links of the side menu, in display order.
var menuLinks = []struct{ href, key string }{
	{"/about", "about"},
	{"/crops", "select_crop"},
	{"/contact", "contact"},
	{"/guide", "guide"},
	{"/analytics", "analytics"},
}

// RenderChrome builds the static page labels.
func RenderChrome() *Node {
	menu := &Node{Class: "side-inner"}
	for _, l := range menuLinks {
		menu.Children = append(menu.Children, &Node{Class: "menu-link", Binding: Label(l.key), Attrs: map[string]string{"href": l.href}})
	}
	return &Node{Class: "chrome", Children: []*Node{
		{ID: "title", Class: "page-title", Binding: Label("dashboard_title")},
		{ID: "welcomeText", Class: "welcome", Binding: Label("welcome")},
		{ID: "monitoringLabel", Class: "monitoring", Binding: Bind("{monitoring_for}:", nil)},
		{ID: "changeCropBtn", Class: "change-crop", Binding: Label("change_crop")},
		{ID: "loadingText", Class: "loading", Binding: Label("loading"), Hidden: true},
		menu,
	}}
}
