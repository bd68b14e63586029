package view

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

func TestSetLanguageRelabelsBoundNodesOnly(t *testing.T) {
	d := NewDocument(i18n.New(nil), i18n.English)
	snap := entities.SensorSnapshot{{ID: "s1", Record: entities.SensorRecord{
		Name: "MOISTURE", MoistureStatus: entities.StatusOptimal, TempStatus: entities.StatusHot, HumidityStatus: entities.StatusGood,
	}}}
	d.Replace(RegionSensors, RenderSensors(snap))
	d.Replace(RegionChrome, RenderChrome())

	n := d.SetLanguage(i18n.Hindi)
	assert.Greater(t, n, 0)
	assert.Equal(t, i18n.Hindi, d.Language())

	root, _ := d.Region(RegionSensors)
	assert.Equal(t, "खेत सेंसर (1 सक्रिय)", root.Find("sensors-header").Text)
	labels := root.FindClass("reading-label")
	require.Len(t, labels, 3)
	assert.Equal(t, "नमी", labels[0].Text)
	assert.Equal(t, "तापमान", labels[1].Text)
	assert.Equal(t, "आर्द्रता", labels[2].Text)
	statuses := root.FindClass("reading-status")
	assert.Equal(t, "इष्टतम", statuses[0].Text)
	assert.Equal(t, "गर्म", statuses[1].Text)
	// testo non vincolato resta invariato anche se coincide con una label
	assert.Equal(t, "MOISTURE", root.FindClass("sensor-name")[0].Text)
	// chiave presente solo in inglese
	assert.Equal(t, "Last updated: Unknown", root.FindClass("last-update")[0].Text)

	chrome, _ := d.Region(RegionChrome)
	assert.Equal(t, "निगरानी के लिए:", chrome.Find("monitoringLabel").Text)
	assert.Equal(t, "SEROSIS डैशबोर्ड", chrome.Find("title").Text)
	links := chrome.FindClass("menu-link")
	require.Len(t, links, 5)
	assert.Equal(t, "/crops", links[1].Attrs["href"])
	assert.Equal(t, "फसल चुनें", links[1].Text)

	d.SetLanguage(i18n.English)
	root, _ = d.Region(RegionSensors)
	assert.Equal(t, "Field Sensors (1 active)", root.Find("sensors-header").Text)
	assert.Equal(t, "OPTIMAL", root.FindClass("reading-status")[0].Text)
}

func TestReplaceUsesCurrentLanguage(t *testing.T) {
	d := NewDocument(nil, i18n.Hindi)
	d.Replace(RegionSensors, RenderSensors(entities.SensorSnapshot{}))
	root, _ := d.Region(RegionSensors)
	assert.Equal(t, "कोई सेंसर जुड़े नहीं हैं", root.FindClass("no-sensors")[0].Text)
}

func TestRegionReturnsCopy(t *testing.T) {
	d := NewDocument(nil, "")
	d.Replace(RegionChrome, RenderChrome())
	a, _ := d.Region(RegionChrome)
	a.Find("title").Text = "changed"
	b, _ := d.Region(RegionChrome)
	assert.Equal(t, "SEROSIS Dashboard", b.Find("title").Text)
}

func TestRegionsOrderRemoveReset(t *testing.T) {
	d := NewDocument(nil, "")
	d.Replace("custom", &Node{Text: "x"})
	d.Replace(RegionYield, RenderYieldUnavailable())
	d.Replace(RegionSensors, RenderSensors(nil))
	assert.Equal(t, []string{RegionSensors, RegionYield, "custom"}, d.Regions())

	d.Remove(RegionYield, "custom", "missing")
	assert.Equal(t, []string{RegionSensors}, d.Regions())
	assert.False(t, d.Has(RegionYield))

	d.Replace(RegionSensors, nil)
	assert.False(t, d.Has(RegionSensors))

	d.Replace(RegionChrome, RenderChrome())
	d.Reset()
	assert.Empty(t, d.Regions())
}

func TestFprint(t *testing.T) {
	color.NoColor = true
	d := NewDocument(nil, "")
	d.Replace(RegionWeather, RenderWeather(entities.WeatherSnapshot{Current: &entities.CurrentWeather{Temperature: 21, Description: "Clear"}}, nil))
	d.Replace(RegionRecommendations, RenderRecommendations([]string{"Irrigate zone B"}))

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, d))
	out := buf.String()
	assert.Contains(t, out, "[weather]")
	assert.Contains(t, out, "21°C")
	assert.Contains(t, out, "Irrigate zone B")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("[weather]")), bytes.Index(buf.Bytes(), []byte("[recommendations]")))
	// alert nascosto
	assert.NotContains(t, out, "alertText")
}
