package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// ====== Tunables ======
const (
	// decayPerMin: -0.1% di umidità al minuto senza irrigazione, in [0..1].
	decayPerMin = 0.001
	// gainPerMin: +0.6% per minuto mentre la valvola è aperta.
	gainPerMin = 0.006
	// defaultSeed: umidità iniziale se SoilGrids non è disponibile.
	defaultSeed = 0.45

	gridSize = 5
)

type simSensor struct {
	id        string
	name      string
	loc       entities.Location
	moisture  float64 // [0..1]
	battery   float64 // [0..100]
	irrigated time.Time
	updated   time.Time
}

// Field simula i sensori di un campo e ne deriva mappa, salute e previsioni.
type Field struct {
	mu      sync.Mutex
	crop    string
	sensors []*simSensor
	rnd     *rand.Rand
	now     func() time.Time
	last    time.Time
}

// NewField crea count sensori distribuiti sulla griglia del campo.
func NewField(count int, crop string, seed int64) *Field {
	if count < 0 {
		count = 0
	}
	f := &Field{
		crop: crop,
		rnd:  rand.New(rand.NewSource(seed)),
		now:  func() time.Time { return time.Now().UTC() },
	}
	f.last = f.now()
	for i := 0; i < count; i++ {
		f.sensors = append(f.sensors, &simSensor{
			id:       fmt.Sprintf("sensor_%d", i+1),
			name:     fmt.Sprintf("Zone %c", 'A'+rune(i%26)),
			loc:      entities.Location{X: float64((i * 2) % gridSize), Y: float64((i * 3) % gridSize)},
			moisture: clamp01(defaultSeed + f.rnd.Float64()*0.2 - 0.1),
			battery:  80 + f.rnd.Float64()*20,
			updated:  f.last,
		})
	}
	return f
}

// Seed fissa l'umidità di partenza di tutti i sensori.
func (f *Field) Seed(moisture float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sensors {
		s.moisture = clamp01(moisture + f.rnd.Float64()*0.1 - 0.05)
	}
}

// Irrigate apre la valvola del sensore id per d.
func (f *Field) Irrigate(id string, d time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sensors {
		if s.id == id {
			s.irrigated = f.now().Add(d)
			return true
		}
	}
	return false
}

// Step avanza la simulazione fino ad ora.
func (f *Field) Step() {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	dtMin := math.Max(0, now.Sub(f.last).Minutes())
	f.last = now
	for _, s := range f.sensors {
		if now.Before(s.irrigated) {
			s.moisture = clamp01(s.moisture + gainPerMin*dtMin)
		} else {
			s.moisture = clamp01(s.moisture - decayPerMin*dtMin + (f.rnd.Float64()-0.5)*0.01)
		}
		// sotto il 25% si irriga automaticamente per 20 minuti
		if s.moisture < 0.25 && !now.Before(s.irrigated) {
			s.irrigated = now.Add(20 * time.Minute)
		}
		s.battery = math.Max(0, s.battery-0.01*dtMin)
		s.updated = now
	}
}

// temperature segue un ciclo giornaliero: minimo alle 4, massimo alle 16.
func (f *Field) temperature(at time.Time, offset float64) float64 {
	h := float64(at.Hour()) + float64(at.Minute())/60
	t := 24 + 8*math.Sin((h-10)/24*2*math.Pi) + offset
	return math.Round(t*10) / 10
}

func (f *Field) humidity(t float64) int {
	return int(math.Round(math.Max(20, math.Min(95, 110-2*t))))
}

// Snapshot restituisce lo stato corrente dei sensori, in ordine di creazione.
func (f *Field) Snapshot() model.SensorSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(model.SensorSnapshot, 0, len(f.sensors))
	for i, s := range f.sensors {
		m := int(math.Round(s.moisture * 100))
		t := f.temperature(s.updated, float64(i%3)-1)
		h := f.humidity(t)
		out = append(out, entities.SensorEntry{ID: s.id, Record: model.SensorRecord{
			Name:           s.name,
			Battery:        int(math.Round(s.battery)),
			Location:       s.loc,
			LastUpdate:     s.updated,
			Moisture:       m,
			MoistureStatus: MoistureStatus(m),
			Temperature:    t,
			TempStatus:     TemperatureStatus(t),
			Humidity:       h,
			HumidityStatus: HumidityStatus(h),
		}})
	}
	return out
}

func MoistureStatus(m int) entities.Status {
	switch {
	case m < 20:
		return entities.StatusDanger
	case m < 35:
		return entities.StatusLow
	case m <= 65:
		return entities.StatusOptimal
	case m <= 80:
		return entities.StatusGood
	default:
		return entities.StatusHigh
	}
}

func TemperatureStatus(t float64) entities.Status {
	switch {
	case t < 10:
		return entities.StatusCold
	case t > 38:
		return entities.StatusDanger
	case t > 32:
		return entities.StatusHot
	case t >= 18 && t <= 28:
		return entities.StatusOptimal
	default:
		return entities.StatusGood
	}
}

func HumidityStatus(h int) entities.Status {
	switch {
	case h < 30:
		return entities.StatusLow
	case h > 85:
		return entities.StatusHigh
	default:
		return entities.StatusGood
	}
}

// FieldMap interpola l'umidità sulla griglia con inverse distance weighting.
func (f *Field) FieldMap() model.FieldMap {
	snap := f.Snapshot()
	grid := make([][]float64, gridSize)
	for y := range grid {
		grid[y] = make([]float64, gridSize)
		for x := range grid[y] {
			grid[y][x] = idw(snap, float64(x), float64(y))
		}
	}
	return model.FieldMap{
		Grid:            grid,
		Recommendations: recommendations(grid),
		SensorCount:     len(snap),
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

func idw(snap model.SensorSnapshot, x, y float64) float64 {
	if len(snap) == 0 {
		return 0
	}
	var num, den float64
	for _, e := range snap {
		dx, dy := e.Record.Location.X-x, e.Record.Location.Y-y
		d2 := dx*dx + dy*dy
		if d2 == 0 {
			return float64(e.Record.Moisture)
		}
		w := 1 / d2
		num += w * float64(e.Record.Moisture)
		den += w
	}
	return math.Round(num / den)
}

func recommendations(grid [][]float64) []string {
	var dry, wet int
	for _, row := range grid {
		for _, v := range row {
			switch {
			case v < 30:
				dry++
			case v >= 70:
				wet++
			}
		}
	}
	var out []string
	if dry > 0 {
		out = append(out, fmt.Sprintf("Irrigate %d critical cells within 24 hours", dry))
	}
	if wet > 0 {
		out = append(out, fmt.Sprintf("Reduce irrigation on %d saturated cells", wet))
	}
	return out
}

// Health riassume lo stato del campo in un punteggio 0..100.
func (f *Field) Health() model.FieldHealth {
	snap := f.Snapshot()
	score := 0.0
	for _, e := range snap {
		switch e.Record.MoistureStatus {
		case entities.StatusOptimal:
			score += 100
		case entities.StatusGood:
			score += 80
		case entities.StatusLow, entities.StatusHigh:
			score += 50
		default:
			score += 20
		}
	}
	if len(snap) > 0 {
		score = math.Round(score / float64(len(snap)))
	}
	return model.FieldHealth{HealthScore: score, Crop: f.crop, OptimalRange: "35-65%"}
}

// Yield stima la resa in tonnellate per ettaro dalla salute del campo.
func (f *Field) Yield() entities.YieldPrediction {
	h := f.Health().HealthScore
	const average = 4.0
	predicted := math.Round((average*(0.6+h/250))*10) / 10
	trend := "Below"
	if predicted >= average {
		trend = "Above"
	}
	conf := entities.ConfidenceMedium
	switch {
	case h >= 80:
		conf = entities.ConfidenceHigh
	case h < 50:
		conf = entities.ConfidenceLow
	}
	rec := "Maintain current irrigation schedule"
	if h < 60 {
		rec = "Increase irrigation frequency to protect yield"
	}
	return entities.YieldPrediction{
		PredictedYield: entities.Scalar(fmt.Sprintf("%.1f tons/ha", predicted)),
		AverageYield:   entities.Scalar(fmt.Sprintf("%.1f", average)),
		Trend:          entities.Scalar(trend),
		Confidence:     conf,
		Recommendation: rec,
	}
}

// Harvest stima la data di raccolta ottimale.
func (f *Field) Harvest() entities.HarvestPrediction {
	h := f.Health().HealthScore
	days := 30 + int((100-h)/5)
	date := time.Now().UTC().AddDate(0, 0, days)
	status, msg := "On track", "Crop development is on schedule"
	if h < 50 {
		status, msg = "Delayed", "Water stress is slowing crop development"
	}
	return entities.HarvestPrediction{
		OptimalHarvestDate: entities.Scalar(date.Format("2006-01-02")),
		DaysRemaining:      entities.Scalar(fmt.Sprint(days)),
		Status:             entities.Scalar(status),
		Message:            msg,
	}
}

// Sample è la media dei sensori per lo storico.
func (f *Field) Sample() model.HistorySample {
	snap := f.Snapshot()
	var s model.HistorySample
	if len(snap) == 0 {
		return s
	}
	for _, e := range snap {
		s.Moisture += float64(e.Record.Moisture)
		s.Temperature += e.Record.Temperature
		s.Humidity += float64(e.Record.Humidity)
	}
	n := float64(len(snap))
	s.Moisture = math.Round(s.Moisture/n*10) / 10
	s.Temperature = math.Round(s.Temperature/n*10) / 10
	s.Humidity = math.Round(s.Humidity/n*10) / 10
	return s
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
