package entities

// I payload analitici passano tutti da objectFrom: un campo mancante o di
// tipo sbagliato prende il default invece di far fallire l'intero dominio.

// FieldMap is the payload of /api/field-map.
type FieldMap struct {
	Grid            [][]float64 `json:"field_grid"`
	Recommendations []string    `json:"recommendations"`
	SensorCount     int         `json:"sensor_count"`
	GeneratedAt     string      `json:"generated_at"`
}

func (f *FieldMap) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*f = FieldMap{
		Grid:            gridFrom(m, "field_grid"),
		Recommendations: stringsFrom(m, "recommendations"),
		SensorCount:     intFrom(m, "sensor_count"),
		GeneratedAt:     stringFrom(m, "generated_at"),
	}
	return nil
}

// gridFrom keeps the row/column layout: a non-numeric cell reads as 0 and
// a non-array row as an empty row.
func gridFrom(m map[string]any, key string) [][]float64 {
	rows, _ := m[key].([]any)
	grid := make([][]float64, 0, len(rows))
	for _, r := range rows {
		cells, _ := r.([]any)
		row := make([]float64, len(cells))
		for i, c := range cells {
			if v, ok := numberFrom(c); ok {
				row[i] = v
			}
		}
		grid = append(grid, row)
	}
	return grid
}

// FieldHealth is the payload of /api/field-health.
type FieldHealth struct {
	HealthScore  float64 `json:"health_score"`
	Crop         string  `json:"crop"`
	OptimalRange string  `json:"optimal_range"`
}

func (h *FieldHealth) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*h = FieldHealth{
		HealthScore:  floatFrom(m, "health_score"),
		Crop:         stringFrom(m, "crop"),
		OptimalRange: stringFrom(m, "optimal_range"),
	}
	return nil
}

// Confidence of a yield prediction; only drives styling.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Known reports whether c is one of the fixed confidence levels.
func (c Confidence) Known() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

type YieldPrediction struct {
	PredictedYield Scalar     `json:"predicted_yield"`
	AverageYield   Scalar     `json:"average_yield"`
	Trend          Scalar     `json:"trend"`
	Confidence     Confidence `json:"confidence"`
	Recommendation string     `json:"recommendation"`
}

func yieldFrom(m map[string]any) YieldPrediction {
	return YieldPrediction{
		PredictedYield: scalarFrom(m, "predicted_yield"),
		AverageYield:   scalarFrom(m, "average_yield"),
		Trend:          scalarFrom(m, "trend"),
		Confidence:     Confidence(stringFrom(m, "confidence")),
		Recommendation: stringFrom(m, "recommendation"),
	}
}

func (p *YieldPrediction) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*p = yieldFrom(m)
	return nil
}

// YieldResponse wraps /api/predict-yield. Prediction stays nil unless the
// backend sent an object.
type YieldResponse struct {
	Prediction *YieldPrediction `json:"prediction"`
}

func (r *YieldResponse) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*r = YieldResponse{}
	if obj, ok := m["prediction"].(map[string]any); ok {
		p := yieldFrom(obj)
		r.Prediction = &p
	}
	return nil
}

type HarvestPrediction struct {
	OptimalHarvestDate Scalar `json:"optimal_harvest_date"`
	DaysRemaining      Scalar `json:"days_remaining"`
	Status             Scalar `json:"status"`
	Message            string `json:"message"`
}

func harvestFrom(m map[string]any) HarvestPrediction {
	return HarvestPrediction{
		OptimalHarvestDate: scalarFrom(m, "optimal_harvest_date"),
		DaysRemaining:      scalarFrom(m, "days_remaining"),
		Status:             scalarFrom(m, "status"),
		Message:            stringFrom(m, "message"),
	}
}

func (p *HarvestPrediction) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*p = harvestFrom(m)
	return nil
}

// HarvestResponse wraps /api/harvest-prediction.
type HarvestResponse struct {
	HarvestPrediction *HarvestPrediction `json:"harvest_prediction"`
}

func (r *HarvestResponse) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*r = HarvestResponse{}
	if obj, ok := m["harvest_prediction"].(map[string]any); ok {
		p := harvestFrom(obj)
		r.HarvestPrediction = &p
	}
	return nil
}

// HistorySample is one tick of /api/data.
type HistorySample struct {
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

func (s *HistorySample) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*s = HistorySample{
		Moisture:    floatFrom(m, "moisture"),
		Temperature: floatFrom(m, "temperature"),
		Humidity:    floatFrom(m, "humidity"),
	}
	return nil
}
