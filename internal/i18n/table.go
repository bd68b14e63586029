package i18n

const (
	English = "en"
	Hindi   = "hi"

	// Default is the fallback language for missing keys.
	Default = English
)

// Table maps language code -> key -> text.
type Table map[string]map[string]string

// Builtin holds the dashboard strings. Keys present only in English fall
// back to English for every other language.
var Builtin = Table{
	English: {
		"dashboard_title": "SEROSIS Dashboard",
		"welcome":         "WELCOME TO",
		"monitoring_for":  "Monitoring for",
		"change_crop":     "Change Crop",
		"field_sensors":   "Field Sensors",
		"active":          "active",
		"loading":         "Loading...",
		"no_sensors":      "No sensors connected",
		"moisture":        "MOISTURE",
		"temperature":     "TEMPERATURE",
		"humidity":        "HUMIDITY",
		"optimal":         "OPTIMAL",
		"good":            "GOOD",
		"low":             "LOW",
		"high":            "HIGH",
		"cold":            "COLD",
		"hot":             "HOT",
		"danger":          "DANGER",
		"unknown":         "UNKNOWN",
		"about":           "About",
		"contact":         "Contact",
		"guide":           "Guide",
		"analytics":       "Analytics",
		"select_crop":     "Select Crop",
		"back":            "Back",
		"water":           "Water",
		"season":          "Season",
		"partly_cloudy":   "Partly Cloudy",
		"heavy_rain":      "Heavy rain expected tomorrow",
		"setup":           "Setup",
		"tips":            "Tips",

		"unknown_time":           "Unknown",
		"no_recommendations":     "No recommendations at this time",
		"sensors_label":          "Sensors",
		"last_updated":           "Last updated",
		"crop":                   "Crop",
		"optimal_range":          "Optimal Range",
		"tons":                   "tons",
		"average":                "average",
		"prediction_unavailable": "Prediction temporarily unavailable",
		"harvest_unavailable":    "Harvest prediction temporarily unavailable",
		"weather_unavailable":    "Weather temporarily unavailable",
		"field_map_unavailable":  "Field map temporarily unavailable",
		"health_unavailable":     "Field health temporarily unavailable",
		"sensor_data_updated":    "Sensor data updated",
		"sensors_load_failed":    "Failed to load sensors",
		"language_changed_to":    "Language changed to",
		"language_change_failed": "Failed to change language",
	},
	Hindi: {
		"dashboard_title": "SEROSIS डैशबोर्ड",
		"welcome":         "आपका स्वागत है",
		"monitoring_for":  "निगरानी के लिए",
		"change_crop":     "फसल बदलें",
		"field_sensors":   "खेत सेंसर",
		"active":          "सक्रिय",
		"loading":         "लोड हो रहा है...",
		"no_sensors":      "कोई सेंसर जुड़े नहीं हैं",
		"moisture":        "नमी",
		"temperature":     "तापमान",
		"humidity":        "आर्द्रता",
		"optimal":         "इष्टतम",
		"good":            "अच्छा",
		"low":             "कम",
		"high":            "उच्च",
		"cold":            "ठंडा",
		"hot":             "गर्म",
		"danger":          "खतरा",
		"unknown":         "अज्ञात",
		"about":           "हमारे बारे में",
		"contact":         "संपर्क करें",
		"guide":           "मार्गदर्शिका",
		"analytics":       "विश्लेषण",
		"select_crop":     "फसल चुनें",
		"back":            "वापस",
		"water":           "पानी",
		"season":          "मौसम",
		"partly_cloudy":   "आंशिक रूप से बादल",
		"heavy_rain":      "कल भारी बारिश की संभावना",
		"setup":           "सेटअप",
		"tips":            "टिप्स",
	},
}

var languageNames = map[string]string{
	English: "English",
	Hindi:   "Hindi",
}

// LanguageName is the display name used in notifications.
func LanguageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}
