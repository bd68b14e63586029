package model

import (
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
	"github.com/LeonardoBeccarini/serosis/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	SensorSnapshot  = entities.SensorSnapshot
	SensorRecord    = entities.SensorRecord
	WeatherSnapshot = entities.WeatherSnapshot
	FieldMap        = entities.FieldMap
	FieldHealth     = entities.FieldHealth
	HistorySample   = entities.HistorySample
	Push            = messages.Push
)
