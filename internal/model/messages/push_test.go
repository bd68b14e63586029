package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

func TestDecodeSensorUpdate(t *testing.T) {
	p, err := Decode([]byte(`{"type":"sensor_update","sensors":{"s1":{"name":"North","moisture":42}}}`))
	require.NoError(t, err)
	su, ok := p.(*SensorUpdate)
	require.True(t, ok)
	assert.Equal(t, TypeSensorUpdate, su.Type())
	require.Len(t, su.Sensors, 1)
	assert.Equal(t, "North", su.Sensors[0].Record.Name)
}

func TestDecodeSensorUpdateWithoutSensors(t *testing.T) {
	p, err := Decode([]byte(`{"type":"sensor_update"}`))
	require.NoError(t, err)
	su := p.(*SensorUpdate)
	assert.NotNil(t, su.Sensors)
	assert.Len(t, su.Sensors, 0)
}

func TestDecodeLanguageChanged(t *testing.T) {
	p, err := Decode([]byte(`{"type":"language_changed","language":"hi"}`))
	require.NoError(t, err)
	lc, ok := p.(*LanguageChanged)
	require.True(t, ok)
	assert.Equal(t, "hi", lc.Language)

	_, err = Decode([]byte(`{"type":"language_changed"}`))
	assert.Error(t, err)
}

func TestDecodeUnknownAndMalformed(t *testing.T) {
	p, err := Decode([]byte(`{"type":"irrigation_started","field":"f1"}`))
	assert.NoError(t, err)
	assert.Nil(t, p)

	_, err = Decode([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	b, err := Encode(&SensorUpdate{Sensors: entities.SensorSnapshot{{ID: "s9", Record: entities.SensorRecord{Moisture: 12}}}})
	require.NoError(t, err)
	p, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 12, p.(*SensorUpdate).Sensors[0].Record.Moisture)

	b, err = Encode(&LanguageChanged{Language: "en"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"language_changed","language":"en"}`, string(b))
}

func TestChangeLanguageResponse(t *testing.T) {
	assert.True(t, ChangeLanguageResponse{Status: "success"}.OK())
	assert.False(t, ChangeLanguageResponse{Status: "error"}.OK())
}
