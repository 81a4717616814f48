package control

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/nerrad567/farmnode/internal/infrastructure/influxdb"
	"github.com/nerrad567/farmnode/internal/sensor"
)

// Field is one named reading in a telemetry payload.
type Field struct {
	Name    string
	Reading sensor.Reading
}

// TelemetryPayload is the document published once per cycle.
//
// Fields keep the order they were added in and are serialized as a JSON
// object in that order. A failed reading is written as -1.
type TelemetryPayload struct {
	fields []Field
}

// Add appends a field.
func (p *TelemetryPayload) Add(name string, r sensor.Reading) {
	p.fields = append(p.fields, Field{Name: name, Reading: r})
}

// Fields returns the fields in order.
func (p TelemetryPayload) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// Get returns the reading named name.
func (p TelemetryPayload) Get(name string) (sensor.Reading, bool) {
	for _, f := range p.fields {
		if f.Name == name {
			return f.Reading, true
		}
	}
	return sensor.Reading{}, false
}

// Len returns the number of fields.
func (p TelemetryPayload) Len() int {
	return len(p.fields)
}

// MarshalJSON writes the fields as an ordered JSON object with values
// rounded to two decimals.
func (p TelemetryPayload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(strconv.AppendFloat(nil, wireValue(f.Reading), 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// mirrorFields converts the payload for the InfluxDB mirror.
func (p TelemetryPayload) mirrorFields() []influxdb.Field {
	out := make([]influxdb.Field, 0, len(p.fields))
	for _, f := range p.fields {
		out = append(out, influxdb.Field{
			Name:  f.Name,
			Value: round2(f.Reading.Value),
			Valid: f.Reading.Valid,
		})
	}
	return out
}

func wireValue(r sensor.Reading) float64 {
	v := r.Encoded()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sensor.Failed
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
