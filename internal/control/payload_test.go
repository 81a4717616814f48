package control

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/nerrad567/farmnode/internal/sensor"
)

// ===== TelemetryPayload Tests =====

func TestTelemetryPayload_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{
			name: "full cycle in order",
			fields: []Field{
				{"ph", sensor.Ok(6.8123)},
				{"water_level_top", sensor.Ok(1)},
				{"water_level_bottom", sensor.Ok(0)},
				{"light", sensor.Ok(250)},
			},
			want: `{"ph":6.81,"water_level_top":1,"water_level_bottom":0,"light":250}`,
		},
		{
			name: "failed readings",
			fields: []Field{
				{"ph", sensor.Fail()},
				{"water_level_top", sensor.Fail()},
				{"light", sensor.Ok(0)},
			},
			want: `{"ph":-1,"water_level_top":-1,"light":0}`,
		},
		{
			name:   "rounding",
			fields: []Field{{"light", sensor.Ok(123.456)}},
			want:   `{"light":123.46}`,
		},
		{
			name:   "non-finite encoded as failed",
			fields: []Field{{"light", sensor.Ok(math.Inf(1))}},
			want:   `{"light":-1}`,
		},
		{
			name: "empty",
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p TelemetryPayload
			for _, f := range tt.fields {
				p.Add(f.Name, f.Reading)
			}

			got, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTelemetryPayload_GetAndMirror(t *testing.T) {
	var p TelemetryPayload
	p.Add("ph", sensor.Ok(7.091))
	p.Add("light", sensor.Fail())

	if r, ok := p.Get("ph"); !ok || r.Value != 7.091 {
		t.Errorf("Get(ph) = %+v, %v", r, ok)
	}
	if _, ok := p.Get("water_level_top"); ok {
		t.Error("Get() found an absent field")
	}

	fields := p.mirrorFields()
	if len(fields) != 2 {
		t.Fatalf("mirrorFields() len = %d, want 2", len(fields))
	}
	if fields[0].Value != 7.09 || !fields[0].Valid {
		t.Errorf("mirror ph = %+v, want 7.09 valid", fields[0])
	}
	if fields[1].Valid {
		t.Errorf("mirror light = %+v, want invalid", fields[1])
	}
}
