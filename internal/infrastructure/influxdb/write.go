package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// TelemetryMeasurement is the measurement name for mirrored telemetry.
const TelemetryMeasurement = "farm_telemetry"

// Field is one named telemetry value.
type Field struct {
	Name  string
	Value float64
	Valid bool
}

// WriteTelemetry writes one point for a telemetry cycle, tagged with the
// zone and node. Invalid fields are left out so a failed read never
// appears as a measured value. A cycle with no valid fields writes nothing.
func (c *Client) WriteTelemetry(zone, node string, fields []Field, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := telemetryPoint(zone, node, fields, at)
	if point == nil {
		return
	}
	c.writeAPI.WritePoint(point)
}

func telemetryPoint(zone, node string, fields []Field, at time.Time) *write.Point {
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if f.Valid {
			values[f.Name] = f.Value
		}
	}
	if len(values) == 0 {
		return nil
	}

	return write.NewPoint(
		TelemetryMeasurement,
		map[string]string{
			"zone": zone,
			"node": node,
		},
		values,
		at,
	)
}
