// Package influxdb mirrors published telemetry into InfluxDB v2.
//
// The mirror is write-only: each telemetry cycle becomes one point in the
// farm_telemetry measurement, tagged with zone and node, carrying only
// the fields whose sensor read succeeded.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    // mirror is optional; log and continue
//	}
//	defer client.Close()
//
//	client.WriteTelemetry("zone-A", "farmnode-1", fields, time.Now())
//
// Writes are batched according to batch_size and flush_interval.
package influxdb
