// Package influxdb provides InfluxDB connectivity for Gray Logic Voice.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - item_state: every item state read to answer a directive (tags item, type;
//     fields state and, for numeric states, value)
//   - voice_directive: one point per directive (tags namespace, name, outcome,
//     error_type; field duration_ms)
//
// Every point also carries service=graylogic-voice and the site ID as
// default tags.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDirective("Alexa", "ReportState", "success", "", elapsed)
//
// # Error Handling
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Batch failures are delivered to the SetOnError callback.
// Connection and health check errors are returned directly.
package influxdb
