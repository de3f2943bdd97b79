package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the voice service.
const (
	// MeasurementItemState records item states read for voice reports.
	MeasurementItemState = "item_state"

	// MeasurementDirective records one point per executed directive.
	MeasurementDirective = "voice_directive"
)

// WriteDirective records the outcome of one directive.
//
// Parameters:
//   - namespace, name: Directive header (e.g. "Alexa.PowerController", "TurnOn")
//   - outcome: "success" or "error"
//   - errorType: Protocol error type, empty on success
//   - duration: Time spent executing the directive
//
// Example:
//
//	client.WriteDirective("Alexa", "ReportState", "success", "", 42*time.Millisecond)
func (c *Client) WriteDirective(namespace, name, outcome, errorType string, duration time.Duration) {
	tags := map[string]string{
		"namespace": namespace,
		"name":      name,
		"outcome":   outcome,
	}
	if errorType != "" {
		tags["error_type"] = errorType
	}
	c.WritePoint(MeasurementDirective, tags, map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
	})
}

// WritePoint writes a point timestamped now. Dropped when not connected.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint(influxdb.MeasurementItemState,
//	    map[string]string{"item": "Living_Temp", "type": "Number"},
//	    map[string]interface{}{"state": "21.5", "value": 21.5})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
