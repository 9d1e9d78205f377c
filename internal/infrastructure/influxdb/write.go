package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordEventTiming writes a timing measurement for a single fired event.
//
// The drift field captures how far behind schedule the event actually
// fired; it is the primary signal for diagnosing overloaded executors
// or slow commands. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - showName: Name of the running show
//   - event: Description of the event that fired
//   - scheduled: Offset the event was scheduled at
//   - actual: Elapsed show time when the event actually dispatched
func (c *Client) RecordEventTiming(showName, event string, scheduled, actual time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"event_timing",
		map[string]string{
			"show":  showName,
			"event": event,
		},
		map[string]interface{}{
			"scheduled_ms": float64(scheduled.Milliseconds()),
			"actual_ms":    float64(actual.Milliseconds()),
			"drift_ms":     float64((actual - scheduled).Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordRun writes a summary measurement for a completed run.
//
// Parameters:
//   - showName: Name of the show
//   - status: Terminal run status (completed, failed, interrupted, denied)
//   - duration: Wall-clock duration of the run
//   - eventsFired: Number of events that dispatched successfully
func (c *Client) RecordRun(showName, status string, duration time.Duration, eventsFired int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"show_runs",
		map[string]string{
			"show":   showName,
			"status": status,
		},
		map[string]interface{}{
			"duration_ms":  float64(duration.Milliseconds()),
			"events_fired": eventsFired,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "rig-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
