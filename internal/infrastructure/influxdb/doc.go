// Package influxdb records engagement metrics for ally-core in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes, and health monitoring.
//
// # Measurements
//
//   - auth_attempts: one point per login or refresh, tagged by partition
//     and outcome
//   - registrations: one point per new user or administrator
//   - donations: one point per contribution with the raised amount
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
//
//	client.WriteAuthAttempt("users", influxdb.AttemptLogin, influxdb.OutcomeSuccess)
//
// # Error Handling
//
// Write operations never block a request. Batch failures are delivered to
// the callback registered with SetOnError. Connection and health check
// errors are returned directly.
package influxdb
