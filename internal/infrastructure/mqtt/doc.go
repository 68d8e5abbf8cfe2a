// Package mqtt publishes Student Ally domain events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - JSON event envelopes published under {prefix}/events/{name}
//   - Last Will and Testament (LWT) on {prefix}/system/status
//   - Connection health monitoring
//
// Publishing is fire-and-forget from the API's point of view: a failed
// publish is logged by the caller and never fails the HTTP request.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.PublishEvent(mqtt.EventUserRegistered, map[string]any{"id": 7})
package mqtt
