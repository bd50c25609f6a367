// Package mqtt provides MQTT client connectivity for Gray Logic Diagnostics.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS and payload size checks
//   - Topic subscriptions restored after every reconnect
//   - Last Will and Testament for offline detection
//
// # Architecture
//
// Diagnostic commands reach devices through the OIC protocol bridge. The
// dispatcher never speaks OIC itself; it publishes requests on the bus and
// correlates the bridge's responses by request id.
//
//	Dispatcher ↔ internal/bridges/oic ↔ MQTT Broker ↔ OIC bridge ↔ devices
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.BridgeResponses("oic"), 1, handler)
//
// TLS (cfg.Broker.TLS) should be enabled outside local development.
package mqtt
