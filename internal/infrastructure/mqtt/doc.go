// Package mqtt provides MQTT client connectivity for Showrunner.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Showrunner uses MQTT to drive fixtures (lights, lasers, fog machines,
// pyrotechnic controllers) and to announce show lifecycle events. The
// broker decouples the engine from fixture-specific controllers.
//
//	Showrunner ↔ MQTT Broker ↔ Fixture Controllers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Listen for external stop requests
//	err = client.Subscribe(mqtt.Topics{}.SystemStop(), 1,
//	    func(topic string, payload []byte) error {
//	        orch.Stop()
//	        return nil
//	    })
//
//	// Fire a fixture command
//	topic := mqtt.Topics{}.FixtureCommand("laser-stage-left")
//	client.Publish(topic, []byte(`{"action":"on"}`), 1, false)
package mqtt
