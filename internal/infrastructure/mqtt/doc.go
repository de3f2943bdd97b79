// Package mqtt provides the MQTT publisher of Gray Logic Voice.
//
// The voice service does not consume the bus. It publishes:
//   - graylogic/voice/command/{item}: every command sent to the backend on
//     behalf of a voice directive, so other Gray Logic services can follow
//     voice activity
//   - graylogic/voice/event/directive: the outcome of every executed directive
//   - graylogic/voice/status/{client_id}: retained online/offline status, with
//     a Last Will for unexpected disconnects
//
// The connection auto-reconnects with backoff between the configured initial
// and maximum delays. TLS is enabled with cfg.Broker.TLS.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.VoiceCommand("Kitchen_Light")
//	err = client.Publish(topic, []byte(`{"value":"ON"}`), 1, false)
package mqtt
