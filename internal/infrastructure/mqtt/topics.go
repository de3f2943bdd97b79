package mqtt

// topicPrefix is the root of every topic the voice service publishes.
const topicPrefix = "graylogic/voice/"

// Topics builds MQTT topic names. The zero value is ready to use.
//
//	graylogic/voice/status/{client_id}    retained online/offline status
//	graylogic/voice/command/{item}        commands sent on behalf of a directive
//	graylogic/voice/event/directive       outcome of every executed directive
type Topics struct{}

// Status returns the retained status topic of a service instance.
func (Topics) Status(clientID string) string {
	return topicPrefix + "status/" + clientID
}

// VoiceCommand returns the topic for commands sent to an item.
func (Topics) VoiceCommand(item string) string {
	return topicPrefix + "command/" + item
}

// DirectiveEvents returns the topic carrying directive outcomes.
func (Topics) DirectiveEvents() string {
	return topicPrefix + "event/directive"
}
