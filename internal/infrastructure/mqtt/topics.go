package mqtt

import "fmt"

// Topic prefixes for the Showrunner MQTT namespace.
//
// Fixture topics use the flat scheme: showrunner/{category}/{fixture_id}
const (
	// TopicPrefix is the base for all Showrunner topics.
	TopicPrefix = "showrunner"

	// TopicPrefixShow is the base for show lifecycle topics.
	TopicPrefixShow = "showrunner/show"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "showrunner/system"
)

// Topics provides builders for Showrunner MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.FixtureCommand("laser-stage-left")
//	// Returns: "showrunner/command/laser-stage-left"
type Topics struct{}

// FixtureCommand returns the topic for commands to a fixture.
//
// Example: showrunner/command/laser-stage-left
func (Topics) FixtureCommand(fixtureID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, fixtureID)
}

// FixtureState returns the topic for state updates from a fixture.
//
// Example: showrunner/state/laser-stage-left
func (Topics) FixtureState(fixtureID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, fixtureID)
}

// FixtureAck returns the topic for command acknowledgements from a fixture.
//
// Example: showrunner/ack/laser-stage-left
func (Topics) FixtureAck(fixtureID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, fixtureID)
}

// ShowStarted returns the topic for show start announcements.
//
// Example: showrunner/show/sunset-spectacular/started
func (Topics) ShowStarted(showName string) string {
	return fmt.Sprintf("%s/%s/started", TopicPrefixShow, showName)
}

// ShowCompleted returns the topic for show completion announcements.
//
// Example: showrunner/show/sunset-spectacular/completed
func (Topics) ShowCompleted(showName string) string {
	return fmt.Sprintf("%s/%s/completed", TopicPrefixShow, showName)
}

// ShowEvent returns the topic for per-event progress announcements.
//
// Example: showrunner/show/sunset-spectacular/event
func (Topics) ShowEvent(showName string) string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixShow, showName)
}

// SystemStatus returns the system status topic (also used for LWT).
//
// Example: showrunner/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemStop returns the topic external controllers publish to in order to
// interrupt the running show.
//
// Example: showrunner/system/stop
func (Topics) SystemStop() string {
	return fmt.Sprintf("%s/stop", TopicPrefixSystem)
}

// AllFixtureStates returns a pattern matching all fixture state updates.
//
// Pattern: showrunner/state/+
func (Topics) AllFixtureStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}

// AllFixtureAcks returns a pattern matching all fixture acknowledgements.
//
// Pattern: showrunner/ack/+
func (Topics) AllFixtureAcks() string {
	return fmt.Sprintf("%s/ack/+", TopicPrefix)
}

// AllShowEvents returns a pattern matching all show lifecycle topics.
//
// Pattern: showrunner/show/#
func (Topics) AllShowEvents() string {
	return TopicPrefixShow + "/#"
}
