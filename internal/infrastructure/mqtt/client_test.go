package mqtt

import (
	"context"
	"errors"
	"testing"
)

// Offline tests only. Tests that need a live broker are in
// integration_test.go behind the integration build tag.

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_CancelledContext(t *testing.T) {
	client := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			payload: []byte("x"),
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "showrunner/test",
			payload: []byte("x"),
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "showrunner/test",
			payload: make([]byte, maxPayloadSize+1),
			qos:     1,
			wantErr: ErrPublishFailed,
		},
		{
			name:    "disconnected",
			topic:   "showrunner/test",
			payload: []byte("x"),
			qos:     1,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("showrunner/test", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("showrunner/test", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("showrunner/test", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("showrunner/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("showrunner/state/laser-stage-left") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "FixtureCommand",
			builder:  func() string { return Topics{}.FixtureCommand("laser-stage-left") },
			expected: "showrunner/command/laser-stage-left",
		},
		{
			name:     "FixtureState",
			builder:  func() string { return Topics{}.FixtureState("laser-stage-left") },
			expected: "showrunner/state/laser-stage-left",
		},
		{
			name:     "FixtureAck",
			builder:  func() string { return Topics{}.FixtureAck("fog-machine-1") },
			expected: "showrunner/ack/fog-machine-1",
		},
		{
			name:     "ShowStarted",
			builder:  func() string { return Topics{}.ShowStarted("sunset-spectacular") },
			expected: "showrunner/show/sunset-spectacular/started",
		},
		{
			name:     "ShowCompleted",
			builder:  func() string { return Topics{}.ShowCompleted("sunset-spectacular") },
			expected: "showrunner/show/sunset-spectacular/completed",
		},
		{
			name:     "ShowEvent",
			builder:  func() string { return Topics{}.ShowEvent("sunset-spectacular") },
			expected: "showrunner/show/sunset-spectacular/event",
		},
		{
			name:     "SystemStatus",
			builder:  func() string { return Topics{}.SystemStatus() },
			expected: "showrunner/system/status",
		},
		{
			name:     "SystemStop",
			builder:  func() string { return Topics{}.SystemStop() },
			expected: "showrunner/system/stop",
		},
		{
			name:     "AllFixtureStates",
			builder:  func() string { return Topics{}.AllFixtureStates() },
			expected: "showrunner/state/+",
		},
		{
			name:     "AllFixtureAcks",
			builder:  func() string { return Topics{}.AllFixtureAcks() },
			expected: "showrunner/ack/+",
		},
		{
			name:     "AllShowEvents",
			builder:  func() string { return Topics{}.AllShowEvents() },
			expected: "showrunner/show/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.builder(); result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
