package showfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, publishedMessage{topic, payload, qos, retained})
	return nil
}

func (m *mockPublisher) all() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMessage(nil), m.messages...)
}

const sampleYAML = `name: opening-night
duration: 12.5
description: Opening sequence
metadata:
  venue: main-stage
events:
  - at: 0
    description: house down
    commands:
      - fixture_id: house-lights
        action: fade
        parameters:
          level: 0
          seconds: 5
  - at: 5
    async: true
    commands:
      - fixture_id: laser-stage-left
        action: strobe
      - fixture_id: laser-stage-right
        action: strobe
`

func writeShowFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing show file: %v", err)
	}
	return path
}

// ─── Loading ────────────────────────────────────────────────────────────────

func TestLoadFile(t *testing.T) {
	path := writeShowFile(t, t.TempDir(), "opening.yaml", sampleYAML)

	def, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if def.Name != "opening-night" {
		t.Errorf("Name = %q, want opening-night", def.Name)
	}
	if def.Duration != 12.5 {
		t.Errorf("Duration = %v, want 12.5", def.Duration)
	}
	if def.Description != "Opening sequence" {
		t.Errorf("Description = %q", def.Description)
	}
	if def.Metadata["venue"] != "main-stage" {
		t.Errorf("Metadata[venue] = %v, want main-stage", def.Metadata["venue"])
	}
	if len(def.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(def.Events))
	}
	if !def.Events[1].Async {
		t.Error("second event should be async")
	}
	if len(def.Events[1].Commands) != 2 {
		t.Errorf("got %d commands in second event, want 2", len(def.Events[1].Commands))
	}
	params := def.Events[0].Commands[0].Parameters
	if params["level"] != 0 {
		t.Errorf("Parameters[level] = %v, want 0", params["level"])
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeShowFile(t, t.TempDir(), "bad.yaml", "name: [unclosed")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeShowFile(t, dir, "b-second.yaml", strings.Replace(sampleYAML, "opening-night", "second", 1))
	writeShowFile(t, dir, "a-first.yml", strings.Replace(sampleYAML, "opening-night", "first", 1))
	writeShowFile(t, dir, "README.md", "not a show")

	defs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	if defs[0].Name != "first" || defs[1].Name != "second" {
		t.Errorf("definitions out of lexical order: %q, %q", defs[0].Name, defs[1].Name)
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadFailsOnInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	writeShowFile(t, dir, "bad.yaml", "name: broken\nduration: -1\n")

	_, err := Load(dir)
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("expected ErrInvalidDefinition, got %v", err)
	}
}

// ─── Validation ─────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func() Definition {
		return Definition{
			Name:     "test",
			Duration: 10,
			Events: []EventDef{
				{At: 1, Commands: []CommandDef{{FixtureID: "f1", Action: "on"}}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr bool
	}{
		{"valid", func(*Definition) {}, false},
		{"no events", func(d *Definition) { d.Events = nil }, false},
		{"missing name", func(d *Definition) { d.Name = "" }, true},
		{"zero duration", func(d *Definition) { d.Duration = 0 }, true},
		{"negative duration", func(d *Definition) { d.Duration = -5 }, true},
		{"negative offset", func(d *Definition) { d.Events[0].At = -1 }, true},
		{"offset past duration", func(d *Definition) { d.Events[0].At = 11 }, true},
		{"event without commands", func(d *Definition) { d.Events[0].Commands = nil }, true},
		{"missing fixture id", func(d *Definition) { d.Events[0].Commands[0].FixtureID = "" }, true},
		{"missing action", func(d *Definition) { d.Events[0].Commands[0].Action = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(&def)
			err := def.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("expected ErrInvalidDefinition, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ─── Compilation ────────────────────────────────────────────────────────────

func TestCompile(t *testing.T) {
	def, err := LoadFile(writeShowFile(t, t.TempDir(), "opening.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	pub := &mockPublisher{}
	s, err := Compile(def, pub, 1)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if s.Name() != "opening-night" {
		t.Errorf("Name = %q, want opening-night", s.Name())
	}
	if s.Duration() != 12500*time.Millisecond {
		t.Errorf("Duration = %v, want 12.5s", s.Duration())
	}
	if s.Description() != "Opening sequence" {
		t.Errorf("Description = %q", s.Description())
	}

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("got %d timeline events, want 2", len(events))
	}
	if events[0].Offset != 0 || events[1].Offset != 5*time.Second {
		t.Errorf("offsets = %v, %v", events[0].Offset, events[1].Offset)
	}
	if events[0].Async {
		t.Error("first event should be synchronous")
	}
	if !events[1].Async {
		t.Error("second event should be asynchronous")
	}
	if len(events[0].Commands) != 1 || len(events[1].Commands) != 2 {
		t.Errorf("command counts = %d, %d", len(events[0].Commands), len(events[1].Commands))
	}

	// Dispatch everything and inspect the published payloads.
	for _, ev := range events {
		for _, cmd := range ev.Commands {
			if err := cmd(context.Background()); err != nil {
				t.Fatalf("command failed: %v", err)
			}
		}
	}

	msgs := pub.all()
	if len(msgs) != 3 {
		t.Fatalf("got %d published messages, want 3", len(msgs))
	}
	if msgs[0].topic != "showrunner/command/house-lights" {
		t.Errorf("topic = %q", msgs[0].topic)
	}
	if msgs[0].qos != 1 {
		t.Errorf("qos = %d, want 1", msgs[0].qos)
	}
	if msgs[0].retained {
		t.Error("command messages must not be retained")
	}

	var payload map[string]any
	if err := json.Unmarshal(msgs[0].payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["fixture_id"] != "house-lights" {
		t.Errorf("fixture_id = %v", payload["fixture_id"])
	}
	if payload["action"] != "fade" {
		t.Errorf("action = %v", payload["action"])
	}
	id, _ := payload["command_id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("command_id %q is not a uuid: %v", id, err)
	}
	issued, _ := payload["issued_at"].(string)
	if _, err := time.Parse(time.RFC3339Nano, issued); err != nil {
		t.Errorf("issued_at %q is not RFC3339: %v", issued, err)
	}
	params, _ := payload["parameters"].(map[string]any)
	if params["seconds"] != float64(5) {
		t.Errorf("parameters[seconds] = %v, want 5", params["seconds"])
	}
}

func TestCompileFreshCommandID(t *testing.T) {
	def := &Definition{
		Name:     "repeat",
		Duration: 1,
		Events: []EventDef{
			{At: 0, Commands: []CommandDef{{FixtureID: "f1", Action: "pulse"}}},
		},
	}

	pub := &mockPublisher{}
	s, err := Compile(def, pub, 0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	cmd := s.Events()[0].Commands[0]
	for range 2 {
		if err := cmd(context.Background()); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}

	msgs := pub.all()
	var first, second map[string]any
	if err := json.Unmarshal(msgs[0].payload, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(msgs[1].payload, &second); err != nil {
		t.Fatal(err)
	}
	if first["command_id"] == second["command_id"] {
		t.Error("repeated dispatches should carry distinct command ids")
	}
}

func TestCompilePublishError(t *testing.T) {
	def := &Definition{
		Name:     "failing",
		Duration: 1,
		Events: []EventDef{
			{At: 0, Commands: []CommandDef{{FixtureID: "f1", Action: "on"}}},
		},
	}

	pub := &mockPublisher{err: errors.New("broker unavailable")}
	s, err := Compile(def, pub, 0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if err := s.Events()[0].Commands[0](context.Background()); err == nil {
		t.Error("expected publish error to propagate")
	}
}

func TestCompileRejectsInvalidTimeline(t *testing.T) {
	// Validation is skipped here so the timeline's own bounds check fires.
	def := &Definition{
		Name:     "overrun",
		Duration: 1,
		Events: []EventDef{
			{At: 5, Commands: []CommandDef{{FixtureID: "f1", Action: "on"}}},
		},
	}

	if _, err := Compile(def, &mockPublisher{}, 0); err == nil {
		t.Error("expected error for event past show duration")
	}
}
