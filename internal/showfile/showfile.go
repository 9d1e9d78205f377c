package showfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jhickman/showrunner/internal/infrastructure/mqtt"
	"github.com/jhickman/showrunner/internal/show"
	"github.com/jhickman/showrunner/internal/timeline"
)

// Definition is a declarative show parsed from a YAML file.
type Definition struct {
	Name        string         `yaml:"name"`
	Duration    float64        `yaml:"duration"` // seconds
	Description string         `yaml:"description"`
	Metadata    map[string]any `yaml:"metadata"`
	Events      []EventDef     `yaml:"events"`
}

// EventDef is a single timeline entry in a definition.
type EventDef struct {
	At          float64      `yaml:"at"` // seconds from show start
	Description string       `yaml:"description"`
	Async       bool         `yaml:"async"`
	Commands    []CommandDef `yaml:"commands"`
}

// CommandDef describes one fixture command within an event.
type CommandDef struct {
	FixtureID  string         `yaml:"fixture_id"`
	Action     string         `yaml:"action"`
	Parameters map[string]any `yaml:"parameters"`
}

// Publisher is the portion of the MQTT client Compile needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// commandPayload is the JSON body published to a fixture's command topic.
type commandPayload struct {
	CommandID  string         `json:"command_id"`
	FixtureID  string         `json:"fixture_id"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
	IssuedAt   string         `json:"issued_at"`
}

// Load reads every *.yaml file in dir and parses it as a show definition.
// Files are processed in lexical order so load failures are deterministic.
//
// Parameters:
//   - dir: Directory to scan (non-recursive)
//
// Returns:
//   - []Definition: Parsed definitions, one per file
//   - error: If the directory cannot be read or any file fails to parse
//     or validate
func Load(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading shows directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var defs []Definition
	for _, path := range paths {
		def, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// LoadFile reads and validates a single show definition file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading show file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing show file %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &def, nil
}

// Validate checks a definition for structural errors.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if d.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidDefinition)
	}
	for i, ev := range d.Events {
		if ev.At < 0 {
			return fmt.Errorf("%w: event %d: at must not be negative", ErrInvalidDefinition, i)
		}
		if ev.At > d.Duration {
			return fmt.Errorf("%w: event %d: at %.3fs exceeds show duration %.3fs",
				ErrInvalidDefinition, i, ev.At, d.Duration)
		}
		if len(ev.Commands) == 0 {
			return fmt.Errorf("%w: event %d: at least one command is required", ErrInvalidDefinition, i)
		}
		for j, cmd := range ev.Commands {
			if cmd.FixtureID == "" {
				return fmt.Errorf("%w: event %d command %d: fixture_id is required", ErrInvalidDefinition, i, j)
			}
			if cmd.Action == "" {
				return fmt.Errorf("%w: event %d command %d: action is required", ErrInvalidDefinition, i, j)
			}
		}
	}
	return nil
}

// Compile turns a definition into a runnable show whose commands publish
// to fixture command topics.
//
// Each command entry becomes a closure that marshals a commandPayload
// (with a fresh uuid per dispatch) and publishes it at the given QoS.
//
// Parameters:
//   - def: Validated definition
//   - pub: MQTT publisher for fixture commands
//   - qos: QoS level for published commands
//
// Returns:
//   - *show.Show: Ready to register with the orchestrator
//   - error: If the definition produces an invalid timeline
func Compile(def *Definition, pub Publisher, qos byte) (*show.Show, error) {
	opts := []show.Option{}
	if def.Description != "" {
		opts = append(opts, show.WithDescription(def.Description))
	}
	if len(def.Metadata) > 0 {
		opts = append(opts, show.WithMetadata(def.Metadata))
	}

	s, err := show.New(def.Name, secondsToDuration(def.Duration), opts...)
	if err != nil {
		return nil, fmt.Errorf("compiling show %q: %w", def.Name, err)
	}

	for i, ev := range def.Events {
		commands := make([]timeline.Command, 0, len(ev.Commands))
		for _, cmd := range ev.Commands {
			commands = append(commands, publishCommand(pub, cmd, qos))
		}

		desc := ev.Description
		if desc == "" {
			desc = fmt.Sprintf("event %d", i)
		}

		at := secondsToDuration(ev.At)
		if len(commands) > 1 {
			if ev.Async {
				err = s.AddAsyncBatch(at, commands, desc)
			} else {
				err = s.AddSyncBatch(at, commands, desc)
			}
		} else {
			if ev.Async {
				err = s.AddAsyncEvent(at, commands[0], desc)
			} else {
				err = s.AddSyncEvent(at, commands[0], desc)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("compiling show %q event %d: %w", def.Name, i, err)
		}
	}

	return s, nil
}

// publishCommand builds the timeline command for one fixture command entry.
func publishCommand(pub Publisher, cmd CommandDef, qos byte) timeline.Command {
	topic := mqtt.Topics{}.FixtureCommand(cmd.FixtureID)
	return func(_ context.Context) error {
		payload, err := json.Marshal(commandPayload{
			CommandID:  uuid.New().String(),
			FixtureID:  cmd.FixtureID,
			Action:     cmd.Action,
			Parameters: cmd.Parameters,
			IssuedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return fmt.Errorf("encoding command for %s: %w", cmd.FixtureID, err)
		}
		if err := pub.Publish(topic, payload, qos, false); err != nil {
			return fmt.Errorf("publishing %s to %s: %w", cmd.Action, cmd.FixtureID, err)
		}
		return nil
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
