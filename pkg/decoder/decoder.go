// Package decoder turns the serialized command tree into a domain.Snapshot.
//
// The payload is a JSON object:
//
//	{
//	  "subsystems": [{"name": "Drive", "command": <command>}],
//	  "scheduled":  [<command>, ...]
//	}
//
// where a command is either a leaf {"name", "active"} or a group {"name", "commands": [...]}.
package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Result is the outcome of one Decode call.
type Result struct {
	// Snapshot is the tree to display. It is nil when nothing has decoded yet
	// or when the source reported an empty payload.
	Snapshot *domain.Snapshot
	// Changed is false when the caller can keep its current render.
	Changed bool
}

// Decoder parses payloads and remembers the last good one, so that polling an
// unchanged payload at a high rate does not rebuild the tree.
// Safe for concurrent use.
type Decoder struct {
	mu      sync.Mutex
	hasLast bool
	lastRaw string
	last    *domain.Snapshot
	logger  *slog.Logger
}

// Option configures the Decoder.
type Option func(*Decoder)

// WithLogger configures a logger for the Decoder.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// New creates a Decoder with no previous snapshot.
func New(opts ...Option) *Decoder {
	d := &Decoder{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses raw against the previously decoded payload.
//
// A nil or unparsable payload returns the previous snapshot unchanged together
// with a *domain.DecodeError. A payload equal to the last good one returns
// Changed=false without parsing. Malformed nodes are skipped; they are reported
// as joined *domain.MalformedNodeError values next to a usable, changed result.
func (d *Decoder) Decode(raw *string) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if raw == nil {
		return Result{Snapshot: d.last}, &domain.DecodeError{}
	}
	if d.hasLast && *raw == d.lastRaw {
		return Result{Snapshot: d.last}, nil
	}

	if *raw == "" {
		d.remember("", nil)
		d.logger.Debug("Empty payload, clearing view")
		return Result{Changed: true}, nil
	}

	snap, err := Parse(*raw)
	if errors.Is(err, domain.ErrDecode) {
		d.logger.Warn("Payload rejected, keeping last render", "err", err)
		return Result{Snapshot: d.last}, err
	}
	if err != nil {
		d.logger.Warn("Malformed nodes skipped", "err", err)
	}

	d.remember(*raw, snap)
	return Result{Snapshot: snap, Changed: true}, err
}

// Previous returns the last successfully decoded snapshot.
func (d *Decoder) Previous() *domain.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *Decoder) remember(raw string, snap *domain.Snapshot) {
	d.hasLast = true
	d.lastRaw = raw
	d.last = snap
}

type wireSubsystem struct {
	Name    string `mapstructure:"name"`
	Command any    `mapstructure:"command"`
}

type wirePayload struct {
	Subsystems []any `mapstructure:"subsystems"`
	Scheduled  []any `mapstructure:"scheduled"`
}

type wireCommand struct {
	Name     string `mapstructure:"name"`
	Active   bool   `mapstructure:"active"`
	Commands []any  `mapstructure:"commands"`
}

// Parse decodes a single payload without memoization.
// It returns a *domain.DecodeError if the payload is not a usable object, or
// the joined malformed-node errors alongside the snapshot otherwise.
func Parse(raw string) (*domain.Snapshot, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &domain.DecodeError{Cause: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &domain.DecodeError{Cause: fmt.Errorf("payload is %s, want object", describe(doc))}
	}

	var payload wirePayload
	if err := strictDecode(obj, &payload); err != nil {
		return nil, &domain.DecodeError{Cause: err}
	}

	snap := &domain.Snapshot{
		Subsystems: make([]domain.Subsystem, 0, len(payload.Subsystems)),
		Scheduled:  make([]domain.Command, 0, len(payload.Scheduled)),
	}
	var errs []error

	for i, rawSub := range payload.Subsystems {
		sub, subErrs := decodeSubsystem(rawSub, domain.SubsystemSectionID(i))
		errs = append(errs, subErrs...)
		if sub != nil {
			snap.Subsystems = append(snap.Subsystems, *sub)
		}
	}

	for i, rawCmd := range payload.Scheduled {
		cmd, cmdErrs := decodeCommand(rawCmd, domain.NodePath{domain.ScheduledSectionID, strconv.Itoa(i)})
		errs = append(errs, cmdErrs...)
		if cmd != nil {
			snap.Scheduled = append(snap.Scheduled, *cmd)
		}
	}

	return snap, errors.Join(errs...)
}

// decodeSubsystem keeps a subsystem whose command is absent or malformed as an empty section.
func decodeSubsystem(raw any, section string) (*domain.Subsystem, []error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, []error{malformed(section, "subsystem is %s, want object", describe(raw))}
	}
	if _, ok := obj["name"]; !ok {
		return nil, []error{malformed(section, "subsystem has no name")}
	}

	var w wireSubsystem
	if err := strictDecode(obj, &w); err != nil {
		return nil, []error{malformed(section, "%v", err)}
	}

	sub := &domain.Subsystem{Name: w.Name}
	if w.Command == nil {
		return sub, nil
	}
	root, errs := decodeCommand(w.Command, domain.NodePath{section})
	sub.Root = root
	return sub, errs
}

// decodeCommand returns nil for a malformed node. Malformed descendants of a
// valid group are dropped while their siblings are kept.
func decodeCommand(raw any, container domain.NodePath) (*domain.Command, []error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, []error{malformed(container.String(), "command is %s, want object", describe(raw))}
	}
	if _, ok := obj["name"]; !ok {
		return nil, []error{malformed(container.String(), "command has no name")}
	}

	var w wireCommand
	if err := strictDecode(obj, &w); err != nil {
		return nil, []error{malformed(container.String(), "%v", err)}
	}

	active, hasActive := obj["active"]
	commands, hasCommands := obj["commands"]
	id := container.NodeID(w.Name)

	switch {
	case hasActive && active == nil:
		return nil, []error{malformed(id, "active is null, want boolean")}
	case hasCommands && commands == nil:
		return nil, []error{malformed(id, "commands is null, want array")}
	case hasActive && hasCommands:
		return nil, []error{malformed(id, "command has both active and commands")}
	case hasActive:
		cmd := domain.Leaf(w.Name, w.Active)
		return &cmd, nil
	case hasCommands:
		var errs []error
		children := make([]domain.Command, 0, len(w.Commands))
		for i, rawChild := range w.Commands {
			child, childErrs := decodeCommand(rawChild, container.Child(w.Name, i))
			errs = append(errs, childErrs...)
			if child != nil {
				children = append(children, *child)
			}
		}
		cmd := domain.Group(w.Name, children...)
		return &cmd, errs
	default:
		return nil, []error{malformed(id, "command has neither active nor commands")}
	}
}

func strictDecode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		ZeroFields:       true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func malformed(path, format string, args ...any) error {
	return &domain.MalformedNodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
