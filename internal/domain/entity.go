// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Corner identifies one of the four screen corners.
type Corner string

const (
	CornerNone        Corner = ""
	CornerTopLeft     Corner = "top_left"
	CornerTopRight    Corner = "top_right"
	CornerBottomLeft  Corner = "bottom_left"
	CornerBottomRight Corner = "bottom_right"
)

// AllCorners lists the corners in document order.
var AllCorners = []Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight}

// ParseCorner converts a document key (e.g. "top_left") to a Corner.
func ParseCorner(s string) (Corner, error) {
	c := Corner(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range AllCorners {
		if c == known {
			return c, nil
		}
	}
	return CornerNone, fmt.Errorf("%w: %q", ErrUnknownCorner, s)
}

// String returns the document key, or "none".
func (c Corner) String() string {
	if c == CornerNone {
		return "none"
	}
	return string(c)
}

// ActionType is the canonical kind of an action.
type ActionType string

const (
	ActionURL    ActionType = "url"
	ActionApp    ActionType = "app"
	ActionShell  ActionType = "shell"
	ActionScript ActionType = "script"
)

// AllActionTypes lists the canonical action kinds.
var AllActionTypes = []ActionType{ActionURL, ActionApp, ActionShell, ActionScript}

// actionTypeAliases maps every accepted spelling to its canonical kind.
// The capitalised labels are the ones written by the configuration editor.
var actionTypeAliases = map[string]ActionType{
	"url":           ActionURL,
	"app":           ActionApp,
	"application":   ActionApp,
	"shell":         ActionShell,
	"shell command": ActionShell,
	"script":        ActionScript,
	"applescript":   ActionScript,
}

var actionTypeLabels = map[ActionType]string{
	ActionURL:    "URL",
	ActionApp:    "Application",
	ActionShell:  "Shell Command",
	ActionScript: "AppleScript",
}

// ParseActionType resolves a canonical name or editor label to an ActionType.
func ParseActionType(s string) (ActionType, bool) {
	t, ok := actionTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Known reports whether t is one of the canonical kinds.
func (t ActionType) Known() bool {
	_, ok := actionTypeLabels[t]
	return ok
}

// Label returns the editor label for t (e.g. "Shell Command").
func (t ActionType) Label() string {
	if label, ok := actionTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// UnmarshalJSON accepts both vocabularies. Unknown names are kept verbatim
// so validation can report them instead of failing the whole document.
func (t *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("action type must be a string: %w", err)
	}
	if canonical, ok := ParseActionType(s); ok {
		*t = canonical
		return nil
	}
	*t = ActionType(s)
	return nil
}

// Action is a single side effect bound to a corner.
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value"`
}

// Validate checks the action before storage or execution.
func (a Action) Validate() error {
	if !a.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownActionType, string(a.Type))
	}
	if strings.TrimSpace(a.Value) == "" {
		return fmt.Errorf("%w (type %s)", ErrEmptyValue, a.Type)
	}
	return nil
}

// Seconds is a non-negative duration expressed in (fractional) seconds,
// which is how the document stores dwell and cooldown.
type Seconds float64

// Duration converts s to a time.Duration, saturating at the representable range.
func (s Seconds) Duration() time.Duration {
	ns := float64(s) * float64(time.Second)
	switch {
	case ns >= float64(math.MaxInt64):
		return math.MaxInt64
	case ns <= float64(math.MinInt64):
		return math.MinInt64
	}
	return time.Duration(ns)
}

// Default settings values.
const (
	DefaultThreshold             = 5
	DefaultDwell         Seconds = 0
	DefaultCooldown      Seconds = 1.0
	DefaultLaunchAtLogin         = false
)

// Settings holds the daemon tunables stored in the document.
type Settings struct {
	Threshold     int     `json:"threshold"`
	Dwell         Seconds `json:"dwell"`
	Cooldown      Seconds `json:"cooldown"`
	LaunchAtLogin bool    `json:"launch_at_login"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Threshold:     DefaultThreshold,
		Dwell:         DefaultDwell,
		Cooldown:      DefaultCooldown,
		LaunchAtLogin: DefaultLaunchAtLogin,
	}
}

// Validate checks the numeric ranges of the settings.
func (s Settings) Validate() error {
	if s.Threshold < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, s.Threshold)
	}
	if s.Dwell < 0 {
		return fmt.Errorf("%w: dwell %v", ErrNegativeDuration, float64(s.Dwell))
	}
	if s.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown %v", ErrNegativeDuration, float64(s.Cooldown))
	}
	return nil
}

// Document is the persisted configuration: per-corner action lists plus settings.
// Field order here is the on-disk key order.
type Document struct {
	TopLeft     []Action `json:"top_left"`
	TopRight    []Action `json:"top_right"`
	BottomLeft  []Action `json:"bottom_left"`
	BottomRight []Action `json:"bottom_right"`
	Settings    Settings `json:"settings"`
}

// DefaultDocument returns an empty document with default settings.
func DefaultDocument() *Document {
	d := &Document{Settings: DefaultSettings()}
	d.Normalize()
	return d
}

// Actions returns the action list bound to c (nil for CornerNone).
func (d *Document) Actions(c Corner) []Action {
	switch c {
	case CornerTopLeft:
		return d.TopLeft
	case CornerTopRight:
		return d.TopRight
	case CornerBottomLeft:
		return d.BottomLeft
	case CornerBottomRight:
		return d.BottomRight
	default:
		return nil
	}
}

// SetActions replaces the action list bound to c.
func (d *Document) SetActions(c Corner, actions []Action) {
	switch c {
	case CornerTopLeft:
		d.TopLeft = actions
	case CornerTopRight:
		d.TopRight = actions
	case CornerBottomLeft:
		d.BottomLeft = actions
	case CornerBottomRight:
		d.BottomRight = actions
	}
}

// Normalize backfills missing corner lists with empty ones so every corner
// key is always present when encoded.
func (d *Document) Normalize() {
	for _, c := range AllCorners {
		if d.Actions(c) == nil {
			d.SetActions(c, []Action{})
		}
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{Settings: d.Settings}
	for _, c := range AllCorners {
		src := d.Actions(c)
		dst := make([]Action, len(src))
		copy(dst, src)
		out.SetActions(c, dst)
	}
	return out
}

// ActionCount returns the total number of actions across all corners.
func (d *Document) ActionCount() int {
	n := 0
	for _, c := range AllCorners {
		n += len(d.Actions(c))
	}
	return n
}

// Point is a pointer position in global display coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a display size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ActionResult captures the outcome of one action dispatch.
type ActionResult struct {
	Corner     Corner
	Action     Action
	TriggerID  string
	Success    bool
	Validation bool // Rejected before dispatch; nothing was executed
	Message    string
	Err        error
	ExecutedAt time.Time
	DurationMs int64
}

// InstanceEntry describes the running daemon process.
// Persisted next to the config for discovery by the CLI.
type InstanceEntry struct {
	Version    int    `json:"version"`
	PID        int    `json:"pid"`
	SessionID  string `json:"session_id"`
	AppVersion string `json:"app_version,omitempty"`
	SocketPath string `json:"socket_path"`
	ConfigPath string `json:"config_path"`
	StartedAt  int64  `json:"started_at"`
}
