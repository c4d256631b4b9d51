package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionType_BothVocabularies(t *testing.T) {
	cases := map[string]ActionType{
		"url":           ActionURL,
		"URL":           ActionURL,
		"app":           ActionApp,
		"Application":   ActionApp,
		"shell":         ActionShell,
		"Shell Command": ActionShell,
		"script":        ActionScript,
		"AppleScript":   ActionScript,
		" applescript ": ActionScript,
	}
	for in, want := range cases {
		got, ok := ParseActionType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseActionType("telnet")
	assert.False(t, ok)
}

func TestActionType_UnmarshalKeepsUnknown(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Shell Command","value":"ls"}`), &a))
	assert.Equal(t, ActionShell, a.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"telnet","value":"x"}`), &a))
	assert.Equal(t, ActionType("telnet"), a.Type)
	assert.False(t, a.Type.Known())

	assert.Error(t, json.Unmarshal([]byte(`{"type":42,"value":"x"}`), &a))
}

func TestAction_Validate(t *testing.T) {
	assert.NoError(t, Action{Type: ActionURL, Value: "https://example.com"}.Validate())

	err := Action{Type: ActionURL, Value: "   "}.Validate()
	assert.True(t, errors.Is(err, ErrEmptyValue))

	err = Action{Type: "fax", Value: "555"}.Validate()
	assert.True(t, errors.Is(err, ErrUnknownActionType))
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Threshold = 0
	assert.True(t, errors.Is(s.Validate(), ErrInvalidThreshold))

	s = DefaultSettings()
	s.Cooldown = -1
	assert.True(t, errors.Is(s.Validate(), ErrNegativeDuration))

	s = DefaultSettings()
	s.Dwell = -0.1
	assert.True(t, errors.Is(s.Validate(), ErrNegativeDuration))
}

func TestSeconds_Duration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Seconds(0.5).Duration())
	assert.Equal(t, time.Second, Seconds(1).Duration())
	assert.Equal(t, time.Duration(0), Seconds(0).Duration())
}

func TestSeconds_DurationSaturates(t *testing.T) {
	assert.Equal(t, time.Duration(math.MaxInt64), Seconds(1e10).Duration())
	assert.Equal(t, time.Duration(math.MaxInt64), Seconds(math.MaxFloat64).Duration())
	assert.Equal(t, time.Duration(math.MinInt64), Seconds(-1e10).Duration())

	// Just below the limit still converts exactly.
	assert.Equal(t, 9e9*time.Second, Seconds(9e9).Duration())
}

func TestDocument_DefaultHasAllCorners(t *testing.T) {
	doc := DefaultDocument()
	for _, c := range AllCorners {
		assert.NotNil(t, doc.Actions(c), c.String())
		assert.Empty(t, doc.Actions(c))
	}
	assert.Equal(t, DefaultSettings(), doc.Settings)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"top_left": [], "top_right": [], "bottom_left": [], "bottom_right": [],
		"settings": {"threshold": 5, "dwell": 0, "cooldown": 1, "launch_at_login": false}
	}`, string(data))
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := DefaultDocument()
	doc.TopLeft = []Action{{Type: ActionURL, Value: "https://a"}}

	clone := doc.Clone()
	clone.TopLeft[0].Value = "https://b"

	assert.Equal(t, "https://a", doc.TopLeft[0].Value)
	assert.Equal(t, 1, doc.ActionCount())
}

func TestParseCorner(t *testing.T) {
	c, err := ParseCorner("Bottom_Right")
	require.NoError(t, err)
	assert.Equal(t, CornerBottomRight, c)

	_, err = ParseCorner("middle")
	assert.True(t, errors.Is(err, ErrUnknownCorner))

	assert.Equal(t, "none", CornerNone.String())
}
