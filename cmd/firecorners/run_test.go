package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firecorners/cornerd/internal/domain"
)

func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addDaemonFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestOverridesFromFlags_OnlyChanged(t *testing.T) {
	cmd := newFlagCmd(t, "--dwell=0.5")

	o, err := overridesFromFlags(cmd)
	require.NoError(t, err)
	assert.Nil(t, o.Threshold)
	assert.Nil(t, o.Cooldown)
	require.NotNil(t, o.Dwell)
	assert.Equal(t, domain.Seconds(0.5), *o.Dwell)
}

func TestOverridesFromFlags_NoneGiven(t *testing.T) {
	o, err := overridesFromFlags(newFlagCmd(t))
	require.NoError(t, err)
	assert.True(t, o.IsZero())
}

func TestOverridesFromFlags_RejectsInvalid(t *testing.T) {
	_, err := overridesFromFlags(newFlagCmd(t, "--threshold=0"))
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

	_, err = overridesFromFlags(newFlagCmd(t, "--cooldown=-1"))
	assert.ErrorIs(t, err, domain.ErrNegativeDuration)
}

func TestPassthroughArgs(t *testing.T) {
	cmd := newFlagCmd(t, "--threshold=12", "--no-test")

	args := passthroughArgs(cmd)
	assert.Equal(t, []string{"run", "--no-test=true", "--threshold=12"}, args)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", level.String())

	_, err = parseLevel("loud")
	assert.Error(t, err)
}
