package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()

	root := &cobra.Command{Use: "emergency-alert", SilenceUsage: true}
	addDistanceCmd(root)
	addCPRCmd(root)
	addCallCmd(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	require.NoError(t, root.Execute())
	return out.String()
}

func TestDistanceCmd(t *testing.T) {
	out := run(t, "", "distance", "0", "0", "0", "0")
	assert.Equal(t, "0 m\n", out)

	out = run(t, "", "distance", "4.0511", "9.7679", "3.8480", "11.5021")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), " km"), out)
}

func TestCallCmd(t *testing.T) {
	out := run(t, "", "call", "3")
	assert.Equal(t, "Calling Ambulance: tel:119\n", out)

	out = run(t, "2\n", "call")
	assert.Contains(t, out, "Which emergency service do you need?")
	assert.Contains(t, out, "Calling Police: tel:117")

	out = run(t, "", "call", "x")
	assert.Contains(t, out, "Emergency Services in Cameroon")
}

func TestCPRCmd(t *testing.T) {
	out := run(t, "", "cpr", "--duration", "1", "--cue", "10ms")
	assert.Contains(t, out, "CPR Timer: 1s - Continue compressions")
	assert.Contains(t, out, "Give 2 rescue breaths - Then restart compressions")
	assert.Contains(t, out, "CPR timer finished.")
}
