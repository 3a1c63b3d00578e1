package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abshkbh/shoal/pkg/command"
)

func TestParseArgs(t *testing.T) {
	args := parseArgs([]string{"1", "hello", `{"version":"1.0"}`, "true"})
	b, err := json.Marshal(args)
	require.NoError(t, err)
	assert.Equal(t, `[1,"hello",{"version":"1.0"},true]`, string(b))

	assert.Empty(t, parseArgs(nil))
}

func TestSplitLine(t *testing.T) {
	name, args, err := splitLine(`deploy '{"version": "1.0"}' "two words"`)
	require.NoError(t, err)
	assert.Equal(t, command.Deploy, name)

	b, err := json.Marshal(command.NewRequest(name, args...))
	require.NoError(t, err)
	assert.Equal(t, `{"command":"deploy","arguments":[{"version":"1.0"},"two words"]}`, string(b))
}

func TestSplitLineErrors(t *testing.T) {
	_, _, err := splitLine("   ")
	require.Error(t, err)

	_, _, err = splitLine(`ping "unterminated`)
	require.Error(t, err)
}

func TestCommandsCoverRegistry(t *testing.T) {
	var names []string
	for _, c := range commands() {
		names = append(names, c.Name)
	}
	for _, name := range command.Registered() {
		assert.Contains(t, names, string(name))
	}
	assert.Contains(t, names, "exec")
}
