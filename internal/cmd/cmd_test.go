// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_simulator/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "console", "mock", "feed", "init"} {
		assert.True(t, names[want], want)
	}
}

func TestInitPrint(t *testing.T) {
	out, err := execute(t, "init", "--print")
	require.NoError(t, err)

	assert.Contains(t, out, "tick_interval_ms: 10")
	_, err = config.Parse([]byte(out))
	require.NoError(t, err)
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")

	out, err := execute(t, "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = config.Load(path)
	require.NoError(t, err)

	_, err = execute(t, "init", "-o", path)
	require.ErrorIs(t, err, os.ErrExist)

	_, err = execute(t, "init", "-o", path, "--yes")
	require.NoError(t, err)
}

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: {tick_interval_ms: -1}\n"), 0o644))

	_, err := execute(t, "mock", "--config", path)
	require.ErrorIs(t, err, config.ErrInvalid)
}
