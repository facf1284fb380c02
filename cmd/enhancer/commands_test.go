package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-image-enhancer/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-2 * 24 * time.Hour), "2d ago"},
		{now.Add(-30 * 24 * time.Hour), "2026-02-08"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAge(tt.at, now))
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		cmd := &cobra.Command{}
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetIn(strings.NewReader(input))

		assert.Equal(t, want, confirm(cmd, "Proceed?"), "input %q", input)
		assert.Contains(t, out.String(), "Proceed? [y/N]")
	}
}

func TestDescribeURI_HidesPayload(t *testing.T) {
	assert.Equal(t, "inline image/png, 3 B", describeURI("data:image/png;base64,AAAA"))
	assert.Equal(t, "file:///tmp/a.png", describeURI("file:///tmp/a.png"))
}

func TestConfigInit(t *testing.T) {
	prev := configFlag
	t.Cleanup(func() { configFlag = prev })
	configFlag = filepath.Join(t.TempDir(), "nested", "enhancer.toml")

	run := func(args ...string) (string, error) {
		cmd := configCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+configFlag)

	cfg, err := config.LoadClient(configFlag)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultClientConfig().RelayURL, cfg.RelayURL)
	assert.Equal(t, 30, cfg.HistoryCapacity)

	_, err = run("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(configFlag, []byte("history_capacity = 5\n"), 0o644))
	_, err = run("init", "--force")
	require.NoError(t, err)
	cfg, err = config.LoadClient(configFlag)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.HistoryCapacity)
}
