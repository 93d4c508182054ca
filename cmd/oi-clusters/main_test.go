package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/oi-clusters/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"POLYGON_API_KEY", "MASSIVE_API_KEY", "PORT"} {
		t.Setenv(name, "")
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oi-clusters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestExpirationsCommand(t *testing.T) {
	cfg := writeConfig(t, "provider:\n  name: synthetic\n")

	out, err := runCLI(t, "--config", cfg, "expirations", "spy")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 6)
}

func TestAnalyzeCommandWritesFiles(t *testing.T) {
	outDir := t.TempDir()
	cfg := writeConfig(t, fmt.Sprintf("provider:\n  name: synthetic\nexport:\n  dir: %q\nchart:\n  width: 400\n  height: 300\n", outDir))

	out, err := runCLI(t, "--config", cfg, "-v", "0", "analyze", "spy", "--format", "svg", "-k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "SPY exp ")
	assert.Contains(t, out, "current price ")
	assert.Contains(t, out, "call  2")

	csvs, _ := filepath.Glob(filepath.Join(outDir, "SPY * Open Interest.csv"))
	assert.Len(t, csvs, 1)
	charts, _ := filepath.Glob(filepath.Join(outDir, "SPY * Open Interest.svg"))
	assert.Len(t, charts, 1)
}

func TestAnalyzeCommandOutFlagOverridesConfig(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "nested")
	cfg := writeConfig(t, "provider:\n  name: synthetic\n")

	_, err := runCLI(t, "--config", cfg, "analyze", "QQQ", "--out", outDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	cfg := writeConfig(t, "provider:\n  name: synthetic\n")

	_, err := runCLI(t, "--config", cfg, "analyze", "SPY", "--expiry", "1999-01-01")
	assert.ErrorContains(t, err, "no options expiring 1999-01-01")

	_, err = runCLI(t, "--config", cfg, "analyze", "SPY", "--format", "gif")
	assert.ErrorContains(t, err, "unsupported chart format")

	_, err = runCLI(t, "--config", cfg, "analyze", "SPY", "--filter", "gamma > 1")
	assert.ErrorContains(t, err, "strike filter")

	_, err = runCLI(t, "--config", cfg, "analyze")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "provider:\n  name: yahoo\n")

	_, err := runCLI(t, "--config", cfg, "expirations", "SPY")
	assert.ErrorContains(t, err, "provider.name")
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ProviderConfig
		want string
	}{
		{name: "no key", want: "*data.synthDataProvider"},
		{name: "key", cfg: config.ProviderConfig{APIKey: "k"}, want: "*data.massiveDataProvider"},
		{name: "synthetic with key", cfg: config.ProviderConfig{Name: config.ProviderSynthetic, APIKey: "k"}, want: "*data.synthDataProvider"},
		{name: "local", cfg: config.ProviderConfig{Name: config.ProviderLocal}, want: "*data.localFileDataProvider"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = test.cfg
			assert.Equal(t, test.want, fmt.Sprintf("%T", newSource(cfg)))
		})
	}
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "localhost:8080", localURL(":8080"))
	assert.Equal(t, "127.0.0.1:9000", localURL("127.0.0.1:9000"))
}
