package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeWatch/internal/report"
)

func writeTestConfig(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	body := "history:\n  path: " + filepath.Join(dir, "state_history.csv") + "\n" +
		"output:\n  dir: " + filepath.Join(dir, "output") + "\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvaluateFromAlertsFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	cfgPath, dir := writeTestConfig(t)
	alertsPath := filepath.Join(dir, "alerts_snapshot.csv")
	require.NoError(t, os.WriteFile(alertsPath, []byte(
		"alert,triggered\nSPY below 200MA,True\nVIX > 25,True\nARKK -15% from high,True\nHYG -7%,True\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "evaluate", "--alerts", alertsPath, "--date", "2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07 DOWNTURN severity=2 weeks=1 notify=false\n", out)

	history, err := os.ReadFile(filepath.Join(dir, "state_history.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,state,severity\n2025-03-07,DOWNTURN,2\n", string(history))

	out, err = run(t, "--config", cfgPath, "summarize")
	require.NoError(t, err)
	assert.Equal(t, "1 months, 1 quarters\n", out)
	assert.FileExists(t, filepath.Join(dir, "output", report.QuarterlySummaryFile))
}

func TestEvaluateDryRun(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)
	alertsPath := filepath.Join(dir, "alerts.csv")
	require.NoError(t, os.WriteFile(alertsPath, []byte("alert,triggered\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "evaluate", "--alerts", alertsPath, "--date", "2025-03-07", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07 NOMINAL severity=0 weeks=1 notify=false\n", out)
	assert.NoFileExists(t, filepath.Join(dir, "state_history.csv"))
}

func TestEvaluateBadDate(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)
	alertsPath := filepath.Join(dir, "alerts.csv")
	require.NoError(t, os.WriteFile(alertsPath, []byte("alert,triggered\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "evaluate", "--alerts", alertsPath, "--date", "03/07/2025")
	assert.Error(t, err)
}
