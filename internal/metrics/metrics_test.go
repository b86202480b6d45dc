package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeWatch/internal/model"
)

func downturn() *model.Snapshot {
	return &model.Snapshot{
		State:              model.StateDownturn,
		Severity:           2,
		WeeksInState:       3,
		DownturnAlertCount: 4,
		RecoveryAlertCount: 1,
		Escalation:         model.Escalation{Notify: true, Reason: "severity increase within DOWNTURN: 1 -> 2"},
	}
}

func TestObserveEvaluation(t *testing.T) {
	m := New()
	m.ObserveEvaluation(downturn())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.State.WithLabelValues("DOWNTURN")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.State.WithLabelValues("NOMINAL")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Severity))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WeeksInState))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.AlertsTriggered.WithLabelValues("downturn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsTriggered.WithLabelValues("recovery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))

	snap := downturn()
	snap.State = model.StateNominal
	snap.Escalation = model.Escalation{}
	m.ObserveEvaluation(snap)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.State.WithLabelValues("DOWNTURN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.State.WithLabelValues("NOMINAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations))
}

func TestRunFailed(t *testing.T) {
	m := New()
	m.RunFailed()
	m.RunFailed()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("error")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveEvaluation(downturn())

	path := filepath.Join(t.TempDir(), "textfile", "regimewatch.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `regimewatch_state{state="DOWNTURN"} 1`)
	assert.Contains(t, string(data), "regimewatch_severity 2")
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveEvaluation(downturn())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "regimewatch_weeks_in_state 3")
	assert.Contains(t, string(body), `regimewatch_runs_total{result="success"} 1`)
}
