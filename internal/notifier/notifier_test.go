package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeWatch/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		RunID:              "run-1",
		Date:               "2025-03-07",
		State:              model.StateDownturn,
		Severity:           2,
		WeeksInState:       1,
		DownturnAlertCount: 4,
		Summary:            "Risk-off conditions persisting for 1 weeks.",
		RulesVersion:       "v1",
		Escalation:         model.Escalation{Notify: true, Reason: "state transition NOMINAL -> DOWNTURN"},
		TriggeredAlerts:    []string{model.AlertSPYBelow200MA, model.AlertVIXAbove25},
	}
}

func newTelegram(url string) *TelegramNotifier {
	tg := NewTelegramNotifier("TOKEN", "42", "")
	tg.APIBase = url
	tg.Backoff = time.Millisecond
	return tg
}

func TestTelegram_SendsHTMLMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTelegram(srv.URL).Notify(context.Background(), EscalationNotification(sampleSnapshot())))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Contains(t, got["text"], "<b>Regime escalation 2025-03-07: DOWNTURN (severity 2)</b>")
	assert.Contains(t, got["text"], "VIX &gt; 25")
	assert.Contains(t, got["text"], "NOMINAL -&gt; DOWNTURN")
}

func TestTelegram_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTelegram(srv.URL).SendWithRetry(context.Background(), "hi", 2))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegram_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTelegram(srv.URL).SendWithRetry(context.Background(), "hi", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegram_PollingDispatchesCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var replies atomic.Int32
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /state ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/state","chat":{"id":99}}}]}`)
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case "/botTOKEN/sendMessage":
			replies.Add(1)
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	var commands []string
	newTelegram(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "ok"
	})
	assert.Equal(t, []string{"/state"}, commands)
	assert.Equal(t, int32(1), replies.Load())
}

func TestGitHub_OpensIssueForEscalationsOnly(t *testing.T) {
	var req struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/markets/issues", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":12,"html_url":"https://github.com/acme/markets/issues/12"}`)
	}))
	defer srv.Close()

	gh := NewGitHubNotifier(context.Background(), "ghp_test", "acme", "markets", []string{"regime-alert"})
	require.NoError(t, gh.SetBaseURL(srv.URL))

	require.NoError(t, gh.Notify(context.Background(), WeeklyNotification(sampleSnapshot())))
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, gh.Notify(context.Background(), EscalationNotification(sampleSnapshot())))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Regime escalation 2025-03-07: DOWNTURN (severity 2)", req.Title)
	assert.Contains(t, req.Body, "Reason: state transition NOMINAL -> DOWNTURN")
	assert.Equal(t, []string{"regime-alert"}, req.Labels)
}

func TestGitHub_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer srv.Close()

	gh := NewGitHubNotifier(context.Background(), "bad", "acme", "markets", nil)
	require.NoError(t, gh.SetBaseURL(srv.URL))
	assert.Error(t, gh.Notify(context.Background(), EscalationNotification(sampleSnapshot())))
}

type recordingNotifier struct {
	name string
	err  error
	got  []Notification
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{name: "a", err: boom}
	b := &recordingNotifier{name: "b"}

	err := Multi{a, b, Noop{}}.Notify(context.Background(), WeeklyNotification(sampleSnapshot()))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestFormatState(t *testing.T) {
	assert.Equal(t, "No evaluation has run yet.", FormatState(nil))

	out := FormatState(sampleSnapshot())
	assert.Contains(t, out, "State: DOWNTURN (severity 2)")
	assert.Contains(t, out, "Downturn alerts: 4 | Recovery alerts: 0")
	assert.Contains(t, out, "  - SPY below 200MA\n")
	assert.Contains(t, out, "Rules v1 | run run-1")
}
