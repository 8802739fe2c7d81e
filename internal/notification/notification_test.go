package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, Alert) error { return f.err }

type recordingNotifier struct{ got []Alert }

func (r *recordingNotifier) Send(_ context.Context, a Alert) error {
	r.got = append(r.got, a)
	return nil
}

func TestMulti_SendsToAllAndJoinsErrors(t *testing.T) {
	rec := &recordingNotifier{}
	boom := errors.New("boom")
	m := Multi{failingNotifier{boom}, rec, NewLogNotifier()}

	err := m.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"})
	assert.ErrorIs(t, err, boom)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "t", rec.got[0].Title)
}

func TestSummaryAlert(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := []model.PredictionRecord{
		{Date: date, Symbol: "A.NS", PredictedPrice: 10, PredictedDirection: model.Up, ProbabilityUp: 0.55},
		{Date: date, Symbol: "B.NS", PredictedPrice: 20, PredictedDirection: model.Up, ProbabilityUp: 0.9},
		{Date: date, Symbol: "C.NS", PredictedPrice: 30, PredictedDirection: model.Down, ProbabilityUp: 0.1},
	}
	a := SummaryAlert(recs, date)

	assert.Equal(t, AlertInfo, a.Level)
	assert.Equal(t, "Daily signals for 2024-03-01", a.Title)
	assert.Contains(t, a.Message, "3 instruments: 2 UP, 1 DOWN")
	assert.Less(t, strings.Index(a.Message, "B.NS"), strings.Index(a.Message, "A.NS"), "strongest UP first")
	assert.Contains(t, a.Message, "C.NS 30.00 (p_up 0.10)")
}

func TestSummaryAlert_Empty(t *testing.T) {
	a := SummaryAlert(nil, time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC))
	assert.Equal(t, AlertWarning, a.Level)
	assert.Contains(t, a.Message, "2024-03-01 16:00:00")
}

func TestTelegramNotifier_Send(t *testing.T) {
	var body map[string]interface{}
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "TOKEN", "42")
	err := n.Send(context.Background(), Alert{Level: AlertCritical, Title: "run failed", Message: "x.y"})
	require.NoError(t, err)

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "MarkdownV2", body["parse_mode"])
	assert.Contains(t, body["text"], `x\.y`)
}

func TestTelegramNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTelegramNotifier(srv.URL, "bad", "1").Send(context.Background(), Alert{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWebhookNotifier_Send(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, n.Send(context.Background(), Alert{Level: AlertInfo, Title: "hello", Message: "world"}))

	assert.Equal(t, "INFO", got.Level)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, "2024-03-01T10:00:00Z", got.TS)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c \(1\.5\)\!`, escapeMarkdown("a_b*c (1.5)!"))
}
