package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXSentinel/internal/model"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNew_NoopWithoutToken(t *testing.T) {
	n := New(Config{}, quietLogger())
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.Send(context.Background(), "hi"))

	n = New(Config{BotToken: "t", ChatID: "1"}, quietLogger())
	assert.IsType(t, &TelegramNotifier{}, n)
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", quietLogger())
	n.APIBase = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hello</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hello</b>", got["text"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", quietLogger())
	n.APIBase = srv.URL
	n.Backoff = 10 * time.Millisecond
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 2))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_SendWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", quietLogger())
	n.APIBase = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := n.SendWithRetry(ctx, "x", 5)
	require.Error(t, err)
}

func TestStartPolling_AnswersCommands(t *testing.T) {
	replies := make(chan string, 1)
	var served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			w.Write([]byte(`{"ok":true}`))
			return
		}
		if atomic.AddInt32(&served, 1) == 1 {
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":5,"message":{"text":"/status","chat":{"id":99}}},
				{"update_id":6,"message":{"text":"hello","chat":{"id":42}}},
				{"update_id":7,"message":{"text":" /Status@FXSentinelBot now ","chat":{"id":42}}}]}`))
			return
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", quietLogger())
	n.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case r := <-replies:
		assert.Equal(t, "got /status", r)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestTelegramNotifier_SendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", quietLogger())
	n.APIBase = srv.URL
	err := n.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNormalizeCommand(t *testing.T) {
	tests := map[string]string{
		"/status":                "/status",
		"  /Positions  ":         "/positions",
		"/status@FXSentinelBot":  "/status",
		"/status@bot extra args": "/status",
		"status":                 "",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeCommand(in), "input %q", in)
	}
}

func TestFormatSignal(t *testing.T) {
	sig := &model.Signal{
		Symbol: "EURUSD", Action: model.ActionBuy, Confidence: 0.82, Price: 1.07551,
		Session: "OVERLAP", Multiplier: 1.3, BuyVotes: 3, SellVotes: 1,
		Reasons: []string{"RSI oversold (27.0)", "price <lower band>"},
		Time:    time.Date(2024, 5, 8, 13, 30, 0, 0, time.UTC),
	}
	out := FormatSignal(sig)
	assert.Contains(t, out, "<b>BUY EURUSD</b> @ 1.07551")
	assert.Contains(t, out, "Confidence: 82%")
	assert.Contains(t, out, "RSI oversold (27.0)")
	assert.Contains(t, out, "&lt;lower band&gt;")
	assert.Contains(t, out, "2024-05-08 13:30 UTC")
}

func TestFormatClosedAndPositions(t *testing.T) {
	open := time.Date(2024, 5, 8, 13, 0, 0, 0, time.UTC)
	p := model.Position{ID: "x", Symbol: "GBPUSD", Side: model.SideSell, Volume: 100, Entry: 1.27, OpenedAt: open}
	p.Close(1.28, open.Add(90*time.Minute), model.CloseStopLoss)

	out := FormatClosed(&p)
	assert.Contains(t, out, "❌")
	assert.Contains(t, out, "STOP_LOSS")
	assert.Contains(t, out, "1h30m0s")

	assert.Equal(t, "No open positions.", FormatPositions(nil, nil))
	list := FormatPositions([]model.Position{{Symbol: "EURUSD", Side: model.SideBuy, Volume: 10, Entry: 1.1}},
		map[string]float64{"EURUSD": 1.2})
	assert.Contains(t, list, "(+1.00)")
}

func TestFormatBacktestAndStatus(t *testing.T) {
	perf := model.Performance{TotalTrades: 4, Winning: 3, Losing: 1, WinRate: 75, TotalPnL: 120, FinalBalance: 10120, ReturnPct: 1.2, MaxDrawdown: 0.4}
	out := FormatBacktest("EURUSD", 500, perf)
	assert.Contains(t, out, "Win rate: 75.0%")
	assert.Contains(t, out, "10120.00 (+1.20%)")

	st := &model.Status{Mode: "paper", Feed: "yahoo", Balance: 10000, Brake: 0.5, Performance: perf,
		LastSignals: []model.Signal{{Symbol: "EURUSD", Action: model.ActionHold, Confidence: 0.3, Price: 1.1}}}
	s := FormatStatus(st)
	assert.Contains(t, s, "paper via yahoo")
	assert.Contains(t, s, "Loss brake: risk ×0.50")
	assert.Contains(t, s, "EURUSD HOLD 30%")
}
