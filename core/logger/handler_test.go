package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 16)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	return slog.New(h), func() string {
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, output := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", CompDialogue), slog.LevelInfo, "turn.done",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Split(output(), " ")
	expected := []string{"ts=", "level=INFO", "component=dialogue", "event=turn.done", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONSearchEvent(t *testing.T) {
	log, output := newTestLogger(t, formatJSON)
	LogEvent(context.Background(), log.With("component", CompSearch), slog.LevelWarn, "search.done",
		slog.String("status", "error"),
		slog.String("outcome", "fail"),
		slog.String("result", "failed"),
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Any("err", errors.New("boom")),
	)

	line := output()
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("invalid JSON %s: %v", line, err)
	}
	if fields["status"] != "fail" || fields["outcome"] != "fail" || fields["result"] != "failed" {
		t.Fatalf("fields = %v", fields)
	}
	if fields["duration_ms"] != float64(2) || fields["err"] != "boom" {
		t.Fatalf("fields = %v", fields)
	}
	prefixes := []string{`{"ts":`, `"level":"WARN"`, `"component":"search"`, `"event":"search.done"`, `"status":"fail"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	log, output := newTestLogger(t, formatKV)
	log.LogAttrs(context.Background(), slog.LevelInfo, "", slog.String("outcome", "found"), slog.String("payload", ""))
	line := output()
	if strings.Contains(line, "outcome=") || strings.Contains(line, "payload=") {
		t.Fatalf("unexpected keys in %s", line)
	}
	if !strings.Contains(line, "event=unknown") || !strings.Contains(line, "component=app") {
		t.Fatalf("defaults missing in %s", line)
	}
}

func TestStructuredHandlerGroupsAndQuoting(t *testing.T) {
	log, output := newTestLogger(t, formatKV)
	log.WithGroup("query").Info("search.start", slog.String("from", "New Delhi"), slog.String("to", "Agra"))
	line := output()
	if !strings.Contains(line, `query.from="New Delhi"`) || !strings.Contains(line, "query.to=Agra") {
		t.Fatalf("group keys missing in %s", line)
	}
	if !strings.Contains(line, "event=search.start") {
		t.Fatalf("message not used as event in %s", line)
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	for _, format := range []logFormat{formatKV, formatJSON} {
		log, output := newTestLogger(t, format)
		LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test")
		line := output()
		compact := CompactRID(rawRID)
		switch format {
		case formatKV:
			if !strings.Contains(line, "rid="+compact) || strings.Contains(line, "rid_full=") {
				t.Fatalf("kv rid: %s", line)
			}
		case formatJSON:
			if !strings.Contains(line, `"rid":"`+compact+`"`) || !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
				t.Fatalf("json rid: %s", line)
			}
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 4)
	log := slog.New(newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: aw, format: formatKV}))
	log.Info("dropped")
	log.Warn("kept")
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("output = %s", out)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID(BuildRID(36, 35, 1)); got != "10.z.1" {
		t.Fatalf("CompactRID = %s", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %s", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed %d of 9", allowed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow")
	}
	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parse 2/5 = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parse 10 = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("x/y"); n != 0 || d != 0 {
		t.Fatalf("parse x/y = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("Mum\x00bai​\tX", 20); got != "Mumbai\tX" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("Ahmedabad", 4); got != "Ahme" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}

func TestHelpersNoopBeforeInit(t *testing.T) {
	if L != nil {
		t.Skip("global logger already initialised")
	}
	Info(context.Background(), CompSearch, "search.done", slog.String("status", "ok"))
	if Component(CompSearch) != nil {
		t.Fatal("component logger before init")
	}
}
