package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/trainbot/core/logger"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, QueueSize: 32})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 20; i++ {
		for _, chat := range []int64{101, 202, -303} {
			chat, i := chat, i
			err := d.Enqueue(chatCtx(chat), "send", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
		}
	}
	d.Close()

	for chat, seq := range got {
		if len(seq) != 20 {
			t.Fatalf("chat %d: %d jobs", chat, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d out of order: %v", chat, seq)
			}
		}
	}
	if d.SentCount() != 60 || d.ErrorCount() != 0 {
		t.Fatalf("sent=%d errs=%d", d.SentCount(), d.ErrorCount())
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	err := d.Enqueue(chatCtx(7), "send", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()
	if calls != 3 || d.SentCount() != 1 {
		t.Fatalf("calls=%d sent=%d", calls, d.SentCount())
	}
}

func TestDispatcherCountsPermanentFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	calls := 0
	_ = d.Enqueue(chatCtx(7), "send", "sendMessage", func() error {
		calls++
		return errors.New("telegram: bad request: chat not found (400)")
	})
	d.Close()
	if calls != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errs=%d", calls, d.ErrorCount())
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	if err := d.Enqueue(chatCtx(1), "send", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v", err)
	}
	if err := d.Enqueue(chatCtx(1), "send", "", nil); err == nil {
		t.Fatal("expected nil run error")
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(chatCtx(1), "send", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	_ = d.Enqueue(chatCtx(1), "send", "", func() error { return nil })
	if err := d.Enqueue(chatCtx(1), "send", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v", err)
	}
	close(release)
	d.Close()
}

func TestDispatcherEnqueueWaitTimesOut(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(chatCtx(1), "send", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	_ = d.Enqueue(chatCtx(1), "send", "", func() error { return nil })

	begin := time.Now()
	err := d.EnqueueWait(chatCtx(1), 30*time.Millisecond, "send", "", func() error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v", err)
	}
	if waited := time.Since(begin); waited < 30*time.Millisecond {
		t.Fatalf("returned after %v", waited)
	}
	close(release)
	d.Close()
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-x_y/sendMessage": EOF`)
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`
	if got := sanitizeErrorMessage(err); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"dial":     &net.OpError{Op: "dial", Err: errors.New("refused")},
		"dns":      &net.DNSError{Err: "no such host", IsNotFound: true},
		"http_4xx": errors.New("telegram: chat not found (400)"),
		"http_5xx": errors.New("telegram: internal (502)"),
		"flood":    errors.New("telegram: too many requests (429)"),
		"unknown":  errors.New("boom"),
	}
	for want, err := range cases {
		if got := classifyError(err); got != want {
			t.Fatalf("classifyError(%v) = %s, want %s", err, got, want)
		}
	}
}
