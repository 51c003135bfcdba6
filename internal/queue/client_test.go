package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"saveit/internal/logger"
	"saveit/internal/notifier"
	"saveit/internal/testutil"
)

func init() {
	logger.Init("test")
}

func TestSMSMessage_JSON(t *testing.T) {
	msg := NewSMSMessage("+14155552671", "Log today", "user-1")
	if msg.ID == "" {
		t.Fatal("expected a generated id")
	}

	data, err := msg.ToJSON()
	testutil.AssertNoError(t, err)

	got, err := SMSMessageFromJSON(data)
	testutil.AssertNoError(t, err)
	if got.ID != msg.ID || got.To != msg.To || got.Body != msg.Body || got.UserID != msg.UserID {
		t.Errorf("decoded %+v, want %+v", got, msg)
	}

	if _, err := SMSMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCircuitBreaker(t *testing.T) {
	c := &Client{url: "amqp://localhost", exchangeName: "sms", queueName: "sms.reminders"}

	if c.isCircuitOpen() {
		t.Fatal("new client should start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("circuit opened after %d failures", maxFailures-1)
	}

	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("circuit should open after maxFailures")
	}

	err := c.PublishSMS(context.Background(), NewSMSMessage("+1415", "x", ""))
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("expected circuit breaker error, got %v", err)
	}

	// Age the last failure past the open timeout.
	c.mu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.mu.Unlock()
	if c.isCircuitOpen() {
		t.Fatal("circuit should be half-open after the timeout")
	}
	if atomic.LoadInt32(&c.state) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", c.state)
	}

	// One failure while half-open reopens it.
	c.recordFailure()
	if atomic.LoadInt32(&c.state) != StateOpen {
		t.Fatalf("state = %d, want open", c.state)
	}

	c.recordSuccess()
	if atomic.LoadInt32(&c.state) != StateClosed || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Error("success should reset the breaker")
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := exponentialBackoff(tt.attempt); got != tt.want {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("Exception (504) Reason: \"channel/connection is not open\""), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{errors.New("PRECONDITION_FAILED - inequivalent arg 'durable'"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestProcess(t *testing.T) {
	valid, _ := NewSMSMessage("+14155552671", "hi", "u1").ToJSON()
	ok := func(context.Context, *SMSMessage) error { return nil }
	fail := func(context.Context, *SMSMessage) error { return errors.New("provider down") }

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handler     func(context.Context, *SMSMessage) error
		want        outcome
	}{
		{"delivered", valid, false, ok, outcomeAck},
		{"bad json dropped", []byte("nope"), false, ok, outcomeDrop},
		{"first failure requeued", valid, false, fail, outcomeRequeue},
		{"second failure dropped", valid, true, fail, outcomeDrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := process(context.Background(), tt.body, tt.redelivered, tt.handler); got != tt.want {
				t.Errorf("process() = %d, want %d", got, tt.want)
			}
		})
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*SMSMessage
	err  error
}

func (f *fakePublisher) PublishSMS(_ context.Context, msg *SMSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestNotifier_Send(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)

	id, err := n.Send(notifier.WithUserID(context.Background(), "user-9"), "+14155552671", "Reminder")
	testutil.AssertNoError(t, err)

	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.ID != id {
		t.Errorf("returned id %q, published %q", id, msg.ID)
	}
	if msg.UserID != "user-9" || msg.To != "+14155552671" || msg.Body != "Reminder" {
		t.Errorf("unexpected message %+v", msg)
	}

	pub.err = errors.New("publish message: circuit breaker is open")
	_, err = n.Send(context.Background(), "+14155552671", "Reminder")
	testutil.AssertAppError(t, err, "SMS_DELIVERY_FAILED")
}

type sendFunc func(ctx context.Context, to, body string) (string, error)

func (f sendFunc) Send(ctx context.Context, to, body string) (string, error) { return f(ctx, to, body) }

func TestDeliver(t *testing.T) {
	var gotTo, gotBody string
	handler := Deliver(sendFunc(func(_ context.Context, to, body string) (string, error) {
		gotTo, gotBody = to, body
		return "SM1", nil
	}))

	err := handler(context.Background(), &SMSMessage{To: "+14155552671", Body: "hi"})
	testutil.AssertNoError(t, err)
	if gotTo != "+14155552671" || gotBody != "hi" {
		t.Errorf("sent to %q body %q", gotTo, gotBody)
	}
}

type consumeFunc func(ctx context.Context, handler func(context.Context, *SMSMessage) error) error

func (f consumeFunc) ConsumeSMS(ctx context.Context, handler func(context.Context, *SMSMessage) error) error {
	return f(ctx, handler)
}

func TestRunWithBackoff(t *testing.T) {
	t.Run("retries connection loss until cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var calls int
		c := consumeFunc(func(context.Context, func(context.Context, *SMSMessage) error) error {
			calls++
			if calls == 3 {
				cancel()
				return context.Canceled
			}
			return errChannelClosed
		})

		err := runWithBackoff(ctx, c, nil, func(int) time.Duration { return time.Millisecond })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 3 {
			t.Errorf("ConsumeSMS called %d times, want 3", calls)
		}
	})

	t.Run("returns other errors", func(t *testing.T) {
		want := errors.New("start consuming: ACCESS_REFUSED")
		c := consumeFunc(func(context.Context, func(context.Context, *SMSMessage) error) error {
			return want
		})
		err := runWithBackoff(context.Background(), c, nil, func(int) time.Duration { return time.Millisecond })
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	})
}
