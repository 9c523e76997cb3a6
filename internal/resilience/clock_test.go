package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

type stepSource struct {
	mu  sync.Mutex
	now time.Time
}

func (s *stepSource) next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(time.Minute)
	return s.now
}

func TestTickClockSharedNow(t *testing.T) {
	src := &stepSource{now: testNow}
	c := NewTickClock(time.Minute, src.next)

	first := c.Now()
	if !c.Now().Equal(first) {
		t.Fatalf("Now changed without a tick")
	}

	ticked := c.Tick()
	if !c.Now().Equal(ticked) || !ticked.After(first) {
		t.Fatalf("Now = %v after tick %v (first %v)", c.Now(), ticked, first)
	}
}

func TestTickClockSubscribers(t *testing.T) {
	src := &stepSource{now: testNow}
	c := NewTickClock(time.Minute, src.next)
	ch := c.Subscribe()

	want := c.Tick()
	// второй тик теряется: буфер подписчика занят
	c.Tick()

	select {
	case got := <-ch:
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	default:
		t.Fatalf("subscriber got nothing")
	}
}

func TestTickClockRunClosesSubscribers(t *testing.T) {
	c := NewTickClock(time.Millisecond, nil)
	ch := c.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
	for range ch {
	}
}

func TestTickClockSubscribeAfterStop(t *testing.T) {
	c := NewTickClock(time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	select {
	case _, ok := <-c.Subscribe():
		if ok {
			t.Fatalf("late subscriber got a value, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("late subscriber channel never closed")
	}
}

func TestFixedClock(t *testing.T) {
	if got := FixedClock(testNow).Now(); !got.Equal(testNow) {
		t.Fatalf("Now = %v", got)
	}
}
