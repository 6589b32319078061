// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNowStandsStill(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)
	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}
	c.Advance(time.Minute)
	if !c.Now().Equal(start.Add(time.Minute)) {
		t.Fatalf("Now() after Advance = %v, want %v", c.Now(), start.Add(time.Minute))
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ch := c.After(time.Second)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(time.Unix(1, 0)) {
			t.Fatalf("fired at %v, want %v", fired, time.Unix(1, 0))
		}
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeAfterFiresOnce(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ch := c.After(time.Second)
	c.Advance(time.Second)
	<-ch
	c.Advance(time.Second)
	select {
	case <-ch:
		t.Fatal("one-shot waiter fired twice")
	default:
	}
}

func TestFakeTickerReschedules(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		c.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("tick %d not delivered", i)
		}
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)
	ticker.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestFakeTickerDropsTicksWhenBehind(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	// Three intervals elapse with no reads; channel capacity is 1.
	c.Advance(3 * time.Second)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("ticker queued more than one tick")
	default:
	}
}

func TestFakeSleepReturnsAfterAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	done := make(chan struct{})
	go func() {
		c.Sleep(time.Second)
		close(done)
	}()

	// The sleeper registers its waiter asynchronously; poll Advance
	// until it wakes.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("Sleep never returned")
		default:
			c.Advance(time.Second)
			time.Sleep(time.Millisecond)
		}
	}
}
