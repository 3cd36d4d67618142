// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clk := Fake(start)

	if !clk.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", clk.Now(), start)
	}

	fired := clk.After(10 * time.Second)
	clk.Advance(5 * time.Second)
	select {
	case <-fired:
		t.Fatal("waiter fired before deadline")
	default:
	}

	clk.Advance(5 * time.Second)
	select {
	case at := <-fired:
		if !at.Equal(start.Add(10 * time.Second)) {
			t.Errorf("fired at %v", at)
		}
	default:
		t.Fatal("waiter did not fire at deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	clk := Fake(time.Unix(0, 0))
	select {
	case <-clk.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}
