// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tillworks/till/lib/clock"
	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/messaging"
)

// syncSession implements just enough of messaging.Session for the sync
// loop: a scripted sequence of responses and errors.
type syncSession struct {
	messaging.Session // panics on anything the loop should not call

	mu        sync.Mutex
	script    []syncStep
	callIndex int
	sinces    []string
	joined    []ref.RoomID
}

type syncStep struct {
	response *messaging.SyncResponse
	err      error
}

func (s *syncSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinces = append(s.sinces, options.Since)
	if s.callIndex >= len(s.script) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	step := s.script[s.callIndex]
	s.callIndex++
	return step.response, step.err
}

func (s *syncSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = append(s.joined, roomID)
	return roomID, nil
}

func TestInitialSync(t *testing.T) {
	session := &syncSession{script: []syncStep{
		{response: &messaging.SyncResponse{NextBatch: "batch-1"}},
	}}

	since, response, err := InitialSync(context.Background(), session, "")
	if err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	if since != "batch-1" {
		t.Errorf("since = %q", since)
	}
	if response == nil {
		t.Fatal("nil response")
	}
	if session.sinces[0] != "" {
		t.Errorf("initial sync sent since=%q, want empty", session.sinces[0])
	}
}

func TestRunSyncLoopAdvancesToken(t *testing.T) {
	session := &syncSession{script: []syncStep{
		{response: &messaging.SyncResponse{NextBatch: "batch-2"}},
		{response: &messaging.SyncResponse{NextBatch: "batch-3"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	handled := 0
	handler := func(ctx context.Context, response *messaging.SyncResponse) {
		handled++
		if handled == 2 {
			cancel()
		}
	}

	RunSyncLoop(ctx, session, SyncConfig{}, "batch-1", handler, clock.Real(), testLogger())

	if handled != 2 {
		t.Errorf("handler called %d times, want 2", handled)
	}
	want := []string{"batch-1", "batch-2"}
	for index, since := range want {
		if session.sinces[index] != since {
			t.Errorf("sync %d sent since=%q, want %q", index, session.sinces[index], since)
		}
	}
}

func TestRunSyncLoopRetriesWithBackoff(t *testing.T) {
	session := &syncSession{script: []syncStep{
		{err: errors.New("connection refused")},
		{response: &messaging.SyncResponse{NextBatch: "batch-2"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	fakeClock := clock.Fake(time.Now())
	handled := make(chan struct{})
	handler := func(ctx context.Context, response *messaging.SyncResponse) {
		close(handled)
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "batch-1", handler, fakeClock, testLogger())
	}()

	// The loop is parked in the 1-second backoff after the first
	// failure. Advancing the clock releases it.
	deadline := time.Now().Add(5 * time.Second)
	for {
		fakeClock.Advance(time.Second)
		select {
		case <-handled:
		case <-time.After(10 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("sync loop never recovered from the transient error")
			}
			continue
		}
		break
	}
	<-done

	// The retry reused the same since token.
	if session.sinces[0] != "batch-1" || session.sinces[1] != "batch-1" {
		t.Errorf("sinces = %v, want retry with batch-1", session.sinces)
	}
}

func TestAcceptInvites(t *testing.T) {
	session := &syncSession{}
	cartRoom := ref.MustParseRoomID("!cart:till.local")
	invites := map[ref.RoomID]messaging.InvitedRoom{
		cartRoom: {},
	}

	accepted := AcceptInvites(context.Background(), session, invites, testLogger())
	if len(accepted) != 1 || accepted[0] != cartRoom {
		t.Errorf("accepted = %v", accepted)
	}
	if len(session.joined) != 1 || session.joined[0] != cartRoom {
		t.Errorf("joined = %v", session.joined)
	}
}
