// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/lib/secret"
)

// testBuffer creates a secret.Buffer from a string for testing. The
// session takes ownership and closes it.
func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating test buffer: %v", err)
	}
	return buffer
}

func testSession(t *testing.T, handler http.Handler) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(
		ref.MustParseUserID("@loja:till.local"),
		testBuffer(t, "syt_test_token"),
	)
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:6167"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{HomeserverURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestServerVersionsIsUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/versions" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if got := request.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none", got)
		}
		json.NewEncoder(writer).Encode(ServerVersionsResponse{
			Versions: []string{"v1.11", "v1.12"},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	response, err := client.ServerVersions(context.Background())
	if err != nil {
		t.Fatalf("ServerVersions failed: %v", err)
	}
	if len(response.Versions) != 2 {
		t.Errorf("Versions = %v", response.Versions)
	}
}

func TestGetRoomMembersFlattensChunk(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !strings.HasSuffix(request.URL.Path, "/members") {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		writer.Write([]byte(`{
			"chunk": [
				{"type": "m.room.member", "state_key": "@cliente:till.local",
				 "sender": "@loja:till.local", "content": {"membership": "join", "displayname": "Cliente"}},
				{"type": "m.room.member", "state_key": "@dono:till.local",
				 "sender": "@dono:till.local", "content": {"membership": "leave"}}
			]
		}`))
	}))

	members, err := session.GetRoomMembers(context.Background(), ref.MustParseRoomID("!cart:till.local"))
	if err != nil {
		t.Fatalf("GetRoomMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].UserID.String() != "@cliente:till.local" || members[0].Membership != "join" {
		t.Errorf("members[0] = %+v", members[0])
	}
	if members[0].DisplayName != "Cliente" {
		t.Errorf("DisplayName = %q", members[0].DisplayName)
	}
	if members[1].Membership != "leave" {
		t.Errorf("members[1] = %+v", members[1])
	}
}

func TestGetDisplayName(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// request.URL.Path is the decoded form of the escaped user ID.
		if request.URL.Path != "/_matrix/client/v3/profile/@cliente:till.local/displayname" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		json.NewEncoder(writer).Encode(DisplayNameResponse{DisplayName: "Cliente Silva"})
	}))

	name, err := session.GetDisplayName(context.Background(), ref.MustParseUserID("@cliente:till.local"))
	if err != nil {
		t.Fatalf("GetDisplayName failed: %v", err)
	}
	if name != "Cliente Silva" {
		t.Errorf("display name = %q", name)
	}
}

func TestSessionFromTokenRequiresToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:6167"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.SessionFromToken(ref.MustParseUserID("@loja:till.local"), nil); err == nil {
		t.Fatal("expected error for nil token")
	}
}

func TestWhoAmISendsBearerToken(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/account/whoami" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if got := request.Header.Get("Authorization"); got != "Bearer syt_test_token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(writer).Encode(WhoAmIResponse{
			UserID: ref.MustParseUserID("@loja:till.local"),
		})
	}))

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if userID.String() != "@loja:till.local" {
		t.Errorf("WhoAmI = %v", userID)
	}
}

func TestMatrixErrorSurface(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusNotFound)
		json.NewEncoder(writer).Encode(map[string]string{
			"errcode": "M_NOT_FOUND",
			"error":   "Event not found.",
		})
	}))

	_, err := session.GetStateEvent(context.Background(),
		ref.MustParseRoomID("!cart:till.local"), "com.till.cart", "")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Errorf("error is not M_NOT_FOUND: %v", err)
	}
}

func TestSendMessageUsesIdempotentPut(t *testing.T) {
	var paths []string
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", request.Method)
		}
		paths = append(paths, request.URL.Path)

		var content MessageContent
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Fatalf("decoding message content: %v", err)
		}
		if content.MsgType != "m.notice" {
			t.Errorf("msgtype = %q", content.MsgType)
		}
		json.NewEncoder(writer).Encode(SendEventResponse{
			EventID: ref.MustParseEventID("$event1:till.local"),
		})
	}))

	roomID := ref.MustParseRoomID("!store:till.local")
	for range 2 {
		if _, err := session.SendMessage(context.Background(), roomID, NewNotice("ok")); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}

	if len(paths) != 2 || paths[0] == paths[1] {
		t.Errorf("transaction IDs not unique across sends: %v", paths)
	}
	// request.URL.Path is the decoded form of the escaped room ID.
	prefix := "/_matrix/client/v3/rooms/!store:till.local/send/m.room.message/"
	if !strings.HasPrefix(paths[0], prefix) {
		t.Errorf("send path = %q, want prefix %q", paths[0], prefix)
	}
}

func TestCreateRoomEncodesDirectFlag(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["is_direct"] != true {
			t.Errorf("is_direct = %v, want true", body["is_direct"])
		}
		if body["preset"] != "trusted_private_chat" {
			t.Errorf("preset = %v", body["preset"])
		}
		json.NewEncoder(writer).Encode(CreateRoomResponse{
			RoomID: ref.MustParseRoomID("!dm:till.local"),
		})
	}))

	response, err := session.CreateRoom(context.Background(), CreateRoomRequest{
		Preset:   "trusted_private_chat",
		IsDirect: true,
		Invite:   []ref.UserID{ref.MustParseUserID("@cliente:till.local")},
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if response.RoomID.String() != "!dm:till.local" {
		t.Errorf("RoomID = %v", response.RoomID)
	}
}

func TestSyncParsesRooms(t *testing.T) {
	session := testSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("since"); got != "batch-1" {
			t.Errorf("since = %q", got)
		}
		writer.Write([]byte(`{
			"next_batch": "batch-2",
			"rooms": {
				"join": {
					"!store:till.local": {
						"timeline": {
							"events": [{
								"event_id": "$msg1:till.local",
								"type": "m.room.message",
								"sender": "@cliente:till.local",
								"content": {"msgtype": "m.text", "body": "!loja ajuda"}
							}]
						}
					}
				}
			}
		}`))
	}))

	response, err := session.Sync(context.Background(), SyncOptions{Since: "batch-1"})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if response.NextBatch != "batch-2" {
		t.Errorf("NextBatch = %q", response.NextBatch)
	}
	joined := response.Rooms.Join[ref.MustParseRoomID("!store:till.local")]
	if len(joined.Timeline.Events) != 1 {
		t.Fatalf("timeline events = %d, want 1", len(joined.Timeline.Events))
	}
	event := joined.Timeline.Events[0]
	if event.Sender.String() != "@cliente:till.local" {
		t.Errorf("sender = %v", event.Sender)
	}
	if event.Content["body"] != "!loja ajuda" {
		t.Errorf("body = %v", event.Content["body"])
	}
}

func TestPowerLevelsLevel(t *testing.T) {
	admin := ref.MustParseUserID("@dono:till.local")
	levels := PowerLevelsContent{
		Users:        map[ref.UserID]int{admin: 100},
		UsersDefault: 0,
	}
	if got := levels.Level(admin); got != 100 {
		t.Errorf("Level(admin) = %d", got)
	}
	if got := levels.Level(ref.MustParseUserID("@cliente:till.local")); got != 0 {
		t.Errorf("Level(member) = %d", got)
	}
}
