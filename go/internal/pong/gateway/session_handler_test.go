package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func getJSON(t *testing.T, url string, status int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d (%s), want %d", url, resp.StatusCode, body, status)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestCreateSessionEndpoints(t *testing.T) {
	relay := newTestRelay(t, NewMemoryStore(), nil)

	resp, err := http.Post(relay.server.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var created CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if len(created.SessionID) != 8 || created.URL != "/join/"+created.SessionID {
		t.Errorf("created = %+v", created)
	}

	var viaLink CreateSessionResponse
	getJSON(t, relay.server.URL+"/create-game", http.StatusOK, &viaLink)
	if viaLink.SessionID == created.SessionID {
		t.Error("each create should allocate a new code")
	}
}

func TestJoinEndpoint(t *testing.T) {
	relay := newTestRelay(t, NewMemoryStore(), nil)
	sessionID := relay.createSession(t)

	var info JoinInfoResponse
	getJSON(t, relay.server.URL+"/join/"+strings.ToUpper(sessionID), http.StatusOK, &info)
	if info.SessionID != sessionID || info.WSURL != "/ws" || info.State != SessionWaiting || info.Players != 0 {
		t.Errorf("join info = %+v", info)
	}

	resp, err := http.Get(relay.server.URL + "/join/zzzzzzzz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "Game not found") {
		t.Errorf("unknown code: %d %q", resp.StatusCode, body)
	}
}

func TestSessionListingEndpoints(t *testing.T) {
	relay := newTestRelay(t, NewMemoryStore(), nil)
	ctx := context.Background()

	open := relay.createSession(t)
	ended := relay.createSession(t)
	relay.store.Claim(ctx, ended, "alice")
	relay.store.Claim(ctx, ended, "bob")
	relay.store.Release(ctx, ended, "bob")

	var active ActiveSessionsResponse
	getJSON(t, relay.server.URL+"/api/sessions/active", http.StatusOK, &active)
	if active.Count != 1 || active.Sessions[0].ID != open {
		t.Errorf("active = %+v", active)
	}

	var session Session
	getJSON(t, relay.server.URL+"/api/sessions/"+ended, http.StatusOK, &session)
	if session.State != SessionEnded || session.LeftPlayer != "alice" {
		t.Errorf("session = %+v", session)
	}

	getJSON(t, relay.server.URL+"/api/sessions/zzzzzzzz", http.StatusNotFound, nil)

	// ended sessions cannot be joined by link either
	getJSON(t, relay.server.URL+"/join/"+ended, http.StatusNotFound, nil)
}

func TestHealthAndInfo(t *testing.T) {
	relay := newTestRelay(t, NewMemoryStore(), nil)

	resp, err := http.Get(relay.server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("health = %d %q", resp.StatusCode, body)
	}

	sessionID := relay.createSession(t)
	conn, _ := relay.connect(t, "")
	send(t, conn, events.NewJoinSession(sessionID))
	expect(t, conn, events.TypePlayerJoined)

	var info ServiceStats
	getJSON(t, relay.server.URL+"/info", http.StatusOK, &info)
	if info.Service != "pong-relay" || info.TotalConnections != 1 || info.SessionConnections[sessionID] != 1 {
		t.Errorf("info = %+v", info)
	}

	var stats ConnectionStats
	getJSON(t, relay.server.URL+"/ws/stats", http.StatusOK, &stats)
	if stats.ActiveSessions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSessionRPC(t *testing.T) {
	relay := newTestRelay(t, NewMemoryStore(), nil)
	ctx := context.Background()

	create := connect.NewClient[emptypb.Empty, wrapperspb.StringValue](
		relay.server.Client(),
		relay.server.URL+events.CreateSessionProcedure,
	)
	lookup := connect.NewClient[wrapperspb.StringValue, wrapperspb.BoolValue](
		relay.server.Client(),
		relay.server.URL+events.LookupSessionProcedure,
	)

	res, err := create.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	code := res.Msg.GetValue()
	if len(code) != 8 {
		t.Fatalf("code = %q", code)
	}

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"created", code, true},
		{"upper case", strings.ToUpper(code), true},
		{"unknown", "zzzzzzzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := lookup.CallUnary(ctx, connect.NewRequest(wrapperspb.String(tt.code)))
			if err != nil {
				t.Fatalf("LookupSession: %v", err)
			}
			if res.Msg.GetValue() != tt.want {
				t.Errorf("LookupSession(%q) = %v, want %v", tt.code, res.Msg.GetValue(), tt.want)
			}
		})
	}

	relay.store.Claim(ctx, code, "alice")
	relay.store.Release(ctx, code, "alice")
	res2, err := lookup.CallUnary(ctx, connect.NewRequest(wrapperspb.String(code)))
	if err != nil {
		t.Fatal(err)
	}
	if res2.Msg.GetValue() {
		t.Error("a deleted session should not be joinable")
	}
}
