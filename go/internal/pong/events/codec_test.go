package events

import (
	"errors"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

func sampleSnapshot() game.Snapshot {
	s := game.NewState(game.DefaultField(), game.SideLeft, game.NewSeededRand(7))
	s.Shared.Score = game.Score{Left: 3, Right: 1}
	return s.Snapshot()
}

func TestJSONWireShape(t *testing.T) {
	data, err := JSONCodec{}.Encode(NewGameUpdate("ab12cd34", sampleSnapshot()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	body := string(data)
	for _, key := range []string{`"type":"game_update"`, `"session_id":"ab12cd34"`, `"left_paddle"`, `"right_paddle"`, `"left_score":3`, `"right_score":1`, `"ball_velocity"`} {
		if !strings.Contains(body, key) {
			t.Errorf("expected %s in %s", key, body)
		}
	}
	if strings.Contains(body, `"connected"`) {
		t.Errorf("unset payloads should be omitted: %s", body)
	}
}

func TestCodecsCarryUpdate(t *testing.T) {
	snap := sampleSnapshot()

	for _, codec := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Encode(NewGameUpdate("ab12cd34", snap))
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			env, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Type != TypeGameUpdate || env.SessionID != "ab12cd34" {
				t.Fatalf("unexpected envelope header %+v", env)
			}
			if *env.Update != snap {
				t.Fatalf("snapshot changed in transit: %+v != %+v", *env.Update, snap)
			}
		})
	}
}

func TestDecodeRejectsMissingPayload(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte(`{"type":"game_start"}`))
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}

	_, err = JSONCodec{}.Decode([]byte(`{"type":"join_session"}`))
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("join without session id: expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte(`{"type":"chat"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := (MsgpackCodec{}).Decode([]byte{0xc1}); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
	if _, err := (JSONCodec{}).Decode([]byte("{")); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestCodecForFrame(t *testing.T) {
	if c, err := CodecForFrame(websocket.TextMessage); err != nil || c.Name() != "json" {
		t.Fatalf("text frame: %v %v", c, err)
	}
	if c, err := CodecForFrame(websocket.BinaryMessage); err != nil || c.Name() != "msgpack" {
		t.Fatalf("binary frame: %v %v", c, err)
	}
	if _, err := CodecForFrame(websocket.PingMessage); !errors.Is(err, ErrUnsupportedFrame) {
		t.Fatalf("expected ErrUnsupportedFrame, got %v", err)
	}
}

func TestGameStartSideOf(t *testing.T) {
	p := GameStartPayload{LeftPlayer: "a", RightPlayer: "b"}

	if side, err := p.SideOf("a"); err != nil || side != game.SideLeft {
		t.Fatalf("SideOf(a) = %q, %v", side, err)
	}
	if side, err := p.SideOf("b"); err != nil || side != game.SideRight {
		t.Fatalf("SideOf(b) = %q, %v", side, err)
	}
	if _, err := p.SideOf("c"); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated, got %v", err)
	}
}
