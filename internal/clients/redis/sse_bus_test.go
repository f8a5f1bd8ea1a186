package redis

import (
	"encoding/json"
	"testing"

	"github.com/paperclip-video/paperclip-backend/internal/sse"
)

func TestDecodeWireFrameRoundTrip(t *testing.T) {
	raw, err := json.Marshal(wireEnvelope{
		V:       wireVersion,
		Channel: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Event:   sse.SSEEventJobProgress,
		Data:    map[string]any{"progress": float64(40)},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msg, ok, err := decodeWireFrame(raw)
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	if msg.Channel != "7c9e6679-7425-40de-944b-e07fc1f90ae7" {
		t.Fatalf("channel = %q", msg.Channel)
	}
	if msg.Event != sse.SSEEventJobProgress {
		t.Fatalf("event = %q", msg.Event)
	}
	data, _ := msg.Data.(map[string]any)
	if data["progress"] != float64(40) {
		t.Fatalf("data = %#v", msg.Data)
	}
}

func TestDecodeWireFrameDropsNewerVersion(t *testing.T) {
	raw, _ := json.Marshal(wireEnvelope{V: wireVersion + 1, Channel: "x", Event: sse.SSEEventJobDone})
	if _, ok, err := decodeWireFrame(raw); ok || err != nil {
		t.Fatalf("newer frame: ok=%v err=%v, want dropped", ok, err)
	}
}

func TestDecodeWireFrameRejectsGarbage(t *testing.T) {
	if _, ok, err := decodeWireFrame([]byte("not json")); ok || err == nil {
		t.Fatalf("garbage frame: ok=%v err=%v, want error", ok, err)
	}
}
