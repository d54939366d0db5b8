package httpapi

import (
	"testing"

	"pkt.systems/trove/schema"
)

func TestHubHistoryAndReplay(t *testing.T) {
	hub := NewHub(2, nil)
	for _, typ := range []schema.EventType{schema.EventOpened, schema.EventSaved, schema.EventClosed} {
		hub.OnWorkspaceEvent(schema.WorkspaceEvent{Type: typ})
	}
	replay := hub.Replay(0)
	if len(replay) != 2 {
		t.Fatalf("expected history trimmed to 2, got %d", len(replay))
	}
	if replay[0].Seq != 2 || replay[1].Event != schema.EventClosed {
		t.Fatalf("unexpected replay %+v", replay)
	}
	if got := hub.Replay(2); len(got) != 1 || got[0].Seq != 3 {
		t.Fatalf("expected replay after seq 2, got %+v", got)
	}
}

func TestHubSubscribeReceivesEvents(t *testing.T) {
	hub := NewHub(8, nil)
	ch, unsubscribe, seq := hub.Subscribe()
	if seq != 0 {
		t.Fatalf("expected seq 0, got %d", seq)
	}
	hub.OnWorkspaceEvent(schema.WorkspaceEvent{Type: schema.EventSwitched})
	event := <-ch
	if event.Event != schema.EventSwitched || event.Seq != 1 {
		t.Fatalf("unexpected event %+v", event)
	}
	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
	hub.OnWorkspaceEvent(schema.WorkspaceEvent{Type: schema.EventSaved})
}
