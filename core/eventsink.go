package core

import "pkt.systems/trove/schema"

// EventSink receives the visible workspace state after every mutation.
type EventSink interface {
	OnWorkspaceEvent(event schema.WorkspaceEvent)
}
