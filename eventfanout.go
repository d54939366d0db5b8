package trove

import (
	"pkt.systems/trove/core"
	"pkt.systems/trove/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnWorkspaceEvent(event)
	}
}
