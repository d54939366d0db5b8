package core

import (
	"pkt.systems/pslog"
	"pkt.systems/trove/internal/persist"
)

// ServiceDeps captures optional dependencies for the workspace service.
type ServiceDeps struct {
	Documents *persist.Documents
	Store     *persist.Store
	EventSink EventSink
	Logger    pslog.Logger
}
