package schema

// EventType identifies what caused a workspace event.
type EventType string

const (
	EventRestored  EventType = "restored"
	EventOpened    EventType = "opened"
	EventCreated   EventType = "created"
	EventSaved     EventType = "saved"
	EventClosed    EventType = "closed"
	EventDeleted   EventType = "deleted"
	EventSwitched  EventType = "switched"
	EventRenamed   EventType = "renamed"
	EventTheme     EventType = "theme"
	EventRefreshed EventType = "refreshed"
)

// WorkspaceEvent carries the visible state after a mutating operation.
type WorkspaceEvent struct {
	Type EventType
	View WorkspaceView
}
