package schema

// WorkspaceView is the visible state reported to the UI boundary.
type WorkspaceView struct {
	Tabs        []Tab        `json:"tabs"`
	ActiveTab   TabID        `json:"active_tab"`
	Active      *Tab         `json:"active,omitempty"`
	Content     string       `json:"content"`
	RecentFiles []RecentFile `json:"recent_files"`
	Theme       ThemeName    `json:"theme"`
}
