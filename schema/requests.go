package schema

// OpenTabRequest opens a document into a tab. An empty ID opens a new tab for
// Title, or focuses an existing tab that already shows Title.
type OpenTabRequest struct {
	ID    TabID `json:"id"`
	Title Title `json:"title"`
}

// SaveTabRequest stores new content, possibly under a new title.
type SaveTabRequest struct {
	ID       TabID  `json:"id"`
	Title    Title  `json:"title"`
	Contents string `json:"contents"`
}

// RenameTabRequest changes a tab's title.
type RenameTabRequest struct {
	ID    TabID `json:"id"`
	Title Title `json:"title"`
}

// SetThemeRequest selects the current theme.
type SetThemeRequest struct {
	Theme ThemeName `json:"theme"`
}
