package schema

// TabID identifies an open tab. Ids are opaque and never reused.
type TabID string

// Title is the user-facing tab name; its sanitized form is the document file stem.
type Title string

// ThemeName identifies a UI theme selection.
type ThemeName string

// Tab is a named reference to an open document.
type Tab struct {
	ID    TabID `json:"id"`
	Title Title `json:"title"`
}

// RecentFile records a document the user has touched.
type RecentFile struct {
	ID    TabID  `json:"id"`
	Title Title  `json:"title"`
	Path  string `json:"path"`
}

// DocumentEntry is the last-known content of a tab's backing file.
type DocumentEntry struct {
	Title    Title
	Contents string
}
