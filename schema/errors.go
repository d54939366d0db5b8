package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload indicates a malformed or missing command payload.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrLastTab indicates an attempt to close the only open tab.
	ErrLastTab = errors.New("cannot close the only open tab")
	// ErrTitleTaken indicates another open tab already uses the title.
	ErrTitleTaken = errors.New("title already in use")
	// ErrNoActiveTab indicates no tab is active.
	ErrNoActiveTab = errors.New("no active tab")
	// ErrNoTabs indicates no tabs are open.
	ErrNoTabs = errors.New("no tabs")
	// ErrDocumentNotFound indicates the backing document file does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidTitle indicates an empty or unusable title.
	ErrInvalidTitle = errors.New("invalid title")
	// ErrInvalidTheme indicates an empty theme name.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrUnknownCommand indicates no handler is registered for a command name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrHandlerExists indicates a command name is already registered.
	ErrHandlerExists = errors.New("command handler already registered")
)

// IOError reports a failed disk operation on a document or snapshot file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrInvalidTitle) ||
		errors.Is(err, ErrInvalidTheme)
}
