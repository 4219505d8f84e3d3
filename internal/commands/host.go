// Package commands implements the user-triggered Velixar actions against an
// abstract host (terminal, tool server, browser panel).
package commands

import (
	"context"
	"errors"
)

// ErrNoEditor is returned by a Host that has no active editor.
var ErrNoEditor = errors.New("no active editor")

// PromptOptions configures Host.Prompt.
type PromptOptions struct {
	Prompt      string
	Placeholder string
	Value       string
	Password    bool
	// Validate returns a non-empty message to reject the input.
	Validate func(string) string
}

// PickItem is one choice offered by Host.Pick.
type PickItem struct {
	Label  string
	Detail string
}

// Host is the rendering and command surface the actions drive. Prompt,
// Confirm and Pick report ok=false when the user dismissed them.
type Host interface {
	Notify(msg string)
	Warn(msg string)
	Error(msg string)

	Prompt(ctx context.Context, opts PromptOptions) (value string, ok bool, err error)
	Confirm(ctx context.Context, message, action string) (bool, error)
	Pick(ctx context.Context, placeholder string, items []PickItem) (index int, ok bool, err error)

	Clipboard(ctx context.Context, text string) error
	InsertAtCursor(ctx context.Context, text string) error
	OpenDocument(ctx context.Context, content, language string) error
	// Selection returns the selected text; ok is false without an editor.
	Selection(ctx context.Context) (text string, ok bool)
}
