package service

import (
	"context"
	"os"
	"os/exec"
)

// Opener shows a file to the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// EditorOpener opens files in a terminal editor.
type EditorOpener struct {
	Editor string
}

// Command builds the editor invocation for path without running it, for
// hosts that need to hand the terminal over themselves.
func (o *EditorOpener) Command(ctx context.Context, path string) *exec.Cmd {
	editor := o.Editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vim" // fallback
	}
	return exec.CommandContext(ctx, editor, path)
}

// Open runs the configured editor on path, falling back to $EDITOR and then vim.
func (o *EditorOpener) Open(ctx context.Context, path string) error {
	cmd := o.Command(ctx, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
