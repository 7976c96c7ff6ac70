package tui

import (
	"context"
	"errors"

	"github.com/pders01/corkboard/internal/feed"
)

// userMessage shortens service errors for the status line.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, feed.ErrNotFound):
		return MsgPostGone
	case errors.Is(err, feed.ErrTogglePending):
		return MsgLikePending
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimedOut
	default:
		return err.Error()
	}
}
