package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/corkboard/internal/listing"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) style() lipgloss.Style {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

// Canonical short status messages used across the app.
const (
	MsgRefreshing    = "Refreshing…"
	MsgRefreshingAll = "Refreshing all boards…"
	MsgLoadingDetail = "Loading post…"
	MsgLiked         = "Liked"
	MsgUnliked       = "Like removed"
	MsgLikePending   = "Still saving your last like on this post"
	MsgPostGone      = "This post is no longer available"
	MsgTimedOut      = "The board took too long to answer"
)

func MsgLoading(kind listing.Kind) string {
	return fmt.Sprintf("Loading %s…", kind.Title())
}

func MsgEmpty(kind listing.Kind) string {
	return fmt.Sprintf("Nothing on the %s board yet", kind.Title())
}

func MsgRefreshSummary(ready, failed int) string {
	base := fmt.Sprintf("Refreshed %d boards", ready)
	if failed > 0 {
		base += fmt.Sprintf(" • %d failed", failed)
	}
	return base
}
