package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/corkboard/internal/feed"
	"github.com/pders01/corkboard/internal/listing"
)

const statusTTL = 4 * time.Second

type fetchDoneMsg struct {
	kind listing.Kind
	err  error
}

type refreshDoneMsg struct {
	ready  int
	failed int
}

type feedChangedMsg struct {
	kind listing.Kind
	ch   <-chan struct{}
}

type likeToggledMsg struct {
	kind  listing.Kind
	id    string
	liked bool
	err   error
}

type detailLoadedMsg struct {
	id   string
	card listing.Card
	err  error
}

type clearStatusMsg struct {
	seq int
}

func fetchFeed(ctx context.Context, f feed.Feed) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{kind: f.Kind(), err: f.Fetch(ctx)}
	}
}

// refreshBoard fetches every feed and reports how many ended up failed.
func refreshBoard(ctx context.Context, board Board) tea.Cmd {
	return func() tea.Msg {
		_ = board.RefreshAll(ctx)

		var msg refreshDoneMsg
		for _, f := range board.Feeds() {
			if f.Cards().Phase == feed.PhaseFailed {
				msg.failed++
			} else {
				msg.ready++
			}
		}
		return msg
	}
}

// waitForChange blocks until the feed notifies and re-arms itself from
// Update. A closed channel ends the loop.
func waitForChange(kind listing.Kind, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return feedChangedMsg{kind: kind, ch: ch}
	}
}

func toggleLike(ctx context.Context, f feed.Feed, card listing.Card) tea.Cmd {
	return func() tea.Msg {
		liked, err := f.ToggleLike(ctx, card.ID, card.IsLiked)
		return likeToggledMsg{kind: f.Kind(), id: card.ID, liked: liked, err: err}
	}
}

func loadDetail(ctx context.Context, f feed.Feed, id string) tea.Cmd {
	return func() tea.Msg {
		card, err := f.FetchCard(ctx, id)
		return detailLoadedMsg{id: id, card: card, err: err}
	}
}

// setStatus shows text in the status line until a newer status replaces it
// or statusTTL passes.
func (a *App) setStatus(text string, kind StatusKind) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	seq := a.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}
