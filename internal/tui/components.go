package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/pders01/corkboard/internal/feed"
	"github.com/pders01/corkboard/internal/listing"
)

// cardItem adapts a card to the list component.
type cardItem struct {
	card    listing.Card
	maxBody int
	pending bool
}

func (i cardItem) Title() string {
	title := i.card.Title
	if len(i.card.Flags) > 0 {
		title += " " + FlagStyle.Render(strings.Join(i.card.Flags, " "))
	}
	return title + "  " + i.likes()
}

func (i cardItem) likes() string {
	count := humanize.Comma(int64(i.card.LikeCount))
	s := MutedStyle.Render("♡ " + count)
	if i.card.IsLiked {
		s = LikedStyle.Render("♥ " + count)
	}
	if i.pending {
		s += MutedStyle.Render(" …")
	}
	return s
}

func (i cardItem) Description() string {
	parts := lo.Compact([]string{i.card.Subtitle, i.card.Price, i.card.Category, i.card.Age})
	line := strings.Join(parts, " • ")
	if body := singleLine(i.card.Body); body != "" && i.maxBody > 0 {
		if line != "" {
			line += " · "
		}
		line += truncateEnd(body, i.maxBody)
	}
	return line
}

func (i cardItem) FilterValue() string {
	return i.card.Title + " " + i.card.Category + " " + i.card.Subtitle
}

func newCardDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(PrimaryColor).
		BorderForeground(PrimaryColor)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(AccentColor).
		BorderForeground(PrimaryColor)
	d.Styles.NormalDesc = d.Styles.NormalDesc.Foreground(MutedColor)
	return d
}

// renderTabs draws one tab per feed with its post count.
func renderTabs(feeds []feed.Feed, active, width int) string {
	tabs := make([]string, len(feeds))
	for i, f := range feeds {
		label := f.Kind().Title()
		if n := len(f.Cards().Cards); n > 0 {
			label = fmt.Sprintf("%s %d", label, n)
		}
		if i == active {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return lipgloss.NewStyle().MaxWidth(max(width, 1)).Render(row)
}

// renderBanner is the one-line error shown above stale items.
func renderBanner(text string, width int) string {
	text = "✗ " + text
	if width > 2 {
		text = truncateEnd(text, width-2)
	}
	return ErrorBannerStyle.Render(text)
}

// renderHeader returns a consistently styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	if width > 2 {
		title = truncateEnd(title, width-2)
	}
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return MutedStyle.Render(text)
}
