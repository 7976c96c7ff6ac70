package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/feed"
	"github.com/pders01/corkboard/internal/listing"
)

type View int

const (
	ViewList View = iota
	ViewDetail
)

// Board is the set of feeds the app browses. *feed.Hub satisfies it.
type Board interface {
	Feeds() []feed.Feed
	RefreshAll(ctx context.Context) error
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config     *config.Config
	board      Board
	feeds      []feed.Feed
	changes    []<-chan struct{}
	unsubs     []func()
	active     int
	keyHandler *KeyHandler

	list     list.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	view     View

	detail        listing.Card
	loadingDetail bool

	status     string
	statusKind StatusKind
	statusSeq  int

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(ctx context.Context, board Board, cfg *config.Config) *App {
	ApplyTheme(cfg.UI.Colors)

	cardList := list.New([]list.Item{}, newCardDelegate(), 0, 0)
	cardList.SetShowStatusBar(false)
	cardList.SetFilteringEnabled(true)
	cardList.SetShowHelp(false)
	cardList.DisableQuitKeybindings()

	ctx, cancel := context.WithCancel(ctx)
	app := &App{
		ctx:      ctx,
		cancel:   cancel,
		config:   cfg,
		board:    board,
		feeds:    board.Feeds(),
		list:     cardList,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		help:     help.New(),
		view:     ViewList,
	}

	for _, f := range app.feeds {
		ch, unsub := f.Subscribe()
		app.changes = append(app.changes, ch)
		app.unsubs = append(app.unsubs, unsub)
	}

	app.keyHandler = NewKeyHandler(app, cfg)
	app.syncList()
	return app
}

// Close stops pending work and drops the change subscriptions.
func (a *App) Close() {
	a.cancel()
	for _, unsub := range a.unsubs {
		unsub()
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen, a.spinner.Tick}
	for i, f := range a.feeds {
		cmds = append(cmds, fetchFeed(a.ctx, f), waitForChange(f.Kind(), a.changes[i]))
	}
	return tea.Batch(cmds...)
}

func (a *App) activeFeed() feed.Feed {
	if len(a.feeds) == 0 {
		return nil
	}
	return a.feeds[a.active]
}

func (a *App) activeKind() listing.Kind {
	if f := a.activeFeed(); f != nil {
		return f.Kind()
	}
	return ""
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.list.SetSize(msg.Width, a.bodyHeight())
		a.viewport.Width = msg.Width
		a.viewport.Height = a.bodyHeight() - 2
		if a.view == ViewDetail && !a.loadingDetail {
			a.renderDetail()
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case feedChangedMsg:
		var cmd tea.Cmd
		if msg.kind == a.activeKind() {
			cmd = a.syncList()
		}
		return a, tea.Batch(cmd, waitForChange(msg.kind, msg.ch))

	case fetchDoneMsg:
		if msg.err != nil && msg.kind == a.activeKind() {
			return a, a.setStatus(userMessage(msg.err), StatusError)
		}
		return a, nil

	case refreshDoneMsg:
		kind := StatusSuccess
		if msg.failed > 0 {
			kind = StatusWarn
		}
		return a, a.setStatus(MsgRefreshSummary(msg.ready, msg.failed), kind)

	case likeToggledMsg:
		if msg.err != nil {
			return a, a.setStatus(userMessage(msg.err), StatusError)
		}
		if msg.liked {
			return a, a.setStatus(MsgLiked, StatusSuccess)
		}
		return a, a.setStatus(MsgUnliked, StatusInfo)

	case detailLoadedMsg:
		if a.view != ViewDetail || msg.id != a.detail.ID {
			return a, nil
		}
		a.loadingDetail = false
		if msg.err != nil {
			if errors.Is(msg.err, feed.ErrNotFound) {
				a.view = ViewList
			}
			return a, a.setStatus(userMessage(msg.err), StatusWarn)
		}
		a.detail = msg.card
		a.renderDetail()
		return a, nil

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil
	}

	return a, nil
}

// syncList rebuilds the card list from the active feed's state.
func (a *App) syncList() tea.Cmd {
	f := a.activeFeed()
	if f == nil {
		return nil
	}
	st := f.Cards()
	maxBody := a.config.UI.Card.MaxBodyLength
	items := lo.Map(st.Cards, func(c listing.Card, _ int) list.Item {
		return cardItem{card: c, maxBody: maxBody, pending: f.Pending(c.ID)}
	})
	a.list.Title = "› " + strings.ToLower(f.Kind().Title())
	return a.list.SetItems(items)
}

func (a *App) switchKind(delta int) tea.Cmd {
	if len(a.feeds) == 0 {
		return nil
	}
	a.active = (a.active + delta + len(a.feeds)) % len(a.feeds)
	a.view = ViewList
	a.list.ResetFilter()
	cmd := a.syncList()
	a.list.Select(0)
	return cmd
}

func (a *App) selectedCard() (listing.Card, bool) {
	if a.view == ViewDetail {
		return a.currentDetail(), a.detail.ID != ""
	}
	item, ok := a.list.SelectedItem().(cardItem)
	if !ok {
		return listing.Card{}, false
	}
	return item.card, true
}

// currentDetail is the open card with the feed's latest like state.
func (a *App) currentDetail() listing.Card {
	c := a.detail
	if f := a.activeFeed(); f != nil {
		if latest, ok := lo.Find(f.Cards().Cards, func(x listing.Card) bool { return x.ID == c.ID }); ok {
			c.LikeCount = latest.LikeCount
			c.IsLiked = latest.IsLiked
		}
	}
	return c
}

func (a *App) refreshActive() tea.Cmd {
	f := a.activeFeed()
	if f == nil {
		return nil
	}
	return tea.Batch(a.setStatus(MsgRefreshing, StatusInfo), fetchFeed(a.ctx, f))
}

func (a *App) refreshAll() tea.Cmd {
	return tea.Batch(a.setStatus(MsgRefreshingAll, StatusInfo), refreshBoard(a.ctx, a.board))
}

func (a *App) toggleLike(card listing.Card) tea.Cmd {
	f := a.activeFeed()
	if f == nil || card.ID == "" {
		return nil
	}
	if f.Pending(card.ID) {
		return a.setStatus(MsgLikePending, StatusWarn)
	}
	return toggleLike(a.ctx, f, card)
}

func (a *App) openDetail(card listing.Card) tea.Cmd {
	f := a.activeFeed()
	if f == nil {
		return nil
	}
	a.view = ViewDetail
	a.detail = card
	a.loadingDetail = true
	a.viewport.SetContent("")
	return loadDetail(a.ctx, f, card.ID)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	detail := a.config.UI.Detail
	wordWrapWidth := wrapWidth(a.width, detail.WordWrapMinWidth, detail.WordWrapMaxWidth)

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// renderDetail fills the viewport with the open card. Forum bodies are
// Markdown; everything else is wrapped plain text.
func (a *App) renderDetail() {
	c := a.detail
	var body string
	if c.Markdown {
		r, err := a.getRenderer()
		if err == nil {
			body, err = r.Render(c.Body)
		}
		if err != nil {
			body = c.Body
		}
	} else {
		width := wrapWidth(a.width, a.config.UI.Detail.WordWrapMinWidth, a.config.UI.Detail.WordWrapMaxWidth)
		body = lipgloss.NewStyle().Width(width).Padding(1, 2).Render(c.Body)
	}

	meta := lo.Compact([]string{c.Subtitle, c.Price, c.Category, c.Age})
	var b strings.Builder
	if len(meta) > 0 {
		b.WriteString(renderMuted("  " + strings.Join(meta, " • ")))
		b.WriteString("\n")
	}
	if len(c.Flags) > 0 {
		b.WriteString("  " + FlagStyle.Render(strings.Join(c.Flags, " ")) + "\n")
	}
	b.WriteString(body)

	a.viewport.SetContent(b.String())
	a.viewport.GotoTop()
}

func (a *App) bodyHeight() int {
	// tabs, separator, status and help lines
	h := a.height - 5
	if h < 3 {
		return 3
	}
	return h
}

func (a *App) View() string {
	var content string
	switch a.view {
	case ViewList:
		content = a.listView()
	case ViewDetail:
		content = a.detailView()
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Left,
		renderTabs(a.feeds, a.active, a.width),
		content,
		separator,
		a.statusLine(),
		a.help.View(a.keyHandler.keys),
	)
}

func (a *App) listView() string {
	f := a.activeFeed()
	if f == nil {
		return renderCentered(a.width, a.bodyHeight(), GetCompactBanner("No boards configured"))
	}

	st := f.Cards()
	if len(st.Cards) == 0 {
		switch {
		case st.Err != "":
			return renderCentered(a.width, a.bodyHeight(), renderBanner(st.Err, a.width))
		case st.Loading || st.Phase == feed.PhaseIdle:
			return renderCentered(a.width, a.bodyHeight(), renderMuted(MsgLoading(f.Kind())))
		default:
			return renderCentered(a.width, a.bodyHeight(), GetCompactBanner(MsgEmpty(f.Kind())))
		}
	}

	if st.Err != "" {
		a.list.SetSize(a.width, a.bodyHeight()-1)
		return lipgloss.JoinVertical(lipgloss.Left, renderBanner(st.Err, a.width), a.list.View())
	}
	a.list.SetSize(a.width, a.bodyHeight())
	return a.list.View()
}

func (a *App) detailView() string {
	c := a.currentDetail()
	likes := fmt.Sprintf("♡ %s", humanize.Comma(int64(c.LikeCount)))
	likeStyle := MutedStyle
	if c.IsLiked {
		likes = fmt.Sprintf("♥ %s", humanize.Comma(int64(c.LikeCount)))
		likeStyle = LikedStyle
	}
	if f := a.activeFeed(); f != nil && f.Pending(c.ID) {
		likes += " …"
	}

	header := renderHeader(c.Title, truncateMiddle(c.ID, 24)+"  "+likeStyle.Render(likes), a.width)
	if a.loadingDetail {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			renderCentered(a.width, a.bodyHeight()-2, renderMuted(MsgLoadingDetail)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, a.viewport.View())
}

func (a *App) statusLine() string {
	f := a.activeFeed()
	loading := f != nil && f.Cards().Loading
	text := a.status
	if text == "" && f != nil {
		st := f.Cards()
		if !st.UpdatedAt.IsZero() {
			text = fmt.Sprintf("%d posts • updated %s", len(st.Cards), humanize.Time(st.UpdatedAt))
		}
	}

	line := a.statusKind.style().Render(text)
	if loading {
		line = a.spinner.View() + " " + line
	}
	return StatusBarStyle.Width(a.width).Render(line)
}
