package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/pders01/corkboard/internal/config"
)

// KeyMap is built from the configured bindings and doubles as the help
// source.
type KeyMap struct {
	Quit       key.Binding
	Refresh    key.Binding
	RefreshAll key.Binding
	Like       key.Binding
	NextKind   key.Binding
	PrevKind   key.Binding
	Open       key.Binding
	Back       key.Binding
	Help       key.Binding
}

func NewKeyMap(cfg config.KeyConfig) KeyMap {
	b := cfg.Bindings
	refreshAll := "R"
	if cfg.Modifier != "" && b.Refresh != "" {
		refreshAll = cfg.Modifier + "+" + b.Refresh
	}

	bind := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(lo.Uniq(lo.Compact(keys))...), key.WithHelp(help, desc))
	}

	return KeyMap{
		Quit:       bind(b.Quit, "quit", b.Quit, "ctrl+c"),
		Refresh:    bind(b.Refresh, "refresh", b.Refresh),
		RefreshAll: bind(refreshAll, "refresh all", refreshAll),
		Like:       bind(b.Like, "like", b.Like),
		NextKind:   bind(b.NextKind, "next board", b.NextKind),
		PrevKind:   bind(b.PrevKind, "prev board", b.PrevKind),
		Open:       bind(b.Open, "open", b.Open),
		Back:       bind(b.Back, "back", b.Back),
		Help:       bind(b.Help, "more", b.Help),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Like, k.Open, k.Refresh, k.NextKind, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextKind, k.PrevKind, k.Open, k.Back},
		{k.Like, k.Refresh, k.RefreshAll},
		{k.Help, k.Quit},
	}
}

type KeyHandler struct {
	app  *App
	keys KeyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: NewKeyMap(cfg.Keys)}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}

	// typed filter text belongs to the list
	if kh.app.view == ViewList && kh.app.list.FilterState() == list.Filtering {
		return kh.delegateToCharm(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return app, tea.Quit, true

	case key.Matches(msg, kh.keys.Help):
		app.help.ShowAll = !app.help.ShowAll
		return app, nil, true

	case key.Matches(msg, kh.keys.Back):
		return kh.navigateBack()

	case key.Matches(msg, kh.keys.NextKind):
		return app, app.switchKind(1), true

	case key.Matches(msg, kh.keys.PrevKind):
		return app, app.switchKind(-1), true

	case key.Matches(msg, kh.keys.RefreshAll):
		return app, app.refreshAll(), true

	case key.Matches(msg, kh.keys.Refresh):
		return app, app.refreshActive(), true

	case key.Matches(msg, kh.keys.Like):
		card, ok := app.selectedCard()
		if !ok {
			return app, nil, true
		}
		return app, app.toggleLike(card), true

	case key.Matches(msg, kh.keys.Open):
		if app.view != ViewList {
			return app, nil, true
		}
		card, ok := app.selectedCard()
		if !ok {
			return app, nil, true
		}
		return app, app.openDetail(card), true
	}

	return app, nil, false
}

// navigateBack leaves the detail view. In the list it only clears an
// applied filter.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch app.view {
	case ViewDetail:
		app.view = ViewList
		app.loadingDetail = false
		app.detail.ID = ""
		return app, nil, true
	default:
		if app.list.FilterState() == list.FilterApplied {
			app.list.ResetFilter()
		}
		return app, nil, true
	}
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch kh.app.view {
	case ViewList:
		kh.app.list, cmd = kh.app.list.Update(msg)
	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
	}
	return kh.app, cmd
}
