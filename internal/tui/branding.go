package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/corkboard/internal/config"
)

const AppName = "corkboard"

// ASCII art logo lines for corkboard - canonical definition
var LogoLines = []string{
	" ▄▄▄▄   ▄▄▄▄  ▄▄▄▄▄  ▄   ▄",
	"██  ▀  ██  ██ ██  ██ ██ ▄▀",
	"██     ██  ██ █████▀ ███▀",
	"██  ▄  ██  ██ ██ ▀█▄ ██ ▀▄",
	" ▀▀▀▀   ▀▀▀▀  ▀▀   ▀ ▀▀  ▀",
}

const CompactLogo = `cork ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#FF6B6B"),
}

const (
	defaultPrimary   = "#FF6B6B"
	defaultSecondary = "#4ECDC4"
	defaultAccent    = "#95E1D3"
	defaultMuted     = "#94A3B8"
	defaultLiked     = "#FFE66D"
	defaultError     = "#EF4444"
	defaultSuccess   = "#10B981"
)

var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color
	MutedColor     lipgloss.Color
	LikedColor     lipgloss.Color
	ErrorColor     lipgloss.Color
	SuccessColor   lipgloss.Color

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
)

// Styled components, rebuilt by ApplyTheme.
var (
	LogoStyle         lipgloss.Style
	TitleStyle        lipgloss.Style
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	MutedStyle        lipgloss.Style
	LikedStyle        lipgloss.Style
	FlagStyle         lipgloss.Style
	HelpStyle         lipgloss.Style
	SpinnerStyle      lipgloss.Style
	ActiveTabStyle    lipgloss.Style
	TabStyle          lipgloss.Style
	ErrorMessageStyle lipgloss.Style
	ErrorBannerStyle  lipgloss.Style
	SeparatorStyle    lipgloss.Style

	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() {
	ApplyTheme(config.UIColors{})
}

// ApplyTheme sets the palette from configuration. Empty entries fall back
// to the built-in colors.
func ApplyTheme(c config.UIColors) {
	PrimaryColor = colorOr(c.Primary, defaultPrimary)
	SecondaryColor = colorOr(c.Secondary, defaultSecondary)
	AccentColor = colorOr(c.Accent, defaultAccent)
	MutedColor = colorOr(c.Muted, defaultMuted)
	LikedColor = colorOr(c.Liked, defaultLiked)
	ErrorColor = colorOr(c.Error, defaultError)
	SuccessColor = colorOr(c.Success, defaultSuccess)

	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)
	LikedStyle = lipgloss.NewStyle().Foreground(LikedColor).Bold(true)
	FlagStyle = lipgloss.NewStyle().Foreground(BackgroundColor).Background(AccentColor).Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	SpinnerStyle = lipgloss.NewStyle().Foreground(SecondaryColor)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(PrimaryColor).
		Bold(true).
		Padding(0, 2)
	TabStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 2)

	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	ErrorBannerStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(ErrorColor).
		Bold(true).
		Padding(0, 1)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(LikedColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

func colorOr(value, fallback string) lipgloss.Color {
	if value == "" {
		return lipgloss.Color(fallback)
	}
	return lipgloss.Color(value)
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// BannerText is the boxed logo with the version tagline.
func BannerText(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    Campus Listings Board"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	banner := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	separator := lipgloss.NewStyle().Foreground(AccentColor).Render("◆ ◇ ◆ ◇ ◆")

	center := lipgloss.NewStyle().Width(70).Align(lipgloss.Center)
	return lipgloss.JoinVertical(lipgloss.Center,
		center.Render(banner),
		center.MarginBottom(1).Render(separator),
	)
}

func ShowBanner(version string) {
	fmt.Println(BannerText(version))
}
