package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/daybook/internal/config"
)

const AppName = "daybook"

// LogoLines is the block-letter wordmark shown on the banner and the empty
// diary screen.
var LogoLines = []string{
	"█▀▄ ▄▀█ █▄█ █▄▄ █▀█ █▀█ █▄▀",
	"█▄▀ █▀█  █  █▄█ █▄█ █▄█ █ █",
}

const CompactLogo = `daybook ›`

// Palette. ApplyTheme replaces these from the user config.
var (
	PrimaryColor   = lipgloss.Color("#7AA2F7")
	SecondaryColor = lipgloss.Color("#9ECE6A")
	AccentColor    = lipgloss.Color("#BB9AF7")
	TextColor      = lipgloss.Color("#C0CAF5")
	MutedColor     = lipgloss.Color("#565F89")
	HighlightColor = lipgloss.Color("#E0AF68")
	ErrorColor     = lipgloss.Color("#F7768E")
	SuccessColor   = lipgloss.Color("#9ECE6A")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	MonthStyle         lipgloss.Style
	StatusBarStyle     lipgloss.Style
	SelectedItemStyle  lipgloss.Style
	ItemStyle          lipgloss.Style
	HelpStyle          lipgloss.Style
	TimeStyle          lipgloss.Style
	HighlightStyle     lipgloss.Style
	AttachmentStyle    lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	EmptyStyle         = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

// ApplyTheme installs the configured colors. Empty entries keep the
// current value.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&HighlightColor, c.Highlight)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true).
		Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	MonthStyle = lipgloss.NewStyle().
		Foreground(AccentColor).
		Bold(true).
		PaddingLeft(1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	ItemStyle = lipgloss.NewStyle().
		Foreground(TextColor)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(HighlightColor).
		Bold(true).
		Underline(true)

	AttachmentStyle = lipgloss.NewStyle().
		Foreground(AccentColor)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(HighlightColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Nothing written yet. Import an archive with `daybook import`.")
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

// Banner returns the startup banner with an optional version tag.
func Banner(version string) string {
	lines := make([]string, 0, len(LogoLines)+2)
	for _, line := range LogoLines {
		lines = append(lines, LogoStyle.Render(line))
	}
	lines = append(lines, "")

	tagline := "a diary for the terminal"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, HelpStyle.Render(tagline))

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3)

	return lipgloss.NewStyle().
		Width(60).
		Align(lipgloss.Center).
		Render(border.Render(lipgloss.JoinVertical(lipgloss.Center, lines...)))
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
