package panel

import "github.com/charmbracelet/lipgloss"

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorAccent    = lipgloss.Color("#3B82F6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			MarginBottom(1)

	wordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	cellStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDarkGray).
			Padding(0, 1)

	selectedCellStyle = cellStyle.
				BorderForeground(colorAccent)

	linkStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Underline(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Bold(true).
			MarginTop(1)
)
