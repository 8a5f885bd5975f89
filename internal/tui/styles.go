package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Width(12).
			Align(lipgloss.Center)

	EmptyCardStyle = CardStyle.
			BorderForeground(lipgloss.Color("#3A3A3A")).
			Foreground(lipgloss.Color("#3A3A3A"))

	SelectedCardStyle = CardStyle.
				BorderForeground(lipgloss.Color("#FFD700"))

	KeyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	CountdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	FrozenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7"))

	WinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1).
			Width(28)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// playerColors cycles through a colour per player for token markers.
var playerColors = []lipgloss.Color{
	"#FF6B6B", "#4ECDC4", "#FFD700", "#96CEB4", "#C39BD3", "#F0B27A",
}

func playerStyle(player int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(playerColors[player%len(playerColors)]).Bold(true)
}
