package form

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stegosuite/pkg/stego"
)

// View is what the form shows at one moment.
type View struct {
	FileLabel      string
	Scheme         stego.Scheme
	SchemeLabel    string
	ButtonLabel    string
	ButtonDisabled bool
	// At most one of Result and Error is set.
	Result string
	Error  string
}

var (
	accent  = lipgloss.Color("#2dd4bf")
	danger  = lipgloss.Color("#ef4444")
	muted   = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	divider = lipgloss.AdaptiveColor{Light: "#d1d5db", Dark: "#374151"}

	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	styleLabel    = lipgloss.NewStyle().Foreground(muted)
	styleButton   = lipgloss.NewStyle().Bold(true).Padding(0, 2).Foreground(lipgloss.Color("#0f172a")).Background(accent)
	styleDisabled = styleButton.Background(muted)
	styleError    = lipgloss.NewStyle().Foreground(danger)
	styleResult   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
	styleFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(divider).
			Padding(1, 2)
)

// Render draws v as terminal text.
func Render(v View) string {
	button := styleButton
	if v.ButtonDisabled {
		button = styleDisabled
	}

	rows := []string{
		styleTitle.Render("Decode Message"),
		"",
		styleLabel.Render("Stego image") + "  " + v.FileLabel,
		styleLabel.Render("Scheme") + "       " + v.SchemeLabel,
		"",
		button.Render(v.ButtonLabel),
	}
	if v.Error != "" {
		rows = append(rows, "", styleError.Render(v.Error))
	}
	if v.Result != "" {
		block := lipgloss.JoinVertical(lipgloss.Left,
			styleTitle.Render("Decoded Message:"),
			strings.TrimRight(v.Result, "\n"),
		)
		rows = append(rows, "", styleResult.Render(block))
	}
	return styleFrame.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
