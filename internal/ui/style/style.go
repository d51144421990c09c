// Package style provides the colors and icons shared by the logger and the
// progress renderer.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/dependo/internal/core/domain"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)

// StatusIcon returns the icon and color used to display a node status.
func StatusIcon(s domain.NodeStatus) (string, lipgloss.Color) {
	switch s {
	case domain.NodeStatusBuilt:
		return Check, Green
	case domain.NodeStatusUpToDate:
		return Tilde, Slate
	case domain.NodeStatusFailed:
		return Cross, Red
	case domain.NodeStatusRunning:
		return Dot, Iris
	default:
		return Circle, Slate
	}
}
