package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")  // teal - stage markers
	colorGreen = lipgloss.Color("35")  // green - success
	colorRed   = lipgloss.Color("167") // soft red - errors
	colorGray  = lipgloss.Color("245") // gray - secondary text
)

var (
	styleStage   = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDetail  = lipgloss.NewStyle().Foreground(colorGray)
)

// stage prints a marker before a major step.
func stage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleStage.Render("▸"), fmt.Sprintf(format, args...))
}

// success prints a completed-step line.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", styleSuccess.Render("✓"), fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line below a success marker.
func detail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", styleDetail.Render(fmt.Sprintf(format, args...)))
}

// failure prints a categorized error line. The category names the error
// taxonomy bucket (Validation Error, Connection Error, Import Error).
func failure(category string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", styleError.Render("✗"), category, err)
}
