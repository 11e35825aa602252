package styles

import "github.com/charmbracelet/lipgloss"

// Table contains the shared style definitions for the video-quality
// indicator and the live-stream dialog chrome. It is a static lookup: no
// state, no lifecycle.
var Table = struct {
	// Video-quality indicator labels
	AudioOnly   lipgloss.Style // audio-only mode (dark background)
	HighDef     lipgloss.Style // HD quality
	StandardDef lipgloss.Style // SD quality
	LowDef      lipgloss.Style // LD quality

	// Dialog chrome
	DialogBox   lipgloss.Style // modal box around the stream-key form
	DialogTitle lipgloss.Style // dialog title line
	StreamKey   lipgloss.Style // the stream key value
	Error       lipgloss.Style // errorType display
	Help        lipgloss.Style // dim helper text
}{
	AudioOnly: lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1),
	HighDef: lipgloss.NewStyle().
		Background(lipgloss.Color("29")).
		Foreground(lipgloss.Color("255")).
		Padding(0, 1),
	StandardDef: lipgloss.NewStyle().
		Background(lipgloss.Color("172")).
		Foreground(lipgloss.Color("235")).
		Padding(0, 1),
	LowDef: lipgloss.NewStyle().
		Background(lipgloss.Color("124")).
		Foreground(lipgloss.Color("255")).
		Padding(0, 1),
	DialogBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(1, 2).
		Margin(1),
	DialogTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")),
	StreamKey: lipgloss.NewStyle().
		Foreground(lipgloss.Color("213")),
	Error: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")),
}

var byName = map[string]lipgloss.Style{
	"indicatorAudioOnly": Table.AudioOnly,
	"indicatorHD":        Table.HighDef,
	"indicatorSD":        Table.StandardDef,
	"indicatorLD":        Table.LowDef,
	"dialogBox":          Table.DialogBox,
	"dialogTitle":        Table.DialogTitle,
	"streamKey":          Table.StreamKey,
	"error":              Table.Error,
	"help":               Table.Help,
}

// ByName resolves a style by its semantic name. Unknown names yield the zero
// style, which renders text unmodified.
func ByName(name string) lipgloss.Style {
	return byName[name]
}
