package console

import "github.com/fatih/color"

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// StateColor renders a sensor state name: green when healthy, yellow when
// degraded and red otherwise.
func StateColor(state string) string {
	switch state {
	case "healthy":
		return Green(state)
	case "degraded":
		return Yellow(state)
	default:
		return Red(state)
	}
}
