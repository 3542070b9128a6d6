// pkg/banner/banner.go
package banner

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// ANSI color codes.
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

func colorCode(name string) string {
	switch name {
	case "red":
		return ColorRed
	case "green":
		return ColorGreen
	case "yellow":
		return ColorYellow
	case "blue":
		return ColorBlue
	case "cyan":
		return ColorCyan
	default:
		return ColorReset
	}
}

// Print writes text as an ASCII banner in a single color.
func Print(w io.Writer, text, color string) {
	fig := figure.NewFigure(text, "", true)
	c := colorCode(color)
	for _, line := range fig.Slicify() {
		fmt.Fprintln(w, c+line+ColorReset)
	}
}
