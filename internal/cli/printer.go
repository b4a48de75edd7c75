package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/wardenhq/warden/internal/constants"
)

// printConsoleLine prints one console frame with a timestamp, coloring
// error frames and notices
func printConsoleLine(line string) {
	ts := time.Now().Format("15:04:05")

	color := ""
	switch {
	case strings.HasPrefix(line, "ERROR: "):
		color = constants.ColorRed
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "Command received:"):
		color = constants.ColorDim
	}

	if color == "" {
		fmt.Printf("%s%s%s │ %s\n", constants.ColorDim, ts, constants.ColorReset, line)
		return
	}
	fmt.Printf("%s%s%s │ %s%s%s\n", constants.ColorDim, ts, constants.ColorReset, color, line, constants.ColorReset)
}
