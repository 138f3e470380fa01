// Package menu renders the application menu and parses numeric choices.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/appswitch-io/appswitch/pkg/types"
)

// Render builds the menu text: the title followed by one numbered line
// per entry, 1-based.
func Render(cfg *types.Config) string {
	var b strings.Builder
	b.WriteString(cfg.MenuTitle)
	for i, entry := range cfg.Entries {
		b.WriteString(fmt.Sprintf("\n%d) %s", i+1, entry.Label))
	}
	return b.String()
}

// ParseChoice parses user input as a menu choice within [lo, hi].
// Whitespace is trimmed; non-numeric or out-of-range input returns
// ok=false.
func ParseChoice(content string, lo, hi int) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return 0, false
	}
	if value < lo || value > hi {
		return 0, false
	}
	return value, true
}

// ChooseEndpoint maps user input onto the snapshotted endpoint list.
func ChooseEndpoint(content string, endpoints []string) (string, bool) {
	choice, ok := ParseChoice(content, 1, len(endpoints))
	if !ok {
		return "", false
	}
	return endpoints[choice-1], true
}
