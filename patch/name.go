package patch

import (
	"strconv"
	"strings"
)

// splitName separates a trailing ordinal from a name: "Audio In12" gives
// ("Audio In", 12). Names without trailing digits have number 0.
func splitName(name string) (string, int) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) || i == 0 {
		return name, 0
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, 0
	}
	return name[:i], n
}

func prefixOf(name string) string {
	p, _ := splitName(name)
	return p
}

func numberOf(name string) int {
	_, n := splitName(name)
	return n
}

// withNumber replaces (or appends) the trailing ordinal of name.
func withNumber(name string, n int) string {
	return prefixOf(name) + strconv.Itoa(n)
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
