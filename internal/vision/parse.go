package vision

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var integerPattern = regexp.MustCompile(`\d+`)

// parseFaceCount pulls the face count out of a model reply. Models asked
// for a bare integer still occasionally wrap it in prose ("There are 2
// faces"), so the first integer in the reply wins.
func parseFaceCount(text string) (int, error) {
	text = stripMarkdownFence(text)
	match := integerPattern.FindString(text)
	if match == "" {
		// "no faces", "none" and similar phrasings mean zero.
		lower := strings.ToLower(text)
		if strings.Contains(lower, "no ") || strings.Contains(lower, "none") || strings.Contains(lower, "zero") {
			return 0, nil
		}
		return 0, fmt.Errorf("no integer in response %q", text)
	}

	count, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", match, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// stripMarkdownFence removes the code fences models add despite being
// told not to.
func stripMarkdownFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
