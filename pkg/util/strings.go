package util

import "strings"

var (
	commandPrefixes  = []string{"research ", "analyze ", "analyse ", "check "}
	questionPatterns = []string{"what's happening with ", "how is ", "tell me about "}
)

// ExtractToken pulls a token name or symbol out of free text such as
// "research bitcoin" or "analyze ETH". It returns "" when nothing usable is found.
func ExtractToken(input string) string {
	in := strings.TrimSpace(input)
	lower := strings.ToLower(in)

	for _, p := range commandPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(in[len(p):])
		}
	}
	for _, p := range questionPatterns {
		if idx := strings.Index(lower, p); idx >= 0 {
			return strings.TrimRight(strings.TrimSpace(in[idx+len(p):]), "?")
		}
	}
	if in != "" && !strings.Contains(in, " ") && len(in) <= 20 {
		return in
	}
	return ""
}
