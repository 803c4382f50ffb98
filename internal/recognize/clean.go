package recognize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes model output to NFC, removes a ```markdown fence the
// model may wrap the whole answer in, and trims it. Empty output yields
// ErrNoText.
func CleanText(text string) (string, error) {
	text = strings.TrimSpace(norm.NFC.String(text))
	for _, open := range []string{"```markdown", "```md"} {
		if strings.HasPrefix(text, open+"\n") && strings.HasSuffix(text, "```") {
			text = strings.TrimPrefix(text, open)
			text = strings.TrimSuffix(text, "```")
			break
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
