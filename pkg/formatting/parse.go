package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when no JSON value could be recovered from a reply.
var ErrParseFailed = errors.New("failed to parse response")

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

const excerptLen = 200

// Parse decodes a model reply into T. The reply may be bare JSON, JSON inside
// a markdown fence, or a JSON object surrounded by prose; the first candidate
// that decodes wins.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
		var zero T
		result = zero
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, excerpt(content))
}

func candidates(content string) []string {
	out := []string{content}

	if m := fencePattern.FindStringSubmatch(content); len(m) == 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	return s[:excerptLen] + "..."
}
