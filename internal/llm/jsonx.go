package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?i)```(json)?\\s*")

// StripCodeFences removes markdown code fences around a JSON reply.
func StripCodeFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// DecodeArray decodes the outermost JSON array in text into v.
func DecodeArray(text string, v any) error {
	return decodeBetween(text, "[", "]", v)
}

// DecodeObject decodes the outermost JSON object in text into v.
func DecodeObject(text string, v any) error {
	return decodeBetween(text, "{", "}", v)
}

func decodeBetween(text, opening, closing string, v any) error {
	cleaned := StripCodeFences(text)
	start := strings.Index(cleaned, opening)
	end := strings.LastIndex(cleaned, closing)
	if start == -1 || end <= start {
		return fmt.Errorf("%w: no %s...%s in reply", ErrMalformedJSON, opening, closing)
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}
