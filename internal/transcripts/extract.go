package transcripts

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// metadataKey marks non-conversation records in a transcript payload.
const metadataKey = "metadata"

// ExtractConversation renders a line-delimited JSON transcript payload as
// "<Speaker>: <text>" lines in payload order.
//
// Records carrying a metadata key are dropped. The speaker comes from
// "sender", falling back to "role"; the text from "text", falling back to
// "content". Text may be a string, a list of strings (joined with single
// spaces) or an object holding "content" or "text". Lines that are not valid
// JSON objects, or lack a speaker or non-blank text, are skipped.
func ExtractConversation(payload string) string {
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	messages := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if _, ok := entry[metadataKey]; ok {
			continue
		}

		speaker := firstString(entry, "sender", "role")
		text := strings.TrimSpace(messageText(entry))
		if speaker == "" || text == "" {
			continue
		}

		messages = append(messages, capitalize(speaker)+": "+text)
	}

	return strings.Join(messages, "\n")
}

// firstString returns the first non-empty string value among keys.
func firstString(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := entry[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func messageText(entry map[string]any) string {
	if v, ok := entry["text"]; ok && v != nil {
		return textValue(v, "content", "text")
	}
	if v, ok := entry["content"]; ok && v != nil {
		return textValue(v, "text")
	}
	return ""
}

func textValue(v any, nestedKeys ...string) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		if s := firstString(val, nestedKeys...); s != "" {
			return s
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return ""
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
