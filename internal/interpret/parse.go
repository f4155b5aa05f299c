package interpret

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ReplyKind tags the outcome of parsing a model reply.
type ReplyKind int

const (
	Unparsed ReplyKind = iota
	Parsed
)

// Reply is a model reply after tolerant parsing. Result is set only when
// Kind is Parsed; Raw always holds the text as received.
type Reply struct {
	Kind   ReplyKind
	Result Result
	Raw    string
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ParseReply looks for a fenced ```json block, else the first top-level
// JSON object in the text, and decodes it. An object carrying neither
// interpretations nor an overall message is treated as unparsed.
func ParseReply(text string) Reply {
	unparsed := Reply{Kind: Unparsed, Raw: text}

	candidate, ok := extractJSON(text)
	if !ok {
		return unparsed
	}

	var wire struct {
		Interpretations []Entry `json:"interpretations"`
		OverallMessage  *string `json:"overallMessage"`
	}
	if err := json.NewDecoder(strings.NewReader(candidate)).Decode(&wire); err != nil {
		return unparsed
	}
	if wire.Interpretations == nil && wire.OverallMessage == nil {
		return unparsed
	}

	result := Result{Interpretations: wire.Interpretations}
	if result.Interpretations == nil {
		result.Interpretations = []Entry{}
	}
	if wire.OverallMessage != nil {
		result.OverallMessage = *wire.OverallMessage
	}
	return Reply{Kind: Parsed, Result: result, Raw: text}
}

// extractJSON returns the text of the JSON candidate. For the unfenced case
// it returns everything from the first '{'; the decoder stops at the end of
// the first value.
func extractJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	return text[start:], true
}
