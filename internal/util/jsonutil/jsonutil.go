// Package jsonutil recovers JSON documents from model output that is almost,
// but not quite, a bare JSON value.
package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("jsonutil: no JSON document found")

// Extract returns the JSON document in text. It accepts a bare document, one
// wrapped in a Markdown code fence, one surrounded by chatter, and one that
// was double-encoded as a JSON string.
func Extract(text string) (json.RawMessage, error) {
	s := stripFence(strings.TrimSpace(text))
	if json.Valid([]byte(s)) {
		return unwrapQuoted(json.RawMessage(s))
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, ErrNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return nil, ErrNoJSON
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(candidate), nil
}

// UnmarshalFlex unmarshals raw into v, falling back to Extract when raw is
// not a clean document.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	doc, err := Extract(string(raw))
	if err != nil {
		return err
	}
	return json.Unmarshal(doc, v)
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. ```json.
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// unwrapQuoted decodes up to two levels of a document encoded as a string.
func unwrapQuoted(raw json.RawMessage) (json.RawMessage, error) {
	for i := 0; i < 2; i++ {
		if len(raw) == 0 || raw[0] != '"' {
			return raw, nil
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		inner = strings.TrimSpace(inner)
		if !json.Valid([]byte(inner)) {
			return nil, ErrNoJSON
		}
		raw = json.RawMessage(inner)
	}
	if len(raw) > 0 && raw[0] == '"' {
		return nil, ErrNoJSON
	}
	return raw, nil
}
