package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// User is the backend's registered user record.
type User struct {
	ID        UserID  `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	Residence string  `json:"residence"`
	BaseTags  TagList `json:"baseTags"`
	CreatedAt string  `json:"createdAt"`
}

// Profile returns the chat header context derived from the user record.
func (u User) Profile() Profile {
	return Profile{
		UserName:  u.Name,
		Residence: u.Residence,
		BaseTags:  append([]string(nil), u.BaseTags...),
	}
}

// RegisterUserInput is the registration payload.
type RegisterUserInput struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Residence string   `json:"residence"`
	BaseTags  []string `json:"baseTags"`
}

// Profile is the locally cached context shown in the chat header.
type Profile struct {
	UserName  string   `json:"userName"`
	Residence string   `json:"residence"`
	BaseTags  []string `json:"baseTags"`
}

// UserID accepts both numeric and string identifiers on the wire and is kept
// as a string everywhere else.
type UserID string

// MarshalJSON writes all-digit ids as JSON numbers, which the backend stores
// as integers, and anything else as a string.
func (id UserID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && strings.Trim(s, "0123456789") == "" && len(s) < 19 && (s[0] != '0' || s == "0") {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("domain: decode user id: %w", err)
		}
		*id = UserID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("domain: decode user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// TagList decodes either a JSON array of strings or a string containing a
// JSON-encoded array; the user endpoints return the latter.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("domain: decode tags: %w", err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*t = TagList{}
			return nil
		}
		if !strings.HasPrefix(raw, "[") {
			*t = TagList{raw}
			return nil
		}
		b = []byte(raw)
	}
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return fmt.Errorf("domain: decode tags: %w", err)
	}
	*t = tags
	return nil
}
