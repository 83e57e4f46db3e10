package notes

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// NoteRequest creates or replaces a note. Title and Content are required.
type NoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Public   bool     `json:"public"`
}

// Validate checks the required fields.
func (r NoteRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalidNote("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return invalidNote("content is required")
	}
	return nil
}

// Note is a stored note. Field names follow the service's response body, where
// boolean flags drop their "is" prefix.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
	Archived  bool      `json:"archived"`
	Public    bool      `json:"public"`
	Favorite  bool      `json:"favorite"`
}

// UnmarshalJSON also accepts the "isArchived", "isPublic" and "isFavorite" keys.
func (n *Note) UnmarshalJSON(data []byte) error {
	type plain Note
	var wire struct {
		plain
		IsArchived *bool `json:"isArchived"`
		IsPublic   *bool `json:"isPublic"`
		IsFavorite *bool `json:"isFavorite"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Note(wire.plain)
	if wire.IsArchived != nil {
		n.Archived = *wire.IsArchived
	}
	if wire.IsPublic != nil {
		n.Public = *wire.IsPublic
	}
	if wire.IsFavorite != nil {
		n.Favorite = *wire.IsFavorite
	}
	return nil
}

// localDateTime is how the service writes times: no offset, up to nanoseconds.
const localDateTime = "2006-01-02T15:04:05.999999999"

// Timestamp is a time on the wire. It reads RFC 3339 and offset-less local
// date-times, the latter as UTC, and writes the offset-less form in UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts null, "", RFC 3339 and offset-less date-times.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, localDateTime} {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised time %q", raw)
}

// MarshalJSON writes null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(localDateTime))
}

// Health is the body of GET /api/health/status.
type Health struct {
	Status string `json:"status"`
}
