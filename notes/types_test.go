package notes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const serviceNoteBody = `{
	"id": 7,
	"title": "groceries",
	"content": "milk",
	"tags": ["home"],
	"imageUrl": null,
	"createdAt": "2024-01-15T10:30:00.123456",
	"updatedAt": "2024-01-16T08:00:00",
	"archived": false,
	"public": true,
	"favorite": true
}`

func TestNoteDecodesServiceBody(t *testing.T) {
	var n Note
	if err := json.Unmarshal([]byte(serviceNoteBody), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.ID != 7 || n.Title != "groceries" || !n.Public || !n.Favorite || n.Archived {
		t.Fatalf("unexpected note: %+v", n)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)
	if !n.CreatedAt.Equal(want) {
		t.Fatalf("createdAt = %v, want %v", n.CreatedAt.Time, want)
	}
	if n.UpdatedAt.Day() != 16 {
		t.Fatalf("updatedAt = %v", n.UpdatedAt.Time)
	}
}

func TestNoteAcceptsPrefixedFlags(t *testing.T) {
	var n Note
	body := `{"id":1,"title":"t","content":"c","isPublic":true,"isArchived":true,"createdAt":"2024-01-15T10:30:00Z"}`
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !n.Public || !n.Archived || n.Favorite {
		t.Fatalf("unexpected flags: %+v", n)
	}
	if n.CreatedAt.Hour() != 10 {
		t.Fatalf("createdAt = %v", n.CreatedAt.Time)
	}
}

func TestTimestampFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		err  bool
	}{
		{in: `"2024-01-15T10:30:00"`, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{in: `"2024-01-15T10:30:00.5"`, want: time.Date(2024, 1, 15, 10, 30, 0, 500000000, time.UTC)},
		{in: `"2024-01-15T12:30:00+02:00"`, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{in: `null`},
		{in: `""`},
		{in: `"yesterday"`, err: true},
		{in: `42`, err: true},
	}

	for _, tc := range tests {
		var ts Timestamp
		err := json.Unmarshal([]byte(tc.in), &ts)
		if tc.err {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if !ts.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.in, ts.Time, tc.want)
		}
	}
}

func TestTimestampWritesServiceForm(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 1, 15, 11, 30, 0, 250000000, time.FixedZone("CET", 3600)))
	out, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-01-15T10:30:00.25"` {
		t.Fatalf("marshal = %s", out)
	}

	out, err = json.Marshal(Note{ID: 1, Public: true})
	if err != nil {
		t.Fatalf("marshal note: %v", err)
	}
	for _, key := range []string{`"public":true`, `"archived":false`, `"createdAt":null`} {
		if !strings.Contains(string(out), key) {
			t.Fatalf("note body %s missing %s", out, key)
		}
	}
}
