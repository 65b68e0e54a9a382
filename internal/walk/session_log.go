package walk

import (
	"fmt"
	"strings"
	"sync"
)

// Session log categories.
const (
	CatFetch     = "fetch"
	CatScene     = "scene"
	CatTexture   = "texture"
	CatCapture   = "capture"
	CatView      = "view"
	CatSession   = "session"
	CatImmerse   = "immersive"
	CatClipboard = "clipboard"
)

// SessionLogEntry is one recorded lifecycle event.
type SessionLogEntry struct {
	Frame    int
	Session  string // short session id
	Category string // fetch, scene, texture, capture, view, session, ...
	Key      string // event name within the category
	Value    string // human-readable detail
	NumVal   float64
}

// String formats the entry as a fixed-width log line.
//
//	[F=0042] 3f2a9c1e texture   fallback         http 404
func (e SessionLogEntry) String() string {
	return fmt.Sprintf("[F=%04d] %-8s %-9s %-16s %s",
		e.Frame, e.Session, e.Category, e.Key, e.Value)
}

// SessionLog collects structured events for one or more sessions. Background
// loads report into it, so it is safe for concurrent use.
type SessionLog struct {
	mu      sync.Mutex
	entries []SessionLogEntry
	echo    func(format string, args ...any)
}

// NewSessionLog creates an empty log. If echo is non-nil every entry is also
// passed to it, e.g. log.Printf.
func NewSessionLog(echo func(format string, args ...any)) *SessionLog {
	return &SessionLog{echo: echo}
}

// Add records a new entry.
func (sl *SessionLog) Add(frame int, session, category, key, value string, numVal float64) {
	e := SessionLogEntry{
		Frame:    frame,
		Session:  session,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	}
	sl.mu.Lock()
	sl.entries = append(sl.entries, e)
	sl.mu.Unlock()
	if sl.echo != nil {
		sl.echo("[SESSION] %s", e)
	}
}

// Entries returns a copy of all recorded entries.
func (sl *SessionLog) Entries() []SessionLogEntry {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return append([]SessionLogEntry(nil), sl.entries...)
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SessionLog) Filter(category, key string) []SessionLogEntry {
	var out []SessionLogEntry
	for _, e := range sl.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count returns how many entries match category and key.
func (sl *SessionLog) Count(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SessionLog) LastOf(category, key string) (SessionLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SessionLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry reports whether an entry matches category, key and value substring.
func (sl *SessionLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.Filter(category, key) {
		if valueSubstr == "" || strings.Contains(e.Value, valueSubstr) {
			return true
		}
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SessionLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
