// Package logger keeps a bounded, central history of tagged log entries.
// Core components report degraded conditions here instead of printing
// directly, so the frontend and debugger can show or tail them.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// MaxEntries is the number of entries kept before the oldest are dropped.
const MaxEntries = 256

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	s := fmt.Sprintf("[%s] %s", e.Tag, e.Detail)
	if e.Repeated > 0 {
		s += fmt.Sprintf(" (repeat x%d)", e.Repeated+1)
	}
	return s
}

type central struct {
	mu      sync.Mutex
	entries []Entry
	echo    *log.Logger
}

var std = &central{}

func (c *central) add(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.entries); n > 0 && c.entries[n-1].Tag == tag && c.entries[n-1].Detail == detail {
		c.entries[n-1].Repeated++
		c.entries[n-1].Timestamp = time.Now()
		return
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail}
	c.entries = append(c.entries, e)
	if len(c.entries) > MaxEntries {
		c.entries = c.entries[len(c.entries)-MaxEntries:]
	}

	if c.echo != nil {
		c.echo.Println(e.String())
	}
}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	std.add(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...interface{}) {
	std.add(tag, fmt.Sprintf(format, args...))
}

// Clear removes every entry.
func Clear() {
	std.mu.Lock()
	std.entries = std.entries[:0]
	std.mu.Unlock()
}

// Write writes every entry to w, one per line.
func Write(w io.Writer) {
	Tail(w, MaxEntries)
}

// Tail writes the last n entries to w. Asking for more entries than exist
// is fine.
func Tail(w io.Writer, n int) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if n > len(std.entries) {
		n = len(std.entries)
	}
	if n <= 0 {
		return
	}
	for _, e := range std.entries[len(std.entries)-n:] {
		io.WriteString(w, e.String()+"\n")
	}
}

// Entries returns a copy of the current history.
func Entries() []Entry {
	std.mu.Lock()
	defer std.mu.Unlock()

	c := make([]Entry, len(std.entries))
	copy(c, std.entries)
	return c
}

// SetEcho prints new entries to w as they are added. A nil writer turns
// echoing off.
func SetEcho(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if w == nil {
		std.echo = nil
		return
	}
	std.echo = log.New(w, "", log.LstdFlags)
}
