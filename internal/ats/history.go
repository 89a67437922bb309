package ats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"atscore/internal/types"

	"github.com/google/uuid"
)

// History is a caller-owned, append-only log of scores. The zero value is ready to use.
type History struct {
	mu      sync.Mutex
	entries []types.ScoreEntry
	now     func() time.Time
}

// NewHistory returns an empty history
func NewHistory() *History {
	return &History{}
}

func (h *History) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now().UTC()
}

// Record appends a result under label and returns the stored entry
func (h *History) Record(label string, result types.ScoreResult) types.ScoreEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := types.ScoreEntry{
		ID:         uuid.NewString(),
		Label:      label,
		RecordedAt: h.clock(),
		TotalScore: result.TotalScore,
		Grade:      result.Grade,
		Source:     result.Source,
	}
	h.entries = append(h.entries, entry)
	return entry
}

// Append adds an existing entry, e.g. one read back from storage
func (h *History) Append(entry types.ScoreEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

// Entries returns a snapshot of all entries in insertion order
func (h *History) Entries() []types.ScoreEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.ScoreEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Latest returns the most recent entry
func (h *History) Latest() (types.ScoreEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return types.ScoreEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// CompareAndRecord compares two results and, when h is non-nil, appends both to h.
func CompareAndRecord(h *History, original, enhanced types.ScoreResult) types.ImprovementReport {
	if h != nil {
		h.Record("original", original)
		h.Record("enhanced", enhanced)
	}
	return CompareResults(original, enhanced)
}

// ReadHistory decodes a JSON-lines history
func ReadHistory(r io.Reader) (*History, error) {
	h := NewHistory()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry types.ScoreEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		h.entries = append(h.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// WriteEntries encodes entries as JSON lines
func WriteEntries(w io.Writer, entries []types.ScoreEntry) error {
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
