package shell

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
)

// Slot identifies one of the two dataset positions in a session.
type Slot int

const (
	SlotFirst Slot = iota
	SlotSecond
)

var errNoDataset = errors.New("no dataset loaded")

// SlotStatus is a point-in-time description of a loaded dataset.
type SlotStatus struct {
	Slot     int       `json:"slot"`
	ZipCode  string    `json:"zip_code"`
	Place    string    `json:"place"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
	Points   int       `json:"points"`
	LoadedAt time.Time `json:"loaded_at"`
}

// SessionStatus is served on the diagnostics /status endpoint.
type SessionStatus struct {
	DatasetsLoaded int          `json:"datasets_loaded"`
	Slots          []SlotStatus `json:"slots"`
}

// Session owns the two dataset slots. Datasets are only touched by the shell
// goroutine; other goroutines read the published snapshot.
type Session struct {
	slots [2]*domain.Dataset
	ready atomic.Bool

	mu       sync.RWMutex
	snapshot SessionStatus
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{snapshot: SessionStatus{Slots: []SlotStatus{}}}
}

// Dataset returns the dataset in slot, or nil when the slot is empty.
func (s *Session) Dataset(slot Slot) *domain.Dataset {
	return s.slots[slot]
}

// Put stores d in slot, replacing any previous dataset.
func (s *Session) Put(slot Slot, d *domain.Dataset) {
	s.slots[slot] = d
	s.publish()
}

// Loaded reports how many slots hold a dataset.
func (s *Session) Loaded() int {
	n := 0
	for _, d := range s.slots {
		if d != nil {
			n++
		}
	}
	return n
}

// publish refreshes the snapshot after a slot or its range changed.
func (s *Session) publish() {
	status := SessionStatus{Slots: []SlotStatus{}}
	for i, d := range s.slots {
		if d == nil {
			continue
		}
		r := d.Range()
		status.Slots = append(status.Slots, SlotStatus{
			Slot:     i + 1,
			ZipCode:  d.ZipCode(),
			Place:    d.DisplayName(),
			Start:    r.Start,
			End:      r.End,
			Points:   d.Len(),
			LoadedAt: d.LoadedAt(),
		})
	}
	status.DatasetsLoaded = len(status.Slots)

	s.mu.Lock()
	s.snapshot = status
	s.mu.Unlock()
	s.ready.Store(status.DatasetsLoaded > 0)
}

// Status returns the latest published snapshot.
func (s *Session) Status() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snapshot
	out.Slots = slices.Clone(s.snapshot.Slots)
	return out
}

// CheckReadiness reports ready once at least one dataset is loaded.
func (s *Session) CheckReadiness(_ context.Context) error {
	if s.ready.Load() {
		return nil
	}
	return errNoDataset
}
