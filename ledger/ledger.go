// Package ledger keeps the append-only version history of an item payload.
package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/st-keller/omekas-client/types"
)

// Reason records why a snapshot was taken.
type Reason string

const (
	Created   Reason = "created"
	Updated   Reason = "updated"
	Refreshed Reason = "refreshed"
)

// Snapshot is an immutable copy of a payload at one version.
type Snapshot struct {
	Version int
	Reason  Reason
	TakenAt time.Time
	raw     []byte
}

// JSON returns the canonical JSON of the snapshot.
func (s Snapshot) JSON() []byte {
	return append([]byte(nil), s.raw...)
}

// Decode returns a fresh Resource built from the snapshot.
func (s Snapshot) Decode() (types.Resource, error) {
	var r types.Resource
	if err := json.Unmarshal(s.raw, &r); err != nil {
		return types.Resource{}, fmt.Errorf("failed to decode snapshot %d: %w", s.Version, err)
	}
	return r, nil
}

// Ledger is an ordered log of snapshots. Versions are the log indices, so
// they are contiguous from 0 and the latest version is the last element.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	snapshots []Snapshot
}

// New creates a ledger seeded with version 0.
func New(reason Reason, payload types.Resource) (*Ledger, error) {
	l := &Ledger{}
	if _, err := l.Append(reason, payload); err != nil {
		return nil, err
	}
	return l, nil
}

// Append adds a snapshot and returns its version.
func (l *Ledger) Append(reason Reason, payload types.Resource) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot payload: %w", err)
	}

	version := len(l.snapshots)
	l.snapshots = append(l.snapshots, Snapshot{
		Version: version,
		Reason:  reason,
		TakenAt: time.Now().UTC(),
		raw:     raw,
	})
	return version, nil
}

// Latest returns the most recent snapshot.
func (l *Ledger) Latest() Snapshot {
	return l.snapshots[len(l.snapshots)-1]
}

// Get returns the snapshot for a version.
func (l *Ledger) Get(version int) (Snapshot, bool) {
	if version < 0 || version >= len(l.snapshots) {
		return Snapshot{}, false
	}
	return l.snapshots[version], true
}

// Len returns the number of snapshots.
func (l *Ledger) Len() int {
	return len(l.snapshots)
}

// All returns the snapshots in version order.
func (l *Ledger) All() []Snapshot {
	return append([]Snapshot(nil), l.snapshots...)
}

// Matches reports whether payload serializes identically to the latest snapshot.
func (l *Ledger) Matches(payload types.Resource) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return string(raw) == string(l.Latest().raw)
}
