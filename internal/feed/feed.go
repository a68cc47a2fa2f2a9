// Package feed keeps the recent signals and system log lines of a session.
package feed

import (
	"sync"
	"time"

	list "github.com/bahlo/generic-list-go"
	"github.com/rxtech-lab/axon-client/internal/types"
)

// DefaultCapacity is the number of entries kept per log.
const DefaultCapacity = 100

// Feed holds newest-first bounded logs of signals and log lines. When a log is
// full the oldest entry is dropped.
type Feed struct {
	mu       sync.RWMutex
	capacity int
	signals  *list.List[types.SignalEvent]
	logs     *list.List[types.LogEntry]
	now      func() time.Time
}

// NewFeed creates a Feed. A capacity below one uses DefaultCapacity.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Feed{
		mu:       sync.RWMutex{},
		capacity: capacity,
		signals:  list.New[types.SignalEvent](),
		logs:     list.New[types.LogEntry](),
		now:      time.Now,
	}
}

// OnSignal records a signal stamped with the receipt time.
func (f *Feed) OnSignal(msg types.SignalMessage) types.SignalEvent {
	event := types.SignalEvent{
		Pair:       msg.Pair,
		Direction:  msg.Direction,
		Confidence: msg.Confidence,
		Timeframe:  msg.Timeframe,
		Timestamp:  f.now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pushBounded(f.signals, event, f.capacity)

	return event
}

// OnLog records a system log line.
func (f *Feed) OnLog(msg types.LogMessage) types.LogEntry {
	entry := types.LogEntry{
		Timestamp: msg.Timestamp,
		Message:   msg.Message,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pushBounded(f.logs, entry, f.capacity)

	return entry
}

// Signals returns the recorded signals, newest first.
func (f *Feed) Signals() []types.SignalEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return toSlice(f.signals)
}

// Logs returns the recorded log lines, newest first.
func (f *Feed) Logs() []types.LogEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return toSlice(f.logs)
}

// LatestSignal returns the newest signal.
func (f *Feed) LatestSignal() (types.SignalEvent, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	front := f.signals.Front()
	if front == nil {
		return types.SignalEvent{}, false //nolint:exhaustruct
	}

	return front.Value, true
}

// Clear drops every entry.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signals.Init()
	f.logs.Init()
}

func pushBounded[T any](l *list.List[T], v T, capacity int) {
	l.PushFront(v)

	for l.Len() > capacity {
		l.Remove(l.Back())
	}
}

func toSlice[T any](l *list.List[T]) []T {
	result := make([]T, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		result = append(result, e.Value)
	}

	return result
}
