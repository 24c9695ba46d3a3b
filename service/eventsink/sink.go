// SPDX-License-Identifier: BSD-3-Clause

package eventsink

import "sync"

// ringCapacity is N in "last N output lines (N = 30)".
const ringCapacity = 30

// Sink is the append-only interface service/controller and
// service/supervisor write to. service/bus additionally drains Events()
// and republishes every record onto the embedded NATS bus for in-process
// subscribers (such as the httpstatus /events stream).
type Sink interface {
	// Write appends a record. It never blocks the caller and never
	// returns an error: a full sink drops the record and is expected to
	// report the drop via an InstallProgress/lines_elided record instead.
	Write(r Record)
	// RingFor returns the per-service output ring buffer backing the
	// UI's log tabs and StartupExit's output tail.
	RingFor(serviceID string) *RingBuffer
	// Events exposes the underlying channel for a single in-process
	// consumer (service/bus) to drain and republish.
	Events() <-chan Record
	// Close releases the sink; after Close, Write no longer delivers to
	// Events(), though ChannelSink still appends log lines to their ring
	// buffer.
	Close()
}

// ChannelSink is the default Sink: a bounded channel plus a per-service
// ring buffer. When the channel is full, the incoming record is dropped
// and a running per-service elided count accumulates; the count is
// flushed as an InstallProgress lines_elided record the next time there
// is room.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Record
	closed bool
	elided map[string]int
	rings  map[string]*RingBuffer
}

// NewChannelSink returns a ChannelSink buffering up to bufferSize records.
func NewChannelSink(bufferSize int) *ChannelSink {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &ChannelSink{
		ch:     make(chan Record, bufferSize),
		elided: make(map[string]int),
		rings:  make(map[string]*RingBuffer),
	}
}

func (s *ChannelSink) Write(r Record) {
	if r.Kind == KindLogLine {
		s.RingFor(r.ServiceID).Append(r.Text)
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	s.flushElided(r.ServiceID)

	select {
	case s.ch <- r:
	default:
		s.mu.Lock()
		s.elided[r.ServiceID]++
		s.mu.Unlock()
	}
}

// flushElided attempts, without blocking, to emit the pending elided-lines
// count for serviceID as its own InstallProgress record.
func (s *ChannelSink) flushElided(serviceID string) {
	s.mu.Lock()
	n := s.elided[serviceID]
	s.mu.Unlock()
	if n == 0 {
		return
	}
	select {
	case s.ch <- InstallProgressElided(serviceID, n):
		s.mu.Lock()
		s.elided[serviceID] = 0
		s.mu.Unlock()
	default:
	}
}

func (s *ChannelSink) RingFor(serviceID string) *RingBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.rings[serviceID]
	if !ok {
		rb = NewRingBuffer(ringCapacity)
		s.rings[serviceID] = rb
	}
	return rb
}

func (s *ChannelSink) Events() <-chan Record { return s.ch }

func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
