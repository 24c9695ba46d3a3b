// SPDX-License-Identifier: BSD-3-Clause

package eventsink

import "testing"

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Append("a")
	rb.Append("b")
	rb.Append("c")
	rb.Append("d")
	got := rb.Lines()
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestChannelSinkOverflowElides(t *testing.T) {
	s := NewChannelSink(1)
	s.Write(LogLine("a", "first", LevelInfo))
	s.Write(LogLine("a", "second", LevelInfo)) // channel full, dropped + elided++
	<-s.Events()                                // drain "first"
	s.Write(LogLine("a", "third", LevelInfo))
	got := <-s.Events()
	if got.Kind != KindInstallProgress || got.LinesElided != 1 {
		t.Fatalf("expected a flushed elided-count record, got %+v", got)
	}
}

func TestChannelSinkRingCapturesLogLines(t *testing.T) {
	s := NewChannelSink(8)
	s.Write(LogLine("svc", "hello", LevelInfo))
	lines := s.RingFor("svc").Lines()
	if len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("expected ring to capture log line, got %v", lines)
	}
}
