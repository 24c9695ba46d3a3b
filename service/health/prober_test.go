// SPDX-License-Identifier: BSD-3-Clause

package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestProbeHTTPReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(WithProbeTimeout(500 * time.Millisecond))
	ready, err := p.Probe(context.Background(), Target{BaseURL: srv.URL, HealthPath: "/health"})
	if err != nil || !ready {
		t.Fatalf("expected ready, got ready=%v err=%v", ready, err)
	}
}

func TestProbeHTTPNotReadyOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(WithProbeTimeout(500 * time.Millisecond))
	ready, err := p.Probe(context.Background(), Target{BaseURL: srv.URL, HealthPath: "/health"})
	if err == nil || ready {
		t.Fatalf("expected not-ready error, got ready=%v err=%v", ready, err)
	}
}

func TestProbeTCPOnlyWhenNoHealthPath(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}

	p := New(WithProbeTimeout(500 * time.Millisecond))
	ready, err := p.Probe(context.Background(), Target{Host: host, Port: port})
	if err != nil || !ready {
		t.Fatalf("expected TCP ready, got ready=%v err=%v", ready, err)
	}
}

func TestPollUntilReadyTimesOutWithoutError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close() // nothing ever listens; connect always fails

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}

	p := New(WithProbeTimeout(50*time.Millisecond), WithPollInterval(20*time.Millisecond), WithStartupBudget(100*time.Millisecond))
	ready, err := p.PollUntilReady(context.Background(), Target{Host: host, Port: port})
	if err != nil {
		t.Fatalf("budget exhaustion must not be an error: %v", err)
	}
	if ready {
		t.Fatalf("expected not ready")
	}
}
