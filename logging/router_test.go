package logging_test

import (
	"context"
	"testing"
	"time"

	"floorsight/dashboard/logging"
	"floorsight/dashboard/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.Memory) {
	t.Helper()
	memory := sinks.NewMemory()
	router := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		router.Close(ctx)
	})
	return router, memory
}

func waitForEvents(t *testing.T, memory *sinks.Memory, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := memory.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(memory.Events()))
	return nil
}

func TestRouterDeliversToSinks(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     "stream_connected",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryStream,
	})

	events := waitForEvents(t, memory, 1)
	if events[0].Type != "stream_connected" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router must stamp the event time")
	}
	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "debug_noise", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "warning", Severity: logging.SeverityWarn})

	events := waitForEvents(t, memory, 1)
	for _, event := range events {
		if event.Severity < logging.SeverityWarn {
			t.Fatalf("event below minimum severity delivered: %+v", event)
		}
	}
}

func TestRouterStampsStaticFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "dashboard"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "probe", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if events[0].Extra["service"] != "dashboard" {
		t.Fatalf("static field missing: %+v", events[0].Extra)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "real", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if len(events) != 1 || events[0].Type != "real" {
		t.Fatalf("untyped event must be dropped, got %+v", events)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]logging.Severity{
		"debug":   logging.SeverityDebug,
		"info":    logging.SeverityInfo,
		"warn":    logging.SeverityWarn,
		"warning": logging.SeverityWarn,
		"error":   logging.SeverityError,
		"bogus":   logging.SeverityInfo,
	}
	for name, want := range cases {
		if got := logging.ParseSeverity(name); got != want {
			t.Fatalf("ParseSeverity(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWithFieldsDoesNotOverrideExisting(t *testing.T) {
	var captured logging.Event
	publisher := logging.WithFields(logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	}), map[string]any{"component": "wrapper"})

	publisher.Publish(context.Background(), logging.Event{
		Type:  "probe",
		Extra: map[string]any{"component": "original"},
	})
	if captured.Extra["component"] != "original" {
		t.Fatalf("existing extra field must win, got %v", captured.Extra["component"])
	}
}
