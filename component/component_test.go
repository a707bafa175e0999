package component

import (
	"context"
	"errors"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   HealthStatus
	log      *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	*m.log = append(*m.log, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	*m.log = append(*m.log, "stop:"+m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) Health {
	return Health{Name: m.name, Status: m.status}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	var log []string
	r := NewRegistry()
	c := &mockComponent{name: "poller", log: &log}

	if err := r.Register(c); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&mockComponent{name: "poller", log: &log}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if r.Get("poller") != c {
		t.Error("Get returned wrong component")
	}
	if r.Get("missing") != nil {
		t.Error("Get should return nil for unknown names")
	}
	if len(r.All()) != 1 {
		t.Errorf("All = %d entries", len(r.All()))
	}
}

func TestRegistry_LifecycleOrder(t *testing.T) {
	var log []string
	r := NewRegistry()
	for _, name := range []string{"storage", "server", "poller"} {
		_ = r.Register(&mockComponent{name: name, log: &log})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"start:storage", "start:server", "start:poller", "stop:poller", "stop:server", "stop:storage"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestRegistry_StartFailureStopsOnlyStarted(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", log: &log})
	_ = r.Register(&mockComponent{name: "b", log: &log, startErr: errors.New("port in use")})
	_ = r.Register(&mockComponent{name: "c", log: &log})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	log = nil
	_ = r.StopAll(context.Background())
	if len(log) != 1 || log[0] != "stop:a" {
		t.Errorf("expected only a to be stopped, got %v", log)
	}
}

func TestRegistry_StopAllCollectsErrors(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", log: &log, stopErr: errors.New("stuck")})
	_ = r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected stop error")
	}
}

func TestRegistry_HealthAll(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", log: &log, status: StatusHealthy})
	_ = r.Register(&mockComponent{name: "b", log: &log, status: StatusDegraded})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Status != StatusDegraded {
		t.Errorf("HealthAll = %+v", health)
	}
}
