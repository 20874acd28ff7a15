package command

import (
	"strings"
	"testing"
)

func TestRecorderIsRegistered(t *testing.T) {
	if !IsRegistered("recorder") {
		t.Fatal("recorder backend not registered")
	}
	b, err := OpenBackend("recorder", BackendConfig{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if b.Name() != "recorder" {
		t.Errorf("Name() = %q, want recorder", b.Name())
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	Register("test-backend", func(BackendConfig) (Backend, error) { return NewRecorder(), nil })
	defer Unregister("test-backend")

	found := false
	for _, name := range Backends() {
		if name == "test-backend" {
			found = true
		}
	}
	if !found {
		t.Errorf("Backends() = %v, missing test-backend", Backends())
	}

	Unregister("test-backend")
	if IsRegistered("test-backend") {
		t.Error("test-backend still registered after Unregister")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := OpenBackend("nonexistent", BackendConfig{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "forgotten import") {
		t.Errorf("error %q lacks import hint", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	t.Run("nil factory", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Register(nil) did not panic")
			}
		}()
		Register("nil-factory", nil)
	})
	t.Run("duplicate", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("duplicate Register did not panic")
			}
		}()
		Register("recorder", func(BackendConfig) (Backend, error) { return nil, nil })
	})
}
