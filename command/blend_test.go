package command

import (
	"errors"
	"testing"
)

func TestBuiltinBlendModes(t *testing.T) {
	tbl := NewBlendTable()
	if tbl.Len() != 17 {
		t.Fatalf("Len() = %d, want 17", tbl.Len())
	}

	tests := []struct {
		mode BlendMode
		src  BlendFactor
		dst  BlendFactor
	}{
		{BlendModeNormal, BlendFactorOne, BlendFactorOneMinusSrcAlpha},
		{BlendModeAdd, BlendFactorOne, BlendFactorDstAlpha},
		{BlendModeMultiply, BlendFactorDst, BlendFactorOneMinusSrcAlpha},
		{BlendModeScreen, BlendFactorOne, BlendFactorOneMinusSrc},
		{BlendModeOverlay, BlendFactorOne, BlendFactorOneMinusSrcAlpha},
		{BlendModeLuminosity, BlendFactorOne, BlendFactorOneMinusSrcAlpha},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			s, ok := tbl.State(tt.mode)
			if !ok {
				t.Fatalf("State(%s) missing", tt.mode)
			}
			if !s.Enabled || s.Color.Src != tt.src || s.Color.Dst != tt.dst {
				t.Errorf("State(%s) = %+v, want src %d dst %d", tt.mode, s, tt.src, tt.dst)
			}
		})
	}
}

func TestCustomBlendModeLifecycle(t *testing.T) {
	tbl := NewBlendTable()
	sub := NewBlendState(BlendFactorOne, BlendFactorOne, BlendOpReverseSubtract)

	mode := tbl.Add(sub)
	if mode != 17 {
		t.Errorf("Add() = %d, want 17", mode)
	}
	if got, _ := tbl.State(mode); got != sub {
		t.Errorf("State(custom) = %+v, want %+v", got, sub)
	}

	other := tbl.Add(BlendNormal)
	if err := tbl.Update(mode, BlendNormal); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := tbl.Remove(mode); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := tbl.State(mode); ok {
		t.Error("removed mode still resolves")
	}
	if _, ok := tbl.State(other); !ok {
		t.Error("removing one mode shifted another")
	}

	if err := tbl.Remove(mode); !errors.Is(err, ErrUnknownBlendMode) {
		t.Errorf("second Remove = %v, want ErrUnknownBlendMode", err)
	}
	if err := tbl.Update(99, BlendNormal); !errors.Is(err, ErrUnknownBlendMode) {
		t.Errorf("Update(99) = %v, want ErrUnknownBlendMode", err)
	}
	if err := tbl.Remove(BlendModeAdd); !errors.Is(err, ErrBuiltinBlendMode) {
		t.Errorf("Remove(ADD) = %v, want ErrBuiltinBlendMode", err)
	}
}

func TestBlendModeString(t *testing.T) {
	tests := []struct {
		mode BlendMode
		want string
	}{
		{BlendModeSkipCheck, "SKIP_CHECK"},
		{BlendModeNormal, "NORMAL"},
		{BlendModeColorDodge, "COLOR_DODGE"},
		{BlendMode(20), "CUSTOM(20)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("BlendMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}
