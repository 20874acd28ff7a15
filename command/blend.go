package command

import (
	"errors"
	"fmt"
)

// BlendMode indexes a BlendTable.
type BlendMode int

// Built-in blend modes. Modes past Screen have no fixed-function GPU
// equivalent and render as Normal on GPU backends; the canvas backend can
// still honour them.
const (
	BlendModeSkipCheck BlendMode = -1

	BlendModeNormal BlendMode = iota - 1
	BlendModeAdd
	BlendModeMultiply
	BlendModeScreen
	BlendModeOverlay
	BlendModeDarken
	BlendModeLighten
	BlendModeColorDodge
	BlendModeColorBurn
	BlendModeHardLight
	BlendModeSoftLight
	BlendModeDifference
	BlendModeExclusion
	BlendModeHue
	BlendModeSaturation
	BlendModeColor
	BlendModeLuminosity
)

// builtinBlendModes is the number of modes that can never be removed.
const builtinBlendModes = int(BlendModeLuminosity) + 1

var blendModeNames = [...]string{
	"NORMAL", "ADD", "MULTIPLY", "SCREEN", "OVERLAY", "DARKEN", "LIGHTEN",
	"COLOR_DODGE", "COLOR_BURN", "HARD_LIGHT", "SOFT_LIGHT", "DIFFERENCE",
	"EXCLUSION", "HUE", "SATURATION", "COLOR", "LUMINOSITY",
}

// String returns the mode name.
func (m BlendMode) String() string {
	if m == BlendModeSkipCheck {
		return "SKIP_CHECK"
	}
	if m >= 0 && int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("CUSTOM(%d)", int(m))
}

// ErrUnknownBlendMode is returned for modes that were never added or have
// been removed.
var ErrUnknownBlendMode = errors.New("command: unknown blend mode")

// ErrBuiltinBlendMode is returned when removing one of the built-in modes.
var ErrBuiltinBlendMode = errors.New("command: built-in blend modes cannot be removed")

// BlendTable maps blend modes to GPU blend states.
type BlendTable struct {
	states  []BlendState
	present []bool
}

// NewBlendTable returns a table holding the built-in modes.
func NewBlendTable() *BlendTable {
	t := &BlendTable{
		states:  make([]BlendState, builtinBlendModes),
		present: make([]bool, builtinBlendModes),
	}
	for i := range t.states {
		t.states[i] = BlendNormal
		t.present[i] = true
	}
	t.states[BlendModeAdd] = NewBlendState(BlendFactorOne, BlendFactorDstAlpha, BlendOpAdd)
	t.states[BlendModeMultiply] = NewBlendState(BlendFactorDst, BlendFactorOneMinusSrcAlpha, BlendOpAdd)
	t.states[BlendModeScreen] = NewBlendState(BlendFactorOne, BlendFactorOneMinusSrc, BlendOpAdd)
	return t
}

// State returns the blend state for mode.
func (t *BlendTable) State(mode BlendMode) (BlendState, bool) {
	if mode < 0 || int(mode) >= len(t.states) || !t.present[mode] {
		return BlendState{}, false
	}
	return t.states[mode], true
}

// Add appends a custom mode and returns its index.
func (t *BlendTable) Add(s BlendState) BlendMode {
	t.states = append(t.states, s)
	t.present = append(t.present, true)
	return BlendMode(len(t.states) - 1)
}

// Update replaces the state of an existing mode.
func (t *BlendTable) Update(mode BlendMode, s BlendState) error {
	if _, ok := t.State(mode); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlendMode, int(mode))
	}
	t.states[mode] = s
	return nil
}

// Remove deletes a custom mode. Indices of other modes are unchanged.
func (t *BlendTable) Remove(mode BlendMode) error {
	if mode >= 0 && int(mode) < builtinBlendModes {
		return ErrBuiltinBlendMode
	}
	if _, ok := t.State(mode); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlendMode, int(mode))
	}
	t.present[mode] = false
	t.states[mode] = BlendState{}
	return nil
}

// Len returns the number of slots, including removed custom modes.
func (t *BlendTable) Len() int { return len(t.states) }
