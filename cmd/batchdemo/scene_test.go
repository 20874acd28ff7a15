package main

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/batch2d/command"
)

func TestColorUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{`"#ff8000"`, 0xFF8000, false},
		{`"0x00ff00"`, 0x00FF00, false},
		{`255`, 0xFF, false},
		{`"#1000000"`, 0, true},
		{`"red"`, 0, true},
	}
	for _, tt := range tests {
		var c Color
		err := yaml.Unmarshal([]byte(tt.in), &c)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && c != tt.want {
			t.Errorf("Unmarshal(%s) = %#x, want %#x", tt.in, uint32(c), uint32(tt.want))
		}
	}
}

func TestParseSceneDefaults(t *testing.T) {
	sc, err := ParseScene([]byte("objects: []\n"))
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}
	if sc.Width != 320 || sc.Height != 240 || sc.Resolution != 1 {
		t.Errorf("defaults = %dx%d@%v, want 320x240@1", sc.Width, sc.Height, sc.Resolution)
	}
}

func TestParseSceneRejectsAmbiguousObject(t *testing.T) {
	src := `
objects:
  - rect: {width: 1, height: 1}
    text: {text: hi}
`
	if _, err := ParseScene([]byte(src)); err == nil || !strings.Contains(err.Error(), "object 0") {
		t.Errorf("ParseScene error = %v, want object 0 error", err)
	}
}

func TestBlendModeNames(t *testing.T) {
	tests := []struct {
		name string
		want command.BlendMode
	}{
		{"", command.BlendModeNormal},
		{"add", command.BlendModeAdd},
		{"Multiply", command.BlendModeMultiply},
		{"color_dodge", command.BlendModeColorDodge},
	}
	for _, tt := range tests {
		got, err := blendMode(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("blendMode(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := blendMode("glow"); err == nil {
		t.Error("blendMode(glow) succeeded, want error")
	}
}

func TestRenderDefaultScene(t *testing.T) {
	sc, err := loadScene("")
	if err != nil {
		t.Fatalf("loadScene: %v", err)
	}
	img, err := render(sc, "canvas")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 320 || got.Y != 240 {
		t.Fatalf("size = %v, want 320x240", got)
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, color.RGBA{R: 0x16, G: 0x21, B: 0x3e, A: 0xFF}},
		{100, 10, color.RGBA{R: 0x0f, G: 0x34, B: 0x60, A: 0xFF}},
		{140, 200, color.RGBA{R: 0x16, G: 0x21, B: 0x3e, A: 0xFF}},
		{230, 70, color.RGBA{R: 0x11, G: 0x8a, B: 0xb2, A: 0xFF}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	src := `
width: 16
height: 16
resolution: 2
background: "#000000"
objects:
  - rect: {x: 4, y: 4, width: 8, height: 8, color: "#ffffff"}
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	sc, err := loadScene(path)
	if err != nil {
		t.Fatalf("loadScene: %v", err)
	}
	img, err := render(sc, "canvas")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.Bounds().Dx(); got != 32 {
		t.Errorf("width = %d, want 32", got)
	}
	if got := img.RGBAAt(16, 16); got != (color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}) {
		t.Errorf("center = %v, want white", got)
	}
	if got := img.RGBAAt(2, 2); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("corner = %v, want black", got)
	}
}

func TestBuildUnknownTexture(t *testing.T) {
	sc, err := ParseScene([]byte("objects:\n  - sprite: {texture: missing}\n"))
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}
	if _, err := render(sc, "canvas"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("render error = %v, want unknown texture", err)
	}
}

func TestRenderUnknownBackend(t *testing.T) {
	sc, _ := ParseScene(nil)
	if _, err := render(sc, "plotter"); err == nil {
		t.Error("render on unknown backend succeeded")
	}
}
