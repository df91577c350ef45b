package survey

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// smallWorld builds a two-placement map with a handful of beacons.
func smallWorld(t *testing.T) *WorldMap {
	t.Helper()
	readings := loadExampleReadings(t)
	world := NewWorldMap(DefaultBuildConfig())
	if err := world.Build(readings[:2]); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return world
}

// ---------------------------------------------------------------------------
// bounds
// ---------------------------------------------------------------------------

func TestMapRenderer_CalculateBounds(t *testing.T) {
	world := smallWorld(t)
	r := NewMapRenderer(world)

	minX, minY, maxX, maxY := r.CalculateBounds()
	if minX >= maxX || minY >= maxY {
		t.Fatalf("degenerate bounds: %d,%d %d,%d", minX, minY, maxX, maxY)
	}

	// footprints extend the bounds past the beacons; the anchor's detection
	// square reaches -1000 on both axes
	if minX > -1000 || minY > -1000 {
		t.Errorf("bounds %d,%d do not cover the anchor footprint", minX, minY)
	}

	// without footprints the bounds shrink to the point data
	r.ShowFootprints = false
	nx, ny, xx, xy := r.CalculateBounds()
	if nx < minX || ny < minY || xx > maxX || xy > maxY {
		t.Error("disabling footprints should never grow the bounds")
	}
}

// ---------------------------------------------------------------------------
// raster output
// ---------------------------------------------------------------------------

func TestMapRenderer_Render(t *testing.T) {
	world := smallWorld(t)
	img := NewMapRenderer(world).Render()

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		t.Fatalf("rendered image has degenerate bounds %v", bounds)
	}
	if bounds.Dx() > 4000 || bounds.Dy() > 4000 {
		t.Errorf("rendered image %v exceeds the size cap", bounds)
	}
}

func TestMapRenderer_SavePNG(t *testing.T) {
	world := smallWorld(t)
	path := filepath.Join(t.TempDir(), "map.png")

	if err := NewMapRenderer(world).SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() <= 0 {
		t.Error("decoded image is empty")
	}
}

func TestRenderMapPNG_EmptyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")

	if err := RenderMapPNG(nil, path); err == nil {
		t.Error("RenderMapPNG(nil) should fail")
	}
	if err := RenderMapPNG(NewWorldMap(DefaultBuildConfig()), path); err == nil {
		t.Error("RenderMapPNG with no placements should fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no output file should be written for an empty map")
	}
}

// ---------------------------------------------------------------------------
// palette
// ---------------------------------------------------------------------------

func TestMapRenderer_ColorCycling(t *testing.T) {
	r := NewMapRenderer(nil)
	n := len(r.Colors)
	if n == 0 {
		t.Fatal("default palette is empty")
	}
	if r.colorFor(0) != r.colorFor(n) {
		t.Error("palette should cycle past its length")
	}
	if n > 1 && r.colorFor(0) == r.colorFor(1) {
		t.Error("adjacent palette entries should differ")
	}
}
