package survey

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SensorColor defines the colors for one scanner's rendered elements
type SensorColor struct {
	Beacon color.NRGBA
	Sensor color.NRGBA
}

// DefaultSensorColors returns distinct colors for up to 6 scanners; further
// scanners cycle through the palette
func DefaultSensorColors() []SensorColor {
	return []SensorColor{
		{ // Anchor - Blue
			Beacon: color.NRGBA{100, 149, 237, 255}, // Cornflower blue
			Sensor: color.NRGBA{0, 0, 139, 255},     // Dark blue
		},
		{ // Scanner 2 - Red
			Beacon: color.NRGBA{255, 99, 71, 255}, // Tomato
			Sensor: color.NRGBA{139, 0, 0, 255},   // Dark red
		},
		{ // Scanner 3 - Green
			Beacon: color.NRGBA{144, 238, 144, 255}, // Light green
			Sensor: color.NRGBA{0, 100, 0, 255},     // Dark green
		},
		{ // Scanner 4 - Yellow
			Beacon: color.NRGBA{255, 215, 0, 255},  // Gold
			Sensor: color.NRGBA{184, 134, 11, 255}, // Dark goldenrod
		},
		{ // Scanner 5 - Purple
			Beacon: color.NRGBA{186, 85, 211, 255}, // Orchid
			Sensor: color.NRGBA{75, 0, 130, 255},   // Indigo
		},
		{ // Scanner 6 - Teal
			Beacon: color.NRGBA{64, 224, 208, 255}, // Turquoise
			Sensor: color.NRGBA{0, 128, 128, 255},  // Teal
		},
	}
}

// MapRenderer renders an assembled world map as a top-down (XY) image.
// Beacons keep the color of the first scanner that placed them; sensor poses
// draw as squares with labels and, optionally, their detection footprint
// outline.
type MapRenderer struct {
	World          *WorldMap
	Colors         []SensorColor
	Scale          float64 // Pixels per map unit
	Padding        int     // Padding around the image
	ShowFootprints bool    // Outline each sensor's detection square
}

// NewMapRenderer creates a renderer with default settings
func NewMapRenderer(world *WorldMap) *MapRenderer {
	return &MapRenderer{
		World:          world,
		Colors:         DefaultSensorColors(),
		Scale:          0.25, // Scanner coordinates span thousands of units
		Padding:        30,
		ShowFootprints: true,
	}
}

// colorFor returns the palette entry for a placement index
func (r *MapRenderer) colorFor(index int) SensorColor {
	return r.Colors[index%len(r.Colors)]
}

// CalculateBounds computes the XY bounding box of everything that will be
// drawn: all beacons, all sensor positions, and footprints when enabled
func (r *MapRenderer) CalculateBounds() (minX, minY, maxX, maxY int) {
	first := true
	include := func(x, y int) {
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			return
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	for _, b := range r.World.AllBeacons() {
		include(b.X, b.Y)
	}
	for _, s := range r.World.Sensors() {
		include(s.Position.X, s.Position.Y)
		if r.ShowFootprints {
			include(s.Position.X-s.Range, s.Position.Y-s.Range)
			include(s.Position.X+s.Range, s.Position.Y+s.Range)
		}
	}
	return
}

// Render creates the plan-view image
func (r *MapRenderer) Render() *image.RGBA {
	minX, minY, maxX, maxY := r.CalculateBounds()

	width := int(float64(maxX-minX)*r.Scale) + 2*r.Padding
	height := int(float64(maxY-minY)*r.Scale) + 2*r.Padding

	// Limit size
	if width > 4000 {
		r.Scale *= float64(4000) / float64(width)
		width = 4000
		height = int(float64(maxY-minY)*r.Scale) + 2*r.Padding
	}
	if height > 4000 {
		r.Scale *= float64(4000) / float64(height)
		height = 4000
		width = int(float64(maxX-minX)*r.Scale) + 2*r.Padding
	}

	// If bounds are invalid (e.g., empty map), ensure positive dimensions
	if width <= 0 || height <= 0 {
		minSize := 2*r.Padding + 1
		if minSize < 1 {
			minSize = 1
		}
		if width <= 0 {
			width = minSize
		}
		if height <= 0 {
			height = minSize
		}
	}

	// Create image with light background
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{240, 240, 240, 255})
		}
	}

	// Helper to convert world XY to image coords. Image Y grows downward, so
	// world Y is flipped to keep north up.
	toImage := func(v Vector3) (int, int) {
		x := int(float64(v.X-minX)*r.Scale) + r.Padding
		y := height - (int(float64(v.Y-minY)*r.Scale) + r.Padding)
		return x, y
	}

	placements := r.World.Placements()

	// First pass: detection footprints (outlines, under everything else)
	if r.ShowFootprints {
		for i, p := range placements {
			sc := r.colorFor(i)
			s := p.Sensor
			faint := color.RGBA{sc.Beacon.R, sc.Beacon.G, sc.Beacon.B, 255}
			x0, y0 := toImage(Vector3{X: s.Position.X - s.Range, Y: s.Position.Y - s.Range})
			x1, y1 := toImage(Vector3{X: s.Position.X + s.Range, Y: s.Position.Y + s.Range})
			drawRectOutline(img, x0, y0, x1, y1, faint)
		}
	}

	// Second pass: beacons, colored by the placement that contributed them.
	// Earlier placements win for shared beacons.
	drawn := make(map[Vector3]struct{})
	for i, p := range placements {
		sc := r.colorFor(i)
		beaconRGBA := color.RGBA{sc.Beacon.R, sc.Beacon.G, sc.Beacon.B, 255}
		for _, b := range p.Reading.Beacons() {
			if _, ok := drawn[b]; ok {
				continue
			}
			drawn[b] = struct{}{}
			ix, iy := toImage(b)
			drawCircle(img, ix, iy, 2, beaconRGBA)
		}
	}

	// Third pass: sensor poses as squares with labels
	for i, p := range placements {
		sc := r.colorFor(i)
		sensorRGBA := color.RGBA{sc.Sensor.R, sc.Sensor.G, sc.Sensor.B, 255}
		ix, iy := toImage(p.Sensor.Position)
		drawSquare(img, ix, iy, 8, sensorRGBA)
		drawText(img, ix+6, iy-6, fmt.Sprintf("S%d", i), color.RGBA{0, 0, 0, 255})
	}

	r.drawLegend(img, placements)

	return img
}

// SavePNG saves the rendered map to a file
func (r *MapRenderer) SavePNG(path string) error {
	img := r.Render()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

// drawLegend adds per-scanner swatches and pose summaries to the top-left
func (r *MapRenderer) drawLegend(img *image.RGBA, placements []Placement) {
	y := 15
	for i, p := range placements {
		sc := r.colorFor(i)

		// Color swatch (12x12 square)
		for dy := 0; dy < 12; dy++ {
			for dx := 0; dx < 12; dx++ {
				img.Set(10+dx, y+dy-6, sc.Sensor)
			}
		}

		label := fmt.Sprintf("S%d (%s) %d beacons", i, p.Sensor.Position, p.Reading.Len())
		drawText(img, 28, y, label, color.RGBA{0, 0, 0, 255})

		y += 18
	}
}

// drawCircle draws a filled circle
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

// drawSquare draws a filled square
func drawSquare(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	half := size / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x, y := cx+dx, cy+dy
			if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
				img.Set(x, y, c)
			}
		}
	}
}

// drawRectOutline draws a one-pixel rectangle outline between two corners
func drawRectOutline(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	bounds := img.Bounds()
	set := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, c)
		}
	}
	for x := x0; x <= x1; x++ {
		set(x, y0)
		set(x, y1)
	}
	for y := y0; y <= y1; y++ {
		set(x0, y)
		set(x1, y)
	}
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// RenderMapPNG is a convenience function that builds a renderer with default
// settings and writes the PNG
func RenderMapPNG(world *WorldMap, outputPath string) error {
	if world == nil || len(world.Placements()) == 0 {
		return fmt.Errorf("no placements to render")
	}
	return NewMapRenderer(world).SavePNG(outputPath)
}
