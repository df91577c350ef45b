package survey

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	// Premultiply: multiply RGB by alpha
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders the assembled world map as vector graphics: a
// top-down XY view with beacons, sensor poses, detection footprints, and a
// coordinate grid. The scale maps world units to canvas millimeters; scanner
// coordinates span thousands of units, so the default keeps output around
// A3 size.
type VectorRenderer struct {
	World          *WorldMap
	Colors         []SensorColor
	Scale          float64 // Canvas mm per world unit
	Padding        float64 // Padding in canvas mm
	Resolution     canvas.Resolution
	GridSpacing    float64 // Grid line spacing in world units; 0 disables
	ShowFootprints bool
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(world *WorldMap) *VectorRenderer {
	return &VectorRenderer{
		World:          world,
		Colors:         DefaultSensorColors(),
		Scale:          0.05,
		Padding:        20.0,
		Resolution:     canvas.DPI(300),
		GridSpacing:    1000.0,
		ShowFootprints: true,
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the map as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	minX, minY, maxX, maxY, err := r.worldBounds()
	if err != nil {
		return err
	}

	width := float64(maxX-minX)*r.Scale + 2*r.Padding
	height := float64(maxY-minY)*r.Scale + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)

	r.renderToCanvas(svgRenderer, minX, minY, maxX, maxY, width, height)

	// Close SVG renderer to write closing tags
	return svgRenderer.Close()
}

// RenderToPNG writes the map as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	minX, minY, maxX, maxY, err := r.worldBounds()
	if err != nil {
		return err
	}

	width := float64(maxX-minX)*r.Scale + 2*r.Padding
	height := float64(maxY-minY)*r.Scale + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)

	r.renderToCanvas(rast, minX, minY, maxX, maxY, width, height)

	// Rasterizer implements draw.Image interface, which embeds image.Image
	return png.Encode(w, rast)
}

// renderToCanvas renders the map to a canvas renderer (shared logic for SVG and PNG)
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, maxX, maxY int, width, height float64) {
	// Draw white background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Helper to transform world XY to canvas coordinates. Canvas Y grows
	// upward, matching world Y.
	toCanvas := func(x, y int) (float64, float64) {
		cx := float64(x-minX)*r.Scale + r.Padding
		cy := float64(y-minY)*r.Scale + r.Padding
		return cx, cy
	}

	placements := r.World.Placements()

	// Detection footprints first, under everything else
	if r.ShowFootprints {
		for i, p := range placements {
			sc := r.colorFor(i)
			s := p.Sensor

			fpStyle := canvas.DefaultStyle
			fpStyle.Fill = canvas.Paint{Color: canvas.Transparent}
			fpStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(sc.Beacon)}
			fpStyle.StrokeWidth = 0.3
			fpStyle.Dashes = []float64{2.0, 2.0}

			x0, y0 := toCanvas(s.Position.X-s.Range, s.Position.Y-s.Range)
			side := float64(2*s.Range) * r.Scale
			fp := canvas.Rectangle(side, side)
			fp = fp.Translate(x0, y0)
			renderer.RenderPath(fp, fpStyle, canvas.Identity)
		}
	}

	// Grid lines
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.2
		gridStyle.Dashes = []float64{1.0, 1.0}

		// Vertical grid lines
		for x := math.Floor(float64(minX)/r.GridSpacing) * r.GridSpacing; x <= float64(maxX); x += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(int(x), minY)
			x2, y2 := toCanvas(int(x), maxY)
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}

		// Horizontal grid lines
		for y := math.Floor(float64(minY)/r.GridSpacing) * r.GridSpacing; y <= float64(maxY); y += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(minX, int(y))
			x2, y2 := toCanvas(maxX, int(y))
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Beacons as filled circles, colored by the placement that contributed
	// them. Earlier placements win for shared beacons.
	drawn := make(map[Vector3]struct{})
	for i, p := range placements {
		sc := r.colorFor(i)

		beaconStyle := canvas.DefaultStyle
		beaconStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(sc.Beacon)}
		beaconStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

		for _, b := range p.Reading.Beacons() {
			if _, ok := drawn[b]; ok {
				continue
			}
			drawn[b] = struct{}{}
			cx, cy := toCanvas(b.X, b.Y)
			dot := canvas.Circle(0.6)
			dot = dot.Translate(cx, cy)
			renderer.RenderPath(dot, beaconStyle, canvas.Identity)
		}
	}

	// Sensor poses as larger outlined circles
	for i, p := range placements {
		sc := r.colorFor(i)
		cx, cy := toCanvas(p.Sensor.Position.X, p.Sensor.Position.Y)

		sensorStyle := canvas.DefaultStyle
		sensorStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(sc.Sensor)}
		sensorStyle.Stroke = canvas.Paint{Color: canvas.Black}
		sensorStyle.StrokeWidth = 0.4

		mark := canvas.Circle(1.5)
		mark = mark.Translate(cx, cy)
		renderer.RenderPath(mark, sensorStyle, canvas.Identity)
	}
}

// colorFor returns the palette entry for a placement index
func (r *VectorRenderer) colorFor(index int) SensorColor {
	return r.Colors[index%len(r.Colors)]
}

// worldBounds computes the XY extent of everything that will be drawn
func (r *VectorRenderer) worldBounds() (minX, minY, maxX, maxY int, err error) {
	placements := r.World.Placements()
	if len(placements) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("no placements to render")
	}

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
	for _, p := range placements {
		s := p.Sensor
		include(s.Position.X, s.Position.Y)
		if r.ShowFootprints {
			include(s.Position.X-s.Range, s.Position.Y-s.Range)
			include(s.Position.X+s.Range, s.Position.Y+s.Range)
		}
	}
	return minX, minY, maxX, maxY, nil
}
