package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// SVGOptions controls the static SVG export.
type SVGOptions struct {
	TitleCard bool
	Labels    bool
	FontSize  int
}

// DefaultSVGOptions matches the on-screen look.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{TitleCard: true, Labels: true, FontSize: 10}
}

const fontFamily = "font-family:Georgia,'Times New Roman',serif"

// WriteSVG draws a frame as a standalone SVG document.
func WriteSVG(w io.Writer, f Frame, opts SVGOptions) error {
	if opts.FontSize <= 0 {
		opts.FontSize = 10
	}
	width, height := px(f.Width), px(f.Height)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render svg: invalid canvas %vx%v", f.Width, f.Height)
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	if f.Title != "" {
		canvas.Title(f.Title)
	}
	canvas.Rect(0, 0, width, height, "fill:"+Background)

	if len(f.Axis) > 0 {
		drawAxisSVG(canvas, f, opts)
	}

	canvas.Gstyle("fill:none")
	for _, e := range f.Edges {
		style := fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f", e.Stroke, e.Width, e.Opacity)
		if e.Dash != "" {
			style += ";stroke-dasharray:" + e.Dash
		}
		canvas.Path(e.D, style)
	}
	canvas.Gend()

	for _, e := range f.Edges {
		xs := []int{px(e.Arrow[0].X), px(e.Arrow[1].X), px(e.Arrow[2].X)}
		ys := []int{px(e.Arrow[0].Y), px(e.Arrow[1].Y), px(e.Arrow[2].Y)}
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:%.2f", e.Stroke, e.Opacity))
	}

	for _, n := range f.Nodes {
		canvas.Circle(px(n.Position.X), px(n.Position.Y), px(n.Radius),
			fmt.Sprintf("fill:%s;fill-opacity:%.2f;stroke:%s;stroke-width:%.1f;opacity:%.2f",
				n.Fill, nodeFillOpacity, n.Stroke, n.StrokeWidth, n.Opacity))
	}

	if opts.Labels {
		for _, n := range f.Nodes {
			canvas.Text(px(n.Label.X), px(n.Label.Y), n.Name,
				fmt.Sprintf("fill:%s;font-size:%dpx;%s;text-anchor:middle;opacity:%.2f", Text, opts.FontSize, fontFamily, n.Opacity))
		}
	}

	for _, d := range f.Dates {
		canvas.Text(px(d.At.X), px(d.At.Y), d.Text,
			fmt.Sprintf("fill:%s;font-size:%dpx;%s;text-anchor:middle;opacity:0.7", Text, max(opts.FontSize-2, 6), fontFamily))
	}

	if opts.TitleCard && (f.Title != "" || f.Description != "") {
		drawTitleCardSVG(canvas, f, opts)
	}

	canvas.End()
	return nil
}

func drawAxisSVG(canvas *svg.SVG, f Frame, opts SVGOptions) {
	y := px(f.Height) - 50
	canvas.Line(px(f.Axis[0].X), y, px(f.Axis[len(f.Axis)-1].X), y, "stroke:#666;stroke-width:2")
	for _, t := range f.Axis {
		canvas.Line(px(t.X), y-4, px(t.X), y+4, "stroke:#666;stroke-width:1")
		canvas.Text(px(t.X), y+20, t.Label,
			fmt.Sprintf("fill:#666;font-size:%dpx;%s;text-anchor:middle", opts.FontSize+4, fontFamily))
	}
}

func drawTitleCardSVG(canvas *svg.SVG, f Frame, opts SVGOptions) {
	x, y := 24, px(f.Height)-24
	if f.Description != "" {
		canvas.Text(x, y, f.Description,
			fmt.Sprintf("fill:%s;font-size:%dpx;%s;font-style:italic", Text, opts.FontSize+1, fontFamily))
		y -= opts.FontSize + 10
	}
	if f.Title != "" {
		canvas.Text(x, y, f.Title,
			fmt.Sprintf("fill:%s;font-size:%dpx;%s;letter-spacing:1px", Ink, opts.FontSize+8, fontFamily))
	}
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
