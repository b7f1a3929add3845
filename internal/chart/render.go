package chart

import (
	"fmt"
	"image/color"

	"github.com/chambridge/vmonviz/internal/db"
	"github.com/chambridge/vmonviz/internal/processor"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Every panel uses the same vertical range so charts compare across VMs and
// runs. Values above YMax are cut off by the axis.
const (
	YMin = 0.0
	YMax = 1.5

	DPI = 100
)

var (
	vmFigureWidth   = 10 * vg.Inch
	vmFigureHeight  = 10 * vg.Inch
	gpuFigureWidth  = 10 * vg.Inch
	gpuFigureHeight = 8 * vg.Inch

	blue  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	green = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	red   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

type panel struct {
	title  string
	ylabel string
	color  color.Color
	values []float64
}

// Renderer draws load figures and, on request, hands them to a Writer.
type Renderer struct {
	writer *Writer
}

func NewRenderer(writer *Writer) *Renderer {
	return &Renderer{writer: writer}
}

// VMLoad draws the CPU, memory and disk panels for one VM. With save set the
// figure is written and released, and the returned figure only carries its Path.
func (r *Renderer) VMLoad(e db.Entity, s processor.VMSeries, save bool) (*Figure, error) {
	return r.draw(CategoryVM, e.Hostname, vmTitle(e), vmFigureWidth, vmFigureHeight, s.Index, vmPanels(s), save)
}

func vmTitle(e db.Entity) string {
	return fmt.Sprintf("VM Load Data for %s\nRAM: %gGB Disk: %gGB Cores: %d",
		e.Hostname, e.RAMGB, e.DiskSizeGB, e.CoreCount)
}

func vmPanels(s processor.VMSeries) []panel {
	return []panel{
		{title: "CPU Load", ylabel: "CPU Load", color: blue, values: s.CPULoad},
		{title: "Memory Usage", ylabel: "Memory Percentage Used", color: green, values: s.MemFreeFraction},
		{title: "Disk Usage", ylabel: "Disk Percentage Used", color: red, values: s.DiskUsedFraction},
	}
}

// GPULoad draws the core and memory panels for one GPU VM.
func (r *Renderer) GPULoad(e db.Entity, s processor.GPUSeries, save bool) (*Figure, error) {
	return r.draw(CategoryGPU, e.Hostname, gpuTitle(e), gpuFigureWidth, gpuFigureHeight, s.Index, gpuPanels(s), save)
}

func gpuTitle(e db.Entity) string {
	return fmt.Sprintf("GPU Load Data for %s", e.Hostname)
}

func gpuPanels(s processor.GPUSeries) []panel {
	return []panel{
		{title: "GPU Core Usage", ylabel: "GPU Core Usage", color: blue, values: s.CoreUseFraction},
		{title: "GPU Memory Usage", ylabel: "GPU Memory Usage", color: green, values: s.MemUseFraction},
	}
}

func (r *Renderer) draw(category Category, hostname, title string, width, height vg.Length, index []float64, panels []panel, save bool) (*Figure, error) {
	fail := func(err error) (*Figure, error) {
		return nil, &RenderError{Hostname: hostname, Category: category, Err: err}
	}
	if len(index) == 0 {
		return fail(processor.ErrNoData)
	}

	canvas, err := renderPanels(title, width, height, index, panels)
	if err != nil {
		return fail(err)
	}
	fig := &Figure{Category: category, Hostname: hostname, canvas: canvas}
	if !save {
		return fig, nil
	}

	if r.writer == nil {
		fig.Close()
		return fail(fmt.Errorf("no writer configured"))
	}
	if _, err := r.writer.Save(fig); err != nil {
		return fail(err)
	}
	return fig, nil
}

// buildPlots makes one stacked panel per series. Every panel spans the full
// sample range with the fixed vertical range, and only the bottom one is labeled "Time".
func buildPlots(index []float64, panels []panel) ([][]*plot.Plot, error) {
	xMax := float64(len(index) - 1)
	if xMax < 1 {
		xMax = 1
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		if len(pn.values) != len(index) {
			return nil, fmt.Errorf("panel %q has %d values for %d samples", pn.title, len(pn.values), len(index))
		}
		xys := make(plotter.XYs, len(index))
		for j := range index {
			xys[j].X = index[j]
			xys[j].Y = pn.values[j]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", pn.title, err)
		}
		line.Color = pn.color
		line.Width = vg.Points(1.5)

		p := plot.New()
		p.Title.Text = pn.title
		p.Y.Label.Text = pn.ylabel
		if i == len(panels)-1 {
			p.X.Label.Text = "Time"
		}
		p.Add(plotter.NewGrid(), line)

		// Add widens the axes to the data, so the fixed ranges go last.
		p.X.Min, p.X.Max = 0, xMax
		p.Y.Min, p.Y.Max = YMin, YMax
		plots[i] = []*plot.Plot{p}
	}
	return plots, nil
}

func renderPanels(title string, width, height vg.Length, index []float64, panels []panel) (*vgimg.Canvas, error) {
	plots, err := buildPlots(index, panels)
	if err != nil {
		return nil, err
	}

	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(DPI))
	dc := draw.New(img)

	titleStyle := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, 14),
		XAlign:  draw.XCenter,
		YAlign:  draw.YTop,
		Handler: plot.DefaultTextHandler,
	}
	margin := vg.Points(8)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadTop:    titleStyle.Height(title) + 2*margin,
		PadBottom: margin,
		PadLeft:   margin,
		PadRight:  2 * margin,
		PadY:      2 * margin,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	dc.FillText(titleStyle, vg.Point{X: dc.Center().X, Y: dc.Max.Y - margin}, title)

	return img, nil
}
