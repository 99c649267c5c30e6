// Command hotspot-plot renders a near-miss log as a map-plane scatter plot
// and prints summary statistics, so recurring close-approach locations stand
// out across runs.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/proximity"
	"github.com/road-data/edr/internal/units"
)

func main() {
	input := flag.String("i", "near_miss.csv", "near-miss log to plot")
	output := flag.String("o", "hotspots.png", "output image path")
	flag.Parse()

	mapName, entries, err := proximity.ReadLog(fsutil.OSFileSystem{}, *input)
	if err != nil {
		log.Fatalf("read log: %v", err)
	}
	if len(entries) == 0 {
		log.Fatalf("no near-miss entries in %s", *input)
	}

	printSummary(mapName, entries)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Near-miss hotspots: %s (%d events)", mapName, len(entries))
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	kinds := []struct {
		kind string
		col  color.RGBA
	}{
		{"pedestrian", color.RGBA{R: 220, A: 255}},
		{"bicycle", color.RGBA{B: 220, A: 255}},
	}
	for _, k := range kinds {
		kind, col := k.kind, k.col
		pts := make(plotter.XYs, 0, len(entries))
		for _, e := range entries {
			if e.VRUType == kind {
				pts = append(pts, plotter.XY{X: e.VRUX, Y: e.VRUY})
			}
		}
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			log.Fatalf("build scatter: %v", err)
		}
		scatter.GlyphStyle.Color = col
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add(kind, scatter)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("save plot: %v", err)
	}
	log.Printf("✓ Wrote %s", *output)
}

// printSummary reports how close the close calls were.
func printSummary(mapName string, entries []proximity.Entry) {
	distances := make([]float64, len(entries))
	speeds := make([]float64, len(entries))
	byKind := map[string]int{}
	for i, e := range entries {
		distances[i] = e.Distance
		speeds[i] = e.EgoSpeed
		byKind[e.VRUType]++
	}

	fmt.Printf("map: %s\n", mapName)
	fmt.Printf("events: %d\n", len(entries))
	for kind, n := range byKind {
		fmt.Printf("  %s: %d\n", kind, n)
	}
	meanDist, stdDist := stat.MeanStdDev(distances, nil)
	fmt.Printf("distance: mean %.2fm stddev %.2fm\n", meanDist, stdDist)
	meanSpeed := stat.Mean(speeds, nil)
	fmt.Printf("ego speed: mean %.2f m/s (%.1f km/h)\n", meanSpeed, units.MPSToKMH(meanSpeed))
}
