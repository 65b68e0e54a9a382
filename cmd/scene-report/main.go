package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// lookRange bounds the "looking at" probe in world units.
const lookRange = 50.0

type reportOptions struct {
	layoutFile string
	pngOut     string
	store      bool
	x, z, yaw  float64
}

func main() {
	cfg := config.Load()
	var opts reportOptions

	cfg.BindFlags(flag.CommandLine)
	flag.StringVar(&opts.layoutFile, "layout", "", "layout JSON file (otherwise -layout-id is fetched from the configured source)")
	flag.StringVar(&opts.pngOut, "png", "", "write the minimap to this PNG file")
	flag.BoolVar(&opts.store, "store", false, "store the -layout file into -layout-db under its base name")
	flag.Float64Var(&opts.x, "x", 0, "camera X in world units")
	flag.Float64Var(&opts.z, "z", math.NaN(), "camera Z in world units (default: venue start position)")
	flag.Float64Var(&opts.yaw, "yaw", 0, "camera yaw in degrees")
	flag.Parse()
	cfg = cfg.Normalize()

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opts reportOptions, w io.Writer) error {
	data, id, err := readLayout(ctx, cfg, opts)
	if err != nil {
		return err
	}
	g, err := scene.Build(data)
	if err != nil {
		return err
	}

	cam := cfg.Camera()
	cam.Position.X = opts.x
	cam.Position.Z = opts.z
	if math.IsNaN(opts.z) {
		cam.Position.Z = g.VenueLength/2 - 1
	}
	cam.Yaw = opts.yaw * math.Pi / 180

	fmt.Fprintf(w, "=== Scene Report ===\n")
	fmt.Fprintf(w, "layout=%s\n\n", id)
	printGraph(w, g)
	printCamera(w, g, cam)

	if opts.pngOut == "" {
		return nil
	}
	f, err := os.Create(opts.pngOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.pngOut, err)
	}
	defer f.Close()
	st := cfg.Minimap()
	if err := minimap.EncodePNG(f, minimap.Project(g, cam, st)); err != nil {
		return fmt.Errorf("write minimap: %w", err)
	}
	fmt.Fprintf(w, "minimap=%s (%dpx)\n", opts.pngOut, st.MapSize)
	return nil
}

// readLayout returns the raw record and a display id. A file wins over the
// configured source.
func readLayout(ctx context.Context, cfg config.Config, opts reportOptions) ([]byte, string, error) {
	if opts.layoutFile != "" {
		data, err := os.ReadFile(opts.layoutFile)
		if err != nil {
			return nil, "", fmt.Errorf("read layout: %w", err)
		}
		id := strings.TrimSuffix(filepath.Base(opts.layoutFile), filepath.Ext(opts.layoutFile))
		if opts.store {
			if err := storeLayout(ctx, cfg, id, data); err != nil {
				return nil, "", err
			}
		}
		return data, id, nil
	}

	if cfg.LayoutID == "" {
		return nil, "", fmt.Errorf("either -layout or -layout-id is required")
	}
	source, closer, err := cfg.OpenSource(ctx)
	if err != nil {
		return nil, "", err
	}
	defer closer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	data, err := source.Fetch(fetchCtx, cfg.LayoutID)
	if err != nil {
		return nil, "", err
	}
	return data, cfg.LayoutID, nil
}

func storeLayout(ctx context.Context, cfg config.Config, id string, data []byte) error {
	if cfg.LayoutDB == "" {
		return fmt.Errorf("-store needs -layout-db")
	}
	db, err := layout.OpenSQLite(ctx, cfg.LayoutDB)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Put(ctx, id, id, data)
}

func printGraph(w io.Writer, g *scene.Graph) {
	name := g.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "venue: name=%s width=%.2f length=%.2f floor=%s\n", name, g.VenueWidth, g.VenueLength, floorLabel(g.FloorImage))
	fmt.Fprintf(w, "entities: walls=%d furniture=%d dropped=%d\n", len(g.Walls), len(g.Furniture), len(g.Dropped))

	for i, wl := range g.Walls {
		fmt.Fprintf(w, "  wall[%d] at=(%.2f,%.2f) size=%.2fx%.2fx%.2f rot=%.1f° color=%s\n",
			i, wl.Position.X, wl.Position.Z, wl.Width, wl.Height, wl.Depth, wl.RotationRad*180/math.Pi, wl.Color)
	}
	for i, f := range g.Furniture {
		fmt.Fprintf(w, "  furniture[%d] %s at=(%.2f,%.2f) size=%.2fx%.2fx%.2f rot=%.1f° color=%s",
			i, f.SourceType, f.Position.X, f.Position.Z, f.Dimensions[0], f.Dimensions[1], f.Dimensions[2], f.RotationRad*180/math.Pi, f.Color)
		if f.Label != "" {
			fmt.Fprintf(w, " label=%q", f.Label)
		}
		fmt.Fprintln(w)
	}
	if len(g.Dropped) > 0 {
		fmt.Fprintf(w, "dropped_types: %s\n", droppedTypes(g.Dropped))
	}
	fmt.Fprintln(w)
}

func printCamera(w io.Writer, g *scene.Graph, cam nav.CameraState) {
	fmt.Fprintf(w, "camera: at=(%.2f,%.2f,%.2f) heading=%.0f°\n", cam.Position.X, cam.Position.Y, cam.Position.Z, cam.HeadingDegrees())
	fx, fz := cam.Forward()
	if hit, ok := g.Pick(cam.Position.X, cam.Position.Z, fx, fz, lookRange); ok {
		fmt.Fprintf(w, "looking_at: %s %.2fm\n", describe(hit.Entity), hit.Distance)
	} else {
		fmt.Fprintf(w, "looking_at: nothing\n")
	}
}

func describe(e scene.Entity) string {
	if f, ok := e.(scene.FurnitureItem); ok {
		if f.Label != "" {
			return f.Label
		}
		return f.SourceType
	}
	return e.Kind().String()
}

func floorLabel(ref string) string {
	switch {
	case ref == "":
		return "grid"
	case strings.HasPrefix(ref, "data:"):
		return "inline image"
	}
	return ref
}

// droppedTypes lists each unknown type once with its count, sorted by name.
func droppedTypes(ds []scene.Dropped) string {
	counts := map[string]int{}
	for _, d := range ds {
		counts[d.Type]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
