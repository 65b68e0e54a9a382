package texture

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Source says where a resolved floor texture came from.
type Source int

const (
	SourceFallback Source = iota // procedural grid
	SourceImage                  // the layout's floor image
)

func (s Source) String() string {
	if s == SourceImage {
		return "image"
	}
	return "grid"
}

// Texture is a resolved floor material.
type Texture struct {
	Image *image.RGBA
	// Repeat tiles the image across the floor at a fixed world spacing;
	// otherwise it is stretched once across the whole venue.
	Repeat bool
	Source Source
	Ref    string
	// Err holds the absorbed load failure when Source is SourceFallback and a
	// reference was given. It is for logs only and is never shown to the user.
	Err error
}

// LoadError wraps a floor-image failure. The provisioner recovers from it
// locally by substituting the grid.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("texture: load %s: %v", shortRef(e.Ref), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Defaults for NewProvisioner.
const (
	DefaultTimeout = 8 * time.Second
	DefaultMaxSide = 1024
)

// Provisioner turns an optional image reference into a floor texture. It
// never fails: any load problem produces the procedural grid instead.
type Provisioner struct {
	loader  Loader
	timeout time.Duration
	maxSide int
	logf    func(format string, args ...any)
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithTimeout bounds a single load attempt.
func WithTimeout(d time.Duration) Option {
	return func(p *Provisioner) { p.timeout = d }
}

// WithMaxSide caps the longer side of a loaded image; larger images are
// resampled down.
func WithMaxSide(px int) Option {
	return func(p *Provisioner) { p.maxSide = px }
}

// WithLogf redirects the provisioner's diagnostics. Pass nil to silence them.
func WithLogf(fn func(format string, args ...any)) Option {
	return func(p *Provisioner) { p.logf = fn }
}

// NewProvisioner creates a provisioner. A nil loader uses RefLoader.
func NewProvisioner(loader Loader, opts ...Option) *Provisioner {
	if loader == nil {
		loader = RefLoader{}
	}
	p := &Provisioner{
		loader:  loader,
		timeout: DefaultTimeout,
		maxSide: DefaultMaxSide,
		logf:    log.Printf,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Resolve starts loading in the background. The returned channel always
// delivers exactly one Texture and is buffered, so an abandoned receiver
// never blocks the loader.
func (p *Provisioner) Resolve(ctx context.Context, ref string) <-chan Texture {
	out := make(chan Texture, 1)
	go func() {
		out <- p.Provision(ctx, ref)
	}()
	return out
}

// Provision loads synchronously and falls back to the grid on any failure.
func (p *Provisioner) Provision(ctx context.Context, ref string) Texture {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Fallback(ref, nil)
	}

	loadCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	img, err := p.load(loadCtx, ref)
	if err != nil {
		lerr := &LoadError{Ref: ref, Err: err}
		p.log("[TEXTURE] %v; using grid", lerr)
		return Fallback(ref, lerr)
	}
	rgba := normalize(img, p.maxSide)
	p.log("[TEXTURE] loaded %s (%dx%d) in %s", shortRef(ref),
		rgba.Bounds().Dx(), rgba.Bounds().Dy(), time.Since(start).Round(time.Millisecond))
	return Texture{Image: rgba, Source: SourceImage, Ref: ref}
}

// load runs the loader, turning a decoder panic into an error.
func (p *Provisioner) load(ctx context.Context, ref string) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return p.loader.Load(ctx, ref)
}

// Fallback returns the procedural grid texture.
func Fallback(ref string, err error) Texture {
	return Texture{
		Image:  GridTexture(GridSize, GridCells),
		Repeat: true,
		Source: SourceFallback,
		Ref:    ref,
		Err:    err,
	}
}

func (p *Provisioner) log(format string, args ...any) {
	if p.logf != nil {
		p.logf(format, args...)
	}
}

// normalize converts any decoded image to RGBA, resampling it down with a
// bilinear filter when its longer side exceeds maxSide.
func normalize(src image.Image, maxSide int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			h = max(1, h*maxSide/w)
			w = maxSide
		} else {
			w = max(1, w*maxSide/h)
			h = maxSide
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// shortRef keeps data: URIs out of log lines.
func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ','); i > 0 {
			return ref[:i] + ",..."
		}
	}
	if len(ref) > 96 {
		return ref[:96] + "..."
	}
	return ref
}
