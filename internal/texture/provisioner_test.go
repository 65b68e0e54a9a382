package texture

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func quiet() Option { return WithLogf(nil) }

func TestProvision_NoReferenceUsesGrid(t *testing.T) {
	p := NewProvisioner(nil, quiet())
	tex := p.Provision(context.Background(), "  ")
	if tex.Source != SourceFallback || !tex.Repeat {
		t.Fatalf("expected repeating grid fallback, got source=%s repeat=%v", tex.Source, tex.Repeat)
	}
	if tex.Err != nil {
		t.Fatalf("absent reference is not an error, got %v", tex.Err)
	}
}

func TestProvision_FailedLoadFallsBackSilently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProvisioner(RefLoader{Client: srv.Client()}, quiet())
	tex := p.Provision(context.Background(), srv.URL+"/floor.png")
	if tex.Source != SourceFallback {
		t.Fatalf("expected grid fallback, got %s", tex.Source)
	}
	if tex.Image == nil || tex.Image.Bounds().Dx() != GridSize {
		t.Fatal("expected a full-size grid image")
	}
	var le *LoadError
	if !errors.As(tex.Err, &le) {
		t.Fatalf("expected absorbed *LoadError, got %v", tex.Err)
	}
}

func TestProvision_CorruptImageFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tex := NewProvisioner(nil, quiet()).Provision(context.Background(), path)
	if tex.Source != SourceFallback || tex.Err == nil {
		t.Fatalf("expected fallback with recorded error, got source=%s err=%v", tex.Source, tex.Err)
	}
}

func TestProvision_LoadsHTTPImage(t *testing.T) {
	data := pngBytes(t, 40, 20, color.RGBA{R: 200, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	tex := NewProvisioner(RefLoader{Client: srv.Client()}, quiet()).Provision(context.Background(), srv.URL)
	if tex.Source != SourceImage || tex.Repeat {
		t.Fatalf("expected stretched image texture, got source=%s repeat=%v", tex.Source, tex.Repeat)
	}
	if b := tex.Image.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("expected 40x20, got %dx%d", b.Dx(), b.Dy())
	}
	if got := tex.Image.RGBAAt(5, 5); got.R != 200 {
		t.Fatalf("expected red pixel, got %v", got)
	}
}

func TestProvision_DataURIAndDownscale(t *testing.T) {
	data := pngBytes(t, 300, 100, color.RGBA{G: 180, A: 255})
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	tex := NewProvisioner(nil, quiet(), WithMaxSide(150)).Provision(context.Background(), ref)
	if tex.Source != SourceImage {
		t.Fatalf("expected image source, got %s (err=%v)", tex.Source, tex.Err)
	}
	if b := tex.Image.Bounds(); b.Dx() != 150 || b.Dy() != 50 {
		t.Fatalf("expected 150x50 after downscale, got %dx%d", b.Dx(), b.Dy())
	}
}

// pngHeader returns a PNG that declares w x h grey pixels but carries no
// image data, which is all DecodeConfig reads.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; colour type, compression, filter and interlace stay 0
	chunk := append([]byte("IHDR"), ihdr...)
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestLoad_RejectsOversizedDimensions(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(20000, 20000))
	_, err := RefLoader{}.Load(context.Background(), ref)
	if err == nil {
		t.Fatal("expected an error for a 400 MPx image")
	}

	small := RefLoader{MaxPixels: 100}
	data := pngBytes(t, 20, 10, color.RGBA{R: 1, A: 255})
	if _, err := small.Load(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data)); err == nil {
		t.Fatal("expected 200 pixels to exceed a 100 pixel cap")
	}
}

func TestProvision_OversizedImageFallsBack(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(12000, 12000))
	tex := NewProvisioner(nil, quiet()).Provision(context.Background(), ref)
	if tex.Source != SourceFallback {
		t.Fatalf("expected grid fallback for an oversized image, got %s", tex.Source)
	}
	var le *LoadError
	if !errors.As(tex.Err, &le) {
		t.Fatalf("expected a recorded LoadError, got %v", tex.Err)
	}
}

type panicLoader struct{}

func (panicLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	panic("corrupt stream")
}

func TestResolve_LoaderPanicFallsBack(t *testing.T) {
	p := NewProvisioner(panicLoader{}, quiet())
	select {
	case tex := <-p.Resolve(context.Background(), "floor.png"):
		if tex.Source != SourceFallback || tex.Err == nil {
			t.Fatalf("expected fallback with an error, got source=%s err=%v", tex.Source, tex.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve never delivered")
	}
}

type slowLoader struct{}

func (slowLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_TimeoutDeliversFallback(t *testing.T) {
	p := NewProvisioner(slowLoader{}, quiet(), WithTimeout(20*time.Millisecond))
	select {
	case tex := <-p.Resolve(context.Background(), "https://example.invalid/floor.png"):
		if tex.Source != SourceFallback || !errors.Is(tex.Err, context.DeadlineExceeded) {
			t.Fatalf("expected timeout fallback, got source=%s err=%v", tex.Source, tex.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve never delivered")
	}
}

func TestGridTexture_Deterministic(t *testing.T) {
	a := GridTexture(GridSize, GridCells)
	b := GridTexture(GridSize, GridCells)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("grid texture differs between calls")
	}
	if a.RGBAAt(0, 0) != gridLineColor {
		t.Fatalf("expected a grid line at the origin, got %v", a.RGBAAt(0, 0))
	}
	cell := GridSize / GridCells
	if a.RGBAAt(cell/2, cell/2) != gridBackground {
		t.Fatalf("expected background inside a cell, got %v", a.RGBAAt(cell/2, cell/2))
	}
	if a.RGBAAt(cell, cell/2) != gridLineColor {
		t.Fatalf("expected evenly spaced line at x=%d", cell)
	}
}
