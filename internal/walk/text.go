package walk

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// uiText draws HUD and panel text in Go Regular.
type uiText struct {
	face  *text.GoTextFace
	title *text.GoTextFace
}

func newUIText() (*uiText, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load ui font: %w", err)
	}
	return &uiText{
		face:  &text.GoTextFace{Source: src, Size: 14},
		title: &text.GoTextFace{Source: src, Size: 22},
	}, nil
}

func (u *uiText) draw(dst *ebiten.Image, s string, x, y float64, c color.Color) {
	u.drawFace(dst, u.face, s, x, y, c)
}

func (u *uiText) drawTitle(dst *ebiten.Image, s string, x, y float64, c color.Color) {
	u.drawFace(dst, u.title, s, x, y, c)
}

func (u *uiText) drawFace(dst *ebiten.Image, f *text.GoTextFace, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, f, op)
}

func (u *uiText) width(s string) float64 {
	w, _ := text.Measure(s, u.face, 0)
	return w
}

// wrap breaks s into lines no wider than maxW pixels.
func (u *uiText) wrap(s string, maxW float64) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(s) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if cur != "" && u.width(next) > maxW {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
