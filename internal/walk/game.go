package walk

import (
	"context"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/texture"
)

// Game is the walkthrough window: a layout lobby and at most one live
// session. It implements ebiten.Game.
type Game struct {
	width  int
	height int

	ctx      context.Context
	cfg      config.Config
	source   layout.Source
	textures *texture.Provisioner
	platform Platform
	log      *SessionLog
	status   *StatusLog
	assets   *assets

	lobby   *Lobby
	session *Session
	pad     *lookPad
	// direct skips the lobby: Back closes the window instead.
	direct bool
	quit   bool
}

// New builds the window state. If cfg.LayoutID is set the walkthrough opens
// straight away.
func New(ctx context.Context, cfg config.Config, source layout.Source) (*Game, error) {
	a, err := newAssets()
	if err != nil {
		return nil, err
	}
	g := &Game{
		width:    cfg.WindowWidth,
		height:   cfg.WindowHeight,
		ctx:      ctx,
		cfg:      cfg,
		source:   source,
		textures: cfg.Textures(log.Printf),
		platform: DesktopPlatform(),
		log:      NewSessionLog(log.Printf),
		status:   NewStatusLog(),
		assets:   a,
		pad:      &lookPad{},
	}
	if cfg.LayoutID != "" {
		g.direct = true
		g.open(cfg.LayoutID)
	} else {
		g.lobby = NewLobby(ctx, source)
	}
	return g, nil
}

func (g *Game) open(id string) {
	dev := newEbitenDevice(g.pad)
	g.session = NewSession(g.ctx, id, dev, Deps{
		Source:       g.source,
		Textures:     g.textures,
		Platform:     g.platform,
		Log:          g.log,
		Status:       g.status,
		Camera:       g.cfg.Camera(),
		Minimap:      g.cfg.Minimap(),
		FetchTimeout: g.cfg.FetchTimeout,
	})
	g.session.attachView(g.pad)
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	if g.session != nil {
		g.session.Update(1 / float64(ebiten.TPS()))
		if g.session.BackRequested() {
			g.session.Close()
			g.session = nil
			if g.direct {
				return ebiten.Termination
			}
			g.lobby.Refresh()
		}
		return nil
	}

	just := inpututil.IsKeyJustPressed
	id, ok := g.lobby.Update(LobbyActions{
		Up:      just(ebiten.KeyArrowUp),
		Down:    just(ebiten.KeyArrowDown),
		Open:    just(ebiten.KeyEnter),
		Refresh: just(ebiten.KeyR),
	})
	if ok {
		g.open(id)
	}
	if just(ebiten.KeyEscape) {
		g.quit = true
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.session != nil {
		g.session.Draw(screen, g.assets)
		return
	}
	if g.lobby != nil {
		g.lobby.Draw(screen, g.assets)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return g.width, g.height
}

// Close tears down any live session. Call it after ebiten.RunGame returns.
func (g *Game) Close() {
	if g.session != nil {
		g.session.Close()
		g.session = nil
	}
}

