// Package render draws the world with ebiten and turns key presses into move
// requests.
package render

import (
	"errors"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/time/rate"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/proto"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/render/hud"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/session"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/world"
	"github.com/dntelisa/SR-S9-Projet-Client/logging"
)

const (
	lineHeight   = 16
	hudLines     = 11
	scoreLimit   = 4
	textInset    = 4
	sweetRadius  = 0.25
	playerInset  = 0.15
	defaultTitle = "Sweets"
)

var (
	backgroundColor = color.NRGBA{24, 24, 32, 255}
	gridColor       = color.NRGBA{48, 48, 64, 255}
	sweetColor      = color.NRGBA{240, 90, 160, 255}
	playerColor     = color.NRGBA{90, 160, 240, 255}
	selfColor       = color.NRGBA{250, 210, 80, 255}
	frozenTint      = color.NRGBA{0, 0, 0, 120}
)

// Session is the part of the lifecycle the renderer needs.
type Session interface {
	Status() session.Status
	Events() []session.EventLogEntry
	SendMove(dir proto.Direction) error
}

// Reconnector restarts the connection on demand.
type Reconnector interface {
	Reconnect()
}

type Options struct {
	Title      string
	GridWidth  int
	GridHeight int
	CellSize   int
	MoveRate   float64
	Clock      logging.Clock
	Logger     telemetry.Logger
}

// Game implements ebiten.Game. Update runs input; Draw reads the world once
// per frame.
type Game struct {
	world     *world.World
	session   Session
	reconnect Reconnector
	opts      Options
	limiter   *rate.Limiter
}

func New(w *world.World, s Session, reconnect Reconnector, opts Options) *Game {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.Clock == nil {
		opts.Clock = logging.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Discard()
	}
	limit := rate.Inf
	if opts.MoveRate > 0 {
		limit = rate.Limit(opts.MoveRate)
	}
	return &Game{
		world:     w,
		session:   s,
		reconnect: reconnect,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Run opens the window and blocks until it is closed or Esc is pressed.
func (g *Game) Run() error {
	width, height := g.Layout(0, 0)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(g.opts.Title)
	return ebiten.RunGame(g)
}

var directionKeys = []struct {
	dir  proto.Direction
	keys []ebiten.Key
}{
	{proto.DirUp, []ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}},
	{proto.DirDown, []ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}},
	{proto.DirLeft, []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}},
	{proto.DirRight, []ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}},
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && g.reconnect != nil {
		g.reconnect.Reconnect()
	}

	dir, pressed, fresh := heldDirection()
	if !pressed {
		return nil
	}
	// New presses always go through; a held key repeats at the move rate.
	if allowed := g.limiter.Allow(); !allowed && !fresh {
		return nil
	}
	if err := g.session.SendMove(dir); err != nil && !errors.Is(err, session.ErrNotConnected) {
		g.opts.Logger.Printf("move %s failed: %v", dir, err)
	}
	return nil
}

func heldDirection() (proto.Direction, bool, bool) {
	for _, entry := range directionKeys {
		for _, key := range entry.keys {
			if inpututil.IsKeyJustPressed(key) {
				return entry.dir, true, true
			}
		}
	}
	for _, entry := range directionKeys {
		for _, key := range entry.keys {
			if ebiten.IsKeyPressed(key) && inpututil.KeyPressDuration(key) > 1 {
				return entry.dir, true, false
			}
		}
	}
	return "", false, false
}

func (g *Game) Draw(screen *ebiten.Image) {
	now := g.opts.Clock.Now()
	view := g.world.Read(now)
	status := g.session.Status()
	cell := float32(g.opts.CellSize)

	screen.Fill(backgroundColor)
	g.drawGrid(screen, cell)

	for _, sweet := range view.Sweets {
		cx := (float32(sweet.X) + 0.5) * cell
		cy := (float32(sweet.Y) + 0.5) * cell
		vector.DrawFilledCircle(screen, cx, cy, cell*sweetRadius, sweetColor, true)
	}
	for _, p := range view.Players {
		clr := playerColor
		if p.ID == status.SelfID {
			clr = selfColor
		}
		x := (float32(p.Displayed.X) + playerInset) * cell
		y := (float32(p.Displayed.Y) + playerInset) * cell
		size := cell * (1 - 2*playerInset)
		vector.DrawFilledRect(screen, x, y, size, size, clr, true)
		label := p.Name
		if label == "" {
			label = p.ID
		}
		ebitenutil.DebugPrintAt(screen, label, int(x), int(y)-lineHeight)
	}

	if status.Game == session.Over {
		w, h := g.playfieldSize()
		vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), frozenTint, false)
	}
	g.drawHUD(screen, view, status, now)
}

func (g *Game) drawGrid(screen *ebiten.Image, cell float32) {
	w, h := g.playfieldSize()
	for x := 0; x <= g.opts.GridWidth; x++ {
		fx := float32(x) * cell
		vector.StrokeLine(screen, fx, 0, fx, float32(h), 1, gridColor, false)
	}
	for y := 0; y <= g.opts.GridHeight; y++ {
		fy := float32(y) * cell
		vector.StrokeLine(screen, 0, fy, float32(w), fy, 1, gridColor, false)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, view world.View, status session.Status, now time.Time) {
	_, top := g.playfieldSize()
	lines := []string{hud.StatusLine(status)}
	if freeze := hud.FreezeLine(status, now); freeze != "" {
		lines = append(lines, freeze)
	}
	lines = append(lines, hud.ScoreLines(view, status.SelfID, scoreLimit)...)
	lines = append(lines, hud.EventLines(g.session.Events(), now)...)
	if len(lines) > hudLines {
		lines = lines[:hudLines]
	}
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, textInset, top+textInset+i*lineHeight)
	}
}

func (g *Game) playfieldSize() (int, int) {
	return g.opts.GridWidth * g.opts.CellSize, g.opts.GridHeight * g.opts.CellSize
}

func (g *Game) Layout(int, int) (int, int) {
	w, h := g.playfieldSize()
	return w, h + hudLines*lineHeight + 2*textInset
}
