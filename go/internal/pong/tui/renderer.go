package tui

import (
	"fmt"

	"github.com/gdamore/tcell"
	"github.com/mcdev12/pong/go/internal/pong/client"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleOwned   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBall    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleAlert   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

const (
	ballRune   = '●'
	paddleRune = '█'
)

// Renderer draws client views on a terminal. The playfield is scaled to the
// screen with one row for the score above and one for status below.
type Renderer struct {
	screen tcell.Screen
}

func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

var _ client.Renderer = (*Renderer)(nil)

func (r *Renderer) Render(v client.View) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w < 10 || h < 6 {
		r.screen.Show()
		return
	}

	// playfield interior
	top, left := 2, 1
	rows, cols := h-4, w-2
	r.drawBorder(left-1, top-1, cols+2, rows+2)

	drawText(r.screen, 1, 0, styleDefault, scoreLine(v))

	if v.Phase == client.PhaseActive {
		s := v.State
		scale := newScaler(s.Field, cols, rows, left, top)
		r.drawPaddle(scale, s.Peer, styleDefault)
		r.drawPaddle(scale, s.Owned, styleOwned)

		bx, by := scale.point(s.Shared.Ball.X+s.Shared.Ball.Size/2, s.Shared.Ball.Y+s.Shared.Ball.Size/2)
		r.screen.SetContent(bx, by, ballRune, nil, styleBall)

		if v.Paused {
			drawText(r.screen, left+cols/2-3, top+rows/2, styleAlert, "PAUSED")
		}
	} else {
		drawText(r.screen, left+2, top+rows/2, styleDefault, phaseText(v))
	}

	status := fmt.Sprintf("%s  [%s]", v.SessionID, v.Status)
	style := styleDefault
	if v.Status == client.StatusDisconnected {
		style = styleAlert
	}
	drawText(r.screen, 1, h-1, style, status)
	if v.Message != "" {
		drawText(r.screen, len(status)+3, h-1, styleAlert, v.Message)
	}

	r.screen.Show()
}

func scoreLine(v client.View) string {
	score := v.State.Shared.Score
	you := ""
	if v.State.Side != "" {
		you = fmt.Sprintf("  (you: %s)", v.State.Side)
	}
	return fmt.Sprintf("LEFT %d : %d RIGHT%s", score.Left, score.Right, you)
}

func phaseText(v client.View) string {
	switch v.Phase {
	case client.PhaseJoining:
		return "Joining game " + v.SessionID + "..."
	case client.PhaseWaitingForPeer:
		return "Waiting for opponent. Share code " + v.SessionID
	case client.PhaseEnded:
		return "Game over. Press Esc to quit."
	}
	return ""
}

func (r *Renderer) drawBorder(x, y, w, h int) {
	for i := x; i < x+w; i++ {
		r.screen.SetContent(i, y, '─', nil, styleBorder)
		r.screen.SetContent(i, y+h-1, '─', nil, styleBorder)
	}
	for j := y; j < y+h; j++ {
		r.screen.SetContent(x, j, '│', nil, styleBorder)
		r.screen.SetContent(x+w-1, j, '│', nil, styleBorder)
	}
}

func (r *Renderer) drawPaddle(scale scaler, p game.Paddle, style tcell.Style) {
	x, y0 := scale.point(p.X+p.Width/2, p.Y)
	_, y1 := scale.point(p.X+p.Width/2, p.Y+p.Height)
	for y := y0; y <= y1; y++ {
		r.screen.SetContent(x, y, paddleRune, nil, style)
	}
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, ch := range text {
		screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

// scaler maps playfield units to terminal cells
type scaler struct {
	sx, sy     float64
	cols, rows int
	left, top  int
}

func newScaler(f game.Field, cols, rows, left, top int) scaler {
	return scaler{
		sx:   float64(cols) / f.Width,
		sy:   float64(rows) / f.Height,
		cols: cols,
		rows: rows,
		left: left,
		top:  top,
	}
}

func (s scaler) point(x, y float64) (int, int) {
	cx := int(x * s.sx)
	cy := int(y * s.sy)
	return s.left + clampInt(cx, 0, s.cols-1), s.top + clampInt(cy, 0, s.rows-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
