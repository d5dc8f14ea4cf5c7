package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"stackcc/pkg/grid"
	"stackcc/pkg/utils"
)

const demoSource = `a = 6;
b = 7;
if (a < b) c = a * b; else c = 0;
return c / 2;
`

const (
	screenWidth  = 960
	screenHeight = 600

	lineHeight   = 15
	listingWidth = 420
	panelPadding = 8
	stackCols    = 4
	helpHeight   = 20
)

var (
	colBackground = color.RGBA{0x1e, 0x1e, 0x24, 0xff}
	colText       = color.RGBA{0xd8, 0xd8, 0xd8, 0xff}
	colHighlight  = color.RGBA{0x3a, 0x4a, 0x7a, 0xff}
	colDivider    = color.RGBA{0x50, 0x50, 0x58, 0xff}
)

type Game struct {
	dbg *Debugger

	panel *ebiten.Image // reused screen-sized canvas
	pix   *image.RGBA
	dirty bool
}

func NewGame(dbg *Debugger) *Game {
	return &Game{
		dbg:   dbg,
		panel: ebiten.NewImage(screenWidth, screenHeight),
		pix:   image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight)),
		dirty: true,
	}
}

// repeating reports a fresh press, then auto-repeat while the key is held.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 30 && d%4 == 0)
}

func (g *Game) Update() error {
	switch {
	case repeating(ebiten.KeySpace):
		g.dbg.Step()
	case repeating(ebiten.KeyLeft), repeating(ebiten.KeyB):
		if err := g.dbg.StepBack(); err != nil {
			return err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.dbg.RunToHalt()
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if err := g.dbg.Reset(); err != nil {
			return err
		}
	default:
		return nil
	}
	g.dirty = true
	return nil
}

// drawLines writes lines top-down starting at (x, y) in the basic font.
func drawLines(dst *image.RGBA, lines []string, x, y int) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(colText), Face: basicfont.Face7x13}
	for i, line := range lines {
		d.Dot = fixed.P(x, y+(i+1)*lineHeight-3)
		d.DrawString(line)
	}
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// listingWindow picks which assembly lines fit so that cur stays visible.
func listingWindow(total, cur, rows int) (first, last int) {
	if total <= rows {
		return 0, total
	}
	first = cur - rows/2
	if first < 0 {
		first = 0
	}
	if first+rows > total {
		first = total - rows
	}
	return first, first + rows
}

func (g *Game) render() {
	fillRect(g.pix, g.pix.Bounds(), colBackground)
	fillRect(g.pix, image.Rect(listingWidth, 0, listingWidth+1, screenHeight-helpHeight), colDivider)

	// Assembly listing with the next instruction highlighted.
	lines := g.dbg.Result.Lines
	cur := g.dbg.CurrentLine()
	rows := (screenHeight - helpHeight - 2*panelPadding) / lineHeight
	first, last := listingWindow(len(lines), cur, rows)
	visible := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		visible = append(visible, fmt.Sprintf("%4d %s", i+1, lines[i]))
	}
	if cur >= first && cur < last {
		y := panelPadding + (cur-first)*lineHeight
		fillRect(g.pix, image.Rect(0, y, listingWidth, y+lineHeight), colHighlight)
	}
	drawLines(g.pix, visible, panelPadding, panelPadding)

	// Registers and status.
	right := listingWidth + panelPadding*2
	regs := append(g.dbg.RegisterLines(), "", g.dbg.Status())
	drawLines(g.pix, regs, right, panelPadding)

	// Stack, laid out stackCols words per row from sp upwards.
	stackTop := panelPadding + (len(regs)+1)*lineHeight
	words := g.dbg.StackWords()
	drawLines(g.pix, []string{fmt.Sprintf("stack (%d words from sp)", len(words))}, right, stackTop)
	cellWidth := (screenWidth - right - panelPadding) / stackCols
	maxCells := stackCols * ((screenHeight - helpHeight - stackTop - lineHeight) / lineHeight)
	for i, w := range words {
		if i >= maxCells {
			break
		}
		x, y := grid.GetGridCoords(i, stackCols)
		drawLines(g.pix, []string{fmt.Sprintf("%d", w)}, right+x*cellWidth, stackTop+(y+1)*lineHeight)
	}

	g.panel.WritePixels(g.pix.Pix)
	g.dirty = false
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.dirty {
		g.render()
	}
	screen.DrawImage(g.panel, nil)
	ebitenutil.DebugPrintAt(screen, "Space: step  Left/B: step back  R: run  Backspace: reset", panelPadding, screenHeight-helpHeight+2)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	showAsm := flag.Bool("show-asm", false, "print the generated assembly to stdout")
	maxSteps := flag.Int("steps", 1_000_000, "step budget for R (0 = unlimited)")
	flag.Parse()

	src := demoSource
	title := "stackcc debugger"
	if flag.NArg() > 0 {
		data, fullPath, err := utils.ReadSource(flag.Arg(0))
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		src = data
		title += " - " + fullPath
	}

	dbg, err := NewDebugger(src, *maxSteps)
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if *showAsm {
		fmt.Print("Generated Assembly:\n", dbg.Result.Assembly())
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle(title)

	if err := ebiten.RunGame(NewGame(dbg)); err != nil {
		log.Fatal(err)
	}
}
