// Willowfx-demo runs a bouncing-box scene on the render loop and a small
// panel on the UI loop. The panel shows a live thumbnail of the scene,
// changes color when it has focus and draws a marker for every key it
// receives. Tab toggles the panel, F12 writes a snapshot.
// No external assets are required.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"log"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/phanxgames/willowfx"
	"github.com/phanxgames/willowfx/input"
	"github.com/phanxgames/willowfx/transfer"
)

const (
	panelW  = 240
	panelH  = 150
	thumbW  = 224
	thumbH  = 126
	markerW = 6
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	scriptPath := flag.String("script", "", "JSON test script to run")
	flag.Parse()

	cfg := willowfx.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = willowfx.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	logger, err := willowfx.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	thumb := transfer.NewScaledSink(image.NewRGBA(image.Rect(0, 0, thumbW, thumbH)), draw.ApproxBiLinear)
	p := &panel{
		Rect:  willowfx.Rect{Width: panelW, Height: panelH},
		log:   logger,
		thumb: thumb,
		frame: image.NewRGBA(image.Rect(0, 0, panelW, panelH)),
		out:   transfer.NewSurface(panelW, panelH, cfg.Transfer.UIFormat),
	}

	b, err := willowfx.NewBridge(cfg,
		willowfx.WithLogger(logger),
		willowfx.WithSink(thumb),
		willowfx.WithUIHandler(p),
	)
	if err != nil {
		log.Fatalf("bridge: %v", err)
	}
	p.bridge = b
	if err := b.SetUISize(panelW, panelH); err != nil {
		log.Fatalf("ui size: %v", err)
	}

	b.Attach(newBouncers(cfg.Width, cfg.Height))
	b.AddListener(&sceneKeys{bridge: b})

	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("script: %v", err)
		}
		runner, err := willowfx.LoadTestScript(data)
		if err != nil {
			log.Fatalf("script: %v", err)
		}
		b.SetTestRunner(runner)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := willowfx.Run(ctx, b); err != nil {
		log.Fatal(err)
	}
}

// --- Scene ---

type box struct {
	x, y, dx, dy float64
	size         int
	color        color.RGBA
}

// bouncers is the scene renderer. Positions advance in Update and are drawn
// in Draw, both on the render loop.
type bouncers struct {
	w, h  int
	boxes []box
}

func newBouncers(w, h int) *bouncers {
	return &bouncers{
		w: w, h: h,
		boxes: []box{
			{x: 40, y: 60, dx: 180, dy: 120, size: 48, color: color.RGBA{80, 180, 255, 255}},
			{x: 300, y: 200, dx: -140, dy: 90, size: 32, color: color.RGBA{255, 140, 60, 255}},
			{x: 500, y: 80, dx: 100, dy: -160, size: 64, color: color.RGBA{120, 220, 120, 255}},
		},
	}
}

func (s *bouncers) Update(dt float64) error {
	for i := range s.boxes {
		bx := &s.boxes[i]
		bx.x += bx.dx * dt
		bx.y += bx.dy * dt
		if bx.x < 0 || bx.x+float64(bx.size) > float64(s.w) {
			bx.dx = -bx.dx
			bx.x = min(max(bx.x, 0), float64(s.w-bx.size))
		}
		if bx.y < 0 || bx.y+float64(bx.size) > float64(s.h) {
			bx.dy = -bx.dy
			bx.y = min(max(bx.y, 0), float64(s.h-bx.size))
		}
	}
	return nil
}

func (s *bouncers) Draw(target *ebiten.Image) {
	bounds := target.Bounds()
	s.w, s.h = bounds.Dx(), bounds.Dy()
	target.Fill(color.RGBA{30, 30, 40, 255})
	for _, bx := range s.boxes {
		r := image.Rect(int(bx.x), int(bx.y), int(bx.x)+bx.size, int(bx.y)+bx.size).Add(bounds.Min)
		if sub, ok := target.SubImage(r).(*ebiten.Image); ok {
			sub.Fill(bx.color)
		}
	}
}

// sceneKeys handles the keys the panel did not take.
type sceneKeys struct {
	input.NopListener
	bridge *willowfx.Bridge
}

func (k *sceneKeys) OnKey(e *input.KeyEvent) {
	if e.Consumed() || !e.Pressed || e.Repeating {
		return
	}
	switch e.Code {
	case input.Key(ebiten.KeyTab):
		k.bridge.Overlay().Toggle()
	case input.Key(ebiten.KeyF12):
		k.bridge.Snapshot("manual")
	}
}

// --- UI panel ---

// panel is the UI. Every method runs on the UI loop.
type panel struct {
	willowfx.Rect

	bridge *willowfx.Bridge
	log    *willowfx.Logger
	thumb  *transfer.ScaledSink
	frame  *image.RGBA
	out    *transfer.Surface

	focused bool
	keys    []input.Key
}

func (p *panel) HandleKey(e *input.KeyEvent) {
	if !e.Pressed {
		return
	}
	p.log.Debug().Int("code", int(e.Code)).Bool("repeat", e.Repeating).Log("panel key")
	p.keys = append(p.keys, e.Code)
	if limit := panelW / markerW; len(p.keys) > limit {
		p.keys = p.keys[len(p.keys)-limit:]
	}
}

func (p *panel) HandleButton(e *input.ButtonEvent) {
	p.log.Debug().Int("x", e.X).Int("y", e.Y).Bool("pressed", e.Pressed).Log("panel button")
}

func (p *panel) FocusChanged(focused bool) { p.focused = focused }

// Tick repaints the panel and publishes it to the render loop.
func (p *panel) Tick(float64) error {
	bg := color.RGBA{60, 60, 60, 220}
	if p.focused {
		bg = color.RGBA{30, 60, 120, 230}
	}
	draw.Draw(p.frame, p.frame.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	thumbAt := image.Rect(8, 8, 8+thumbW, 8+thumbH)
	p.thumb.View(func(img image.Image) {
		draw.Draw(p.frame, thumbAt, img, image.Point{}, draw.Src)
	})

	marker := image.NewUniform(color.RGBA{240, 240, 240, 255})
	for i, code := range p.keys {
		h := 4 + int(code)%8
		r := image.Rect(i*markerW, panelH-h, i*markerW+markerW-1, panelH)
		draw.Draw(p.frame, r, marker, image.Point{}, draw.Src)
	}

	p.out.WritePixels(0, 0, panelW, panelH, transfer.FormatRGBA, p.frame.Pix, p.frame.Stride)
	return p.bridge.PublishUI(p.out)
}
