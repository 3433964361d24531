// Package willowfx runs a retained-mode UI loop next to an [Ebitengine]
// render loop and keeps the two in sync.
//
// The render loop owns the window: it polls input, draws the scene and
// composites the UI on top. The UI loop runs on its own goroutine at its own
// tick rate. Between them, a [Bridge] moves
//
//   - rendered scene frames to the UI through a [transfer.Pipeline],
//   - UI frames back to the render loop into the [Overlay],
//   - input, split by [UIInput] and the [input.Arbiter] so a key or button
//     is released on the side that saw it pressed,
//   - arbitrary callbacks, through one [taskqueue.Queue] per loop.
//
// # Quick start
//
//	cfg, err := willowfx.LoadConfig("willowfx.toml")
//	// ...
//	b, err := willowfx.NewBridge(cfg,
//		willowfx.WithLogger(log),
//		willowfx.WithUIHandler(panel),
//	)
//	// ...
//	b.Attach(scene) // scene implements Renderer, optionally Updater
//	if err := willowfx.Run(context.Background(), b); err != nil {
//		// ...
//	}
//
// On the UI side, call [Bridge.SetUISize] once and [Bridge.PublishUI] after
// each UI repaint. Scene frames arrive in the scene sink on the UI loop,
// either the built-in [transfer.Surface] ([Bridge.SceneSurface]) or the sink
// given with [WithSink].
//
// For full control, drive the [Bridge] as an [ebiten.Game] yourself and run
// [Bridge.RunUI] on a goroutine.
//
// # Testing
//
// [Bridge.InjectKey], [Bridge.InjectClick] and the other Inject methods
// replace device polling with synthetic events, one per tick. A
// [TestRunner] loaded from JSON with [LoadTestScript] sequences injected
// input, waits and [Bridge.Snapshot] captures.
//
// [Ebitengine]: https://ebitengine.org
package willowfx
