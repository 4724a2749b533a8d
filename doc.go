// Package purfectest is a headless PTY test harness for terminal
// applications.
//
// It spawns a child process on a pseudo-terminal, incrementally decodes the
// raw output stream into a cell grid, a cursor position, and a set of
// detected graphics regions (Sixel, Kitty, and iTerm2 protocols), and lets
// tests wait for screen conditions without racing against the child:
//
//	harness, err := purfectest.NewHarness(80, 24)
//	if err != nil {
//		// ...
//	}
//	defer harness.Close()
//
//	if err := harness.Spawn(exec.Command("my-tui-app")); err != nil {
//		// ...
//	}
//	if err := harness.WaitForText("Ready"); err != nil {
//		// ...
//	}
//	harness.SendKey(purfectest.KeyEnter)
//
// The decoder is resumable across arbitrary read-chunk boundaries: feeding a
// byte stream in any number of pieces produces the same screen state as
// feeding it whole. Graphics sequences are tracked as opaque regions with
// pixel and cell dimensions; payloads are never rendered.
package purfectest
