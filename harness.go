package purfectest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Harness couples a Terminal and a Screen: it drains available PTY bytes
// into the decoder without blocking and exposes timeout-bounded condition
// polling. Single-threaded by contract; do not share across goroutines.
type Harness struct {
	id      string
	term    *Terminal
	screen  *Screen
	cfg     Config
	logger  *zap.Logger
	profile Profile

	readBuf []byte
}

// HarnessOption customizes harness construction.
type HarnessOption func(*Harness)

// WithConfig overrides the default tuning.
func WithConfig(cfg Config) HarnessOption {
	return func(h *Harness) { h.cfg = cfg }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) HarnessOption {
	return func(h *Harness) { h.logger = logger }
}

// WithProfile selects the terminal profile advertised to spawned children
// via TERM.
func WithProfile(p Profile) HarnessOption {
	return func(h *Harness) { h.profile = p }
}

// NewHarness creates a harness with a fresh PTY and blank screen of the
// given dimensions.
func NewHarness(cols, rows int, opts ...HarnessOption) (*Harness, error) {
	h := &Harness{
		id:      uuid.NewString(),
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
		profile: DefaultProfile,
	}
	for _, opt := range opts {
		opt(h)
	}

	term, err := NewTerminal(cols, rows)
	if err != nil {
		return nil, err
	}
	screen, err := NewScreenRatio(cols, rows, h.cfg.ratio())
	if err != nil {
		term.Close()
		return nil, err
	}

	h.term = term
	h.screen = screen
	h.readBuf = make([]byte, h.cfg.BufferSize)
	h.logger = h.logger.With(zap.String("harness_id", h.id))
	return h, nil
}

// ID returns the unique identifier of this harness instance.
func (h *Harness) ID() string { return h.id }

// Screen exposes the decoded terminal state.
func (h *Harness) Screen() *Screen { return h.screen }

// Terminal exposes the underlying PTY controller.
func (h *Harness) Terminal() *Terminal { return h.term }

// Profile returns the terminal profile advertised to children.
func (h *Harness) Profile() Profile { return h.profile }

// Spawn launches a child process attached to the harness PTY. Unless the
// command carries its own environment, TERM is set from the harness
// profile.
func (h *Harness) Spawn(cmd *exec.Cmd) error {
	h.logger.Debug("spawning process",
		zap.String("path", cmd.Path),
		zap.String("term", h.profile.TermName()))
	if cmd.Env == nil {
		cmd.Env = append(os.Environ(), "TERM="+h.profile.TermName())
	}
	return h.term.Spawn(cmd, h.cfg.SpawnTimeout)
}

// SpawnContext launches a child that is killed when ctx is cancelled.
func (h *Harness) SpawnContext(ctx context.Context, cmd *exec.Cmd) error {
	if err := h.Spawn(cmd); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		if h.term.IsRunning() {
			_ = h.term.Kill()
		}
	}()
	return nil
}

// UpdateState drains everything currently readable from the PTY into the
// decoder. It never blocks. Once the child has exited it drains the final
// buffered bytes, then returns a ProcessExitedError; this is the only path
// that reaps output remaining after exit.
func (h *Harness) UpdateState() error {
	if !h.term.IsRunning() {
		h.drain()
		if h.term.ExitStatus() == nil {
			return ErrNoProcess
		}
		return &ProcessExitedError{
			Status:     h.term.ExitStatus(),
			ScreenDump: h.screen.Contents(),
		}
	}
	h.drain()
	return nil
}

func (h *Harness) drain() {
	for {
		n, err := h.term.Read(h.readBuf)
		if err != nil {
			h.logger.Debug("pty read failed", zap.Error(err))
			return
		}
		if n == 0 {
			return
		}
		h.screen.Feed(h.readBuf[:n])
	}
}

// WaitFor polls until predicate(screen) is true or the timeout passes. If
// the child exits while waiting, the predicate is evaluated one final time
// against the drained output before the exit is surfaced, since output may
// arrive in the same batch as the exit. On timeout the error carries the
// elapsed time, iteration count, cursor position, and a screen dump.
func (h *Harness) WaitFor(predicate func(*Screen) bool, timeout time.Duration) error {
	start := time.Now()
	iterations := 0
	for {
		iterations++
		err := h.UpdateState()
		if err == nil {
			if predicate(h.screen) {
				return nil
			}
		} else if exitErr, ok := err.(*ProcessExitedError); ok {
			// Final check: the condition may have been satisfied by
			// bytes drained in the same pass that saw the exit.
			if predicate(h.screen) {
				return nil
			}
			exitErr.Elapsed = time.Since(start)
			return exitErr
		} else {
			return err
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			row, col := h.screen.CursorPosition()
			return &TimeoutError{
				Description: "waiting for condition",
				Timeout:     timeout,
				Elapsed:     elapsed,
				Iterations:  iterations,
				CursorRow:   row,
				CursorCol:   col,
				ScreenDump:  h.screen.Contents(),
			}
		}
		time.Sleep(h.cfg.PollInterval)
	}
}

// WaitForText waits for text to appear anywhere on screen, bounded by the
// default timeout.
func (h *Harness) WaitForText(text string) error {
	return h.WaitForTextTimeout(text, h.cfg.DefaultTimeout)
}

// WaitForTextTimeout waits for text with an explicit timeout.
func (h *Harness) WaitForTextTimeout(text string, timeout time.Duration) error {
	err := h.WaitFor(func(s *Screen) bool {
		return s.Contains(text)
	}, timeout)
	if terr, ok := err.(*TimeoutError); ok {
		terr.Description = fmt.Sprintf("waiting for text %q", text)
	}
	return err
}

// WaitForCursor waits for the cursor to reach (row, col).
func (h *Harness) WaitForCursor(row, col int, timeout time.Duration) error {
	err := h.WaitFor(func(s *Screen) bool {
		r, c := s.CursorPosition()
		return r == row && c == col
	}, timeout)
	if terr, ok := err.(*TimeoutError); ok {
		terr.Description = fmt.Sprintf("waiting for cursor at (%d,%d)", row, col)
	}
	return err
}

// WaitForRegion waits until at least one graphics region of the protocol
// has been decoded.
func (h *Harness) WaitForRegion(p Protocol, timeout time.Duration) error {
	err := h.WaitFor(func(s *Screen) bool {
		return s.Capture().CountByProtocol(p) > 0
	}, timeout)
	if terr, ok := err.(*TimeoutError); ok {
		terr.Description = fmt.Sprintf("waiting for %s region", p)
	}
	return err
}

// SendText writes text to the child's input and processes any immediate
// output. A ProcessExitedError from the post-write update is deliberately
// swallowed: input may legitimately cause an immediate exit, such as
// sending a quit key.
func (h *Harness) SendText(text string) error {
	if err := h.term.WriteAll([]byte(text)); err != nil {
		return err
	}
	return h.settle()
}

// SendKey sends the encoding of one special key.
func (h *Harness) SendKey(k Key) error {
	seq := EncodeKey(k)
	if seq == nil {
		return fmt.Errorf("unknown key %d", int(k))
	}
	if err := h.term.WriteAll(seq); err != nil {
		return err
	}
	return h.settle()
}

// SendKeys sends several special keys in order.
func (h *Harness) SendKeys(keys ...Key) error {
	for _, k := range keys {
		if err := h.SendKey(k); err != nil {
			return err
		}
	}
	return nil
}

// SendCtrl sends Ctrl plus a letter.
func (h *Harness) SendCtrl(c rune) error {
	if err := h.term.WriteAll(EncodeCtrl(c)); err != nil {
		return err
	}
	return h.settle()
}

// SendAlt sends Alt plus a character.
func (h *Harness) SendAlt(c rune) error {
	if err := h.term.WriteAll(EncodeAlt(c)); err != nil {
		return err
	}
	return h.settle()
}

// SendMouseClick sends an SGR press and release at the 0-indexed cell.
func (h *Harness) SendMouseClick(b MouseButton, row, col int) error {
	if err := h.term.WriteAll(EncodeMousePress(b, row, col)); err != nil {
		return err
	}
	if b != MouseScrollUp && b != MouseScrollDown {
		if err := h.term.WriteAll(EncodeMouseRelease(b, row, col)); err != nil {
			return err
		}
	}
	return h.settle()
}

// settle gives the child a brief moment to react, then drains. Process
// exit is not an error here.
func (h *Harness) settle() error {
	time.Sleep(10 * time.Millisecond)
	err := h.UpdateState()
	if _, ok := err.(*ProcessExitedError); ok {
		return nil
	}
	if err == ErrNoProcess {
		return nil
	}
	return err
}

// Capture snapshots the screen's graphics regions for querying.
func (h *Harness) Capture() *Capture {
	return h.screen.Capture()
}

// Resize changes both the PTY and the screen model dimensions.
func (h *Harness) Resize(cols, rows int) error {
	if err := h.term.Resize(cols, rows); err != nil {
		return err
	}
	return h.screen.Resize(cols, rows)
}

// Kill terminates the child process.
func (h *Harness) Kill() error {
	h.logger.Debug("killing process")
	return h.term.Kill()
}

// WaitExit waits for the child to exit on its own, draining output along
// the way, and returns its exit status.
func (h *Harness) WaitExit(timeout time.Duration) (*ExitStatus, error) {
	start := time.Now()
	for {
		err := h.UpdateState()
		if _, ok := err.(*ProcessExitedError); ok {
			return h.term.ExitStatus(), nil
		}
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		if elapsed >= timeout {
			return nil, &TimeoutError{
				Description: "waiting for process exit",
				Timeout:     timeout,
				Elapsed:     elapsed,
				ScreenDump:  h.screen.Contents(),
			}
		}
		time.Sleep(h.cfg.PollInterval)
	}
}

// Close kills any running child and releases the PTY.
func (h *Harness) Close() error {
	return h.term.Close()
}
