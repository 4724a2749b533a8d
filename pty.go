package purfectest

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// killGracePeriod is how long Kill waits for SIGTERM to take effect before
// escalating to SIGKILL.
const killGracePeriod = 500 * time.Millisecond

// waitPollInterval is the fixed polling step for WaitTimeout and Kill.
const waitPollInterval = 10 * time.Millisecond

// ExitStatus is the terminal state of an exited child process. It is
// cached on first observation: exit polling reaps the process, so the
// status cannot be re-queried from the OS.
type ExitStatus struct {
	Code     int
	Signaled bool
	Signal   syscall.Signal
}

// Success reports a normal exit with status code zero.
func (e *ExitStatus) Success() bool {
	return !e.Signaled && e.Code == 0
}

func (e *ExitStatus) String() string {
	if e.Signaled {
		return "signal: " + e.Signal.String()
	}
	return "exit status " + strconv.Itoa(e.Code)
}

// Terminal owns a pseudo-terminal pair and at most one child process
// attached to its slave side. Reads from the master never block. I/O and
// Spawn are single-owner, but the process-state operations (IsRunning,
// ExitStatus, Kill, the waits) may be called from another goroutine; exit
// polling is serialized internally so the child is reaped exactly once.
type Terminal struct {
	master   *os.File
	slave    *os.File
	masterFd int
	cols     int
	rows     int

	procMu sync.Mutex
	cmd    *exec.Cmd
	pid    int
	exit   *ExitStatus
}

// NewTerminal opens a pseudo-terminal of the given size. Both dimensions
// must be positive. The master fd is placed in non-blocking mode and read
// with raw syscalls; going through os.File.Read would hand the fd to the
// runtime poller, which parks the goroutine on EAGAIN instead of returning
// it.
func NewTerminal(cols, rows int) (*Terminal, error) {
	if cols <= 0 || rows <= 0 {
		return nil, &DimensionError{Cols: cols, Rows: rows}
	}
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	size := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(master, size); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	masterFd := int(master.Fd())
	if err := unix.SetNonblock(masterFd, true); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	return &Terminal{
		master:   master,
		slave:    slave,
		masterFd: masterFd,
		cols:     cols,
		rows:     rows,
	}, nil
}

// Size returns the terminal dimensions as (cols, rows).
func (t *Terminal) Size() (int, int) {
	return t.cols, t.rows
}

// Spawn launches a child attached to the terminal. The timeout bounds the
// launch itself; a launch that completes after the deadline is killed and
// reaped in the background so nothing leaks. Spawning over a still-running
// child fails with ErrProcessRunning.
func (t *Terminal) Spawn(cmd *exec.Cmd, timeout time.Duration) error {
	t.procMu.Lock()
	if t.cmd != nil && t.pollExitLocked() {
		t.procMu.Unlock()
		return ErrProcessRunning
	}
	t.procMu.Unlock()

	cmd.Stdin = t.slave
	cmd.Stdout = t.slave
	cmd.Stderr = t.slave
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true
	if cmd.Env == nil {
		cmd.Env = append(os.Environ(), "TERM="+DefaultProfile.TermName())
	}

	started := make(chan error, 1)
	go func() { started <- cmd.Start() }()

	select {
	case err := <-started:
		if err != nil {
			return &SpawnError{Command: cmd.Path, Err: err}
		}
	case <-time.After(timeout):
		// A launch that lands after the deadline is nobody's child to
		// track; kill and reap it so the abort frees its resources.
		go func() {
			if err := <-started; err == nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
		}()
		return &TimeoutError{
			Description: "spawning " + cmd.Path,
			Timeout:     timeout,
			Elapsed:     timeout,
		}
	}

	t.procMu.Lock()
	t.cmd = cmd
	t.pid = cmd.Process.Pid
	t.exit = nil
	t.procMu.Unlock()
	return nil
}

// Read fills buf with whatever child output is currently available. It
// never blocks: it returns (0, nil) when no data is ready, at EOF, and
// after the child has exited and drained. EINTR is retried transparently.
func (t *Terminal) Read(buf []byte) (int, error) {
	for {
		n, err := unix.Read(t.masterFd, buf)
		switch err {
		case nil:
			if n < 0 {
				n = 0
			}
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, nil
		case unix.EIO:
			// Linux reports EIO on the master once the slave side
			// has no more writers.
			return 0, nil
		default:
			return 0, &os.PathError{Op: "read", Path: t.master.Name(), Err: err}
		}
	}
}

// ReadAll drains everything currently readable. It returns nil when no
// data is available right now.
func (t *Terminal) ReadAll() ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := t.Read(buf)
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, buf[:n]...)
	}
}

// ReadTimeout waits up to d for any child output, polling at the wait
// interval, and returns what arrived first. A nil slice means the
// deadline passed with no output.
func (t *Terminal) ReadTimeout(d time.Duration) ([]byte, error) {
	deadline := time.Now().Add(d)
	for {
		data, err := t.ReadAll()
		if err != nil || len(data) > 0 {
			return data, err
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(waitPollInterval)
	}
}

// Write sends bytes to the child's input, retrying on EINTR.
func (t *Terminal) Write(data []byte) (int, error) {
	for {
		n, err := t.master.Write(data)
		var errno syscall.Errno
		if errors.As(err, &errno) && errno == unix.EINTR {
			continue
		}
		return n, err
	}
}

// WriteAll writes the whole buffer, retrying short writes.
func (t *Terminal) WriteAll(data []byte) error {
	for len(data) > 0 {
		n, err := t.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// IsRunning polls the child once. The first observed exit caches the
// ExitStatus; subsequent calls return immediately without touching the OS,
// because the poll reaps the process.
func (t *Terminal) IsRunning() bool {
	t.procMu.Lock()
	defer t.procMu.Unlock()
	return t.pollExitLocked()
}

// pollExitLocked does one WNOHANG wait, caching the status on first
// observed exit. Callers hold procMu; serializing here keeps concurrent
// pollers from racing two Wait4 calls on the same pid, where the loser's
// ECHILD would clobber the real status.
func (t *Terminal) pollExitLocked() bool {
	if t.cmd == nil || t.exit != nil {
		return false
	}
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(t.pid, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			// ECHILD: reaped elsewhere, exit detail is lost
			t.exit = &ExitStatus{Code: -1}
			return false
		}
		if pid == 0 {
			return true
		}
		t.cacheExitLocked(ws)
		return false
	}
}

func (t *Terminal) cacheExitLocked(ws unix.WaitStatus) {
	status := &ExitStatus{}
	if ws.Signaled() {
		status.Signaled = true
		status.Signal = ws.Signal()
		status.Code = 128 + int(ws.Signal())
	} else {
		status.Code = ws.ExitStatus()
	}
	t.exit = status
}

// ExitStatus returns the cached exit status, or nil while the child is
// still running or was never spawned.
func (t *Terminal) ExitStatus() *ExitStatus {
	t.procMu.Lock()
	defer t.procMu.Unlock()
	return t.exit
}

// Kill terminates the child: SIGTERM first, then SIGKILL if it is still
// alive after a short grace period. It fails with ErrNoProcess when
// nothing was ever spawned. Killing an already-exited child is a no-op.
func (t *Terminal) Kill() error {
	t.procMu.Lock()
	if t.cmd == nil {
		t.procMu.Unlock()
		return ErrNoProcess
	}
	running := t.pollExitLocked()
	pid := t.pid
	t.procMu.Unlock()
	if !running {
		return nil
	}

	_ = unix.Kill(pid, unix.SIGTERM)
	deadline := time.Now().Add(killGracePeriod)
	for time.Now().Before(deadline) {
		if !t.IsRunning() {
			return nil
		}
		time.Sleep(waitPollInterval)
	}
	_ = unix.Kill(pid, unix.SIGKILL)
	if _, err := t.WaitTimeout(killGracePeriod); err != nil {
		return err
	}
	return nil
}

// WaitTimeout polls for child exit every 10ms until the deadline. It
// returns the exit status, or a TimeoutError if the child outlives d.
func (t *Terminal) WaitTimeout(d time.Duration) (*ExitStatus, error) {
	if t.noProcess() {
		return nil, ErrNoProcess
	}
	start := time.Now()
	for {
		if !t.IsRunning() {
			return t.ExitStatus(), nil
		}
		elapsed := time.Since(start)
		if elapsed >= d {
			return nil, &TimeoutError{
				Description: "waiting for process exit",
				Timeout:     d,
				Elapsed:     elapsed,
			}
		}
		time.Sleep(waitPollInterval)
	}
}

// Wait blocks until the child exits, polling at the wait interval.
func (t *Terminal) Wait() (*ExitStatus, error) {
	if t.noProcess() {
		return nil, ErrNoProcess
	}
	for t.IsRunning() {
		time.Sleep(waitPollInterval)
	}
	return t.ExitStatus(), nil
}

func (t *Terminal) noProcess() bool {
	t.procMu.Lock()
	defer t.procMu.Unlock()
	return t.cmd == nil
}

// Resize changes the pseudo-terminal dimensions and signals the child with
// SIGWINCH via the kernel.
func (t *Terminal) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return &DimensionError{Cols: cols, Rows: rows}
	}
	size := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(t.master, size); err != nil {
		return err
	}
	t.cols = cols
	t.rows = rows
	return nil
}

// Close kills any running child and releases both PTY descriptors.
func (t *Terminal) Close() error {
	if !t.noProcess() && t.IsRunning() {
		_ = t.Kill()
	}
	var first error
	if err := t.master.Close(); err != nil {
		first = err
	}
	if err := t.slave.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
