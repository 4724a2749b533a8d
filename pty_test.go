package purfectest

import (
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T) *Terminal {
	t.Helper()
	term, err := NewTerminal(80, 24)
	require.NoError(t, err)
	t.Cleanup(func() { term.Close() })
	return term
}

func TestTerminalInvalidDimensions(t *testing.T) {
	_, err := NewTerminal(0, 24)
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)

	_, err = NewTerminal(80, -1)
	require.Error(t, err)
}

func TestTerminalReadWithoutProcess(t *testing.T) {
	term := newTestTerminal(t)

	// Non-blocking contract: no process, no data, immediate zero return
	start := time.Now()
	n, err := term.Read(make([]byte, 256))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestTerminalReadReturnsWithQuietChild(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "5"), 5*time.Second))
	defer term.Kill()

	// A child that produces no output must not stall the read; the
	// contract is (0, nil) immediately, not a parked goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		n, err := term.Read(make([]byte, 256))
		assert.NoError(t, err)
		assert.Zero(t, n)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read blocked with a quiet child")
	}
}

func TestTerminalConcurrentExitPolling(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "10"), 5*time.Second))

	// Kill from another goroutine while the owner polls; the reap must
	// happen exactly once and keep the real signal status.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = term.Kill()
	}()

	status, err := term.WaitTimeout(2 * time.Second)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Signaled)
	assert.NotEqual(t, -1, status.Code)
}

func TestTerminalSpawnAndReadOutput(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "echo pty-output"), 5*time.Second))

	data, err := term.ReadTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pty-output")
}

func TestTerminalSpawnFailure(t *testing.T) {
	term := newTestTerminal(t)
	err := term.Spawn(exec.Command("/nonexistent/binary-zzz"), 5*time.Second)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Contains(t, spawnErr.Command, "binary-zzz")
}

func TestTerminalExitStatusCached(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "exit 3"), 5*time.Second))

	status, err := term.WaitTimeout(2 * time.Second)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, 3, status.Code)
	assert.False(t, status.Success())

	// Exit polling is one-way; repeated queries return the cached value
	assert.False(t, term.IsRunning())
	assert.Same(t, status, term.ExitStatus())
}

func TestTerminalIsRunning(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "10"), 5*time.Second))

	assert.True(t, term.IsRunning())
	require.NoError(t, term.Kill())
	assert.False(t, term.IsRunning())
}

func TestTerminalKillWithoutSpawn(t *testing.T) {
	term := newTestTerminal(t)
	assert.ErrorIs(t, term.Kill(), ErrNoProcess)
}

func TestTerminalKillReportsSignal(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "10"), 5*time.Second))
	require.NoError(t, term.Kill())

	status := term.ExitStatus()
	require.NotNil(t, status)
	assert.True(t, status.Signaled)
	assert.False(t, status.Success())
}

func TestTerminalWaitTimeoutExpires(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "10"), 5*time.Second))
	defer term.Kill()

	_, err := term.WaitTimeout(100 * time.Millisecond)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, 100*time.Millisecond)
}

func TestTerminalWriteEcho(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("cat"), 5*time.Second))
	defer term.Kill()

	require.NoError(t, term.WriteAll([]byte("roundtrip\n")))

	deadline := time.Now().Add(2 * time.Second)
	var collected strings.Builder
	for time.Now().Before(deadline) {
		data, err := term.ReadAll()
		require.NoError(t, err)
		collected.Write(data)
		// PTY echo plus cat's copy
		if strings.Count(collected.String(), "roundtrip") >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, strings.Count(collected.String(), "roundtrip"), 2)
}

func TestTerminalSpawnWhileRunning(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sleep", "10"), 5*time.Second))
	defer term.Kill()

	err := term.Spawn(exec.Command("true"), 5*time.Second)
	assert.ErrorIs(t, err, ErrProcessRunning)
}

func TestTerminalRespawnAfterExit(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "echo first"), 5*time.Second))
	_, err := term.WaitTimeout(2 * time.Second)
	require.NoError(t, err)
	_, err = term.ReadTimeout(time.Second) // drain the first child's output
	require.NoError(t, err)

	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "echo second"), 5*time.Second))
	data, err := term.ReadTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")
}

func TestTerminalSpawnZeroTimeoutLeavesNoProcess(t *testing.T) {
	term := newTestTerminal(t)
	err := term.Spawn(exec.Command("sleep", "10"), 0)
	if err == nil {
		// The launch can win the race against an instant deadline
		require.NoError(t, term.Kill())
		return
	}

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	// The aborted attempt must not leave a tracked process behind, and
	// the terminal must stay usable for the next spawn.
	assert.ErrorIs(t, term.Kill(), ErrNoProcess)
	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "echo again"), 5*time.Second))
	data, readErr := term.ReadTimeout(2 * time.Second)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "again")
}

func TestTerminalResize(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Resize(120, 40))

	cols, rows := term.Size()
	assert.Equal(t, 120, cols)
	assert.Equal(t, 40, rows)

	require.Error(t, term.Resize(0, 40))
}

func TestTerminalDrainAfterExit(t *testing.T) {
	term := newTestTerminal(t)
	require.NoError(t, term.Spawn(exec.Command("sh", "-c", "echo final-words"), 5*time.Second))
	_, err := term.WaitTimeout(2 * time.Second)
	require.NoError(t, err)

	// Output written before exit must still be readable afterwards
	data, err := term.ReadTimeout(time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "final-words")

	// Once drained, reads report no data rather than erroring
	n, err := term.Read(make([]byte, 64))
	require.NoError(t, err)
	assert.Zero(t, n)
}
