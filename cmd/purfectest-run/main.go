// Command purfectest-run spawns a program inside a headless PTY, waits for
// a condition, and prints the decoded screen along with any graphics
// regions it produced. Useful for eyeballing what a TUI renders without a
// real terminal.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/phroun/purfectest"
)

func main() {
	cols := pflag.Int("cols", 80, "terminal width in columns")
	rows := pflag.Int("rows", 24, "terminal height in rows")
	waitText := pflag.String("wait-text", "", "wait until this text appears on screen")
	timeout := pflag.Duration("timeout", 5*time.Second, "overall wait timeout")
	sendText := pflag.String("send", "", "text to send to the program after the wait")
	verbose := pflag.Bool("verbose", false, "enable debug logging")
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: purfectest-run [flags] -- command [args...]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*cols, *rows, *waitText, *sendText, *timeout, *verbose, args); err != nil {
		fmt.Fprintln(os.Stderr, "purfectest-run:", err)
		os.Exit(1)
	}
}

func run(cols, rows int, waitText, sendText string, timeout time.Duration, verbose bool, args []string) error {
	cfg, err := purfectest.ConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.DefaultTimeout = timeout

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	h, err := purfectest.NewHarness(cols, rows,
		purfectest.WithConfig(cfg),
		purfectest.WithLogger(logger))
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.Spawn(exec.Command(args[0], args[1:]...)); err != nil {
		return err
	}

	if waitText != "" {
		if err := h.WaitForTextTimeout(waitText, timeout); err != nil {
			return err
		}
	} else {
		if _, err := h.WaitExit(timeout); err != nil {
			if _, ok := err.(*purfectest.TimeoutError); !ok {
				return err
			}
		}
	}

	if sendText != "" {
		if err := h.SendText(sendText); err != nil {
			return err
		}
	}

	fmt.Println(h.Screen().Contents())

	snapshot := h.Capture()
	if snapshot.Count() > 0 {
		fmt.Fprintln(os.Stderr)
		for _, r := range snapshot.Regions() {
			fmt.Fprintln(os.Stderr, r)
		}
	}
	return nil
}
