//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

var binPath = "geopick_e2e"

const (
	keyEnter = "\r"
	keyCtrlC = "\x03"
	keyTab   = "\t"
	keySpace = " "

	outputLimit = 1 << 20
	waitTimeout = 5 * time.Second
)

// escapes matches CSI, OSC, charset and keypad sequences plus carriage returns
var escapes = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07]*\x07|\x1b[()][A-Za-z]|\x1b[=>]|\r`)

// terminal runs geopick on a pseudo terminal and keeps what it drew
type terminal struct {
	t   *testing.T
	cmd *exec.Cmd
	pty *os.File

	done chan struct{}
	err  error

	mu  sync.Mutex
	out []byte
}

// appEnv isolates the app in home, which also holds its config
func appEnv(home string) []string {
	return append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
	)
}

// startTerminal launches geopick in home on a 120x40 terminal. The process
// is killed when the test ends.
func startTerminal(t *testing.T, home string, args ...string) *terminal {
	t.Helper()
	cmd := exec.Command(binPath, args...)
	cmd.Dir = home
	cmd.Env = appEnv(home)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	require.NoError(t, err, "start geopick")

	term := &terminal{t: t, cmd: cmd, pty: f, done: make(chan struct{})}
	go term.read()
	go func() {
		term.err = cmd.Wait()
		close(term.done)
	}()
	t.Cleanup(term.close)
	return term
}

func (term *terminal) read() {
	buf := make([]byte, 8192)
	for {
		n, err := term.pty.Read(buf)
		if n > 0 {
			term.mu.Lock()
			term.out = append(term.out, buf[:n]...)
			if over := len(term.out) - outputLimit; over > 0 {
				term.out = term.out[over:]
			}
			term.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// screen returns everything drawn so far without escape sequences
func (term *terminal) screen() string {
	return term.screenSince(0)
}

// mark returns a position in the output for screenSince
func (term *terminal) mark() int {
	term.mu.Lock()
	defer term.mu.Unlock()
	return len(term.out)
}

// screenSince returns what was drawn after mark, without escape sequences
func (term *terminal) screenSince(mark int) string {
	term.mu.Lock()
	defer term.mu.Unlock()
	if mark > len(term.out) {
		mark = 0
	}
	return escapes.ReplaceAllString(string(term.out[mark:]), "")
}

// press sends each key as its own write
func (term *terminal) press(keys ...string) {
	term.t.Helper()
	for _, k := range keys {
		_, err := term.pty.Write([]byte(k))
		require.NoError(term.t, err, "send %q", k)
	}
}

// typeText types text one rune at a time, faster than the search debounce
func (term *terminal) typeText(text string) {
	term.t.Helper()
	for _, r := range text {
		term.press(string(r))
		time.Sleep(5 * time.Millisecond)
	}
}

// expect fails the test unless text shows up on screen in time
func (term *terminal) expect(text, why string) {
	term.t.Helper()
	term.expectSince(0, text, why)
}

// expectSince is expect limited to output drawn after mark
func (term *terminal) expectSince(mark int, text, why string) {
	term.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !strings.Contains(term.screenSince(mark), text) {
		if time.Now().After(deadline) {
			s := term.screen()
			if len(s) > 2048 {
				s = s[len(s)-2048:]
			}
			term.t.Fatalf("%s: %q not shown within %s\n--- screen tail ---\n%s", why, text, waitTimeout, s)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// waitExit returns the process exit error, or an error if it is still running
func (term *terminal) waitExit(timeout time.Duration) error {
	select {
	case <-term.done:
		return term.err
	case <-time.After(timeout):
		return fmt.Errorf("geopick still running after %s", timeout)
	}
}

func (term *terminal) close() {
	_ = term.pty.Close()
	select {
	case <-term.done:
		return
	default:
	}
	_ = term.cmd.Process.Kill()
	<-term.done
}
