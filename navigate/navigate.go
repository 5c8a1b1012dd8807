// Package navigate hands composed URLs to whatever displays them.
package navigate

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// Navigator performs a full navigation to url.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Func adapts a function to a Navigator.
type Func func(ctx context.Context, url string) error

func (f Func) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Writer prints each URL on its own line, for scripting.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Navigate(_ context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintln(w.w, url)
	return err
}

// Browser opens URLs in the system browser.
type Browser struct {
	goos string
}

func NewBrowser() *Browser {
	return &Browser{goos: runtime.GOOS}
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	name, args, err := browserCommand(b.goos, url)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	// The opener exits once the browser has the URL
	go func() { _ = cmd.Wait() }()
	return nil
}

func browserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("opening a browser is not supported on %s", goos)
}
