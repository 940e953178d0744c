package main

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// console is the CLI's user-facing layer: feedback lines and navigation
// targets are printed instead of toasts and page changes.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Navigate(_ context.Context, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "navigate: %s\n", path)
}

func (c *console) Success(_ context.Context, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "ok: %s\n", message)
}

func (c *console) Failure(_ context.Context, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "failed: %s\n", message)
}
