// Package compiler defines the boundary to the external source-to-module
// compiler and provides the engines that implement it.
//
// A Compiler receives the component path of the base file
// ("<ns>/<name>/<name>.js") and every text source of the bundle keyed by
// component-relative path. It returns AMD-style module code
// ("define([...], function(...) {...})") plus the imports it could not
// satisfy from the bundle itself.
package compiler

import (
	"context"
	"time"
)

// Result is the output of a single compile call. Treat it as immutable.
type Result struct {
	Code         string
	Dependencies []string
}

// Compiler turns a bundle's sources into module code. Implementations must be
// safe for concurrent use; engines that are not reentrant pool internally.
type Compiler interface {
	Compile(ctx context.Context, entry string, sources map[string]string) (*Result, error)
}

// Func adapts a plain function to the Compiler interface.
type Func func(ctx context.Context, entry string, sources map[string]string) (*Result, error)

// Compile implements Compiler.
func (f Func) Compile(ctx context.Context, entry string, sources map[string]string) (*Result, error) {
	return f(ctx, entry, sources)
}

type timeoutCompiler struct {
	next    Compiler
	timeout time.Duration
}

// WithTimeout bounds every call to c by d. A non-positive d returns c unchanged.
// The deadline is delivered through the context, so engines must honor it.
func WithTimeout(c Compiler, d time.Duration) Compiler {
	if d <= 0 {
		return c
	}
	return &timeoutCompiler{next: c, timeout: d}
}

func (t *timeoutCompiler) Compile(ctx context.Context, entry string, sources map[string]string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := t.next.Compile(ctx, entry, sources)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
