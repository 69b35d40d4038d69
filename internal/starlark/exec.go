package starlark

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Options configure catalog script execution.
type Options struct {
	// Families and Tiers are exposed as the "families" and "tiers" globals.
	Families []string
	Tiers    []string
	// Print receives the output of print(); nil discards it.
	Print func(thread, msg string)
	// MaxSteps bounds execution; 0 means unbounded.
	MaxSteps uint64
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

type executor struct {
	ctx         context.Context
	opts        Options
	predeclared starlark.StringDict

	mu      sync.Mutex
	cache   map[string]*loadEntry
	threads []*starlark.Thread
}

// ExecCatalog runs a catalog script and returns what it declared.
// Scripts may load() other files relative to their own directory; every
// file runs at most once and load cycles are rejected.
func ExecCatalog(ctx context.Context, filename string, src []byte, opts Options) (*Collector, error) {
	c := &Collector{}
	predeclared, err := Predeclared(c, opts.Families, opts.Tiers)
	if err != nil {
		return nil, err
	}

	e := &executor{
		ctx:         ctx,
		opts:        opts,
		predeclared: predeclared,
		cache:       make(map[string]*loadEntry),
	}

	stop := context.AfterFunc(ctx, e.cancelAll)
	defer stop()

	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, errors.Wrap(err, "resolve catalog path")
	}
	e.cache[abs] = nil

	if _, err := e.exec(abs, src); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "catalog evaluation cancelled")
		}
		return nil, err
	}
	return c, nil
}

func (e *executor) newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			if e.opts.Print != nil {
				e.opts.Print(t.Name, msg)
			}
		},
		Load: e.load,
	}
	if e.opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.opts.MaxSteps)
	}

	e.mu.Lock()
	e.threads = append(e.threads, thread)
	e.mu.Unlock()

	if e.ctx.Err() != nil {
		thread.Cancel("context cancelled")
	}
	return thread
}

func (e *executor) cancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.threads {
		t.Cancel("context cancelled")
	}
}

func (e *executor) exec(path string, src []byte) (starlark.StringDict, error) {
	thread := e.newThread(filepath.Base(path))
	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, src, e.predeclared)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, errors.WithDetail(errors.Newf("%s: %s", errorPos(evalErr), evalErr.Msg), evalErr.Backtrace())
		}
		return nil, err
	}
	return globals, nil
}

// load implements the load() statement for catalog scripts.
func (e *executor) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	base := "."
	if pos := thread.CallFrame(0).Pos; pos.Filename() != "" {
		base = filepath.Dir(pos.Filename())
	}
	path := module
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, module)
	}

	e.mu.Lock()
	entry, seen := e.cache[path]
	if seen && entry == nil {
		e.mu.Unlock()
		return nil, errors.Newf("cycle in load graph at %q", module)
	}
	if seen {
		e.mu.Unlock()
		return entry.globals, entry.err
	}
	e.cache[path] = nil
	e.mu.Unlock()

	src, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "load %q", module)
	} else {
		var globals starlark.StringDict
		globals, err = e.exec(path, src)
		if err == nil {
			globals.Freeze()
		}
		entry = &loadEntry{globals: globals, err: err}
	}
	if entry == nil {
		entry = &loadEntry{err: err}
	}

	e.mu.Lock()
	e.cache[path] = entry
	e.mu.Unlock()
	return entry.globals, entry.err
}

// errorPos returns the innermost script position of an evaluation error.
func errorPos(err *starlark.EvalError) string {
	for i := len(err.CallStack) - 1; i >= 0; i-- {
		pos := err.CallStack[i].Pos
		if pos.IsValid() && pos.Filename() != "<builtin>" {
			return pos.String()
		}
	}
	return "<unknown>"
}
