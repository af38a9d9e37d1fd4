// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package funcs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
	"github.com/k14s/starlark-go/syntax"
)

var configureStarlark sync.Once

// StarlarkRegistry holds the public functions defined by starlark
// source files. Blocks are closed with 'end' instead of relying on
// indentation. Names starting with '_' are private.
type StarlarkRegistry struct {
	funcs map[string]*starlark.Function
}

var _ Registry = &StarlarkRegistry{}

// NewStarlarkRegistry evaluates each file (name to source) with
// builtins callable from starlark code. Later files see functions of
// earlier ones and may override them.
func NewStarlarkRegistry(files []StarlarkFile, builtins Registry) (*StarlarkRegistry, error) {
	configureStarlark.Do(func() {
		resolve.AllowFloat = true
		resolve.AllowSet = true
		resolve.AllowLambda = true
		resolve.AllowNestedDef = true
		resolve.AllowBitwise = true
		resolve.AllowRecursion = true
		resolve.AllowGlobalReassign = true
	})

	reg := &StarlarkRegistry{funcs: map[string]*starlark.Function{}}

	for _, file := range files {
		globals := starlark.StringDict{
			"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		}
		if names, ok := builtins.(interface{ Names() []string }); ok {
			for _, name := range names.Names() {
				callable, _ := builtins.Lookup(name)
				globals[name] = starlarkBuiltin(name, callable)
			}
		}
		for name, fn := range reg.funcs {
			globals[name] = fn
		}

		updatedGlobals, err := evalStarlarkFile(file, globals)
		if err != nil {
			return nil, fmt.Errorf("Evaluating functions file '%s': %s", file.Name, err)
		}

		for name, val := range updatedGlobals {
			if strings.HasPrefix(name, "_") {
				continue
			}
			if fn, ok := val.(*starlark.Function); ok {
				reg.funcs[name] = fn
			}
		}
	}

	return reg, nil
}

// StarlarkFile is a named starlark source.
type StarlarkFile struct {
	Name   string
	Source []byte
}

func evalStarlarkFile(file StarlarkFile, globals starlark.StringDict) (resultGlobals starlark.StringDict, resultErr error) {
	// Catch any panics to give a better contextual information
	defer func() {
		if err := recover(); err != nil {
			if typedErr, ok := err.(error); ok {
				resultErr = fmt.Errorf("%s (backtrace: %s)", typedErr, debug.Stack())
			} else {
				resultErr = fmt.Errorf("(p) %s (backtrace: %s)", err, debug.Stack())
			}
		}
	}()

	f, err := syntax.Parse(file.Name, file.Source, syntax.BlockScanner)
	if err != nil {
		return nil, err
	}

	prog, err := starlark.FileProgram(f, globals.Has)
	if err != nil {
		return nil, err
	}

	thread := &starlark.Thread{Name: file.Name}

	updatedGlobals, err := prog.Init(thread, globals)
	if err != nil {
		return nil, err
	}

	updatedGlobals.Freeze()

	return updatedGlobals, nil
}

func (r *StarlarkRegistry) Lookup(name string) (Callable, bool) {
	fn, found := r.funcs[name]
	if !found {
		return nil, false
	}
	return starlarkCallable{fn}, true
}

// Names returns names of defined functions, sorted.
func (r *StarlarkRegistry) Names() []string {
	var names []string
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type starlarkCallable struct {
	fn *starlark.Function
}

var _ ContextCallable = starlarkCallable{}

func (c starlarkCallable) Invoke(args []interface{}) (interface{}, error) {
	return c.InvokeContext(context.Background(), args)
}

// InvokeContext calls the function on a fresh thread; frozen functions
// may be called concurrently. Builtins called by the function get ctx
// too. The thread is canceled when ctx is done.
func (c starlarkCallable) InvokeContext(ctx context.Context, args []interface{}) (interface{}, error) {
	var starlarkArgs starlark.Tuple
	for _, arg := range args {
		starlarkArg, err := NewGoValue(arg).AsStarlarkValue()
		if err != nil {
			return nil, err
		}
		starlarkArgs = append(starlarkArgs, starlarkArg)
	}

	thread := &starlark.Thread{Name: c.fn.Name()}
	thread.SetLocal(threadContextKey, ctx)

	stop := context.AfterFunc(ctx, func() { cancelThread(thread, ctx.Err()) })
	defer stop()

	result, err := starlark.Call(thread, c.fn, starlarkArgs, nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, fmt.Errorf("%s", evalErr.Msg)
		}
		return nil, err
	}

	return NewStarlarkValue(result).AsGoValue()
}

const threadContextKey = "mtpl.context"

// threadContext is the context of the call running on thread.
func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(threadContextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// cancelThread makes the thread fail at its next step on starlark
// versions that support Thread.Cancel.
func cancelThread(thread *starlark.Thread, reason error) {
	var t interface{} = thread
	if canceler, ok := t.(interface{ Cancel(string) }); ok {
		canceler.Cancel(reason.Error())
	}
}
