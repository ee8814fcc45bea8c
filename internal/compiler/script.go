package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// CompileFunction is the global the compiler script must define:
//
//	function compile(entry, sources) { return { code: "...", dependencies: [...] }; }
const CompileFunction = "compile"

// ScriptCompiler runs a JavaScript compiler inside embedded goja runtimes.
// A goja runtime is not safe for concurrent use, so each call checks one out
// of a fixed-size pool and returns it afterwards.
type ScriptCompiler struct {
	pool chan *scriptRuntime
}

type scriptRuntime struct {
	vm      *goja.Runtime
	compile goja.Callable
}

// LoadScriptCompiler reads a compiler script from disk.
func LoadScriptCompiler(scriptPath string, poolSize int) (*ScriptCompiler, error) {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiler script: %w", err)
	}
	return NewScriptCompiler(scriptPath, string(src), poolSize)
}

// NewScriptCompiler evaluates script once per pooled runtime. poolSize below 1
// is treated as 1.
func NewScriptCompiler(name, script string, poolSize int) (*ScriptCompiler, error) {
	if poolSize < 1 {
		poolSize = 1
	}

	program, err := goja.Compile(name, script, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compiler script: %w", err)
	}

	s := &ScriptCompiler{pool: make(chan *scriptRuntime, poolSize)}
	for i := 0; i < poolSize; i++ {
		vm := goja.New()
		if _, err := vm.RunProgram(program); err != nil {
			return nil, fmt.Errorf("failed to evaluate compiler script: %w", err)
		}
		fn, ok := goja.AssertFunction(vm.Get(CompileFunction))
		if !ok {
			return nil, fmt.Errorf("compiler script does not define a %s function", CompileFunction)
		}
		s.pool <- &scriptRuntime{vm: vm, compile: fn}
	}
	return s, nil
}

// Compile implements Compiler. It blocks until a runtime is free or ctx ends.
func (s *ScriptCompiler) Compile(ctx context.Context, entry string, sources map[string]string) (*Result, error) {
	var rt *scriptRuntime
	select {
	case rt = <-s.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { s.pool <- rt }()

	// The runtime goes back to the pool only once a pending interrupt has
	// landed and been cleared.
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		rt.vm.Interrupt(ctx.Err())
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
		rt.vm.ClearInterrupt()
	}()

	files := make(map[string]any, len(sources))
	for p, content := range sources {
		files[p] = content
	}

	value, err := rt.compile(goja.Undefined(), rt.vm.ToValue(entry), rt.vm.ToValue(files))
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exception *goja.Exception
		if errors.As(err, &exception) {
			return nil, fmt.Errorf("%s", exception.Value().String())
		}
		return nil, err
	}

	return exportResult(rt.vm, value)
}

func exportResult(vm *goja.Runtime, value goja.Value) (*Result, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, errors.New("compiler script returned no result")
	}
	obj := value.ToObject(vm)

	code := obj.Get("code")
	if code == nil || goja.IsUndefined(code) {
		return nil, errors.New("compiler script result has no code")
	}

	res := &Result{Code: code.String(), Dependencies: []string{}}

	deps := obj.Get("dependencies")
	if deps == nil || goja.IsUndefined(deps) || goja.IsNull(deps) {
		return res, nil
	}
	list, ok := deps.Export().([]any)
	if !ok {
		return nil, fmt.Errorf("compiler script dependencies must be an array, got %s", deps.ExportType())
	}
	for _, d := range list {
		s, ok := d.(string)
		if !ok {
			return nil, fmt.Errorf("compiler script dependency %v is not a string", d)
		}
		res.Dependencies = append(res.Dependencies, s)
	}
	return res, nil
}
