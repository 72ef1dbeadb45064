package scripting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Engine wraps a single gopher-lua VM. Single-goroutine access only: the
// simulation calls it from its tick.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// scriptSets are loaded in order: shared helpers first, then the bot
// brains that call them.
var scriptSets = []string{"core", "ai"}

// NewEngine creates a Lua engine and runs the script sets under
// scriptsDir. A missing set is skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log}
	total := 0
	for _, set := range scriptSets {
		n, err := e.runScriptSet(filepath.Join(scriptsDir, set))
		if err != nil {
			vm.Close()
			return nil, fmt.Errorf("%s scripts: %w", set, err)
		}
		total += n
	}
	log.Info("bot scripts loaded", zap.String("dir", scriptsDir), zap.Int("files", total))
	return e, nil
}

// NewEngineFromSource is NewEngine for a single in-memory chunk.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("bot script: %w", err)
	}
	return &Engine{vm: vm, log: log}, nil
}

// runScriptSet executes the .lua files of one set in name order and returns
// how many ran.
func (e *Engine) runScriptSet(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(file); err != nil {
			return n, fmt.Errorf("run %s: %w", entry.Name(), err)
		}
		n++
	}
	return n, nil
}

// HasFunction reports whether a global function name is defined.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
