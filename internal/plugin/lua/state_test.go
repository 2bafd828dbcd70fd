package lua

import (
	"errors"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func TestNewState(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	if state.IsClosed() {
		t.Error("NewState() returned closed state")
	}
	if state.Bridge() == nil {
		t.Error("NewState() Bridge() is nil")
	}
}

func TestNewStateNegativeTimeout(t *testing.T) {
	if _, err := NewState(WithExecutionTimeout(-time.Second)); err == nil {
		t.Error("NewState() with negative timeout should fail")
	}
}

func TestStateDoChunk(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	if err := state.DoChunk("test.lua", `x = 1 + 1`); err != nil {
		t.Fatalf("DoChunk() error = %v", err)
	}
	if v := state.GetGlobal("x"); v != glua.LNumber(2) {
		t.Errorf("x = %v, want 2", v)
	}
}

func TestStateDoChunkErrors(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	if err := state.DoChunk("syntax.lua", `x = = 1`); err == nil {
		t.Error("DoChunk() with syntax error should fail")
	}

	err = state.DoChunk("runtime.lua", `error("boom")`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("DoChunk() error = %v, want boom", err)
	}
}

func TestStateCall(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	if err := state.DoChunk("add.lua", `function add(a, b) return a + b end`); err != nil {
		t.Fatalf("DoChunk() error = %v", err)
	}
	fn := state.GetGlobal("add").(*glua.LFunction)

	results, err := state.Call(fn, 2, 3)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(results) != 1 || results[0] != int64(5) {
		t.Errorf("Call() = %v, want [5]", results)
	}
}

func TestStateTimeout(t *testing.T) {
	state, err := NewState(WithExecutionTimeout(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	err = state.DoChunk("loop.lua", `while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("DoChunk() error = %v, want ErrExecutionTimeout", err)
	}

	// The state stays usable after a timeout.
	if err := state.DoChunk("after.lua", `y = 1`); err != nil {
		t.Errorf("DoChunk() after timeout error = %v", err)
	}
}

func TestStateClose(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}

	if err := state.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !state.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}
	if err := state.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := state.DoChunk("x.lua", `x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoChunk() on closed state error = %v, want ErrStateClosed", err)
	}
	if _, err := state.Call(nil); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() on closed state error = %v, want ErrStateClosed", err)
	}
	if v := state.GetGlobal("x"); v != glua.LNil {
		t.Errorf("GetGlobal() on closed state = %v, want nil", v)
	}
}

func TestStatePreload(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer state.Close()

	state.Preload("host", func(L *glua.LState) int {
		mod := L.NewTable()
		L.SetField(mod, "answer", glua.LNumber(42))
		L.Push(mod)
		return 1
	})

	if err := state.DoChunk("use.lua", `answer = require("host").answer`); err != nil {
		t.Fatalf("DoChunk() error = %v", err)
	}
	if v := state.GetGlobal("answer"); v != glua.LNumber(42) {
		t.Errorf("answer = %v, want 42", v)
	}
}
