package lua

import (
	"reflect"
	"testing"

	"github.com/dshills/plugs/internal/plugin"
	glua "github.com/yuin/gopher-lua"
)

func TestBridgeToGoValue(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	tests := []struct {
		name     string
		input    glua.LValue
		expected any
	}{
		{"nil", glua.LNil, nil},
		{"true", glua.LTrue, true},
		{"false", glua.LFalse, false},
		{"integer", glua.LNumber(42), int64(42)},
		{"float", glua.LNumber(3.14), 3.14},
		{"string", glua.LString("hello"), "hello"},
		{"function", L.NewFunction(func(*glua.LState) int { return 0 }), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bridge.ToGoValue(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ToGoValue(%v) = %v (%T), want %v (%T)",
					tt.input, result, result, tt.expected, tt.expected)
			}
		})
	}
}

func TestBridgeToGoValueTable(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	t.Run("array", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetInt(1, glua.LString("a"))
		tbl.RawSetInt(2, glua.LNumber(2))

		result := bridge.ToGoValue(tbl)
		want := []any{"a", int64(2)}
		if !reflect.DeepEqual(result, want) {
			t.Errorf("ToGoValue(array) = %#v, want %#v", result, want)
		}
	})

	t.Run("map", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetString("name", glua.LString("test"))
		tbl.RawSetString("count", glua.LNumber(42))

		result := bridge.ToGoValue(tbl)
		want := map[string]any{"name": "test", "count": int64(42)}
		if !reflect.DeepEqual(result, want) {
			t.Errorf("ToGoValue(map) = %#v, want %#v", result, want)
		}
	})

	t.Run("sparse", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetInt(1, glua.LString("a"))
		tbl.RawSetInt(3, glua.LString("c"))

		if _, ok := bridge.ToGoValue(tbl).(map[string]any); !ok {
			t.Errorf("ToGoValue(sparse) = %T, want map", bridge.ToGoValue(tbl))
		}
	})

	t.Run("cycle", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetString("self", tbl)

		m, ok := bridge.ToGoValue(tbl).(map[string]any)
		if !ok {
			t.Fatalf("ToGoValue(cycle) is not a map")
		}
		if m["self"] != nil {
			t.Errorf("cycle not broken: %v", m["self"])
		}
	})
}

func TestBridgeToLuaValue(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	tests := []struct {
		name  string
		input any
		check func(glua.LValue) bool
	}{
		{"nil", nil, func(v glua.LValue) bool { return v == glua.LNil }},
		{"true", true, func(v glua.LValue) bool { return v == glua.LTrue }},
		{"int", 42, func(v glua.LValue) bool {
			n, ok := v.(glua.LNumber)
			return ok && float64(n) == 42
		}},
		{"uint8", uint8(7), func(v glua.LValue) bool {
			n, ok := v.(glua.LNumber)
			return ok && float64(n) == 7
		}},
		{"float64", 3.14, func(v glua.LValue) bool {
			n, ok := v.(glua.LNumber)
			return ok && float64(n) == 3.14
		}},
		{"string", "hello", func(v glua.LValue) bool {
			s, ok := v.(glua.LString)
			return ok && string(s) == "hello"
		}},
		{"bytes", []byte("world"), func(v glua.LValue) bool {
			s, ok := v.(glua.LString)
			return ok && string(s) == "world"
		}},
		{"named int", plugin.TargetKind(1), func(v glua.LValue) bool {
			n, ok := v.(glua.LNumber)
			return ok && float64(n) == 1
		}},
		{"nil slice", []string(nil), func(v glua.LValue) bool { return v == glua.LNil }},
		{"string slice", []string{"a", "b"}, func(v glua.LValue) bool {
			t, ok := v.(*glua.LTable)
			return ok && t.Len() == 2 && t.RawGetInt(2) == glua.LString("b")
		}},
		{"channel", make(chan int), func(v glua.LValue) bool {
			_, ok := v.(*glua.LUserData)
			return ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bridge.ToLuaValue(tt.input)
			if !tt.check(result) {
				t.Errorf("ToLuaValue(%v) = %v (%T), check failed",
					tt.input, result, result)
			}
		})
	}
}

func TestBridgeToLuaValueKwargs(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	v := bridge.ToLuaValue(plugin.Kwargs{"loud": true, "times": 2})
	tbl, ok := v.(*glua.LTable)
	if !ok {
		t.Fatalf("ToLuaValue(Kwargs) = %T, want table", v)
	}
	if tbl.RawGetString("loud") != glua.LTrue {
		t.Errorf("loud = %v, want true", tbl.RawGetString("loud"))
	}
	if tbl.RawGetString("times") != glua.LNumber(2) {
		t.Errorf("times = %v, want 2", tbl.RawGetString("times"))
	}
}

func TestBridgeToLuaValueStruct(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	type point struct {
		X      int `json:"x,omitempty"`
		Y      int
		hidden int
	}

	v := bridge.ToLuaValue(&point{X: 1, Y: 2, hidden: 3})
	tbl, ok := v.(*glua.LTable)
	if !ok {
		t.Fatalf("ToLuaValue(struct) = %T, want table", v)
	}
	if tbl.RawGetString("x") != glua.LNumber(1) {
		t.Errorf("x = %v, want 1", tbl.RawGetString("x"))
	}
	if tbl.RawGetString("Y") != glua.LNumber(2) {
		t.Errorf("Y = %v, want 2", tbl.RawGetString("Y"))
	}
	if tbl.RawGetString("hidden") != glua.LNil {
		t.Error("unexported field converted")
	}
}

func TestBridgeGetTableFields(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	tbl := L.NewTable()
	tbl.RawSetString("label", glua.LString("x"))
	tbl.RawSetString("sort_value", glua.LNumber(-10))

	if s, ok := bridge.GetTableString(tbl, "label"); !ok || s != "x" {
		t.Errorf("GetTableString(label) = %q, %v", s, ok)
	}
	if _, ok := bridge.GetTableString(tbl, "sort_value"); ok {
		t.Error("GetTableString(sort_value) should fail for a number")
	}
	if n, ok := bridge.GetTableInt(tbl, "sort_value"); !ok || n != -10 {
		t.Errorf("GetTableInt(sort_value) = %d, %v", n, ok)
	}
	if _, ok := bridge.GetTableInt(tbl, "missing"); ok {
		t.Error("GetTableInt(missing) should fail")
	}
}

func TestBridgeCallFunc(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	bridge := NewBridge(L)

	if err := L.DoString(`function pair(a, b) return a + b, a .. b end`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	fn := L.GetGlobal("pair").(*glua.LFunction)

	results, err := bridge.CallFunc(fn, 1, 2)
	if err != nil {
		t.Fatalf("CallFunc() error = %v", err)
	}
	want := []any{int64(3), "12"}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("CallFunc() = %#v, want %#v", results, want)
	}
	if L.GetTop() != 0 {
		t.Errorf("stack not cleaned up, top = %d", L.GetTop())
	}
}
