package highlight

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// LuaTimeout bounds a rule script's execution.
const LuaTimeout = 2 * time.Second

// RunLua executes a rule script and collects the rules it declares.
//
// The script sees two globals:
//
//	highlight("ttt", "red", "bold", "underline")
//	highlight{pattern = "gattaca", fg = "#00ff00", bg = "black", attrs = {"italic"}, token = "Keyword"}
//	theme("monokai")
//
// Only the base, table, string and math libraries are opened.
func RunLua(name, script string) (*RuleSet, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibraries(L)

	ctx, cancel := context.WithTimeout(context.Background(), LuaTimeout)
	defer cancel()
	L.SetContext(ctx)

	rs := &RuleSet{}
	L.SetGlobal("highlight", L.NewFunction(func(L *lua.LState) int {
		r, err := luaRule(L)
		if err != nil {
			L.RaiseError("highlight: %v", err)
			return 0
		}
		rs.Rules = append(rs.Rules, r)
		return 0
	}))
	L.SetGlobal("theme", L.NewFunction(func(L *lua.LState) int {
		rs.Theme = L.CheckString(1)
		return 0
	}))

	if err := doWithRecovery(func() error { return L.DoString(script) }); err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}
	return rs, nil
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// luaRule reads the arguments of a highlight call in either form.
func luaRule(L *lua.LState) (Rule, error) {
	if tbl, ok := L.Get(1).(*lua.LTable); ok {
		r := Rule{
			Pattern:    lua.LVAsString(tbl.RawGetString("pattern")),
			Name:       lua.LVAsString(tbl.RawGetString("name")),
			Foreground: lua.LVAsString(tbl.RawGetString("fg")),
			Background: lua.LVAsString(tbl.RawGetString("bg")),
			Token:      lua.LVAsString(tbl.RawGetString("token")),
		}
		if attrs, ok := tbl.RawGetString("attrs").(*lua.LTable); ok {
			attrs.ForEach(func(_, v lua.LValue) {
				r.Attributes = append(r.Attributes, lua.LVAsString(v))
			})
		}
		if r.Pattern == "" {
			return Rule{}, fmt.Errorf("missing pattern")
		}
		return r, nil
	}

	r := Rule{
		Pattern:    L.CheckString(1),
		Foreground: L.OptString(2, ""),
	}
	for i := 3; i <= L.GetTop(); i++ {
		r.Attributes = append(r.Attributes, L.CheckString(i))
	}
	return r, nil
}
