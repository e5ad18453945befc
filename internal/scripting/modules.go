package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log and world submodules.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "world", m.worldModule(L))
}

// logModule exposes engine.log.debug/info/warn/error, forwarding the first
// string argument to the manager's logger.
func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	logFn := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}

	tbl := L.NewTable()
	L.SetField(tbl, "debug", L.NewFunction(logFn(m.logger.Debug)))
	L.SetField(tbl, "info", L.NewFunction(logFn(m.logger.Info)))
	L.SetField(tbl, "warn", L.NewFunction(logFn(m.logger.Warn)))
	L.SetField(tbl, "error", L.NewFunction(logFn(m.logger.Error)))
	return tbl
}

// worldModule exposes engine.world.broadcast(room_id, text) and
// engine.world.query_room(room_id). Both are no-ops returning nil while the
// matching callback is unset.
func (m *Manager) worldModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "broadcast", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		text := L.CheckString(2)
		if m.Broadcast != nil {
			m.Broadcast(roomID, text)
		}
		return 0
	}))

	L.SetField(tbl, "query_room", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		if m.QueryRoom == nil {
			L.Push(lua.LNil)
			return 1
		}
		room := m.QueryRoom(roomID)
		if room == nil {
			L.Push(lua.LNil)
			return 1
		}
		rt := L.NewTable()
		L.SetField(rt, "id", lua.LString(room.ID))
		L.SetField(rt, "title", lua.LString(room.Title))
		L.Push(rt)
		return 1
	}))

	return tbl
}
