// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package backend

import (
	"bufio"
	"context"
	"os"
	"sync"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Lua delegates the decision to a function of a Lua script. The function is called with username, password and
// source address and must return a boolean.
type Lua struct {
	function string
	proto    *lua.FunctionProto
	states   sync.Pool
	logger   kitlog.Logger
}

// NewLua is the Factory of the lua backend.
func NewLua(deps Deps) (Backend, error) {
	luaCfg := deps.Cfg.GetLua()

	if luaCfg.GetScriptPath() == "" {
		return nil, errors.ErrLuaConfig.WithDetail("lua.script_path is required")
	}

	proto, err := compileLua(luaCfg.GetScriptPath())
	if err != nil {
		return nil, errors.ErrLuaConfig.WithDetail(err.Error())
	}

	return newLua(proto, luaCfg.GetFunction(), log.OrDefault(deps.Logger))
}

func newLua(proto *lua.FunctionProto, function string, logger kitlog.Logger) (*Lua, error) {
	backend := &Lua{
		function: function,
		proto:    proto,
		logger:   logger,
	}

	// Probe the script once, so a missing function is a configuration error.
	L, err := backend.newState()
	if err != nil {
		return nil, errors.ErrLuaConfig.WithDetail(err.Error())
	}

	if L.GetGlobal(function).Type() != lua.LTFunction {
		L.Close()

		return nil, errors.ErrLuaConfig.WithDetail("function '" + function + "' not defined")
	}

	backend.states.Put(L)

	return backend, nil
}

// compileLua reads the passed lua file from disk and compiles it.
func compileLua(filePath string) (*lua.FunctionProto, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	chunk, err := parse.Parse(bufio.NewReader(file), filePath)
	if err != nil {
		return nil, err
	}

	return lua.Compile(chunk, filePath)
}

func (b *Lua) newState() (*lua.LState, error) {
	L := lua.NewState()

	L.Push(L.NewFunctionFromProto(b.proto))

	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()

		return nil, err
	}

	return L, nil
}

func (b *Lua) getState() (*lua.LState, error) {
	if L, ok := b.states.Get().(*lua.LState); ok && L != nil {
		return L, nil
	}

	return b.newState()
}

// CheckLogin implements Backend.
func (b *Lua) CheckLogin(ctx context.Context, username string, password string, sourceAddress string) bool {
	L, err := b.getState()
	if err != nil {
		level.Error(b.logger).Log(definitions.LogKeyMsg, "lua state", definitions.LogKeyError, err)

		return false
	}

	L.SetContext(ctx)

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal(b.function),
		NRet:    1,
		Protect: true,
	}, lua.LString(username), lua.LString(password), lua.LString(sourceAddress))
	if err != nil {
		level.Error(b.logger).Log(
			definitions.LogKeyMsg, "lua check failed",
			definitions.LogKeyUsername, username,
			definitions.LogKeyError, errors.ErrBackendLua.WithDetail(err.Error()),
		)

		// The stack may be in any state after an error or a cancellation.
		L.Close()

		return false
	}

	result := L.Get(-1)

	L.Pop(1)
	L.RemoveContext()
	b.states.Put(L)

	return lua.LVAsBool(result)
}
