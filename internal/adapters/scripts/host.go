// Package scripts loads Lua files that register placeholders the way a
// third-party plugin would.
//
// Each file is an owner named after the file. Inside it a global
// papi.register(identifier, fn) registers fn(player, params), where player
// is a table of the snapshot fields (or nil) and the return value is the
// replacement. Returning nil leaves the token untouched.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/okian/papi/internal/domain/placeholder"
	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/pkg/logger"
)

// processorsTable holds registered Lua functions keyed by owner:identifier#seq.
const processorsTable = "__papi_processors"

// Stats exposes kill counters to the player table.
type Stats interface {
	Kills(p player.ID) int
	Killstreak(p player.ID) int
}

// Host owns a single Lua state. The state is not goroutine safe, so every
// entry into it holds mu.
type Host struct {
	mu       sync.Mutex
	state    *lua.State
	registry *placeholder.Registry
	stats    Stats
	logger   logger.Logger

	loading string                    // owner of the chunk currently running
	owned   map[string][]registration // owner -> what its script registered
	seq     int
}

// registration pairs a stored Lua function with the registry identifier it
// was registered under.
type registration struct {
	key        string
	identifier string
}

// New creates a host registering into r.
func New(r *placeholder.Registry, opts ...Option) *Host {
	h := &Host{
		state:    lua.NewState(),
		registry: r,
		logger:   logger.Nop(),
		owned:    make(map[string][]registration),
	}
	for _, opt := range opts {
		opt(h)
	}
	lua.OpenLibraries(h.state)

	h.state.NewTable()
	h.state.SetGlobal(processorsTable)

	h.state.NewTable()
	lua.SetFunctions(h.state, []lua.RegistryFunction{
		{Name: "register", Function: h.luaRegister},
	}, 0)
	h.state.SetGlobal("papi")
	return h
}

// LoadDir runs every *.lua file in dir in name order. A missing dir loads
// nothing. Failing files are logged and skipped; their errors are joined.
func (h *Host) LoadDir(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScript, err)
	}
	sort.Strings(files)

	var (
		loaded int
		errs   []error
	)
	for _, f := range files {
		owner := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		src, err := os.ReadFile(f)
		if err == nil {
			err = h.LoadString(owner, string(src))
		}
		if err != nil {
			h.logger.Error(ctx, "script load failed", logger.String("file", f), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		loaded++
		h.logger.Info(ctx, "script loaded", logger.String("owner", owner))
	}
	return loaded, errors.Join(errs...)
}

// LoadString runs src as the script for owner. A previous load of the same
// owner is unloaded first, and a failing script keeps nothing it registered.
func (h *Host) LoadString(owner, src string) error {
	h.Unload(owner)
	if err := h.run(owner, src); err != nil {
		h.Unload(owner)
		return err
	}
	return nil
}

func (h *Host) run(owner, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.loading = owner
	defer func() { h.loading = "" }()

	base := h.state.Top()
	defer h.state.SetTop(base)

	if err := lua.LoadString(h.state, src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScript, owner, err)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScript, owner, err)
	}
	return nil
}

// Unload drops the placeholders owner's script registered. Placeholders
// registered outside the host under the same owner name are left alone.
func (h *Host) Unload(owner string) int {
	h.mu.Lock()
	regs := h.owned[owner]
	delete(h.owned, owner)
	if len(regs) > 0 {
		h.state.Global(processorsTable)
		for _, reg := range regs {
			h.state.PushNil()
			h.state.SetField(-2, reg.key)
		}
		h.state.Pop(1)
	}
	h.mu.Unlock()

	removed := 0
	for _, reg := range regs {
		if h.registry.Unregister(owner, reg.identifier) {
			removed++
		}
	}
	return removed
}

// Owners lists loaded script owners.
func (h *Host) Owners() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.owned))
	for o := range h.owned {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// luaRegister implements papi.register(identifier, fn) -> boolean.
func (h *Host) luaRegister(l *lua.State) int {
	id := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	if h.loading == "" {
		lua.Errorf(l, "papi.register called outside script load")
	}
	owner := h.loading
	h.seq++
	key := fmt.Sprintf("%s:%s#%d", owner, id, h.seq)

	l.Global(processorsTable)
	l.PushValue(2)
	l.SetField(-2, key)
	l.Pop(1)

	registered, ok := h.registry.RegisterAs(owner, id, h.processor(key))
	if ok {
		h.owned[owner] = append(h.owned[owner], registration{key: key, identifier: registered})
	} else {
		l.Global(processorsTable)
		l.PushNil()
		l.SetField(-2, key)
		l.Pop(1)
	}
	l.PushBoolean(ok)
	return 1
}

// processor bridges a stored Lua function to a placeholder.Processor.
func (h *Host) processor(key string) placeholder.Processor {
	return func(p *player.Player, params string) (string, error) {
		h.mu.Lock()
		defer h.mu.Unlock()

		l := h.state
		base := l.Top()
		defer l.SetTop(base)

		l.Global(processorsTable)
		l.Field(-1, key)
		if !l.IsFunction(-1) {
			return "", fmt.Errorf("%w: %s is unloaded", ErrScript, key)
		}
		h.pushPlayer(p)
		l.PushString(params)
		if err := l.ProtectedCall(2, 1, 0); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrScript, key, err)
		}
		if l.IsNil(-1) {
			return "", placeholder.ErrNoValue
		}
		s, ok := lua.ToStringMeta(l, -1)
		if !ok {
			return "", fmt.Errorf("%w: %s returned %s", ErrScript, key, lua.TypeNameOf(l, -1))
		}
		return s, nil
	}
}

func (h *Host) pushPlayer(p *player.Player) {
	l := h.state
	if p == nil {
		l.PushNil()
		return
	}
	l.NewTable()
	str := func(k, v string) {
		l.PushString(v)
		l.SetField(-2, k)
	}
	num := func(k string, v float64) {
		l.PushNumber(v)
		l.SetField(-2, k)
	}
	integer := func(k string, v int) {
		l.PushInteger(v)
		l.SetField(-2, k)
	}

	str("name", p.Name)
	str("uuid", p.UniqueID.String())
	str("xuid", p.XUID)
	integer("runtime_id", int(p.RuntimeID))
	str("address", p.Address)
	integer("ping", p.Ping)
	num("x", p.Location.X)
	num("y", p.Location.Y)
	num("z", p.Location.Z)
	str("dimension", p.Location.Dimension.String())
	integer("dimension_id", int(p.Location.Dimension))
	integer("exp_level", p.ExpLevel)
	integer("total_exp", p.TotalExp)
	num("exp_progress", p.ExpProgress)
	str("game_mode", p.GameMode.String())
	str("device_os", p.DeviceOS)
	str("locale", p.Locale)
	if h.stats != nil {
		integer("kills", h.stats.Kills(p.ID()))
		integer("killstreak", h.stats.Killstreak(p.ID()))
	}
}
