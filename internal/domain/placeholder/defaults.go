package placeholder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/papi/internal/domain/combat"
	"github.com/okian/papi/internal/domain/player"
)

// Server exposes host-wide values to the default placeholders.
type Server interface {
	Info() player.ServerInfo
	Count() int
}

// Stats exposes combat counters to the kill placeholders.
type Stats interface {
	Kills(p player.ID) int
	Killstreak(p player.ID) int
	TopKillers(n int) []combat.Standing
}

// Layouts matching the host's locale-independent strftime output.
const (
	layoutDate     = "01/02/06"                 // %x
	layoutTime     = "15:04:05"                 // %X
	layoutDateTime = "Mon Jan _2 15:04:05 2006" // %c
)

// shortUnitsSpec names durafmt units for {uptime|short}.
const shortUnitsSpec = "y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us"

var shortUnits = mustUnits(shortUnitsSpec)

// mustUnits decodes a durafmt units spec and panics if it is malformed.
func mustUnits(spec string) durafmt.Units {
	units, err := durafmt.DefaultUnitsCoder.Decode(spec)
	if err != nil {
		panic(fmt.Sprintf("placeholder: bad duration units %q: %v", spec, err))
	}
	return units
}

// RegisterDefaults registers the player, server and date placeholders
// under owner. now supplies the wall clock.
func RegisterDefaults(r *Registry, owner string, srv Server, now func() time.Time) {
	if now == nil {
		now = time.Now
	}

	coord := func(pick func(player.Location) float64) Processor {
		return withPlayer(func(p *player.Player, params string) (string, error) {
			return formatInt(int64(pick(p.Location)), params), nil
		})
	}
	r.Register(owner, "x", coord(func(l player.Location) float64 { return l.X }))
	r.Register(owner, "y", coord(func(l player.Location) float64 { return l.Y }))
	r.Register(owner, "z", coord(func(l player.Location) float64 { return l.Z }))

	r.Register(owner, "player_name", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.Name, nil
	}))
	r.Register(owner, "dimension", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatName(p.Location.Dimension.String(), params), nil
	}))
	r.Register(owner, "dimension_id", withPlayer(func(p *player.Player, _ string) (string, error) {
		return strconv.Itoa(int(p.Location.Dimension)), nil
	}))
	r.Register(owner, "ping", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatInt(int64(p.Ping), params), nil
	}))

	r.Register(owner, "mc_version", func(_ *player.Player, _ string) (string, error) {
		return srv.Info().Version, nil
	})
	r.Register(owner, "online", func(_ *player.Player, params string) (string, error) {
		return formatInt(int64(srv.Count()), params), nil
	})
	r.Register(owner, "max_online", func(_ *player.Player, params string) (string, error) {
		return formatInt(int64(srv.Info().MaxPlayers), params), nil
	})

	clock := func(layout string) Processor {
		return func(_ *player.Player, params string) (string, error) {
			if params != "" {
				return now().Format(params), nil
			}
			return now().Format(layout), nil
		}
	}
	r.Register(owner, "date", clock(layoutDate))
	r.Register(owner, "time", clock(layoutTime))
	r.Register(owner, "datetime", clock(layoutDateTime))
	r.Register(owner, "year", clock("2006"))
	r.Register(owner, "month", clock("01"))
	r.Register(owner, "day", clock("02"))
	r.Register(owner, "hour", clock("15"))
	r.Register(owner, "minute", clock("04"))
	r.Register(owner, "second", clock("05"))

	r.Register(owner, "address", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.Address, nil
	}))
	r.Register(owner, "runtime_id", withPlayer(func(p *player.Player, _ string) (string, error) {
		return strconv.FormatInt(p.RuntimeID, 10), nil
	}))
	r.Register(owner, "exp_level", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatInt(int64(p.ExpLevel), params), nil
	}))
	r.Register(owner, "total_exp", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatInt(int64(p.TotalExp), params), nil
	}))
	r.Register(owner, "exp_progress", withPlayer(func(p *player.Player, _ string) (string, error) {
		return strconv.FormatFloat(p.ExpProgress, 'f', -1, 64), nil
	}))
	r.Register(owner, "game_mode", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatName(p.GameMode.String(), params), nil
	}))
	r.Register(owner, "xuid", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.XUID, nil
	}))
	r.Register(owner, "uuid", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.UniqueID.String(), nil
	}))
	r.Register(owner, "device_os", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.DeviceOS, nil
	}))
	r.Register(owner, "locale", withPlayer(func(p *player.Player, _ string) (string, error) {
		return p.Locale, nil
	}))

	r.Register(owner, "uptime", func(_ *player.Player, params string) (string, error) {
		up := now().Sub(srv.Info().StartedAt).Truncate(time.Second)
		if up < time.Second {
			up = 0
		}
		d := durafmt.Parse(up).LimitFirstN(2)
		if params == "short" {
			return d.Format(shortUnits), nil
		}
		return d.String(), nil
	})
}

// RegisterCombat registers the kill placeholders under owner.
func RegisterCombat(r *Registry, owner string, stats Stats) {
	r.Register(owner, "kills", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatInt(int64(stats.Kills(p.ID())), params), nil
	}))
	r.Register(owner, "killstreak", withPlayer(func(p *player.Player, params string) (string, error) {
		return formatInt(int64(stats.Killstreak(p.ID())), params), nil
	}))
	r.Register(owner, "top_killer", func(_ *player.Player, params string) (string, error) {
		rank := 1
		if params != "" {
			n, err := strconv.Atoi(params)
			if err != nil || n < 1 {
				return "", fmt.Errorf("%w: rank %q", ErrInvalidParams, params)
			}
			rank = n
		}
		top := stats.TopKillers(rank)
		if len(top) < rank {
			return "", nil
		}
		return top[rank-1].Player.String(), nil
	})
}

// withPlayer guards a processor that needs a player.
func withPlayer(fn Processor) Processor {
	return func(p *player.Player, params string) (string, error) {
		if p == nil {
			return "", ErrNoPlayer
		}
		return fn(p, params)
	}
}

// formatInt renders n, honouring the "comma" and "ordinal" params.
func formatInt(n int64, params string) string {
	switch params {
	case "comma":
		return humanize.Comma(n)
	case "ordinal":
		return humanize.Ordinal(int(n))
	default:
		return strconv.FormatInt(n, 10)
	}
}

// formatName renders an enum name in lower case, or title case with
// underscores as spaces for the "title" param. Casers keep state, so each
// call gets its own.
func formatName(name, params string) string {
	if params == "title" {
		return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
	}
	return cases.Lower(language.Und).String(name)
}
