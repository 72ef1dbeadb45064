package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/world"
)

const botAIFunc = "bot_ai"

// BotBrain lets Lua drive bots. The script defines
//
//	function bot_ai(ctx) return { {cmd = "move_to", x = 0, y = 0, z = 0}, ... } end
//
// Any failure falls back to the built-in brain for that tick.
type BotBrain struct {
	engine   *Engine
	fallback world.Brain
	failures uint64
}

func NewBotBrain(e *Engine) *BotBrain {
	return &BotBrain{engine: e, fallback: world.DefaultBrain{}}
}

// Failures counts ticks that fell back to the built-in brain.
func (b *BotBrain) Failures() uint64 { return b.failures }

func (b *BotBrain) Think(view world.BotView) []world.BotCommand {
	cmds, ok := b.think(view)
	if !ok {
		b.failures++
		return b.fallback.Think(view)
	}
	return cmds
}

func (b *BotBrain) think(view world.BotView) ([]world.BotCommand, bool) {
	e := b.engine
	fn := e.vm.GetGlobal(botAIFunc)
	if fn == lua.LNil {
		return nil, false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.viewTable(view)); err != nil {
		e.log.Warn("lua bot_ai error", zap.String("bot", view.Name), zap.Error(err))
		return nil, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Warn("lua bot_ai returned non-table", zap.String("bot", view.Name))
		return nil, false
	}

	var cmds []world.BotCommand
	valid := true
	rt.ForEach(func(_, v lua.LValue) {
		ct, ok := v.(*lua.LTable)
		if !ok {
			valid = false
			return
		}
		kind, ok := world.ParseCommandKind(lua.LVAsString(ct.RawGetString("cmd")))
		if !ok {
			e.log.Warn("lua bot_ai unknown command",
				zap.String("bot", view.Name),
				zap.String("cmd", lua.LVAsString(ct.RawGetString("cmd"))))
			valid = false
			return
		}
		cmds = append(cmds, world.BotCommand{
			Kind: kind,
			Target: geom.V(
				float64(lua.LVAsNumber(ct.RawGetString("x"))),
				float64(lua.LVAsNumber(ct.RawGetString("y"))),
				float64(lua.LVAsNumber(ct.RawGetString("z"))),
			),
			Side: float64(lua.LVAsNumber(ct.RawGetString("side"))),
		})
	})
	if !valid {
		return nil, false
	}
	return cmds, true
}

func (e *Engine) vecTable(v geom.Vec3) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

func (e *Engine) viewTable(view world.BotView) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(view.Name))
	t.RawSetString("kind", lua.LString(view.Kind.String()))
	t.RawSetString("position", e.vecTable(view.Position))
	t.RawSetString("health", lua.LNumber(view.Health))
	t.RawSetString("armor", lua.LNumber(view.Armor))
	t.RawSetString("ammo", lua.LNumber(view.Ammo))
	t.RawSetString("time", lua.LNumber(view.Time))
	t.RawSetString("grounded", lua.LBool(view.Grounded))
	t.RawSetString("view_distance", lua.LNumber(view.ViewDistance))
	t.RawSetString("attack_distance", lua.LNumber(view.AttackDistance))

	if view.HasTarget {
		tgt := e.vm.NewTable()
		tgt.RawSetString("name", lua.LString(view.TargetName))
		tgt.RawSetString("position", e.vecTable(view.TargetPosition))
		tgt.RawSetString("distance", lua.LNumber(view.TargetDistance))
		t.RawSetString("target", tgt)
	}
	if view.HasPointOfInterest {
		poi := e.vecTable(view.PointOfInterest)
		poi.RawSetString("age", lua.LNumber(view.PointOfInterestAge))
		t.RawSetString("point_of_interest", poi)
	}
	return t
}
