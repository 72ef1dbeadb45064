package world

import (
	"fmt"

	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/visit"
)

const (
	// Landing faster than this hurts.
	fallDamageSpeed = 12.0
	fallDamageScale = 5.0
	groundNormalY   = 0.7
)

// ActorKind tags the variant stored in an Actor. The numeric value is the
// save id.
type ActorKind uint8

const (
	ActorPlayer ActorKind = iota
	ActorBot
)

func (k ActorKind) String() string {
	if k == ActorBot {
		return "bot"
	}
	return "player"
}

// Actor is either a player or a bot. Exactly one of Player and Bot is set,
// matching Kind.
type Actor struct {
	Character
	Kind   ActorKind
	Player *Player
	Bot    *Bot
}

func NewPlayer(name string, sender Sender) Actor {
	return Actor{Character: NewCharacter(name, sender), Kind: ActorPlayer, Player: &Player{}}
}

func NewBot(def *data.BotDefinition, name string, sender Sender) Actor {
	a := Actor{Character: NewCharacter(name, sender), Kind: ActorBot, Bot: NewBotState(def)}
	a.Health = def.Health
	return a
}

func (a *Actor) IsPlayer() bool { return a.Kind == ActorPlayer }
func (a *Actor) IsBot() bool    { return a.Kind == ActorBot }

func (a *Actor) update(ctx *UpdateContext, self ActorHandle) {
	pos := a.SyncPosition(ctx.Physics)
	ctx.Scene.SetLocalPosition(a.Pivot, pos)
	a.Grounded = a.HasGroundContact(ctx.Physics)

	if ctx.Items != nil {
		if item, ok := ctx.Items.Nearest(pos, PickupRadius); ok {
			ctx.Sender.Send(PickUpItem{Actor: self, Item: item})
		}
	}

	switch a.Kind {
	case ActorPlayer:
		a.Player.update(ctx, &a.Character)
	case ActorBot:
		a.Bot.update(ctx, self, &a.Character)
	}
}

func (a *Actor) attach(ctx *UpdateContext) error {
	var (
		model  string
		radius float64
	)
	switch a.Kind {
	case ActorBot:
		def := ctx.Defs.Bot(a.Bot.Kind)
		if def == nil {
			return fmt.Errorf("no definition for bot kind %s", a.Bot.Kind)
		}
		a.Bot.Def = def
		model, radius = def.Model, def.Radius
	case ActorPlayer:
		if a.Player == nil {
			a.Player = &Player{}
		}
	}
	a.Sender = ctx.Sender
	a.Character.attach(ctx.Physics, ctx.Scene, model, radius)
	if a.Kind == ActorPlayer {
		a.Player.attach(ctx.Scene, &a.Character)
	}
	return nil
}

// CameraPosition is the world position the actor looks from.
func (a *Actor) CameraPosition(sc scene.Scene) geom.Vec3 {
	if a.Kind == ActorPlayer && a.Player.Camera != scene.NoNode {
		return sc.WorldPosition(a.Player.Camera)
	}
	return a.Position.Add(geom.V(0, cameraHeight, 0))
}

func (a *Actor) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		id := int(a.Kind)
		if err := v.Int("KindId", &id); err != nil {
			return err
		}
		if v.IsReading() {
			switch ActorKind(id) {
			case ActorPlayer:
				a.Kind, a.Player, a.Bot = ActorPlayer, &Player{}, nil
			case ActorBot:
				a.Kind, a.Player, a.Bot = ActorBot, nil, &Bot{}
			default:
				return fmt.Errorf("invalid actor kind %d", id)
			}
		}
		if err := a.Character.Visit(v, "Character"); err != nil {
			return err
		}
		return v.Region("Data", func() error {
			if a.Kind == ActorBot {
				return a.Bot.visit(v)
			}
			return a.Player.visit(v)
		})
	})
}

// ActorContainer owns every actor of a level.
type ActorContainer struct {
	pool *pool.Pool[Actor]
}

func NewActorContainer() *ActorContainer {
	return &ActorContainer{pool: pool.New[Actor]()}
}

func (c *ActorContainer) Get(h ActorHandle) (*Actor, bool) { return c.pool.Get(h) }
func (c *ActorContainer) Contains(h ActorHandle) bool      { return c.pool.Contains(h) }
func (c *ActorContainer) Len() int                         { return c.pool.Len() }
func (c *ActorContainer) Handles() []ActorHandle           { return c.pool.Handles() }

func (c *ActorContainer) Each(fn func(ActorHandle, *Actor)) { c.pool.Each(fn) }

// Spawn places a at position, creates its body and nodes and stores it.
func (c *ActorContainer) Spawn(ctx *UpdateContext, a Actor, position geom.Vec3) (ActorHandle, error) {
	a.Position = position
	if err := a.attach(ctx); err != nil {
		return ActorHandle(0), err
	}
	return c.pool.Spawn(a), nil
}

// Free removes the actor and releases its body and nodes. Weapons are left
// to the caller.
func (c *ActorContainer) Free(h ActorHandle, ph physics.Physics, sc scene.Scene) (Actor, bool) {
	a, ok := c.pool.Get(h)
	if !ok {
		return Actor{}, false
	}
	a.cleanUp(ph, sc)
	return c.pool.Free(h)
}

// ByBody finds the actor owning body.
func (c *ActorContainer) ByBody(body physics.BodyID) (ActorHandle, bool) {
	if body == physics.NoBody {
		return ActorHandle(0), false
	}
	var (
		found ActorHandle
		ok    bool
	)
	c.pool.Each(func(h ActorHandle, a *Actor) {
		if !ok && a.Body == body {
			found, ok = h, true
		}
	})
	return found, ok
}

// Player returns the player actor if one is alive.
func (c *ActorContainer) Player() (ActorHandle, bool) {
	var (
		found ActorHandle
		ok    bool
	)
	c.pool.Each(func(h ActorHandle, a *Actor) {
		if !ok && a.IsPlayer() {
			found, ok = h, true
		}
	})
	return found, ok
}

// CountBots returns how many bots are alive.
func (c *ActorContainer) CountBots() int {
	n := 0
	c.pool.Each(func(_ ActorHandle, a *Actor) {
		if a.IsBot() {
			n++
		}
	})
	return n
}

func (c *ActorContainer) Update(ctx *UpdateContext) {
	c.pool.Each(func(h ActorHandle, a *Actor) { a.update(ctx, h) })
}

// HandleContact updates ground state from a contact event and applies fall
// damage on hard landings.
func (c *ActorContainer) HandleContact(ev physics.ContactEvent, ctx *UpdateContext) {
	c.pool.Each(func(h ActorHandle, a *Actor) {
		var normal geom.Vec3
		switch a.Body {
		case ev.A:
			normal = ev.Normal
		case ev.B:
			normal = ev.Normal.Scale(-1)
		default:
			return
		}
		if !ev.Started {
			a.Grounded = a.HasGroundContact(ctx.Physics)
			return
		}
		if normal.Y <= groundNormalY {
			return
		}
		a.Grounded = true
		if ev.ImpactSpeed > fallDamageSpeed {
			ctx.Sender.Send(DamageActor{Actor: h, Amount: (ev.ImpactSpeed - fallDamageSpeed) * fallDamageScale})
		}
	})
}

// Attach recreates bodies and nodes of loaded actors.
func (c *ActorContainer) Attach(ctx *UpdateContext) error {
	var err error
	c.pool.Each(func(_ ActorHandle, a *Actor) {
		if err == nil {
			err = a.attach(ctx)
		}
	})
	return err
}

// Clear frees every actor.
func (c *ActorContainer) Clear(ph physics.Physics, sc scene.Scene) {
	for _, a := range c.pool.Retain(func(ActorHandle, *Actor) bool { return false }) {
		a.cleanUp(ph, sc)
	}
}

func (c *ActorContainer) Visit(v *visit.Visitor, name string) error {
	return c.pool.Visit(v, name, func(v *visit.Visitor, a *Actor) error { return a.Visit(v, "Actor") })
}
