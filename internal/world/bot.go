package world

import (
	"math"

	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/visit"
)

const (
	wanderRadius   = 8.0
	wanderInterval = 5.0
	arriveDistance = 0.5
	eyeHeight      = 0.5
)

// yawVector returns the X and Z components of the horizontal direction
// with the given yaw.
func yawVector(yaw float64) (x, z float64) {
	return math.Sincos(yaw)
}

// Bot is the AI controlled actor variant.
type Bot struct {
	Kind data.BotKind
	Def  *data.BotDefinition

	Target ActorHandle
	// PointOfInterest is where the bot was last attacked from.
	PointOfInterest    geom.Vec3
	PointOfInterestAt  float64
	HasPointOfInterest bool

	Yaw         float64
	Pitch       float64
	Wander      geom.Vec3
	WanderTimer float64
}

func NewBotState(def *data.BotDefinition) *Bot {
	return &Bot{Kind: def.Kind, Def: def}
}

// SetPointOfInterest remembers a position to investigate.
func (b *Bot) SetPointOfInterest(p geom.Vec3, now float64) {
	b.PointOfInterest = p
	b.PointOfInterestAt = now
	b.HasPointOfInterest = true
}

// selectTarget picks the closest visible enemy within view distance.
func (b *Bot) selectTarget(ctx *UpdateContext, self ActorHandle, c *Character) {
	b.Target = ActorHandle(0)
	best := b.Def.ViewDistance
	eye := c.Position.Add(geom.V(0, eyeHeight, 0))
	ctx.Actors.Each(func(h ActorHandle, other *Actor) {
		if h == self || other.IsDead() {
			return
		}
		if c.Team != TeamNone && other.Team == c.Team {
			return
		}
		d := other.Position.Dist(c.Position)
		if d > best {
			return
		}
		if hit, ok := physics.FirstHit(ctx.Physics, eye, other.Position, c.Body); ok && hit.Body != other.Body {
			return
		}
		best = d
		b.Target = h
	})
}

func (b *Bot) view(ctx *UpdateContext, c *Character) BotView {
	v := BotView{
		Name:           c.Name,
		Kind:           b.Kind,
		Position:       c.Position,
		Health:         c.Health,
		Armor:          c.Armor,
		Time:           ctx.Time.Elapsed,
		Grounded:       c.Grounded,
		ViewDistance:   b.Def.ViewDistance,
		AttackDistance: b.Def.AttackDistance,
	}
	if w, ok := ctx.Weapons.Get(c.CurrentWeaponHandle()); ok {
		v.Ammo = w.Ammo
	}
	if t, ok := ctx.Actors.Get(b.Target); ok {
		v.HasTarget = true
		v.TargetName = t.Name
		v.TargetPosition = t.Position
		v.TargetDistance = t.Position.Dist(c.Position)
	}
	if b.HasPointOfInterest {
		v.HasPointOfInterest = true
		v.PointOfInterest = b.PointOfInterest
		v.PointOfInterestAge = ctx.Time.Elapsed - b.PointOfInterestAt
	}
	return v
}

func (b *Bot) update(ctx *UpdateContext, self ActorHandle, c *Character) {
	b.selectTarget(ctx, self, c)

	brain := ctx.Brain
	if brain == nil {
		brain = DefaultBrain{}
	}
	cmds := brain.Think(b.view(ctx, c))

	vel := ctx.Physics.BodyVelocity(c.Body)
	var move geom.Vec3
	for _, cmd := range cmds {
		switch cmd.Kind {
		case CommandMoveTo:
			move = b.steer(c.Position, cmd.Target)
		case CommandStrafe:
			x, z := yawVector(b.Yaw)
			side := geom.Up.Cross(geom.V(x, 0, z))
			move = side.Scale(math.Copysign(b.Def.MoveSpeed, cmd.Side))
		case CommandWander:
			b.WanderTimer -= ctx.Time.Delta
			if b.WanderTimer <= 0 || b.Wander.Dist(c.Position) < arriveDistance {
				b.pickWanderPoint(ctx, c.Position)
			}
			move = b.steer(c.Position, b.Wander)
		case CommandJump:
			if c.Grounded {
				vel.Y = jumpSpeed
				c.Grounded = false
			}
		case CommandShoot:
			b.shoot(ctx, c, vel, cmd.Target)
		case CommandIdle:
			move = geom.Zero
		}
	}
	vel.X, vel.Z = move.X, move.Z
	ctx.Physics.SetLinearVelocity(c.Body, vel)

	if t, ok := ctx.Actors.Get(b.Target); ok {
		b.face(t.Position.Sub(c.Position))
	}
	ctx.Scene.SetRotation(c.Pivot, b.Yaw, 0)
	ctx.Scene.SetRotation(c.WeaponPivot, 0, b.Pitch)
}

// steer returns the horizontal velocity towards target and turns the bot.
func (b *Bot) steer(from, target geom.Vec3) geom.Vec3 {
	d := target.Sub(from)
	d.Y = 0
	if d.Len() < arriveDistance {
		return geom.Zero
	}
	b.face(d)
	return d.NormalizeOr(geom.Zero).Scale(b.Def.MoveSpeed)
}

func (b *Bot) face(d geom.Vec3) {
	n, ok := d.Normalize()
	if !ok {
		return
	}
	b.Yaw = math.Atan2(n.X, n.Z)
	b.Pitch = -math.Asin(n.Y)
}

func (b *Bot) pickWanderPoint(ctx *UpdateContext, from geom.Vec3) {
	b.WanderTimer = wanderInterval
	angle := 2 * math.Pi
	dist := wanderRadius
	if ctx.Rand != nil {
		angle *= ctx.Rand.Float64()
		dist *= ctx.Rand.Float64()
	}
	x, z := yawVector(angle)
	b.Wander = from.Add(geom.V(x*dist, 0, z*dist))
}

func (b *Bot) shoot(ctx *UpdateContext, c *Character, vel, target geom.Vec3) {
	w, ok := ctx.Weapons.Get(c.CurrentWeaponHandle())
	if !ok {
		return
	}
	dir, ok := target.Sub(w.ShotPosition).Normalize()
	if !ok {
		return
	}
	ctx.Sender.Send(ShootWeapon{
		Weapon:          c.CurrentWeaponHandle(),
		InitialVelocity: geom.V(vel.X, 0, vel.Z),
		Direction:       dir,
		HasDirection:    true,
	})
}

func (b *Bot) visit(v *visit.Visitor) error {
	id := int(b.Kind)
	if err := v.Int("BotKind", &id); err != nil {
		return err
	}
	if v.IsReading() {
		kind, err := data.BotKindFromID(id)
		if err != nil {
			return err
		}
		b.Kind = kind
	}
	if err := v.Vec3("PointOfInterest", &b.PointOfInterest); err != nil {
		return err
	}
	if err := v.Float("PointOfInterestAt", &b.PointOfInterestAt); err != nil {
		return err
	}
	if err := v.Bool("HasPointOfInterest", &b.HasPointOfInterest); err != nil {
		return err
	}
	return v.Float("Yaw", &b.Yaw)
}
