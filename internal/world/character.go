package world

import (
	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/visit"
)

const (
	DefaultHealth = 100.0
	DefaultArmor  = 100.0
	MaxHealth     = 150.0

	characterRadius = 0.35
	// Offset of the weapon pivot from the body centre.
	weaponPivotHeight = 0.5
)

// Character is the state shared by every actor variant.
type Character struct {
	Name          string
	Body          physics.BodyID
	Pivot         scene.NodeID
	WeaponPivot   scene.NodeID
	Health        float64
	Armor         float64
	Weapons       []WeaponHandle
	CurrentWeapon int
	Team          Team
	// Position is refreshed from the physics body every tick and is what
	// gets saved.
	Position geom.Vec3
	Grounded bool

	Sender Sender
}

func NewCharacter(name string, sender Sender) Character {
	return Character{
		Name:   name,
		Health: DefaultHealth,
		Armor:  DefaultArmor,
		Sender: sender,
	}
}

// Damage applies amount (sign ignored). Armor absorbs first; whatever armor
// cannot absorb spills into health in the same call.
func (c *Character) Damage(amount float64) {
	if amount < 0 {
		amount = -amount
	}
	if c.Armor > 0 {
		c.Armor -= amount
		if c.Armor < 0 {
			c.Health += c.Armor
			c.Armor = 0
		}
		return
	}
	c.Health -= amount
}

// Heal adds amount (sign ignored) up to MaxHealth.
func (c *Character) Heal(amount float64) {
	if amount < 0 {
		amount = -amount
	}
	c.Health += amount
	if c.Health > MaxHealth {
		c.Health = MaxHealth
	}
}

func (c *Character) IsDead() bool { return c.Health <= 0 }

// CurrentWeaponHandle returns the equipped weapon or none.
func (c *Character) CurrentWeaponHandle() WeaponHandle {
	if c.CurrentWeapon >= 0 && c.CurrentWeapon < len(c.Weapons) {
		return c.Weapons[c.CurrentWeapon]
	}
	return WeaponHandle(0)
}

func (c *Character) send(m Message) {
	if c.Sender != nil {
		c.Sender.Send(m)
	}
}

func (c *Character) requestCurrentVisible(state bool) {
	if w := c.CurrentWeaponHandle(); w.IsSome() {
		c.send(ShowWeapon{Weapon: w, State: state})
	}
}

// AddWeapon equips w and hides every other weapon.
func (c *Character) AddWeapon(w WeaponHandle) {
	for _, other := range c.Weapons {
		c.send(ShowWeapon{Weapon: other, State: false})
	}
	c.CurrentWeapon = len(c.Weapons)
	c.Weapons = append(c.Weapons, w)
	c.requestCurrentVisible(true)
}

// RemoveWeapon drops w from the list and keeps the current index valid.
func (c *Character) RemoveWeapon(w WeaponHandle) {
	for i, h := range c.Weapons {
		if h != w {
			continue
		}
		c.Weapons = append(c.Weapons[:i], c.Weapons[i+1:]...)
		if c.CurrentWeapon >= len(c.Weapons) {
			c.CurrentWeapon = len(c.Weapons) - 1
		}
		if c.CurrentWeapon < 0 {
			c.CurrentWeapon = 0
		}
		c.requestCurrentVisible(true)
		return
	}
}

func (c *Character) NextWeapon() {
	if len(c.Weapons) > 0 && c.CurrentWeapon < len(c.Weapons)-1 {
		c.requestCurrentVisible(false)
		c.CurrentWeapon++
		c.requestCurrentVisible(true)
	}
}

func (c *Character) PrevWeapon() {
	if c.CurrentWeapon > 0 {
		c.requestCurrentVisible(false)
		c.CurrentWeapon--
		c.requestCurrentVisible(true)
	}
}

func (c *Character) SetCurrentWeapon(i int) {
	if i >= 0 && i < len(c.Weapons) {
		c.requestCurrentVisible(false)
		c.CurrentWeapon = i
		c.requestCurrentVisible(true)
	}
}

// HasGroundContact reports whether any contact normal points up.
func (c *Character) HasGroundContact(p physics.Physics) bool {
	for _, contact := range p.ContactsWith(c.Body) {
		// Normals are reported pointing from the other body to this one.
		if contact.Normal.Y > 0.7 {
			return true
		}
	}
	return false
}

// SyncPosition refreshes the cached position from the body.
func (c *Character) SyncPosition(p physics.Physics) geom.Vec3 {
	if pos, ok := p.BodyPosition(c.Body); ok {
		c.Position = pos
	}
	return c.Position
}

func (c *Character) SetPosition(p physics.Physics, pos geom.Vec3) {
	c.Position = pos
	p.SetBodyPosition(c.Body, pos)
}

// attach creates the body and scene nodes at the cached position.
func (c *Character) attach(p physics.Physics, sc scene.Scene, model string, radius float64) {
	if radius <= 0 {
		radius = characterRadius
	}
	c.Body = p.AddBody(physics.BodyDesc{
		Shape:    physics.ShapeSphere,
		Radius:   radius,
		Position: c.Position,
		Group:    physics.GroupActor,
		Mask:     actorMask,
	})
	c.Pivot, _ = sc.CreateNode(scene.NodeDesc{Name: c.Name, Position: c.Position, Visible: true})
	if model != "" {
		// Missing character models only cost the visual.
		if m, err := sc.CreateNode(scene.NodeDesc{Name: c.Name + " model", Model: model, Visible: true}); err == nil {
			sc.Link(m, c.Pivot)
		}
	}
	c.WeaponPivot, _ = sc.CreateNode(scene.NodeDesc{
		Name:     c.Name + " weapon pivot",
		Position: geom.V(0.2, weaponPivotHeight, 0.3),
		Visible:  true,
	})
	sc.Link(c.WeaponPivot, c.Pivot)
}

// cleanUp releases the body and nodes.
func (c *Character) cleanUp(p physics.Physics, sc scene.Scene) {
	p.RemoveBody(c.Body)
	sc.RemoveNode(c.Pivot)
	c.Body = physics.NoBody
	c.Pivot = scene.NoNode
	c.WeaponPivot = scene.NoNode
}

func (c *Character) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		if err := v.String("Name", &c.Name); err != nil {
			return err
		}
		if err := v.Vec3("Position", &c.Position); err != nil {
			return err
		}
		if err := v.Float("Health", &c.Health); err != nil {
			return err
		}
		if err := v.Float("Armor", &c.Armor); err != nil {
			return err
		}
		if err := visit.Slice(v, "Weapons", &c.Weapons, func(v *visit.Visitor, h *WeaponHandle) error {
			return pool.VisitHandle(v, "Handle", h)
		}); err != nil {
			return err
		}
		if err := v.Int("CurrentWeapon", &c.CurrentWeapon); err != nil {
			return err
		}
		return match.VisitTeam(v, "Team", &c.Team)
	})
}
