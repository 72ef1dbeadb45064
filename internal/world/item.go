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

// PickupRadius is how close an actor has to be to collect an item.
const PickupRadius = 1.25

// Item is a pickup lying in the level. Map items reactivate after being
// picked up; dropped items have a lifetime and disappear for good.
type Item struct {
	Kind     data.ItemKind
	Def      *data.ItemDefinition
	Position geom.Vec3
	// Lifetime is nil for map items.
	Lifetime          *float64
	PickedUp          bool
	ReactivationTimer float64

	Model  scene.NodeID
	Sender Sender
}

func NewItem(def *data.ItemDefinition, position geom.Vec3, sender Sender) Item {
	return Item{Kind: def.Kind, Def: def, Position: position, Sender: sender}
}

// SetLifetime makes the item expire after t seconds.
func (it *Item) SetLifetime(t float64) {
	it.Lifetime = &t
}

// IsActive reports whether the item can be picked up right now.
func (it *Item) IsActive() bool { return !it.PickedUp }

// IsDead reports whether the item should be removed from the level.
func (it *Item) IsDead() bool {
	if it.Lifetime == nil {
		return false
	}
	return *it.Lifetime <= 0 || it.PickedUp
}

// PickUp deactivates the item and starts its reactivation countdown.
func (it *Item) PickUp(sc scene.Scene) {
	it.PickedUp = true
	it.ReactivationTimer = it.Def.ReactivationTime
	sc.SetVisible(it.Model, false)
}

func (it *Item) Update(ctx *UpdateContext) {
	if it.Lifetime != nil {
		*it.Lifetime -= ctx.Time.Delta
		return
	}
	if !it.PickedUp {
		return
	}
	it.ReactivationTimer -= ctx.Time.Delta
	if it.ReactivationTimer <= 0 {
		it.PickedUp = false
		it.ReactivationTimer = 0
		ctx.Scene.SetVisible(it.Model, true)
		if it.Sender != nil {
			it.Sender.Send(CreateEffect{Kind: EffectItemAppear, Position: it.Position})
		}
	}
}

func (it *Item) attach(ctx *UpdateContext) {
	it.Model = createNode(ctx.Scene, ctx.Log, scene.NodeDesc{
		Name:     it.Kind.String(),
		Model:    it.Def.Model,
		Position: it.Position,
		Visible:  !it.PickedUp,
	})
}

func (it *Item) cleanUp(sc scene.Scene) {
	sc.RemoveNode(it.Model)
	it.Model = scene.NoNode
}

func (it *Item) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		id := int(it.Kind)
		if err := v.Int("KindId", &id); err != nil {
			return err
		}
		if v.IsReading() {
			kind, err := data.ItemKindFromID(id)
			if err != nil {
				return err
			}
			it.Kind = kind
		}
		if err := v.Vec3("Position", &it.Position); err != nil {
			return err
		}
		if err := v.OptionalFloat("Lifetime", &it.Lifetime); err != nil {
			return err
		}
		if err := v.Bool("PickedUp", &it.PickedUp); err != nil {
			return err
		}
		return v.Float("ReactivationTimer", &it.ReactivationTimer)
	})
}

// ItemContainer owns every pickup of a level.
type ItemContainer struct {
	pool *pool.Pool[Item]
}

func NewItemContainer() *ItemContainer {
	return &ItemContainer{pool: pool.New[Item]()}
}

func (c *ItemContainer) Add(it Item) ItemHandle          { return c.pool.Spawn(it) }
func (c *ItemContainer) Get(h ItemHandle) (*Item, bool)  { return c.pool.Get(h) }
func (c *ItemContainer) Contains(h ItemHandle) bool      { return c.pool.Contains(h) }
func (c *ItemContainer) Len() int                        { return c.pool.Len() }
func (c *ItemContainer) Each(fn func(ItemHandle, *Item)) { c.pool.Each(fn) }

// Nearest returns the closest active item within radius of position.
func (c *ItemContainer) Nearest(position geom.Vec3, radius float64) (ItemHandle, bool) {
	var (
		best     ItemHandle
		bestDist = radius
		found    bool
	)
	c.pool.Each(func(h ItemHandle, it *Item) {
		if !it.IsActive() {
			return
		}
		if d := it.Position.Dist(position); d <= bestDist {
			best, bestDist, found = h, d, true
		}
	})
	return best, found
}

// Spawn stores it and creates its model.
func (c *ItemContainer) Spawn(ctx *UpdateContext, it Item) ItemHandle {
	it.Sender = ctx.Sender
	it.attach(ctx)
	return c.pool.Spawn(it)
}

// Attach resolves definitions of loaded items and recreates their models.
func (c *ItemContainer) Attach(ctx *UpdateContext) error {
	var err error
	c.pool.Each(func(_ ItemHandle, it *Item) {
		if err != nil {
			return
		}
		def := ctx.Defs.Item(it.Kind)
		if def == nil {
			err = fmt.Errorf("no definition for item kind %s", it.Kind)
			return
		}
		it.Def = def
		it.Sender = ctx.Sender
		it.attach(ctx)
	})
	return err
}

// Update ticks reactivation and lifetimes, then frees expired items.
func (c *ItemContainer) Update(ctx *UpdateContext) {
	c.pool.Each(func(_ ItemHandle, it *Item) { it.Update(ctx) })
	for _, it := range c.pool.Retain(func(_ ItemHandle, it *Item) bool { return !it.IsDead() }) {
		it.cleanUp(ctx.Scene)
	}
}

// Clear frees every item.
func (c *ItemContainer) Clear(sc scene.Scene) {
	for _, it := range c.pool.Retain(func(ItemHandle, *Item) bool { return false }) {
		it.cleanUp(sc)
	}
}

func (c *ItemContainer) Visit(v *visit.Visitor, name string) error {
	return c.pool.Visit(v, name, func(v *visit.Visitor, it *Item) error { return it.Visit(v, "Item") })
}

// DeathZone is a kill volume. Actors inside it are respawned; its sensor
// body lets projectiles flying into it expire.
type DeathZone struct {
	Bounds geom.AABB
	Sensor physics.BodyID
}

func (z *DeathZone) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		if err := v.Vec3("Min", &z.Bounds.Min); err != nil {
			return err
		}
		return v.Vec3("Max", &z.Bounds.Max)
	})
}

func (z *DeathZone) Attach(p physics.Physics) {
	z.Sensor = p.AddBody(physics.BodyDesc{
		Shape:       physics.ShapeBox,
		HalfExtents: z.Bounds.HalfExtents(),
		Position:    z.Bounds.Center(),
		Sensor:      true,
		Group:       physics.GroupTrigger,
	})
}

// SpawnPoint is a candidate position for (re)spawning actors.
type SpawnPoint struct {
	Position geom.Vec3
}

func (s *SpawnPoint) Visit(v *visit.Visitor, name string) error {
	return v.Vec3(name, &s.Position)
}
