package world

import (
	"github.com/fragcore/arena/internal/core/event"
	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/match"
)

// Message is a gameplay effect that crosses container boundaries. Entities
// send messages; the level replays them in FIFO order after all updates of a
// tick. Handlers treat stale handles as a no-op.
type Message interface {
	isMessage()
}

// Sender is the outgoing message port held by entities.
type Sender = event.Sender[Message]

type ActorHandle = pool.Handle[Actor]
type WeaponHandle = pool.Handle[Weapon]
type ProjectileHandle = pool.Handle[Projectile]
type ItemHandle = pool.Handle[Item]
type JumpPadHandle = pool.Handle[JumpPad]

type GiveNewWeapon struct {
	Actor ActorHandle
	Kind  data.WeaponKind
}

type AddBot struct {
	Kind     data.BotKind
	Position geom.Vec3
	// Name may be empty; a name is generated from the kind.
	Name string
}

type RemoveActor struct {
	Actor ActorHandle
}

type GiveItem struct {
	Actor ActorHandle
	Kind  data.ItemKind
}

type PickUpItem struct {
	Actor ActorHandle
	Item  ItemHandle
}

// ShootWeapon asks the weapon to fire. When HasDirection is false the shot
// follows the weapon's look vector.
type ShootWeapon struct {
	Weapon          WeaponHandle
	InitialVelocity geom.Vec3
	Direction       geom.Vec3
	HasDirection    bool
}

type CreateProjectile struct {
	Kind            data.ProjectileKind
	Position        geom.Vec3
	Direction       geom.Vec3
	InitialVelocity geom.Vec3
	Owner           WeaponHandle
}

type ShowWeapon struct {
	Weapon WeaponHandle
	State  bool
}

type SpawnBot struct {
	Kind data.BotKind
	Name string
}

// DamageActor applies Amount to Actor. Who is the attacker and may be none.
type DamageActor struct {
	Actor  ActorHandle
	Who    ActorHandle
	Amount float64
}

// EffectKind enumerates short-lived visual effects.
type EffectKind uint8

const (
	EffectBulletImpact EffectKind = iota
	EffectItemAppear
)

func (k EffectKind) String() string {
	if k == EffectItemAppear {
		return "item_appear"
	}
	return "bullet_impact"
}

type CreateEffect struct {
	Kind     EffectKind
	Position geom.Vec3
}

type SpawnPlayer struct{}

// SpawnItem creates a pickup. AdjustHeight drops it onto the ground below
// Position. Lifetime applies only when HasLifetime is set.
type SpawnItem struct {
	Kind         data.ItemKind
	Position     geom.Vec3
	AdjustHeight bool
	Lifetime     float64
	HasLifetime  bool
}

type RespawnActor struct {
	Actor ActorHandle
}

type PlaySound struct {
	Path     string
	Position geom.Vec3
	Gain     float64
	Rolloff  float64
	Radius   float64
}

type AddNotification struct {
	Text string
}

type StartNewGame struct {
	Options match.Options
}

type SaveGame struct{}
type LoadGame struct{}
type QuitGame struct{}
type EndMatch struct{}

func (GiveNewWeapon) isMessage()    {}
func (AddBot) isMessage()           {}
func (RemoveActor) isMessage()      {}
func (GiveItem) isMessage()         {}
func (PickUpItem) isMessage()       {}
func (ShootWeapon) isMessage()      {}
func (CreateProjectile) isMessage() {}
func (ShowWeapon) isMessage()       {}
func (SpawnBot) isMessage()         {}
func (DamageActor) isMessage()      {}
func (CreateEffect) isMessage()     {}
func (SpawnPlayer) isMessage()      {}
func (SpawnItem) isMessage()        {}
func (RespawnActor) isMessage()     {}
func (PlaySound) isMessage()        {}
func (AddNotification) isMessage()  {}
func (StartNewGame) isMessage()     {}
func (SaveGame) isMessage()         {}
func (LoadGame) isMessage()         {}
func (QuitGame) isMessage()         {}
func (EndMatch) isMessage()         {}

// Queue is the level's message bus.
type Queue = event.Queue[Message]

func NewQueue() *Queue { return event.NewQueue[Message]() }
