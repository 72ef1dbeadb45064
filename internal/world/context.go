// Package world holds the combat entities of a level and the containers
// that own them. Entities reference each other only through pool handles
// and request cross-container effects by sending messages.
package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/core/clock"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
)

// Team aliases match.Team so entity code reads naturally.
type Team = match.Team

const (
	TeamNone = match.TeamNone
	TeamRed  = match.TeamRed
	TeamBlue = match.TeamBlue
)

// Collision groups used by entity bodies.
const (
	actorMask      = physics.GroupAll
	projectileMask = physics.GroupAll &^ physics.GroupProjectile
)

// UpdateContext carries the collaborators and sibling containers an entity
// may read during its update. Entities mutate only themselves and their own
// physics bodies and scene nodes; everything else goes through Sender.
type UpdateContext struct {
	Time    clock.GameTime
	Physics physics.Physics
	Scene   scene.Scene
	Sender  Sender
	Defs    *data.Definitions
	Brain   Brain
	Rand    *rand.Rand
	Log     *zap.Logger

	Actors      *ActorContainer
	Weapons     *WeaponContainer
	Projectiles *ProjectileContainer
	Items       *ItemContainer
	JumpPads    *JumpPadContainer
}

// weaponOwner returns the actor holding weapon w, or none.
func (ctx *UpdateContext) weaponOwner(w WeaponHandle) ActorHandle {
	if ctx.Weapons == nil {
		return ActorHandle(0)
	}
	if weapon, ok := ctx.Weapons.Get(w); ok {
		return weapon.Owner
	}
	return ActorHandle(0)
}

// createNode creates a scene node and falls back to an empty node when the
// model asset is missing, so the entity keeps a transform to work with.
func createNode(sc scene.Scene, log *zap.Logger, desc scene.NodeDesc) scene.NodeID {
	id, err := sc.CreateNode(desc)
	if err == nil {
		return id
	}
	if log != nil {
		log.Warn("model unavailable, using empty node", zap.String("model", desc.Model), zap.Error(err))
	}
	desc.Model = ""
	id, err = sc.CreateNode(desc)
	if err != nil {
		return scene.NoNode
	}
	return id
}
