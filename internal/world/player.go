package world

import (
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/visit"
)

const (
	playerMoveSpeed = 6.0
	jumpSpeed       = 5.0
	cameraHeight    = 0.6
)

// Input is the control state of the player for the current tick. The host
// writes it; weapon switching fields are edge triggered and cleared once
// consumed.
type Input struct {
	MoveForward  bool
	MoveBackward bool
	StrafeLeft   bool
	StrafeRight  bool
	Jump         bool
	Fire         bool
	Yaw          float64
	Pitch        float64

	NextWeapon bool
	PrevWeapon bool
	// SelectWeapon is a 1-based slot, 0 means no change.
	SelectWeapon int
}

// Player is the human controlled actor variant.
type Player struct {
	Input  Input
	Camera scene.NodeID
}

func (p *Player) attach(sc scene.Scene, c *Character) {
	p.Camera, _ = sc.CreateNode(scene.NodeDesc{
		Name:     c.Name + " camera",
		Position: geom.V(0, cameraHeight, 0),
		Visible:  true,
	})
	sc.Link(p.Camera, c.Pivot)
}

func (p *Player) update(ctx *UpdateContext, c *Character) {
	in := &p.Input

	ctx.Scene.SetRotation(c.Pivot, in.Yaw, 0)
	ctx.Scene.SetRotation(p.Camera, 0, in.Pitch)
	ctx.Scene.SetRotation(c.WeaponPivot, 0, in.Pitch)

	switch {
	case in.SelectWeapon > 0:
		c.SetCurrentWeapon(in.SelectWeapon - 1)
	case in.NextWeapon:
		c.NextWeapon()
	case in.PrevWeapon:
		c.PrevWeapon()
	}
	in.SelectWeapon = 0
	in.NextWeapon = false
	in.PrevWeapon = false

	forward := geom.V(0, 0, 1)
	forward.X, forward.Z = yawVector(in.Yaw)
	right := geom.Up.Cross(forward)

	var move geom.Vec3
	if in.MoveForward {
		move = move.Add(forward)
	}
	if in.MoveBackward {
		move = move.Sub(forward)
	}
	if in.StrafeRight {
		move = move.Add(right)
	}
	if in.StrafeLeft {
		move = move.Sub(right)
	}
	move = move.NormalizeOr(geom.Zero).Scale(playerMoveSpeed)

	vel := ctx.Physics.BodyVelocity(c.Body)
	vel.X, vel.Z = move.X, move.Z
	if in.Jump && c.Grounded {
		vel.Y = jumpSpeed
		c.Grounded = false
	}
	ctx.Physics.SetLinearVelocity(c.Body, vel)

	if in.Fire {
		if w := c.CurrentWeaponHandle(); w.IsSome() {
			ctx.Sender.Send(ShootWeapon{Weapon: w, InitialVelocity: geom.V(vel.X, 0, vel.Z)})
		}
	}
}

func (p *Player) visit(v *visit.Visitor) error {
	if err := v.Float("Yaw", &p.Input.Yaw); err != nil {
		return err
	}
	return v.Float("Pitch", &p.Input.Pitch)
}
