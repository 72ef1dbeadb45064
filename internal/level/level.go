// Package level runs one match: it owns every entity container, replays
// the message bus and drives respawns, spawning and scoring.
package level

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/audio"
	"github.com/fragcore/arena/internal/core/clock"
	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/core/system"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/leaderboard"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/world"
)

const (
	// RespawnTime is the delay in seconds between death and respawn.
	RespawnTime = 4.0

	maxNotifications      = 32
	spectatorFollow       = 0.1
	droppedWeaponLifetime = 20.0
	effectLifetime        = 1.0
	playerName            = "Player"
	pickupSound           = "sounds/item_pickup.wav"
	defaultEventQueue     = 256
)

// PlayerLoadout is given to the player on every spawn. The last weapon is
// the one equipped.
var PlayerLoadout = []data.WeaponKind{
	data.WeaponM4,
	data.WeaponAk47,
	data.WeaponPlasmaRifle,
	data.WeaponRocketLauncher,
}

// DefaultBots are spawned into a fresh level, named after their definition.
func DefaultBots() []data.BotKind {
	return []data.BotKind{data.BotMaw, data.BotMutant, data.BotParasite}
}

// Env bundles the collaborators a level runs against.
type Env struct {
	Physics physics.Physics
	Scene   scene.Scene
	Audio   audio.Sink
	Brain   world.Brain
	Rand    *rand.Rand
	Log     *zap.Logger
}

// Config selects what a new level starts with.
type Config struct {
	Bots           []data.BotKind
	WithPlayer     bool
	EventQueueSize int
}

// Effect is a short-lived visual marker, kept for hosts that draw them.
type Effect struct {
	Kind     world.EffectKind
	Position geom.Vec3
	TimeLeft float64
}

// Spectator is the free camera used while the player is dead. It eases
// towards Target.
type Spectator struct {
	Node     scene.NodeID
	Position geom.Vec3
	Target   geom.Vec3
	Active   bool
}

type Level struct {
	env     Env
	log     *zap.Logger
	defs    *data.Definitions
	arena   *data.ArenaMap
	options match.Options
	time    float64

	queue  *world.Queue
	events *physics.EventSink
	runner *system.Runner
	ctx    world.UpdateContext

	actors      *world.ActorContainer
	weapons     *world.WeaponContainer
	projectiles *world.ProjectileContainer
	items       *world.ItemContainer
	jumpPads    *world.JumpPadContainer
	deathZones  []world.DeathZone
	spawnPoints []world.SpawnPoint
	geometry    []physics.BodyID

	respawns      []RespawnEntry
	leaderBoard   *leaderboard.LeaderBoard
	spectator     Spectator
	player        world.ActorHandle
	notifications []string
	effects       []Effect
	matchOver     bool

	onSession func(world.Message)
}

// newLevel builds an empty level with no bodies or nodes yet.
func newLevel(defs *data.Definitions, arena *data.ArenaMap, options match.Options, env Env, queueSize int) *Level {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.Audio == nil {
		env.Audio = audio.Nop{}
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewSource(1))
	}
	if env.Brain == nil {
		env.Brain = world.DefaultBrain{}
	}
	if options == nil {
		options = match.Default()
	}
	if queueSize <= 0 {
		queueSize = defaultEventQueue
	}
	l := &Level{
		env:         env,
		log:         env.Log.Named("level"),
		defs:        defs,
		arena:       arena,
		options:     options,
		queue:       world.NewQueue(),
		events:      physics.NewEventSink(queueSize),
		runner:      system.NewRunner(),
		actors:      world.NewActorContainer(),
		weapons:     world.NewWeaponContainer(),
		projectiles: world.NewProjectileContainer(),
		items:       world.NewItemContainer(),
		jumpPads:    world.NewJumpPadContainer(),
		leaderBoard: leaderboard.New(),
		spectator:   Spectator{Node: scene.NoNode},
	}
	l.ctx = world.UpdateContext{
		Physics:     env.Physics,
		Scene:       env.Scene,
		Sender:      l.queue,
		Defs:        defs,
		Brain:       env.Brain,
		Rand:        env.Rand,
		Log:         l.log,
		Actors:      l.actors,
		Weapons:     l.weapons,
		Projectiles: l.projectiles,
		Items:       l.items,
		JumpPads:    l.jumpPads,
	}
	l.registerSystems()
	return l
}

// New builds a level from arena and spawns the initial actors.
func New(defs *data.Definitions, arena *data.ArenaMap, options match.Options, env Env, cfg Config) (*Level, error) {
	l := newLevel(defs, arena, options, env, cfg.EventQueueSize)
	for _, p := range arena.SpawnPoints {
		l.spawnPoints = append(l.spawnPoints, world.SpawnPoint{Position: p.V()})
	}
	for _, z := range arena.DeathZones {
		l.deathZones = append(l.deathZones, world.DeathZone{Bounds: z.AABB()})
	}
	for _, jp := range arena.JumpPads {
		l.jumpPads.Add(world.NewJumpPad(jp.Begin.V(), jp.End.V(), jp.Size.V()))
	}
	for _, ip := range arena.Items {
		def := defs.Item(ip.Kind)
		if def == nil {
			l.log.Warn("map item has no definition", zap.Stringer("kind", ip.Kind))
			continue
		}
		l.items.Add(world.NewItem(def, ip.Position.V(), l.queue))
	}
	if err := l.Attach(); err != nil {
		l.Destroy()
		return nil, err
	}

	for _, kind := range cfg.Bots {
		name := ""
		if def := defs.Bot(kind); def != nil {
			name = def.Name
		}
		l.spawnBot(kind, name)
	}
	if cfg.WithPlayer {
		l.spawnPlayer()
	}
	// Settle weapon visibility and spawn notifications before the first tick.
	l.queue.Drain(l.handleMessage)

	l.log.Info("level ready",
		zap.String("arena", arena.Name),
		zap.String("mode", l.options.Mode().String()),
		zap.Int("actors", l.actors.Len()),
		zap.Int("items", l.items.Len()),
	)
	return l, nil
}

// StepPhysics advances the physics engine by dt. Hosts call it once per
// tick before Update so the events of the step are handled in that tick.
func (l *Level) StepPhysics(dt float64) {
	l.env.Physics.Step(dt)
}

// Update advances the level by one fixed step.
func (l *Level) Update(t clock.GameTime) {
	l.time += t.Delta
	l.ctx.Time = t
	l.runner.Tick(t)
}

// SetSessionHandler installs the receiver of session scoped messages:
// StartNewGame, SaveGame, LoadGame, QuitGame and EndMatch.
func (l *Level) SetSessionHandler(fn func(world.Message)) { l.onSession = fn }

// Sender returns the message bus. Hosts use it to inject requests.
func (l *Level) Sender() world.Sender { return l.queue }

// Time is the match clock in seconds.
func (l *Level) Time() float64 { return l.time }

func (l *Level) Options() match.Options                  { return l.options }
func (l *Level) Definitions() *data.Definitions          { return l.defs }
func (l *Level) Arena() *data.ArenaMap                   { return l.arena }
func (l *Level) Actors() *world.ActorContainer           { return l.actors }
func (l *Level) Weapons() *world.WeaponContainer         { return l.weapons }
func (l *Level) Projectiles() *world.ProjectileContainer { return l.projectiles }
func (l *Level) Items() *world.ItemContainer             { return l.items }
func (l *Level) JumpPads() *world.JumpPadContainer       { return l.jumpPads }
func (l *Level) DeathZones() []world.DeathZone           { return l.deathZones }
func (l *Level) SpawnPoints() []world.SpawnPoint         { return l.spawnPoints }
func (l *Level) LeaderBoard() *leaderboard.LeaderBoard   { return l.leaderBoard }
func (l *Level) Respawns() []RespawnEntry                { return l.respawns }
func (l *Level) Spectator() Spectator                    { return l.spectator }
func (l *Level) Effects() []Effect                       { return l.effects }
func (l *Level) MatchOver() bool                         { return l.matchOver }

// Notifications returns the most recent messages for the HUD, oldest first.
func (l *Level) Notifications() []string { return l.notifications }

// Player returns the player actor while it is alive.
func (l *Level) Player() (world.ActorHandle, bool) {
	if l.actors.Contains(l.player) {
		return l.player, true
	}
	return world.ActorHandle(0), false
}

// PlayerInput returns the input state of the live player, nil otherwise.
func (l *Level) PlayerInput() *world.Input {
	a, ok := l.actors.Get(l.player)
	if !ok || !a.IsPlayer() {
		return nil
	}
	return &a.Player.Input
}

// DroppedEvents reports physics events lost to a full queue.
func (l *Level) DroppedEvents() uint64 { return l.events.Dropped() }

func (l *Level) notify(text string) {
	l.log.Debug("notification", zap.String("text", text))
	l.notifications = append(l.notifications, text)
	if n := len(l.notifications); n > maxNotifications {
		l.notifications = append(l.notifications[:0], l.notifications[n-maxNotifications:]...)
	}
}

// pick returns the first hit on the segment from..to, or from on a miss.
func (l *Level) pick(from, to geom.Vec3, exclude physics.BodyID) (geom.Vec3, bool) {
	if hit, ok := physics.FirstHit(l.env.Physics, from, to, exclude); ok {
		return hit.Position, true
	}
	return from, false
}

// Attach creates every body and node of the level: map geometry, triggers,
// entities and the spectator camera. It is used both for new levels and
// after loading a save.
func (l *Level) Attach() error {
	ph, sc := l.env.Physics, l.env.Scene
	ph.SetEventSink(l.events)
	for _, b := range l.arena.Geometry {
		box := b.AABB()
		l.geometry = append(l.geometry, ph.AddBody(physics.BodyDesc{
			Shape:       physics.ShapeBox,
			HalfExtents: box.HalfExtents(),
			Position:    box.Center(),
			Static:      true,
			Group:       physics.GroupStatic,
		}))
	}
	for i := range l.deathZones {
		l.deathZones[i].Attach(ph)
	}
	l.jumpPads.Attach(ph)
	if err := l.actors.Attach(&l.ctx); err != nil {
		return err
	}
	if err := l.weapons.Attach(&l.ctx); err != nil {
		return err
	}
	if err := l.projectiles.Attach(&l.ctx); err != nil {
		return err
	}
	if err := l.items.Attach(&l.ctx); err != nil {
		return err
	}
	l.spectator.Node, _ = sc.CreateNode(scene.NodeDesc{
		Name:     "spectator camera",
		Position: l.spectator.Position,
		Visible:  true,
	})
	return nil
}

// Destroy releases every body and node the level created.
func (l *Level) Destroy() {
	ph, sc := l.env.Physics, l.env.Scene
	l.actors.Clear(ph, sc)
	l.weapons.Clear(sc)
	l.projectiles.Clear(ph, sc)
	l.items.Clear(sc)
	for _, z := range l.deathZones {
		ph.RemoveBody(z.Sensor)
	}
	l.jumpPads.Each(func(_ pool.Handle[world.JumpPad], j *world.JumpPad) { ph.RemoveBody(j.Sensor) })
	for _, id := range l.geometry {
		ph.RemoveBody(id)
	}
	l.geometry = nil
	sc.RemoveNode(l.spectator.Node)
	l.spectator.Node = scene.NoNode
	ph.SetEventSink(nil)
	l.queue.Reset()
}
