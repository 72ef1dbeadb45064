package data

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fragcore/arena/internal/geom"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// Vec is a YAML-friendly [x, y, z] triple.
type Vec [3]float64

func (v Vec) V() geom.Vec3 { return geom.V(v[0], v[1], v[2]) }

// WeaponDefinition is the static description of one weapon kind.
type WeaponDefinition struct {
	Kind         WeaponKind     `yaml:"kind"`
	Model        string         `yaml:"model"`
	ShotSound    string         `yaml:"shot_sound"`
	Ammo         int            `yaml:"ammo"`
	Projectile   ProjectileKind `yaml:"projectile"`
	FireInterval float64        `yaml:"fire_interval"`
	Recoil       float64        `yaml:"recoil"`
}

// ProjectileDefinition is the static description of one projectile kind.
type ProjectileDefinition struct {
	Kind      ProjectileKind `yaml:"kind"`
	Model     string         `yaml:"model"`
	Damage    float64        `yaml:"damage"`
	Speed     float64        `yaml:"speed"`
	Lifetime  float64        `yaml:"lifetime"`
	Kinematic bool           `yaml:"kinematic"`
	HasBody   bool           `yaml:"has_body"`
	Radius    float64        `yaml:"radius"`
}

// ItemDefinition is the static description of one pickup kind. An item
// heals, gives a weapon, or adds ammo to a weapon the actor already holds.
type ItemDefinition struct {
	Kind             ItemKind    `yaml:"kind"`
	Model            string      `yaml:"model"`
	PickupSound      string      `yaml:"pickup_sound"`
	ReactivationTime float64     `yaml:"reactivation_time"`
	Heal             float64     `yaml:"heal"`
	Weapon           *WeaponKind `yaml:"weapon"`
	AmmoFor          *WeaponKind `yaml:"ammo_for"`
	Ammo             int         `yaml:"ammo"`
}

// BotDefinition is the static description of one bot archetype.
type BotDefinition struct {
	Kind           BotKind    `yaml:"kind"`
	Name           string     `yaml:"name"`
	Model          string     `yaml:"model"`
	Health         float64    `yaml:"health"`
	MoveSpeed      float64    `yaml:"move_speed"`
	Weapon         WeaponKind `yaml:"weapon"`
	ViewDistance   float64    `yaml:"view_distance"`
	AttackDistance float64    `yaml:"attack_distance"`
	Radius         float64    `yaml:"radius"`
}

// Definitions bundles every static table the simulation needs.
type Definitions struct {
	Weapons     map[WeaponKind]*WeaponDefinition
	Projectiles map[ProjectileKind]*ProjectileDefinition
	Items       map[ItemKind]*ItemDefinition
	Bots        map[BotKind]*BotDefinition
}

func (d *Definitions) Weapon(k WeaponKind) *WeaponDefinition             { return d.Weapons[k] }
func (d *Definitions) Projectile(k ProjectileKind) *ProjectileDefinition { return d.Projectiles[k] }
func (d *Definitions) Item(k ItemKind) *ItemDefinition                   { return d.Items[k] }
func (d *Definitions) Bot(k BotKind) *BotDefinition                      { return d.Bots[k] }

type definitionFiles struct {
	weapons, projectiles, items, bots []byte
}

// Defaults returns the built-in definitions.
func Defaults() (*Definitions, error) {
	var f definitionFiles
	var err error
	read := func(name string) []byte {
		if err != nil {
			return nil
		}
		var raw []byte
		raw, err = defaultFiles.ReadFile("defaults/" + name)
		return raw
	}
	f.weapons = read("weapons.yaml")
	f.projectiles = read("projectiles.yaml")
	f.items = read("items.yaml")
	f.bots = read("bots.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded definitions: %w", err)
	}
	return parseDefinitions(f)
}

// LoadDefinitions loads weapons.yaml, projectiles.yaml, items.yaml and
// bots.yaml from dir.
func LoadDefinitions(dir string) (*Definitions, error) {
	var f definitionFiles
	for name, dst := range map[string]*[]byte{
		"weapons.yaml":     &f.weapons,
		"projectiles.yaml": &f.projectiles,
		"items.yaml":       &f.items,
		"bots.yaml":        &f.bots,
	} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		*dst = raw
	}
	return parseDefinitions(f)
}

func parseDefinitions(f definitionFiles) (*Definitions, error) {
	var (
		weapons     []WeaponDefinition
		projectiles []ProjectileDefinition
		items       []ItemDefinition
		bots        []BotDefinition
	)
	if err := yaml.Unmarshal(f.weapons, &weapons); err != nil {
		return nil, fmt.Errorf("parse weapons: %w", err)
	}
	if err := yaml.Unmarshal(f.projectiles, &projectiles); err != nil {
		return nil, fmt.Errorf("parse projectiles: %w", err)
	}
	if err := yaml.Unmarshal(f.items, &items); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	if err := yaml.Unmarshal(f.bots, &bots); err != nil {
		return nil, fmt.Errorf("parse bots: %w", err)
	}

	d := &Definitions{
		Weapons:     make(map[WeaponKind]*WeaponDefinition, len(weapons)),
		Projectiles: make(map[ProjectileKind]*ProjectileDefinition, len(projectiles)),
		Items:       make(map[ItemKind]*ItemDefinition, len(items)),
		Bots:        make(map[BotKind]*BotDefinition, len(bots)),
	}
	for i := range weapons {
		w := &weapons[i]
		if _, dup := d.Weapons[w.Kind]; dup {
			return nil, fmt.Errorf("weapon %s defined twice", w.Kind)
		}
		d.Weapons[w.Kind] = w
	}
	for i := range projectiles {
		p := &projectiles[i]
		if _, dup := d.Projectiles[p.Kind]; dup {
			return nil, fmt.Errorf("projectile %s defined twice", p.Kind)
		}
		d.Projectiles[p.Kind] = p
	}
	for i := range items {
		it := &items[i]
		if _, dup := d.Items[it.Kind]; dup {
			return nil, fmt.Errorf("item %s defined twice", it.Kind)
		}
		d.Items[it.Kind] = it
	}
	for i := range bots {
		b := &bots[i]
		if _, dup := d.Bots[b.Kind]; dup {
			return nil, fmt.Errorf("bot %s defined twice", b.Kind)
		}
		d.Bots[b.Kind] = b
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that every kind has a definition and that the values are
// usable by the simulation.
func (d *Definitions) Validate() error {
	for _, k := range WeaponKinds() {
		w, ok := d.Weapons[k]
		if !ok {
			return fmt.Errorf("weapon %s: missing definition", k)
		}
		if w.FireInterval < 0 || w.Ammo < 0 {
			return fmt.Errorf("weapon %s: negative fire interval or ammo", k)
		}
		if _, ok := d.Projectiles[w.Projectile]; !ok {
			return fmt.Errorf("weapon %s: projectile %s not defined", k, w.Projectile)
		}
	}
	for _, k := range ProjectileKinds() {
		p, ok := d.Projectiles[k]
		if !ok {
			return fmt.Errorf("projectile %s: missing definition", k)
		}
		if p.Lifetime <= 0 {
			return fmt.Errorf("projectile %s: lifetime must be positive", k)
		}
	}
	for _, k := range ItemKinds() {
		if _, ok := d.Items[k]; !ok {
			return fmt.Errorf("item %s: missing definition", k)
		}
	}
	for _, k := range BotKinds() {
		b, ok := d.Bots[k]
		if !ok {
			return fmt.Errorf("bot %s: missing definition", k)
		}
		if b.Health <= 0 {
			return fmt.Errorf("bot %s: health must be positive", k)
		}
	}
	return nil
}
