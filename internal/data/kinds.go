package data

import "fmt"

// WeaponKind enumerates the weapons. The numeric value is the save id.
type WeaponKind uint8

const (
	WeaponM4 WeaponKind = iota
	WeaponAk47
	WeaponPlasmaRifle
	WeaponRocketLauncher
	weaponKindCount
)

var weaponNames = [...]string{"m4", "ak47", "plasma_rifle", "rocket_launcher"}

// WeaponKinds lists every weapon kind in id order.
func WeaponKinds() []WeaponKind {
	return []WeaponKind{WeaponM4, WeaponAk47, WeaponPlasmaRifle, WeaponRocketLauncher}
}

func WeaponKindFromID(id int) (WeaponKind, error) {
	if id < 0 || id >= int(weaponKindCount) {
		return 0, fmt.Errorf("unknown weapon kind %d", id)
	}
	return WeaponKind(id), nil
}

func (k WeaponKind) String() string {
	if k < weaponKindCount {
		return weaponNames[k]
	}
	return fmt.Sprintf("weapon(%d)", uint8(k))
}

func (k *WeaponKind) UnmarshalText(b []byte) error {
	for i, n := range weaponNames {
		if n == string(b) {
			*k = WeaponKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown weapon kind %q", b)
}

func (k WeaponKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ProjectileKind enumerates projectiles.
type ProjectileKind uint8

const (
	ProjectilePlasma ProjectileKind = iota
	ProjectileBullet
	ProjectileRocket
	projectileKindCount
)

var projectileNames = [...]string{"plasma", "bullet", "rocket"}

func ProjectileKinds() []ProjectileKind {
	return []ProjectileKind{ProjectilePlasma, ProjectileBullet, ProjectileRocket}
}

func ProjectileKindFromID(id int) (ProjectileKind, error) {
	if id < 0 || id >= int(projectileKindCount) {
		return 0, fmt.Errorf("unknown projectile kind %d", id)
	}
	return ProjectileKind(id), nil
}

func (k ProjectileKind) String() string {
	if k < projectileKindCount {
		return projectileNames[k]
	}
	return fmt.Sprintf("projectile(%d)", uint8(k))
}

func (k *ProjectileKind) UnmarshalText(b []byte) error {
	for i, n := range projectileNames {
		if n == string(b) {
			*k = ProjectileKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown projectile kind %q", b)
}

func (k ProjectileKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ItemKind enumerates pickups.
type ItemKind uint8

const (
	ItemMedkit ItemKind = iota
	ItemPlasma
	ItemAk47Ammo
	ItemM4Ammo
	ItemPlasmaGun
	ItemAk47
	ItemM4
	ItemRocketLauncher
	itemKindCount
)

var itemNames = [...]string{
	"medkit", "plasma", "ak47_ammo", "m4_ammo",
	"plasma_gun", "ak47", "m4", "rocket_launcher",
}

func ItemKinds() []ItemKind {
	out := make([]ItemKind, 0, itemKindCount)
	for k := ItemKind(0); k < itemKindCount; k++ {
		out = append(out, k)
	}
	return out
}

func ItemKindFromID(id int) (ItemKind, error) {
	if id < 0 || id >= int(itemKindCount) {
		return 0, fmt.Errorf("unknown item kind %d", id)
	}
	return ItemKind(id), nil
}

func (k ItemKind) String() string {
	if k < itemKindCount {
		return itemNames[k]
	}
	return fmt.Sprintf("item(%d)", uint8(k))
}

func (k *ItemKind) UnmarshalText(b []byte) error {
	for i, n := range itemNames {
		if n == string(b) {
			*k = ItemKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown item kind %q", b)
}

func (k ItemKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// WeaponItem returns the pickup dropped for a weapon.
func WeaponItem(k WeaponKind) ItemKind {
	switch k {
	case WeaponAk47:
		return ItemAk47
	case WeaponPlasmaRifle:
		return ItemPlasmaGun
	case WeaponRocketLauncher:
		return ItemRocketLauncher
	default:
		return ItemM4
	}
}

// BotKind enumerates bot archetypes.
type BotKind uint8

const (
	BotMutant BotKind = iota
	BotParasite
	BotMaw
	botKindCount
)

var botNames = [...]string{"mutant", "parasite", "maw"}

func BotKinds() []BotKind {
	return []BotKind{BotMutant, BotParasite, BotMaw}
}

func BotKindFromID(id int) (BotKind, error) {
	if id < 0 || id >= int(botKindCount) {
		return 0, fmt.Errorf("unknown bot kind %d", id)
	}
	return BotKind(id), nil
}

func (k BotKind) String() string {
	if k < botKindCount {
		return botNames[k]
	}
	return fmt.Sprintf("bot(%d)", uint8(k))
}

func (k *BotKind) UnmarshalText(b []byte) error {
	for i, n := range botNames {
		if n == string(b) {
			*k = BotKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown bot kind %q", b)
}

func (k BotKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
