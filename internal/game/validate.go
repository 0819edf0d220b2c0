package game

import "fmt"

// Inbound payload range checks. All pure: they inspect a decoded payload
// and return a flat (ok, message) pair, never touching session state.
// Type errors are caught earlier, at JSON decode time.

const (
	PositionXMin = -100
	PositionXMax = 100

	SoldierNumMin = 1
	SoldierNumMax = 10
	HPMin         = 1
	HPMax         = 1000
	DamageMin     = 1
	DamageMax     = 500

	DamageAmountMax = 1000
)

func ValidateSpawnPosition(x float64) (bool, string) {
	if x < PositionXMin || x > PositionXMax {
		return false, fmt.Sprintf("PositionX must be a number between %d and %d", PositionXMin, PositionXMax)
	}
	return true, ""
}

func ValidateAddSoldier(troopType string, num, hp, damage int) (bool, string) {
	if troopType == "" {
		return false, "Type must be a non-empty string"
	}
	if num < SoldierNumMin || num > SoldierNumMax {
		return false, fmt.Sprintf("Num must be a number between %d and %d", SoldierNumMin, SoldierNumMax)
	}
	if hp < HPMin || hp > HPMax {
		return false, fmt.Sprintf("HP must be a number between %d and %d", HPMin, HPMax)
	}
	if damage < DamageMin || damage > DamageMax {
		return false, fmt.Sprintf("Damage must be a number between %d and %d", DamageMin, DamageMax)
	}
	return true, ""
}

func ValidateDamageReport(idTakenDamage, damageAmount int) (bool, string) {
	if idTakenDamage <= 0 {
		return false, "IdTakenDamage must be a positive number"
	}
	if damageAmount < DamageMin || damageAmount > DamageAmountMax {
		return false, fmt.Sprintf("DamageAmount must be a number between %d and %d", DamageMin, DamageAmountMax)
	}
	return true, ""
}
