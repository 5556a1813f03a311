package statemachine

import (
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"
)

// Actors allowed to change a bag's activation
const (
	ActorManager   = "restaurant_manager"
	ActorModerator = "moderator"
)

// Status derives a bag's lifecycle state at now. Expired wins over SoldOut.
func Status(b models.MysteryBag, now time.Time) models.BagStatus {
	switch {
	case !b.IsActive:
		return models.BagDeactivated
	case now.After(b.PickupEndTime):
		return models.BagExpired
	case b.AvailableQuantity <= 0:
		return models.BagSoldOut
	case now.Before(b.PickupStartTime):
		return models.BagUpcoming
	default:
		return models.BagActive
	}
}

// IsAvailable is true when the bag can be picked up right now; both window ends are inclusive.
func IsAvailable(b models.MysteryBag, now time.Time) bool {
	return b.IsActive &&
		b.AvailableQuantity > 0 &&
		!now.Before(b.PickupStartTime) &&
		!now.After(b.PickupEndTime)
}

// CanPurchase reports why a purchase of qty would fail, without touching storage.
// A purchase may be placed before the window opens; only the end is enforced.
func CanPurchase(b models.MysteryBag, qty int, now time.Time) error {
	if qty < 1 {
		return apperrors.Invalid("quantity", "Quantity must be at least 1")
	}
	if !b.IsActive {
		return apperrors.ErrBagNotActive
	}
	if now.After(b.PickupEndTime) {
		return apperrors.ErrBagExpired
	}
	if b.AvailableQuantity < qty {
		return apperrors.ErrInsufficientInventory
	}
	return nil
}

// Transition defines a valid activation change and who can perform it
type Transition struct {
	Activate bool
	Actor    string
}

var validTransitions = []Transition{
	{Activate: true, Actor: ActorManager},
	{Activate: false, Actor: ActorManager},
	{Activate: false, Actor: ActorModerator},
	{Activate: true, Actor: ActorModerator},
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// CanSetActive checks whether actor may set is_active to activate on b
func CanSetActive(b models.MysteryBag, activate bool, actor string, now time.Time) error {
	if !transitionMap[Transition{Activate: activate, Actor: actor}] {
		return apperrors.Forbidden("'" + actor + "' cannot change mystery bag activation")
	}
	if b.IsActive == activate {
		return apperrors.Conflict("NO_CHANGE", "Mystery bag is already "+string(Status(b, now)))
	}
	if activate && now.After(b.PickupEndTime) {
		return apperrors.Conflict("BAG_EXPIRED", "Cannot reactivate a bag whose pickup window has closed")
	}
	return nil
}

// GetAllTransitions returns the full activation table for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
