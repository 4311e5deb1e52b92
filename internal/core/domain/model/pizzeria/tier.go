package pizzeria

import (
	"fmt"

	"pizzeria/internal/pkg/errs"
)

// Tier is the discrete delivery-fee bracket derived from the distance
// between a customer and the nearest fulfillment location.
type Tier int

const (
	// TierUnknown represents an invalid or undefined tier.
	TierUnknown Tier = iota

	// TierFree offers free delivery alongside pickup.
	TierFree

	// TierStandard offers delivery for the standard fee.
	TierStandard

	// TierExtended offers delivery for the extended fee.
	TierExtended

	// TierPickupOnly offers no delivery option at all.
	TierPickupOnly
)

func getTierStrings() map[Tier]string {
	return map[Tier]string{
		TierUnknown:    "Unknown",
		TierFree:       "Free",
		TierStandard:   "Standard",
		TierExtended:   "Extended",
		TierPickupOnly: "PickupOnly",
	}
}

// Validate checks the Tier is one of the defined brackets.
func (t Tier) Validate() error {
	if t == TierUnknown {
		return errs.NewValueIsInvalidErrorWithCause("tier",
			fmt.Errorf("%d is not a valid tier", t))
	}
	if _, ok := getTierStrings()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("tier",
			fmt.Errorf("%d is not a valid tier", t))
	}
	return nil
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	if s, ok := getTierStrings()[t]; ok {
		return s
	}
	return "Unknown"
}

// ParseTier restores a Tier from its persisted name.
func ParseTier(name string) (Tier, error) {
	for tier, s := range getTierStrings() {
		if s == name && tier != TierUnknown {
			return tier, nil
		}
	}
	return TierUnknown, errs.NewValueIsInvalidErrorWithCause("tier",
		fmt.Errorf("%q is not a valid tier name", name))
}

// DeliveryOffered reports whether the tier allows a delivery option.
// PickupOnly customers can only collect the order themselves.
func (t Tier) DeliveryOffered() bool {
	return t == TierFree || t == TierStandard || t == TierExtended
}
