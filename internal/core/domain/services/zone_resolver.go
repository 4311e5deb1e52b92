package services

import (
	"errors"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

// Domain errors for delivery zone resolution.
var (
	// ErrNoFulfillmentLocations is returned when Resolve is called with an
	// empty candidate list. A deployment without pizzerias cannot quote.
	ErrNoFulfillmentLocations = errors.New("no fulfillment locations")
	// ErrTierTableIsNotConstructed is returned when using an improperly
	// initialized TierTable.
	ErrTierTableIsNotConstructed = errors.New("TierTable must be created via NewTierTable constructor")
)

// Default tier thresholds and fees. These are starting-point configuration,
// not business constants; deployments override them through NewTierTable.
const (
	DefaultFreeWithinKm     = 0.5
	DefaultStandardWithinKm = 5.0
	DefaultExtendedWithinKm = 20.0
	DefaultStandardFee      = 100
	DefaultExtendedFee      = 300
)

// TierTable holds the configurable distance thresholds and fees that map a
// delivery distance to a Tier. Boundaries are closed on the lower tier: a
// distance exactly equal to a threshold falls into the more expensive
// bracket.
type TierTable struct { //nolint:recvcheck //using for validation
	freeWithinKm     float64
	standardWithinKm float64
	extendedWithinKm float64
	standardFee      int
	extendedFee      int

	guard guard.ConstructorGuard
}

// NewTierTable creates a TierTable from threshold distances (km) and fees.
// Thresholds must be positive and strictly ascending; fees non-negative.
func NewTierTable(
	freeWithinKm, standardWithinKm, extendedWithinKm float64,
	standardFee, extendedFee int,
) (TierTable, error) {
	table := TierTable{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		table.setThresholds(freeWithinKm, standardWithinKm, extendedWithinKm),
		table.setFees(standardFee, extendedFee),
	); err != nil {
		return TierTable{}, err
	}

	return table, nil
}

// DefaultTierTable returns the table with the default thresholds and fees.
func DefaultTierTable() TierTable {
	table, err := NewTierTable(
		DefaultFreeWithinKm, DefaultStandardWithinKm, DefaultExtendedWithinKm,
		DefaultStandardFee, DefaultExtendedFee,
	)
	if err != nil {
		// Defaults are statically valid; reaching this is a programming error.
		panic(err)
	}
	return table
}

// Validate ensures the table was created through the constructor.
func (t TierTable) Validate() error {
	return t.guard.Validate(ErrTierTableIsNotConstructed)
}

// Classify maps a distance to its tier and delivery fee.
// PickupOnly carries a zero fee because no delivery is offered at all.
func (t TierTable) Classify(distanceKm float64) (pizzeria.Tier, int) {
	switch {
	case distanceKm < t.freeWithinKm:
		return pizzeria.TierFree, 0
	case distanceKm < t.standardWithinKm:
		return pizzeria.TierStandard, t.standardFee
	case distanceKm < t.extendedWithinKm:
		return pizzeria.TierExtended, t.extendedFee
	default:
		return pizzeria.TierPickupOnly, 0
	}
}

func (t *TierTable) setThresholds(freeWithinKm, standardWithinKm, extendedWithinKm float64) error {
	if freeWithinKm <= 0 {
		return errs.NewValueIsInvalidError("free threshold")
	}
	if standardWithinKm <= freeWithinKm {
		return errs.NewValueIsInvalidError("standard threshold")
	}
	if extendedWithinKm <= standardWithinKm {
		return errs.NewValueIsInvalidError("extended threshold")
	}

	t.freeWithinKm = freeWithinKm
	t.standardWithinKm = standardWithinKm
	t.extendedWithinKm = extendedWithinKm
	return nil
}

func (t *TierTable) setFees(standardFee, extendedFee int) error {
	if standardFee < 0 {
		return errs.NewValueIsInvalidError("standard fee")
	}
	if extendedFee < 0 {
		return errs.NewValueIsInvalidError("extended fee")
	}

	t.standardFee = standardFee
	t.extendedFee = extendedFee
	return nil
}

// Quote is the result of resolving a customer point against the candidate
// fulfillment locations: the nearest location, the distance to it, and the
// fee bracket that distance produces.
type Quote struct {
	Location   pizzeria.FulfillmentLocation
	DistanceKm float64
	Tier       pizzeria.Tier
	Fee        int
}

// ZoneResolver is a pure domain service mapping a customer point and the
// candidate fulfillment locations to a delivery Quote.
//
// Selection algorithm:
//   - Validates the point and every candidate
//   - Computes the great-circle distance to each candidate
//   - Picks the minimum; ties keep the earlier candidate in input order
//   - Classifies the winning distance with the configured TierTable
//
// Resolve is deterministic and performs no I/O.
type ZoneResolver struct {
	tiers TierTable
}

// NewZoneResolver creates a resolver over a validated TierTable.
func NewZoneResolver(tiers TierTable) (ZoneResolver, error) {
	if err := tiers.Validate(); err != nil {
		return ZoneResolver{}, err
	}

	return ZoneResolver{tiers: tiers}, nil
}

// Validate ensures the resolver was created through the constructor. The
// zero value carries an unconstructed TierTable and must not classify.
func (r ZoneResolver) Validate() error {
	return r.tiers.Validate()
}

// Resolve finds the nearest fulfillment location to the given point and the
// delivery tier for that distance. Returns ErrNoFulfillmentLocations when
// called with an empty candidate list.
func (r ZoneResolver) Resolve(
	point kernel.GeoPoint,
	locations []pizzeria.FulfillmentLocation,
) (Quote, error) {
	if err := point.Validate(); err != nil {
		return Quote{}, err
	}
	if len(locations) == 0 {
		return Quote{}, ErrNoFulfillmentLocations
	}

	var (
		nearest     pizzeria.FulfillmentLocation
		nearestDist float64
		found       bool
	)

	for _, location := range locations {
		if err := location.Validate(); err != nil {
			return Quote{}, err
		}

		dist, err := point.DistanceKm(location.Point())
		if err != nil {
			return Quote{}, err
		}

		// Strict comparison keeps the first candidate on ties.
		if !found || dist < nearestDist {
			nearest = location
			nearestDist = dist
			found = true
		}
	}

	tier, fee := r.tiers.Classify(nearestDist)

	return Quote{
		Location:   nearest,
		DistanceKm: nearestDist,
		Tier:       tier,
		Fee:        fee,
	}, nil
}
