package kernel

import (
	"errors"
	"fmt"
	"math"

	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

const (
	// LatitudeMin is the minimum valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the maximum valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the minimum valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the maximum valid longitude in degrees.
	LongitudeMax = 180.0

	// earthRadiusKm is the mean Earth radius used for great-circle distance.
	earthRadiusKm = 6371.0
)

// ErrGeoPointIsNotConstructed is returned when attempting to use an
// improperly initialized GeoPoint. Points must be created via NewGeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint constructor")

// GeoPoint represents a geographic position with validated coordinates.
// GeoPoint is an immutable value object; the zero value is invalid and
// fails validation, so instances must come from the constructor.
//
// Example:
//
//	point, err := kernel.NewGeoPoint(55.7522, 37.6156)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Printf("Point: %s", point) // Output: GeoPoint(55.752200,37.615600)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint creates a GeoPoint from latitude and longitude in degrees.
// Latitude must be within [LatitudeMin..LatitudeMax] and longitude within
// [LongitudeMin..LongitudeMax]. Returns an error if either is out of bounds
// or not a finite number.
func NewGeoPoint(lat float64, lon float64) (GeoPoint, error) {
	point := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(point.setLat(lat), point.setLon(lon)); err != nil {
		return GeoPoint{}, err
	}

	return point, nil
}

// Validate checks that the GeoPoint was created via NewGeoPoint.
// The zero value fails with ErrGeoPointIsNotConstructed.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lon returns the longitude in degrees.
func (p GeoPoint) Lon() float64 {
	return p.lon
}

// String implements fmt.Stringer for debugging and logging.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lon)
}

// IsEqual compares two points for coordinate equality.
// Both points must be properly constructed.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lon == other.lon, nil
}

// DistanceKm calculates the great-circle distance to another point in
// kilometers using the haversine formula. Both points must be properly
// constructed.
//
// Example:
//
//	moscow, _ := kernel.NewGeoPoint(55.7522, 37.6156)
//	tula, _ := kernel.NewGeoPoint(54.1961, 37.6182)
//	km, err := moscow.DistanceKm(tula) // roughly 173 km
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := p.lat * math.Pi / 180
	lat2 := other.lat * math.Pi / 180
	dLat := (other.lat - p.lat) * math.Pi / 180
	dLon := (other.lon - p.lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// setLat sets the latitude with validation.
// Pointer receiver is intentional: private setters enable self-encapsulated
// validation during construction while the public API stays value-based.
func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	p.lat = lat
	return nil
}

// setLon sets the longitude with validation.
func (p *GeoPoint) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}

	p.lon = lon
	return nil
}
