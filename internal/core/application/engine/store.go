package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
)

// productSlotDTO is the stored form of a product selection.
type productSlotDTO struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	UnitPrice   int    `json:"unit_price"`
}

// deliverySlotDTO is the stored form of a delivery request. The fulfillment
// location is flattened so the slot stays self-contained even when the
// catalog snapshot has moved on.
type deliverySlotDTO struct {
	Address         string  `json:"address,omitempty"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	LocationAddress string  `json:"location_address"`
	LocationLat     float64 `json:"location_lat"`
	LocationLon     float64 `json:"location_lon"`
	CourierContact  string  `json:"courier_contact"`
	DistanceKm      float64 `json:"distance_km"`
	Tier            string  `json:"tier"`
	Fee             int     `json:"fee"`
	OrderID         string  `json:"order_id,omitempty"`
}

// loadSession reconstructs the session of an identity from its slots.
// A first-seen identity (no state slot) gets the default Start session.
// Corrupt slot values surface as errors instead of silently resetting.
func loadSession(ctx context.Context, store ports.SessionStore, identity session.Identity) (*session.Session, error) {
	stateRaw, ok, err := store.Get(ctx, identity, ports.SlotState)
	if err != nil {
		return nil, err
	}
	if !ok {
		return session.NewSession(identity)
	}

	state, err := session.ParseState(string(stateRaw))
	if err != nil {
		return nil, fmt.Errorf("state slot of %s: %w", identity, err)
	}

	selection, err := loadSelection(ctx, store, identity)
	if err != nil {
		return nil, err
	}

	delivery, err := loadDelivery(ctx, store, identity)
	if err != nil {
		return nil, err
	}

	summaryRaw, _, err := store.Get(ctx, identity, ports.SlotCartSummary)
	if err != nil {
		return nil, err
	}

	confirmed, err := loadConfirmed(ctx, store, identity)
	if err != nil {
		return nil, err
	}

	return session.RestoreSession(identity, state, selection, delivery, string(summaryRaw), confirmed)
}

func loadSelection(ctx context.Context, store ports.SessionStore, identity session.Identity) (*session.ProductSelection, error) {
	raw, ok, err := store.Get(ctx, identity, ports.SlotProduct)
	if err != nil || !ok {
		return nil, err
	}

	var dto productSlotDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("product slot of %s: %w", identity, err)
	}

	return &session.ProductSelection{
		ProductID:   dto.ProductID,
		Description: dto.Description,
		UnitPrice:   dto.UnitPrice,
	}, nil
}

func loadDelivery(ctx context.Context, store ports.SessionStore, identity session.Identity) (*session.DeliveryRequest, error) {
	raw, ok, err := store.Get(ctx, identity, ports.SlotDelivery)
	if err != nil || !ok {
		return nil, err
	}

	var dto deliverySlotDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
	}

	point, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
	}

	locationPoint, err := kernel.NewGeoPoint(dto.LocationLat, dto.LocationLon)
	if err != nil {
		return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
	}

	location, err := pizzeria.NewFulfillmentLocation(dto.LocationAddress, locationPoint, dto.CourierContact)
	if err != nil {
		return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
	}

	tier, err := pizzeria.ParseTier(dto.Tier)
	if err != nil {
		return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
	}

	delivery := &session.DeliveryRequest{
		Address:    dto.Address,
		Point:      point,
		Location:   location,
		DistanceKm: dto.DistanceKm,
		Tier:       tier,
		Fee:        dto.Fee,
	}

	if dto.OrderID != "" {
		orderID, err := kernel.UUIDFromString(dto.OrderID)
		if err != nil {
			return nil, fmt.Errorf("delivery slot of %s: %w", identity, err)
		}
		delivery.OrderID = orderID
	}

	return delivery, nil
}

func loadConfirmed(ctx context.Context, store ports.SessionStore, identity session.Identity) (*kernel.UUID, error) {
	raw, ok, err := store.Get(ctx, identity, ports.SlotConfirmed)
	if err != nil || !ok {
		return nil, err
	}

	orderID, err := kernel.UUIDFromString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("confirmed slot of %s: %w", identity, err)
	}

	return &orderID, nil
}

// saveSession persists the whole session. The state slot goes last so a
// partial failure never leaves a state pointing at slots that were not
// written yet.
func saveSession(ctx context.Context, store ports.SessionStore, sess *session.Session) error {
	identity := sess.Identity()

	if err := saveSelection(ctx, store, identity, sess.Selection()); err != nil {
		return err
	}
	if err := saveDelivery(ctx, store, identity, sess.Delivery()); err != nil {
		return err
	}

	if summary := sess.CartSummary(); summary != "" {
		if err := store.Set(ctx, identity, ports.SlotCartSummary, []byte(summary)); err != nil {
			return err
		}
	} else if err := store.Delete(ctx, identity, ports.SlotCartSummary); err != nil {
		return err
	}

	if confirmed := sess.ConfirmedOrder(); confirmed != nil {
		if err := store.Set(ctx, identity, ports.SlotConfirmed, []byte(confirmed.String())); err != nil {
			return err
		}
	} else if err := store.Delete(ctx, identity, ports.SlotConfirmed); err != nil {
		return err
	}

	return store.Set(ctx, identity, ports.SlotState, []byte(sess.State().String()))
}

func saveSelection(
	ctx context.Context, store ports.SessionStore,
	identity session.Identity, selection *session.ProductSelection,
) error {
	if selection == nil {
		return store.Delete(ctx, identity, ports.SlotProduct)
	}

	raw, err := json.Marshal(productSlotDTO{
		ProductID:   selection.ProductID,
		Description: selection.Description,
		UnitPrice:   selection.UnitPrice,
	})
	if err != nil {
		return err
	}

	return store.Set(ctx, identity, ports.SlotProduct, raw)
}

func saveDelivery(
	ctx context.Context, store ports.SessionStore,
	identity session.Identity, delivery *session.DeliveryRequest,
) error {
	if delivery == nil {
		return store.Delete(ctx, identity, ports.SlotDelivery)
	}

	dto := deliverySlotDTO{
		Address:         delivery.Address,
		Lat:             delivery.Point.Lat(),
		Lon:             delivery.Point.Lon(),
		LocationAddress: delivery.Location.Address(),
		LocationLat:     delivery.Location.Point().Lat(),
		LocationLon:     delivery.Location.Point().Lon(),
		CourierContact:  delivery.Location.CourierContact(),
		DistanceKm:      delivery.DistanceKm,
		Tier:            delivery.Tier.String(),
		Fee:             delivery.Fee,
	}
	if delivery.OrderID.Validate() == nil {
		dto.OrderID = delivery.OrderID.String()
	}

	raw, err := json.Marshal(dto)
	if err != nil {
		return err
	}

	return store.Set(ctx, identity, ports.SlotDelivery, raw)
}
