package model

import "encoding/json"

// ExchangeItem is one right-hand side entry of an exchange.
type ExchangeItem struct {
	EquivalentFoodID string  `json:"equivalent_food_id"`
	Quantity         float64 `json:"quantity"`
	UnitID           *string `json:"unit_id"`
}

// Exchange states that QuantityLeft of FoodID is equivalent to the listed items.
//
// Older records carry a single equivalent directly on the record
// (EquivalentFoodID/Quantity/UnitID). Items wins when present.
type Exchange struct {
	ID           string         `json:"id"`
	FoodID       string         `json:"food_id"`
	QuantityLeft float64        `json:"quantity_left"`
	LeftUnitID   *string        `json:"left_unit_id"`
	Items        []ExchangeItem `json:"items"`

	EquivalentFoodID *string  `json:"equivalent_food_id,omitempty"`
	Quantity         *float64 `json:"quantity,omitempty"`
	UnitID           *string  `json:"unit_id,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
}

// Equivalents returns the right-hand side, reading the legacy single-item
// shape as a one-element list.
func (e Exchange) Equivalents() []ExchangeItem {
	if len(e.Items) > 0 {
		return e.Items
	}
	if e.EquivalentFoodID == nil || *e.EquivalentFoodID == "" {
		return nil
	}
	return []ExchangeItem{{
		EquivalentFoodID: *e.EquivalentFoodID,
		Quantity:         Deref(e.Quantity),
		UnitID:           e.UnitID,
	}}
}

// DefaultQuantityLeft is read for records stored without quantity_left.
const DefaultQuantityLeft = 1.0

// UnmarshalJSON reads a missing or null quantity_left as DefaultQuantityLeft.
// A stored 0 is kept.
func (e *Exchange) UnmarshalJSON(b []byte) error {
	type plain Exchange
	aux := struct {
		*plain
		QuantityLeft *float64 `json:"quantity_left"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.QuantityLeft = DefaultQuantityLeft
	if aux.QuantityLeft != nil {
		e.QuantityLeft = *aux.QuantityLeft
	}
	return nil
}

// NormalizeExchange rewrites a legacy record into the items shape.
// Already normalized records are returned unchanged.
func NormalizeExchange(e Exchange) Exchange {
	if len(e.Items) == 0 {
		e.Items = e.Equivalents()
	}
	if len(e.Items) > 0 {
		e.EquivalentFoodID, e.Quantity, e.UnitID = nil, nil, nil
	}
	return e
}

// NormalizeExchanges normalizes every exchange in place and returns the slice.
func NormalizeExchanges(list []Exchange) []Exchange {
	for i := range list {
		list[i] = NormalizeExchange(list[i])
	}
	return list
}
