// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	MovementTypeInbound    MovementType = "inbound"    // Cancellation, restock
	MovementTypeOutbound   MovementType = "outbound"   // Sale, expiry write-off
	MovementTypeAdjustment MovementType = "adjustment" // Manual count
	MovementTypeTransfer   MovementType = "transfer"   // Fresh units moved into a clearance lot
)

// MovementReason represents the reason for a stock movement
type MovementReason string

const (
	ReasonSale           MovementReason = "sale"
	ReasonOrderCancelled MovementReason = "order_cancelled"
	ReasonAdjustment     MovementReason = "adjustment"
	ReasonClearanceMark  MovementReason = "clearance_mark"
	ReasonExpired        MovementReason = "expired"
)

// Movement is one entry of a product's stock ledger. Levels are recorded
// before and after the change.
type Movement struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	ProductID          uint           `gorm:"not null;index" json:"productId"`
	Pool               Pool           `gorm:"size:10" json:"pool,omitempty"` // empty when both pools were set at once
	MovementType       MovementType   `gorm:"not null;size:20" json:"movementType"`
	Reason             MovementReason `gorm:"not null;size:30" json:"reason"`
	Quantity           int            `gorm:"not null" json:"quantity"`
	PreviousStock      int            `gorm:"not null" json:"previousStock"`
	NewStock           int            `gorm:"not null" json:"newStock"`
	PreviousNearExpiry int            `gorm:"not null" json:"previousNearExpiry"`
	NewNearExpiry      int            `gorm:"not null" json:"newNearExpiry"`
	ReferenceType      string         `gorm:"size:50" json:"referenceType,omitempty"` // "order"
	ReferenceID        uint           `json:"referenceId,omitempty"`
	CreatedBy          uint           `gorm:"index" json:"createdBy,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// TableName overrides
func (Movement) TableName() string { return "inventory_movements" }

// NewMovement records a change from before to after
func NewMovement(productID uint, pool Pool, kind MovementType, reason MovementReason, quantity int, before, after Levels) Movement {
	return Movement{
		ProductID:          productID,
		Pool:               pool,
		MovementType:       kind,
		Reason:             reason,
		Quantity:           quantity,
		PreviousStock:      before.StockQuantity,
		NewStock:           after.StockQuantity,
		PreviousNearExpiry: before.NearExpiryQuantity,
		NewNearExpiry:      after.NearExpiryQuantity,
	}
}

// Take returns the levels after quantity units leave pool. Reduced units
// leave both the lot and the total.
func (l Levels) Take(pool Pool, quantity int) Levels {
	l.StockQuantity -= quantity
	if pool == PoolReduced {
		l.NearExpiryQuantity -= quantity
	}
	return l
}

// Put is the inverse of Take
func (l Levels) Put(pool Pool, quantity int) Levels {
	return l.Take(pool, -quantity)
}
