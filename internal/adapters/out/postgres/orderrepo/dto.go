// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Status and assignment columns are indexed for the sweeps; the exclusion
// set is a Postgres text[] because it only ever grows and is read whole.
type OrderDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;index"`
	Status     int       `gorm:"index"`

	DropoffLat float64
	DropoffLon float64

	DistanceKm      float64
	EtaMinutes      int
	CourierEarnings string `gorm:"type:numeric(12,2)"`
	CustomerFee     string `gorm:"type:numeric(12,2)"`

	AssignedCourierID  *uuid.UUID     `gorm:"type:uuid;index"`
	ExcludedCourierIDs pq.StringArray `gorm:"type:text[]"`
	AttemptCount       int

	AssignedAt  *time.Time `gorm:"index"`
	AcceptedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time

	Notes         string
	PaymentMethod string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	var courierID *uuid.UUID
	if id := aggregate.Courier(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	excluded := make(pq.StringArray, 0, len(aggregate.ExcludedCouriers()))
	for _, id := range aggregate.ExcludedCouriers() {
		excluded = append(excluded, id.String())
	}

	dropoff := aggregate.Dropoff()

	return OrderDTO{
		ID:                 aggregate.ID().Bytes(),
		CustomerID:         aggregate.CustomerID().Bytes(),
		Status:             int(aggregate.Status()),
		DropoffLat:         dropoff.Latitude(),
		DropoffLon:         dropoff.Longitude(),
		DistanceKm:         aggregate.DistanceKm(),
		EtaMinutes:         aggregate.EtaMinutes(),
		CourierEarnings:    aggregate.Earnings().String(),
		CustomerFee:        aggregate.Fee().String(),
		AssignedCourierID:  courierID,
		ExcludedCourierIDs: excluded,
		AttemptCount:       aggregate.AttemptCount(),
		AssignedAt:         aggregate.AssignedAt(),
		AcceptedAt:         aggregate.AcceptedAt(),
		PickedUpAt:         aggregate.PickedUpAt(),
		DeliveredAt:        aggregate.DeliveredAt(),
		Notes:              aggregate.Notes(),
		PaymentMethod:      aggregate.PaymentMethod(),
	}
}

// toDomain converts a database DTO to an order domain aggregate using
// RestoreOrder, which re-checks the structural invariants.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.AssignedCourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.AssignedCourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}

		courierID = &cID
	}

	excluded := make([]kernel.UUID, 0, len(dto.ExcludedCourierIDs))
	for _, raw := range dto.ExcludedCourierIDs {
		excludedID, exclErr := kernel.UUIDFromString(raw)
		if exclErr != nil {
			return nil, exclErr
		}
		excluded = append(excluded, excludedID)
	}

	dropoff, err := kernel.NewGeoPoint(dto.DropoffLat, dto.DropoffLon)
	if err != nil {
		return nil, err
	}

	earnings, err := kernel.ParseMoney(dto.CourierEarnings)
	if err != nil {
		return nil, err
	}
	fee, err := kernel.ParseMoney(dto.CustomerFee)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		customerID,
		dropoff,
		order.Quote{
			DistanceKm:      dto.DistanceKm,
			EtaMinutes:      dto.EtaMinutes,
			CourierEarnings: earnings,
			CustomerFee:     fee,
		},
		order.Status(dto.Status),
		courierID,
		excluded,
		dto.AttemptCount,
		dto.AssignedAt,
		dto.AcceptedAt,
		dto.PickedUpAt,
		dto.DeliveredAt,
		dto.Notes,
		dto.PaymentMethod,
	)
}
