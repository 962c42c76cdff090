// Package courierrepo provides data transfer objects and mapping functions for courier persistence.
// This package implements the repository pattern for the courier domain aggregate, handling
// the conversion between domain entities and database representations.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting courier aggregates.
// Position columns are nullable: a courier that never reported a position
// has no coordinates and is not matchable.
type CourierDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Phone        string    `gorm:"type:varchar(32)"`
	Vehicle      string    `gorm:"type:varchar(64)"`
	Availability int       `gorm:"index"`
	LastLat      *float64
	LastLon      *float64
	PositionAt   *time.Time
	PushToken    string `gorm:"type:text"`
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for courier entities.
func (CourierDTO) TableName() string {
	return "couriers"
}

// fromDomain converts a courier domain aggregate to its database representation.
func fromDomain(aggregate *courier.Courier) CourierDTO {
	var lat, lon *float64
	if position := aggregate.LastPosition(); position != nil {
		la, lo := position.Latitude(), position.Longitude()
		lat, lon = &la, &lo
	}

	return CourierDTO{
		ID:           aggregate.ID().Bytes(),
		Name:         aggregate.Name(),
		Phone:        aggregate.Phone(),
		Vehicle:      aggregate.Vehicle(),
		Availability: int(aggregate.Availability()),
		LastLat:      lat,
		LastLon:      lon,
		PositionAt:   aggregate.PositionAt(),
		PushToken:    aggregate.PushToken(),
		IsActive:     aggregate.IsActive(),
	}
}

// toDomain converts a database DTO to a courier domain aggregate using
// RestoreCourier.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var position *kernel.GeoPoint
	if dto.LastLat != nil && dto.LastLon != nil {
		p, posErr := kernel.NewGeoPoint(*dto.LastLat, *dto.LastLon)
		if posErr != nil {
			return nil, posErr
		}
		position = &p
	}

	return courier.RestoreCourier(
		id,
		dto.Name,
		dto.Phone,
		dto.Vehicle,
		courier.Availability(dto.Availability),
		position,
		dto.PositionAt,
		dto.PushToken,
		dto.IsActive,
	)
}
