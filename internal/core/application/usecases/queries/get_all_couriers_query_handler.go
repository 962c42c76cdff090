package queries

import (
	"context"
	"database/sql"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAllCouriersQueryHandler retrieves all courier information from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetAllCouriersQueryHandler struct {
	db *gorm.DB
}

// NewGetAllCouriersQueryHandler creates a handler for courier retrieval queries.
// Requires a GORM database connection for query execution.
func NewGetAllCouriersQueryHandler(db *gorm.DB) GetAllCouriersQueryHandler {
	return GetAllCouriersQueryHandler{db: db}
}

// Handle executes the query to retrieve all couriers, sorted by name.
func (h GetAllCouriersQueryHandler) Handle(
	ctx context.Context,
	query GetAllCouriersQuery,
) ([]GetAllCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	couriers := make([]GetAllCouriersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			vehicle,
			availability,
			is_active,
			last_lat,
			last_lon,
			position_at
		FROM couriers
		ORDER BY name
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c GetAllCouriersQueryResponse
		var id uuid.UUID
		var availability int
		var lat, lon sql.NullFloat64
		var positionAt sql.NullTime

		err = rows.Scan(
			&id,
			&c.Name,
			&c.Vehicle,
			&availability,
			&c.IsActive,
			&lat,
			&lon,
			&positionAt,
		)
		if err != nil {
			return nil, err
		}

		courierID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		c.ID = courierID
		c.Availability = courier.Availability(availability).String()

		if lat.Valid && lon.Valid {
			position, posErr := kernel.NewGeoPoint(lat.Float64, lon.Float64)
			if posErr != nil {
				return nil, posErr
			}
			c.Position = &position
		}
		if positionAt.Valid {
			at := positionAt.Time.UTC()
			c.PositionAt = &at
		}

		couriers = append(couriers, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return couriers, nil
}
