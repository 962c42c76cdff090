package queries

import (
	"context"
	"database/sql"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOrdersQueryHandler retrieves in-flight orders from the database.
// Filters out terminal orders to provide active dispatch workload visibility.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersQueryHandler creates a handler for active order queries.
// Requires a GORM database connection for query execution.
func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve all non-terminal orders, oldest
// first.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetActiveOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			dropoff_lat,
			dropoff_lon,
			distance_km,
			eta_minutes,
			assigned_courier_id,
			attempt_count,
			assigned_at
		FROM orders
		WHERE status NOT IN (?, ?, ?)
		ORDER BY created_at
	`, int(order.Delivered), int(order.Rejected), int(order.Cancelled)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp GetActiveOrdersQueryResponse
		var id uuid.UUID
		var status int
		var lat, lon float64
		var courierID uuid.NullUUID
		var assignedAt sql.NullTime

		err = rows.Scan(
			&id,
			&status,
			&lat,
			&lon,
			&resp.DistanceKm,
			&resp.EtaMinutes,
			&courierID,
			&resp.AttemptCount,
			&assignedAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = orderID
		resp.Status = order.Status(status).String()

		dropoff, dropErr := kernel.NewGeoPoint(lat, lon)
		if dropErr != nil {
			return nil, dropErr
		}
		resp.Dropoff = dropoff

		if courierID.Valid {
			holder, holderErr := kernel.UUIDFromBytes(courierID.UUID[:])
			if holderErr != nil {
				return nil, holderErr
			}
			resp.AssignedCourierID = &holder
		}
		if assignedAt.Valid {
			at := assignedAt.Time.UTC()
			resp.AssignedAt = &at
		}

		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
