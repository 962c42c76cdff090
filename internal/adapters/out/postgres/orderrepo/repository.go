package orderrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order without a state guard. Only for
// transitions that cannot race the assignment machinery.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// UpdateGuarded saves the aggregate only if the stored row still matches the
// expected (status, holder, attempt) triple. The compare and the write are
// one conditional UPDATE; RowsAffected zero means a concurrent writer
// already resolved the state and the caller lost the race.
func (r *GormOrderRepository) UpdateGuarded(
	ctx context.Context,
	aggregate *order.Order,
	expected ports.OrderGuard,
) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)

	tx := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Where("status = ?", int(expected.Status)).
		Where("attempt_count = ?", expected.Attempt)
	if expected.CourierID != nil {
		tx = tx.Where("assigned_courier_id = ?", expected.CourierID.Bytes())
	} else {
		tx = tx.Where("assigned_courier_id IS NULL")
	}

	result := tx.Select("*").Omit("id", "created_at").Updates(&dto)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetFirstInStatus retrieves the oldest order in any of the given statuses.
func (r *GormOrderRepository) GetFirstInStatus(ctx context.Context, statuses ...order.Status) (*order.Order, error) {
	ints := make([]int, 0, len(statuses))
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		ints = append(ints, int(status))
		names = append(names, status.String())
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Where("status IN ?", ints).
		Order("created_at").
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", "first in "+strings.Join(names, "/"))
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAssignedBefore retrieves orders still Assigned whose offer was armed
// before the cutoff. Feeds the stale-offer sweep after a restart.
func (r *GormOrderRepository) GetAssignedBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ?", int(order.Assigned)).
		Where("assigned_at < ?", cutoff).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
