package courierrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCourierRepository implements CourierRepository using GORM.
type GormCourierRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB, tracker aggregateTracker) *GormCourierRepository {
	return &GormCourierRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new courier to the database.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
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

// UpdateGuarded saves the courier's availability only if the stored row
// still holds the expected availability. The compare and the write are one
// conditional UPDATE on the availability column alone; RowsAffected zero
// means a concurrent writer (a dispatch of another order, a release, or a
// duty toggle) moved the courier first. Writing the single column keeps a
// concurrent position report from being overwritten.
func (r *GormCourierRepository) UpdateGuarded(
	ctx context.Context,
	aggregate *courier.Courier,
	expected courier.Availability,
) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&CourierDTO{}).
		Where("id = ?", aggregate.ID().Bytes()).
		Where("availability = ?", int(expected)).
		Update("availability", int(aggregate.Availability()))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

// UpdatePosition saves the courier's last reported position and its
// timestamp, leaving availability and profile fields untouched so a ping
// that loaded the courier before a concurrent assignment committed cannot
// release a busy courier.
func (r *GormCourierRepository) UpdatePosition(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&CourierDTO{}).
		Where("id = ?", dto.ID).
		Select("last_lat", "last_lon", "position_at").
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

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAvailable retrieves couriers eligible for matching: Available,
// active, positioned, and not in the exclusion set. The exclusion filter
// runs in SQL so a large fleet never crosses the wire just to be skipped.
//
// Example:
//
//	candidates, err := repo.GetAllAvailable(ctx, ord.ExcludedCouriers())
//	if err != nil {
//		return fmt.Errorf("failed to get candidates: %w", err)
//	}
func (r *GormCourierRepository) GetAllAvailable(
	ctx context.Context,
	excluding []kernel.UUID,
) ([]*courier.Courier, error) {
	tx := r.db.WithContext(ctx).
		Where("availability = ?", int(courier.Available)).
		Where("is_active").
		Where("last_lat IS NOT NULL AND last_lon IS NOT NULL")

	if len(excluding) > 0 {
		excluded := make([]uuid.UUID, 0, len(excluding))
		for _, id := range excluding {
			excluded = append(excluded, id.Bytes())
		}
		tx = tx.Where("id NOT IN ?", excluded)
	}

	var dtos []CourierDTO
	if err := tx.Find(&dtos).Error; err != nil {
		return nil, err
	}

	couriers := make([]*courier.Courier, 0, len(dtos))
	for _, dto := range dtos {
		c, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		couriers = append(couriers, c)
	}

	return couriers, nil
}
