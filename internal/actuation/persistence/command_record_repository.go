package persistence

import (
	"context"
	"fmt"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/persistence/internal"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/sql"
)

const _defaultFindLimit = 50

func NewCommandRecordRepository(orm sql.ORM) (*SimpleCommandRecordRepository, error) {
	err := orm.AutoMigrate(&internal.CommandRecord{})
	if err != nil {
		return nil, fmt.Errorf("auto migrating command record: %w", err)
	}

	return &SimpleCommandRecordRepository{orm: orm}, nil
}

var _ usecases.CommandRecorder = (*SimpleCommandRecordRepository)(nil)

type SimpleCommandRecordRepository struct {
	orm sql.ORM
}

func (r *SimpleCommandRecordRepository) Record(ctx context.Context, record domain.CommandRecord) error {
	entity := internal.FromCommandRecord(record)
	err := r.orm.WithContext(ctx).Create(&entity).Error()
	if err != nil {
		return fmt.Errorf("database insert: %w", err)
	}

	return nil
}

func (r *SimpleCommandRecordRepository) FindRecent(ctx context.Context, limit int) ([]domain.CommandRecord, error) {
	if limit <= 0 {
		limit = _defaultFindLimit
	}

	var entities internal.CommandRecordSet
	err := r.orm.
		WithContext(ctx).
		Order("issued_at DESC").
		Limit(limit).
		Find(&entities).
		Error()

	if err != nil {
		return nil, fmt.Errorf("database query: %w", err)
	}

	return entities.ToDomain(), nil
}

func (r *SimpleCommandRecordRepository) FindPage(ctx context.Context, limit, offset int) ([]domain.CommandRecord, int, error) {
	if limit <= 0 {
		limit = _defaultFindLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	err := r.orm.
		WithContext(ctx).
		Model(&internal.CommandRecord{}).
		Count(&total).
		Error()
	if err != nil {
		return nil, 0, fmt.Errorf("database count: %w", err)
	}

	var entities internal.CommandRecordSet
	err = r.orm.
		WithContext(ctx).
		Order("issued_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error()

	if err != nil {
		return nil, 0, fmt.Errorf("database query: %w", err)
	}

	return entities.ToDomain(), int(total), nil
}
