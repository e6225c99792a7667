package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"trackviz/model"
)

const insertBatchSize = 500

// TrackRepository 曲目数据访问接口
type TrackRepository interface {
	// ReplaceAll 用给定数据集替换全部曲目
	ReplaceAll(ctx context.Context, tracks []model.Track) (int, error)
	// List 按导入顺序返回全部曲目
	List(ctx context.Context) ([]model.Track, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Track, error)
}

// gormTrackRepository GORM 实现
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲目仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// ReplaceAll deletes every stored track and inserts tracks in one transaction.
// Duplicate ids keep their first occurrence. It returns the number stored.
func (r *gormTrackRepository) ReplaceAll(ctx context.Context, tracks []model.Track) (int, error) {
	unique := lo.UniqBy(tracks, func(t model.Track) string { return t.ID })
	records := lo.Map(unique, func(t model.Track, i int) model.TrackRecord { return model.NewTrackRecord(t, i) })

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.TrackRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear tracks: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert tracks: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// List 按 position 排序返回全部曲目
func (r *gormTrackRepository) List(ctx context.Context) ([]model.Track, error) {
	var records []model.TrackRecord
	if err := r.db.WithContext(ctx).Order("position").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return lo.Map(records, func(rec model.TrackRecord, _ int) model.Track { return rec.Track() }), nil
}

// Count 曲目总数
func (r *gormTrackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TrackRecord{}).Count(&count).Error
	return count, err
}

// GetByID 根据ID获取曲目，不存在时返回 nil, nil
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var rec model.TrackRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := rec.Track()
	return &t, nil
}
