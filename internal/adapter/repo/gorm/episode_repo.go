package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sarsim/internal/adapter/repo/gorm/model"
	"sarsim/internal/app/ports"
	"sarsim/internal/config"

	"gorm.io/gorm"
)

type EpisodeRepo struct {
	db *gorm.DB
}

func NewEpisodeRepo(db *gorm.DB) EpisodeRepo {
	return EpisodeRepo{db: db}
}

func (r EpisodeRepo) Create(ctx context.Context, rec ports.EpisodeRecord) error {
	m, err := toEpisodeModel(rec)
	if err != nil {
		return err
	}
	if err := dbFor(ctx, r.db).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r EpisodeRepo) GetByID(ctx context.Context, episodeID string) (ports.EpisodeRecord, error) {
	var m model.Episode
	if err := dbFor(ctx, r.db).Where("episode_id = ?", episodeID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EpisodeRecord{}, ports.ErrNotFound
		}
		return ports.EpisodeRecord{}, err
	}
	return fromEpisodeModel(m)
}

func (r EpisodeRepo) SaveWithVersion(ctx context.Context, rec ports.EpisodeRecord, expectedVersion int64) error {
	if expectedVersion == 0 {
		return r.Create(ctx, rec)
	}

	updates := map[string]any{
		"status":       string(rec.Status),
		"tick":         int32(rec.Tick),
		"total_reward": int32(rec.TotalReward),
		"rescued":      int32(rec.Rescued),
		"version":      rec.Version,
		"updated_at":   rec.UpdatedAt,
	}
	res := dbFor(ctx, r.db).Model(&model.Episode{}).
		Where("episode_id = ? AND version = ?", rec.EpisodeID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func toEpisodeModel(rec ports.EpisodeRecord) (model.Episode, error) {
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return model.Episode{}, fmt.Errorf("encode episode config: %w", err)
	}
	return model.Episode{
		EpisodeID:   rec.EpisodeID,
		Status:      string(rec.Status),
		Seed:        rec.Seed,
		Config:      cfg,
		Tick:        int32(rec.Tick),
		TotalReward: int32(rec.TotalReward),
		Rescued:     int32(rec.Rescued),
		Version:     rec.Version,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func fromEpisodeModel(m model.Episode) (ports.EpisodeRecord, error) {
	var cfg config.Config
	if len(m.Config) > 0 {
		if err := json.Unmarshal(m.Config, &cfg); err != nil {
			return ports.EpisodeRecord{}, fmt.Errorf("decode episode config: %w", err)
		}
	}
	return ports.EpisodeRecord{
		EpisodeID:   m.EpisodeID,
		Status:      ports.EpisodeStatus(m.Status),
		Seed:        m.Seed,
		Config:      cfg,
		Tick:        int(m.Tick),
		TotalReward: int(m.TotalReward),
		Rescued:     int(m.Rescued),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}
