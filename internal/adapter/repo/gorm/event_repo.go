package gormrepo

import (
	"context"
	"encoding/json"

	"sarsim/internal/adapter/repo/gorm/model"
	"sarsim/internal/domain/rescue"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, episodeID string, events []rescue.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.EpisodeEvent, 0, len(events))
	for _, e := range events {
		b, _ := json.Marshal(e.Payload)
		rows = append(rows, model.EpisodeEvent{
			EpisodeID: episodeID,
			Tick:      int32(e.Tick),
			AgentID:   int32(e.AgentID),
			Type:      e.Type,
			Payload:   b,
		})
	}
	return dbFor(ctx, r.db).Create(&rows).Error
}

func (r EventRepo) ListByEpisodeID(ctx context.Context, episodeID string, limit int) ([]rescue.Event, error) {
	rows := []model.EpisodeEvent{}
	query := dbFor(ctx, r.db).
		Where(&model.EpisodeEvent{EpisodeID: episodeID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	// rows are newest first; callers want append order.
	out := make([]rescue.Event, len(rows))
	for i, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out[len(rows)-1-i] = rescue.Event{
			Type:    row.Type,
			Tick:    int(row.Tick),
			AgentID: int(row.AgentID),
			Payload: payload,
		}
	}
	return out, nil
}
