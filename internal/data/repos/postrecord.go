package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

type PostRecordRepo interface {
	Create(ctx context.Context, record *domain.PostRecord) (*domain.PostRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.PostRecord, error)
}

type postRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRecordRepo(db *gorm.DB, baseLog *logger.Logger) PostRecordRepo {
	return &postRecordRepo{db: db, log: baseLog.With("repo", "PostRecordRepo")}
}

func (r *postRecordRepo) Create(ctx context.Context, record *domain.PostRecord) (*domain.PostRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *postRecordRepo) ListRecent(ctx context.Context, limit int) ([]*domain.PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*domain.PostRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
