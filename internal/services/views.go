package services

import (
	"context"
	"fmt"
	"time"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"
	"community-match-service/internal/redis"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewStore is the backing counter of a ViewCounter.
type ViewStore interface {
	Incr(ctx context.Context, subjectID uint) (int64, error)
	Get(ctx context.Context, subjectID uint) (int64, error)
}

// ViewCounter is a best-effort impression counter. Every call counts; there is
// no per-viewer deduplication.
type ViewCounter struct {
	store ViewStore
	log   logrus.FieldLogger
}

func NewViewCounter(store ViewStore, log logrus.FieldLogger) *ViewCounter {
	return &ViewCounter{store: store, log: log}
}

// Increment records one impression of subjectID and returns the new count.
func (v *ViewCounter) Increment(ctx context.Context, subjectID uint) (int64, error) {
	n, err := v.store.Incr(ctx, subjectID)
	if err != nil {
		metrics.ViewsRecorded.WithLabelValues("failed").Inc()
		v.log.WithError(err).WithField("subject_id", subjectID).Warn("failed to record view")
		return 0, storeError("record view", err)
	}
	metrics.ViewsRecorded.WithLabelValues("recorded").Inc()
	return n, nil
}

func (v *ViewCounter) Count(ctx context.Context, subjectID uint) (int64, error) {
	n, err := v.store.Get(ctx, subjectID)
	if err != nil {
		return 0, storeError("read views", err)
	}
	return n, nil
}

type redisViewStore struct {
	client *redis.Client
}

// NewRedisViewStore counts views with redis INCR.
func NewRedisViewStore(client *redis.Client) ViewStore {
	return &redisViewStore{client: client}
}

func viewKey(subjectID uint) string {
	return fmt.Sprintf("views:post:%d", subjectID)
}

func (s *redisViewStore) Incr(ctx context.Context, subjectID uint) (int64, error) {
	return s.client.Incr(ctx, viewKey(subjectID))
}

func (s *redisViewStore) Get(ctx context.Context, subjectID uint) (int64, error) {
	return s.client.GetInt64(ctx, viewKey(subjectID))
}

type dbViewStore struct {
	db *gorm.DB
}

// NewDBViewStore counts views in the view_counts table. Used when redis is
// not configured.
func NewDBViewStore(db *gorm.DB) ViewStore {
	return &dbViewStore{db: db}
}

func (s *dbViewStore) Incr(ctx context.Context, subjectID uint) (int64, error) {
	row := models.ViewCount{SubjectID: subjectID, ViewsCount: 1, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"views_count": gorm.Expr("view_counts.views_count + 1"),
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}
	return s.Get(ctx, subjectID)
}

func (s *dbViewStore) Get(ctx context.Context, subjectID uint) (int64, error) {
	var counts []int64
	err := s.db.WithContext(ctx).Model(&models.ViewCount{}).
		Where("subject_id = ?", subjectID).
		Pluck("views_count", &counts).Error
	if err != nil || len(counts) == 0 {
		return 0, err
	}
	return counts[0], nil
}
