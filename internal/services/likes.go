package services

import (
	"context"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LikeResult is the outcome of GiveLike.
type LikeResult struct {
	Created bool          `json:"created"`
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

// LikeLedger records directed interest between profiles.
type LikeLedger struct {
	db       *gorm.DB
	guard    *ModerationGuard
	detector *MatchDetector
	profiles ProfileDirectory
	log      logrus.FieldLogger
}

func NewLikeLedger(db *gorm.DB, guard *ModerationGuard, detector *MatchDetector, profiles ProfileDirectory, log logrus.FieldLogger) *LikeLedger {
	return &LikeLedger{
		db:       db,
		guard:    guard,
		detector: detector,
		profiles: profiles,
		log:      log,
	}
}

// GiveLike stores Like(likerID -> targetID) and runs match detection. Liking
// twice is not an error: the second call reports Created=false and the
// current match state. Detection runs on repeats as well, which completes a
// pair whose earlier attempt stopped between the like and the match.
func (l *LikeLedger) GiveLike(ctx context.Context, likerID, targetID uint) (*LikeResult, error) {
	if likerID == targetID {
		metrics.LikesTotal.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("Cannot like yourself")
	}
	if _, err := l.profiles.Get(ctx, likerID); err != nil {
		if models.IsKind(err, models.KindNotFound) {
			metrics.LikesTotal.WithLabelValues("forbidden").Inc()
			return nil, models.NewForbiddenError("Only active profiles can like")
		}
		return nil, err
	}
	if _, err := l.profiles.Get(ctx, targetID); err != nil {
		return nil, err
	}
	if err := l.guard.ensureNotBlocked(ctx, likerID, targetID, "like"); err != nil {
		if models.IsKind(err, models.KindForbidden) {
			metrics.LikesTotal.WithLabelValues("forbidden").Inc()
		}
		return nil, err
	}

	created, err := insertOrIgnore(ctx, l.db, &models.Like{LikerID: likerID, LikedID: targetID}, "liker_id", "liked_id")
	if err != nil {
		return nil, storeError("insert like", err)
	}
	logger := l.log.WithFields(logrus.Fields{"liker_id": likerID, "liked_id": targetID})
	if created {
		metrics.LikesTotal.WithLabelValues("created").Inc()
	} else {
		metrics.LikesTotal.WithLabelValues("duplicate").Inc()
		logger.Debug("like already present")
	}

	match, _, err := l.detector.Detect(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}

	return &LikeResult{Created: created, Matched: match != nil, Match: match}, nil
}

// RemoveLike deletes the directed like if present. An existing match is kept.
func (l *LikeLedger) RemoveLike(ctx context.Context, likerID, targetID uint) (bool, error) {
	res := l.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, targetID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, storeError("delete like", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Sent lists the likes given by userID, newest first.
func (l *LikeLedger) Sent(ctx context.Context, userID uint) ([]models.Like, error) {
	return l.list(ctx, "liker_id = ?", userID)
}

// Received lists the likes addressed to userID, newest first.
func (l *LikeLedger) Received(ctx context.Context, userID uint) ([]models.Like, error) {
	return l.list(ctx, "liked_id = ?", userID)
}

func (l *LikeLedger) list(ctx context.Context, cond string, userID uint) ([]models.Like, error) {
	likes := []models.Like{}
	if err := l.db.WithContext(ctx).Where(cond, userID).Order("created_at DESC, id DESC").Find(&likes).Error; err != nil {
		return nil, storeError("list likes", err)
	}
	return likes, nil
}
