package services

import (
	"context"
	"errors"
	"time"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MatchDetector decides when a pair becomes mutual and creates the Match
// exactly once per canonical pair.
type MatchDetector struct {
	db            *gorm.DB
	guard         *ModerationGuard
	conversations *ConversationRegistry
	profiles      ProfileDirectory
	notifier      Notifier
	log           logrus.FieldLogger
}

func NewMatchDetector(db *gorm.DB, guard *ModerationGuard, conversations *ConversationRegistry,
	profiles ProfileDirectory, notifier Notifier, log logrus.FieldLogger) *MatchDetector {
	return &MatchDetector{
		db:            db,
		guard:         guard,
		conversations: conversations,
		profiles:      profiles,
		notifier:      notifier,
		log:           log,
	}
}

// Detect runs after Like(likerID -> targetID) is stored. When the reverse like
// exists it inserts the canonical Match with insert-or-ignore, so of two
// racing callers one inserts and the other observes the row. The returned
// match is nil when the pair is not matched; created is true only for the
// call that inserted it.
//
// The like insert must be committed before Detect runs: each side then either
// sees the other's like or is seen by it.
func (d *MatchDetector) Detect(ctx context.Context, likerID, targetID uint) (*models.Match, bool, error) {
	pair := models.CanonicalPair(likerID, targetID)

	var reverse int64
	err := d.db.WithContext(ctx).Model(&models.Like{}).
		Where("liker_id = ? AND liked_id = ?", targetID, likerID).
		Count(&reverse).Error
	if err != nil {
		return nil, false, storeError("check reverse like", err)
	}
	if reverse == 0 {
		m, err := d.find(ctx, pair)
		return m, false, err
	}

	blocked, err := d.guard.IsBlocked(ctx, likerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if blocked {
		m, err := d.find(ctx, pair)
		return m, false, err
	}

	created, err := insertOrIgnore(ctx, d.db, &models.Match{UserAID: pair.Low, UserBID: pair.High}, "user_a_id", "user_b_id")
	if err != nil {
		return nil, false, storeError("insert match", err)
	}

	match, err := d.find(ctx, pair)
	if err != nil {
		return nil, false, err
	}
	if match == nil {
		return nil, false, models.NewInternalError(errors.New("match missing after insert"))
	}

	if created {
		d.onCreated(ctx, *match)
	}
	return match, created, nil
}

// onCreated runs the first-time side effects. The conversation is created
// lazily on first use if this attempt fails.
func (d *MatchDetector) onCreated(ctx context.Context, match models.Match) {
	metrics.MatchesCreated.Inc()
	logger := d.log.WithFields(logrus.Fields{
		"match_id":  match.ID,
		"user_a_id": match.UserAID,
		"user_b_id": match.UserBID,
	})
	logger.Info("match created")

	if _, err := d.conversations.GetOrCreate(ctx, match.ID); err != nil {
		logger.WithError(err).Warn("failed to create conversation for new match")
	}
	d.notifier.MatchCreated(ctx, match)
}

// Find returns the match for the unordered pair {a, b}, or nil.
func (d *MatchDetector) Find(ctx context.Context, a, b uint) (*models.Match, error) {
	return d.find(ctx, models.CanonicalPair(a, b))
}

func (d *MatchDetector) find(ctx context.Context, pair models.Pair) (*models.Match, error) {
	var match models.Match
	err := d.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", pair.Low, pair.High).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find match", err)
	}
	return &match, nil
}

// MatchView is one entry of a user's match list.
type MatchView struct {
	MatchID       uint                   `json:"match_id"`
	OtherUserID   uint                   `json:"other_user_id"`
	OtherUser     *models.ProfileSummary `json:"other_user,omitempty"`
	LastMessageAt *time.Time             `json:"last_message_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type MatchPage struct {
	Matches    []MatchView `json:"matches"`
	Pagination Pagination  `json:"pagination"`
}

// ListForUser returns the matches of userID, most recently active first.
func (d *MatchDetector) ListForUser(ctx context.Context, userID uint, page, limit int) (*MatchPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return nil, models.NewValidationError("limit must be positive")
	}

	query := d.db.WithContext(ctx).Model(&models.Match{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError("count matches", err)
	}

	var matches []models.Match
	err := query.
		Order("last_message_at IS NULL, last_message_at DESC, created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, storeError("list matches", err)
	}

	others := make([]uint, 0, len(matches))
	for i := range matches {
		other, _ := matches[i].OtherUser(userID)
		others = append(others, other)
	}
	summaries, err := d.profiles.Lookup(ctx, others)
	if err != nil {
		return nil, err
	}

	views := make([]MatchView, 0, len(matches))
	for i, m := range matches {
		view := MatchView{
			MatchID:       m.ID,
			OtherUserID:   others[i],
			LastMessageAt: m.LastMessageAt,
			CreatedAt:     m.CreatedAt,
		}
		if s, ok := summaries[others[i]]; ok {
			view.OtherUser = &s
		}
		views = append(views, view)
	}

	return &MatchPage{
		Matches: views,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}
