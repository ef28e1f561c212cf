package services

import (
	"context"
	"errors"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConversationRegistry keeps exactly one conversation per match.
type ConversationRegistry struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewConversationRegistry(db *gorm.DB, log logrus.FieldLogger) *ConversationRegistry {
	return &ConversationRegistry{db: db, log: log}
}

// GetOrCreate returns the conversation of matchID, inserting it on first
// access. Concurrent first accesses converge on the same row.
func (r *ConversationRegistry) GetOrCreate(ctx context.Context, matchID uint) (*models.Conversation, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Match", matchID)
		}
		return nil, storeError("get match", err)
	}

	created, err := insertOrIgnore(ctx, r.db, &models.Conversation{MatchID: matchID}, "match_id")
	if err != nil {
		return nil, storeError("insert conversation", err)
	}
	if created {
		metrics.ConversationsCreated.Inc()
		r.log.WithField("match_id", matchID).Debug("conversation created")
	}

	var conv models.Conversation
	if err := r.db.WithContext(ctx).Where("match_id = ?", matchID).First(&conv).Error; err != nil {
		return nil, storeError("load conversation", err)
	}
	conv.Match = &match
	return &conv, nil
}

// OpenForMatch is GetOrCreate restricted to the participants of the match.
func (r *ConversationRegistry) OpenForMatch(ctx context.Context, matchID, userID uint) (*models.Conversation, error) {
	conv, err := r.GetOrCreate(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !conv.Match.HasUser(userID) {
		return nil, models.NewForbiddenError("Not a participant of this match")
	}
	return conv, nil
}

// Get loads a conversation together with its match.
func (r *ConversationRegistry) Get(ctx context.Context, conversationID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).Preload("Match").First(&conv, conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Conversation", conversationID)
	}
	if err != nil {
		return nil, storeError("get conversation", err)
	}
	if conv.Match == nil {
		return nil, models.NewNotFoundError("Match", conv.MatchID)
	}
	return &conv, nil
}

// GetForParticipant loads a conversation and checks userID takes part in it.
func (r *ConversationRegistry) GetForParticipant(ctx context.Context, conversationID, userID uint) (*models.Conversation, error) {
	conv, err := r.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.Match.HasUser(userID) {
		return nil, models.NewForbiddenError("Not a participant of this conversation")
	}
	return conv, nil
}
