package services

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MessageLimits bounds message bodies and page sizes.
type MessageLimits struct {
	MaxLength       int
	DefaultPageSize int
	MaxPageSize     int
}

// MessagePage is one page of a conversation. NextCursor is nil on the last page.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor *int64           `json:"next_cursor"`
}

// MessageLog is the append-only, sequenced log of every conversation.
type MessageLog struct {
	db            *gorm.DB
	guard         *ModerationGuard
	conversations *ConversationRegistry
	notifier      Notifier
	validate      *validator.Validate
	limits        MessageLimits
	log           logrus.FieldLogger
}

func NewMessageLog(db *gorm.DB, guard *ModerationGuard, conversations *ConversationRegistry,
	notifier Notifier, limits MessageLimits, log logrus.FieldLogger) *MessageLog {
	return &MessageLog{
		db:            db,
		guard:         guard,
		conversations: conversations,
		notifier:      notifier,
		validate:      validator.New(),
		limits:        limits,
		log:           log,
	}
}

// Send appends a message from senderID. The sequence comes from the
// conversation row's counter, advanced in the same transaction as the insert,
// so concurrent senders get strictly increasing, gap-free numbers.
func (l *MessageLog) Send(ctx context.Context, conversationID, senderID uint, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if err := l.validate.Var(body, fmt.Sprintf("required,max=%d", l.limits.MaxLength)); err != nil {
		return nil, lengthError("message body", l.limits.MaxLength, err)
	}

	conv, err := l.conversations.GetForParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	recipientID, _ := conv.Match.OtherUser(senderID)
	if err := l.guard.ensureNotBlocked(ctx, senderID, recipientID, "send message"); err != nil {
		return nil, err
	}

	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("last_sequence", gorm.Expr("last_sequence + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("advance sequence: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Conversation", conversationID)
		}

		if err := tx.Model(&models.Conversation{}).
			Select("last_sequence").
			Where("id = ?", conversationID).
			Row().Scan(&msg.Sequence); err != nil {
			return fmt.Errorf("read sequence: %w", err)
		}

		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		if err := tx.Model(&models.Match{}).
			Where("id = ?", conv.MatchID).
			UpdateColumn("last_message_at", msg.CreatedAt).Error; err != nil {
			return fmt.Errorf("touch match: %w", err)
		}
		return nil
	})
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, err
		}
		return nil, storeError("send message", err)
	}

	metrics.MessagesSent.Inc()
	l.log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"sender_id":       senderID,
		"sequence":        msg.Sequence,
	}).Debug("message stored")
	l.notifier.MessageSent(ctx, msg, recipientID)
	return &msg, nil
}

// List returns up to limit messages with a sequence greater than cursor, in
// sequence order. A zero cursor starts at the beginning.
func (l *MessageLog) List(ctx context.Context, conversationID, viewerID uint, cursor int64, limit int) (*MessagePage, error) {
	if cursor < 0 {
		return nil, models.NewValidationError("cursor must not be negative")
	}
	limit = l.pageSize(limit)

	if _, err := l.conversations.GetForParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	err := l.db.WithContext(ctx).
		Where("conversation_id = ? AND sequence > ?", conversationID, cursor).
		Order("sequence ASC").
		Limit(limit + 1).
		Find(&messages).Error
	if err != nil {
		return nil, storeError("list messages", err)
	}

	page := &MessagePage{Messages: messages}
	if len(messages) > limit {
		page.Messages = messages[:limit]
		next := page.Messages[limit-1].Sequence
		page.NextCursor = &next
	}
	return page, nil
}

// Iterate walks the whole conversation lazily, one page at a time. It stops
// at the first error, which it yields.
func (l *MessageLog) Iterate(ctx context.Context, conversationID, viewerID uint, pageSize int) iter.Seq2[models.Message, error] {
	return func(yield func(models.Message, error) bool) {
		var cursor int64
		for {
			page, err := l.List(ctx, conversationID, viewerID, cursor, pageSize)
			if err != nil {
				yield(models.Message{}, err)
				return
			}
			for _, msg := range page.Messages {
				if !yield(msg, nil) {
					return
				}
			}
			if page.NextCursor == nil {
				return
			}
			cursor = *page.NextCursor
		}
	}
}

func (l *MessageLog) pageSize(limit int) int {
	if limit <= 0 {
		return l.limits.DefaultPageSize
	}
	if limit > l.limits.MaxPageSize {
		return l.limits.MaxPageSize
	}
	return limit
}
