package services

import (
	"context"
	"encoding/json"

	"community-match-service/internal/models"
	"community-match-service/internal/redis"

	"github.com/sirupsen/logrus"
)

// Notifier receives engine signals. Implementations are best effort and must
// not block the caller for long; failures are theirs to log.
type Notifier interface {
	MatchCreated(ctx context.Context, match models.Match)
	MessageSent(ctx context.Context, msg models.Message, recipientID uint)
}

// RedisPublisher publishes engine events on per-user redis channels. Every
// process relays them to its own sockets (websocket.Hub.Relay).
type RedisPublisher struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewRedisPublisher(client *redis.Client, log logrus.FieldLogger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) MatchCreated(ctx context.Context, match models.Match) {
	event := models.NewMatchEvent(match)
	p.publish(ctx, match.UserAID, event)
	p.publish(ctx, match.UserBID, event)
}

func (p *RedisPublisher) MessageSent(ctx context.Context, msg models.Message, recipientID uint) {
	event := models.NewMessageEvent(msg)
	p.publish(ctx, recipientID, event)
	p.publish(ctx, msg.SenderID, event)
}

func (p *RedisPublisher) publish(ctx context.Context, userID uint, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).WithField("event", event.Type).Warn("failed to encode event")
		return
	}
	if err := p.client.Publish(ctx, redis.UserChannel(userID), payload); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"user_id": userID,
		}).Warn("failed to publish event")
	}
}
