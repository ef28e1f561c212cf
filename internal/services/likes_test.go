package services

import (
	"context"
	"testing"

	"community-match-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiveLikeIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.likes.GiveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.False(t, first.Matched)
	assert.Nil(t, first.Match)

	second, err := e.likes.GiveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.Matched)

	assert.EqualValues(t, 1, e.count(t, &models.Like{}))
}

func TestGiveLikeRejectsSelfAndUnknownTarget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.likes.GiveLike(ctx, alice, alice)
	requireKind(t, err, models.KindValidation)

	_, err = e.likes.GiveLike(ctx, alice, 99)
	requireKind(t, err, models.KindNotFound)

	assert.Zero(t, e.count(t, &models.Like{}))
}

func TestGiveLikeRejectsInactiveTarget(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.db.Model(&models.Profile{}).Where("id = ?", carol).Update("is_active", false).Error)

	_, err := e.likes.GiveLike(context.Background(), alice, carol)
	requireKind(t, err, models.KindNotFound)
}

func TestGiveLikeRequiresActiveLiker(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.likes.GiveLike(ctx, bob, alice)
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&models.Profile{}).Where("id = ?", alice).Update("is_active", false).Error)

	_, err = e.likes.GiveLike(ctx, alice, bob)
	requireKind(t, err, models.KindForbidden)

	_, err = e.likes.GiveLike(ctx, 99, bob)
	requireKind(t, err, models.KindForbidden)

	assert.EqualValues(t, 1, e.count(t, &models.Like{}))
	assert.Zero(t, e.count(t, &models.Match{}))
}

func TestMutualLikeScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.likes.GiveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Matched)

	res, err = e.likes.GiveLike(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Match)
	assert.Equal(t, alice, res.Match.UserAID)
	assert.Equal(t, bob, res.Match.UserBID)

	assert.EqualValues(t, 1, e.count(t, &models.Match{}))
	assert.EqualValues(t, 1, e.count(t, &models.Conversation{}))
	assert.Equal(t, 1, e.notifier.matchCount())

	// Liking again reports the existing match without a new signal.
	res, err = e.likes.GiveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.Matched)
	assert.Equal(t, 1, e.notifier.matchCount())
}

func TestRemoveLikeKeepsMatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	match, _ := e.match(t, alice, bob)

	removed, err := e.likes.RemoveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = e.likes.RemoveLike(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, removed)

	found, err := e.detector.Find(ctx, bob, alice)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, match.ID, found.ID)
	assert.EqualValues(t, 1, e.count(t, &models.Conversation{}))
}

func TestSentAndReceived(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.likes.GiveLike(ctx, alice, bob)
	require.NoError(t, err)
	_, err = e.likes.GiveLike(ctx, carol, bob)
	require.NoError(t, err)

	sent, err := e.likes.Sent(ctx, alice)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, bob, sent[0].LikedID)

	received, err := e.likes.Received(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	received, err = e.likes.Received(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, received)
}
