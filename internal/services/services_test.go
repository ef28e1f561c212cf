package services

import (
	"context"
	"sync"
	"testing"

	"community-match-service/internal/models"
	"community-match-service/internal/testutil"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingNotifier captures signals for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	matches  []models.Match
	messages []models.Message
	to       []uint
}

func (n *recordingNotifier) MatchCreated(_ context.Context, match models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, match)
}

func (n *recordingNotifier) MessageSent(_ context.Context, msg models.Message, recipientID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	n.to = append(n.to, recipientID)
}

func (n *recordingNotifier) matchCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.matches)
}

type testEngine struct {
	db            *gorm.DB
	hook          *test.Hook
	notifier      *recordingNotifier
	profiles      ProfileDirectory
	guard         *ModerationGuard
	conversations *ConversationRegistry
	detector      *MatchDetector
	likes         *LikeLedger
	messages      *MessageLog
}

const (
	alice uint = 1
	bob   uint = 2
	carol uint = 3
)

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.SeedProfiles(t, db, alice, bob, carol)
	log, hook := testutil.NewLogger()

	e := &testEngine{db: db, hook: hook, notifier: &recordingNotifier{}}
	e.profiles = NewProfileDirectory(db)
	e.guard = NewModerationGuard(db, e.profiles, ReportLimits{ReasonMaxLength: 100, DetailsMaxLength: 1000}, log)
	e.conversations = NewConversationRegistry(db, log)
	e.detector = NewMatchDetector(db, e.guard, e.conversations, e.profiles, e.notifier, log)
	e.likes = NewLikeLedger(db, e.guard, e.detector, e.profiles, log)
	e.messages = NewMessageLog(db, e.guard, e.conversations, e.notifier, MessageLimits{
		MaxLength:       20,
		DefaultPageSize: 2,
		MaxPageSize:     5,
	}, log)
	return e
}

// match makes a and b mutual and returns the match and its conversation.
func (e *testEngine) match(t *testing.T, a, b uint) (*models.Match, *models.Conversation) {
	t.Helper()
	ctx := context.Background()
	_, err := e.likes.GiveLike(ctx, a, b)
	require.NoError(t, err)
	res, err := e.likes.GiveLike(ctx, b, a)
	require.NoError(t, err)
	require.True(t, res.Matched)

	conv, err := e.conversations.GetOrCreate(ctx, res.Match.ID)
	require.NoError(t, err)
	return res.Match, conv
}

func (e *testEngine) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, models.KindOf(err), "error: %v", err)
}
