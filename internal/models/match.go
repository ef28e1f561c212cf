package models

import (
	"time"
)

// Like is a directed expression of interest.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LikerID   uint      `json:"liker_id" gorm:"not null;uniqueIndex:idx_likes_pair,priority:1"`
	LikedID   uint      `json:"liked_id" gorm:"not null;uniqueIndex:idx_likes_pair,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is stored once per unordered pair with UserAID < UserBID.
type Match struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserAID       uint       `json:"user_a_id" gorm:"not null;uniqueIndex:idx_matches_pair,priority:1;check:chk_matches_order,user_a_id < user_b_id"`
	UserBID       uint       `json:"user_b_id" gorm:"not null;uniqueIndex:idx_matches_pair,priority:2;index"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (m *Match) HasUser(userID uint) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherUser returns the participant that is not userID.
func (m *Match) OtherUser(userID uint) (uint, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	}
	return 0, false
}

// Conversation is bound 1:1 to a Match. LastSequence is the sequence of the
// newest message and is only ever advanced inside the send transaction.
type Conversation struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	MatchID      uint      `json:"match_id" gorm:"not null;uniqueIndex"`
	LastSequence int64     `json:"last_sequence" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	Match        *Match    `json:"match,omitempty" gorm:"foreignKey:MatchID"`
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;uniqueIndex:idx_messages_seq,priority:1"`
	SenderID       uint      `json:"sender_id" gorm:"not null"`
	Body           string    `json:"body" gorm:"not null"`
	Sequence       int64     `json:"sequence" gorm:"not null;uniqueIndex:idx_messages_seq,priority:2"`
	CreatedAt      time.Time `json:"created_at"`
}

// Pair is an unordered pair of profile ids in canonical order (Low < High).
type Pair struct {
	Low  uint
	High uint
}

// CanonicalPair orders a and b so that the smaller id comes first.
func CanonicalPair(a, b uint) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}
