package dialog

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Intent marks whether a session has entered the booking flow.
type Intent int

const (
	IntentNone Intent = iota
	IntentBooking
)

// Stage is the current booking collection step. Stages only move forward;
// a completed flow resets the whole record instead of rewinding.
type Stage int

const (
	StageCollectDateTime Stage = iota
	StageCollectName
	StageCollectPhone
	StageCollectEmail
)

func (s Stage) String() string {
	switch s {
	case StageCollectDateTime:
		return "collect_datetime"
	case StageCollectName:
		return "collect_name"
	case StageCollectPhone:
		return "collect_phone"
	case StageCollectEmail:
		return "collect_email"
	default:
		return "unknown"
	}
}

// Booking is the appointment request being assembled across turns.
type Booking struct {
	Intent Intent
	Stage  Stage

	// CandidateDT is a parsed time awaiting the caller's confirmation.
	// LastContextDT anchors later time-only utterances ("make it 3pm")
	// to the most recently discussed day.
	CandidateDT   time.Time
	LastContextDT time.Time
	AwaitingAMPM  bool
	askedDateTime bool

	// DateTime is set only after explicit confirmation or a resolved
	// AM/PM answer, never straight from a parse.
	DateTime   time.Time
	FriendlyDT string

	Name  string
	Phone string
	Email string

	// CommitPending is set when the booking call failed with all fields
	// collected. The next in-flow utterance retries the commit instead
	// of re-collecting anything.
	CommitPending bool
}

// Session is the per-call state. The mutex serializes turns for one call
// id so a webhook retry cannot double-fire a booking commit.
type Session struct {
	CallID  string
	Booking Booking

	HumanMode     bool
	Urgency       bool
	PainMentioned bool
	Frustrated    bool
	Confused      bool

	mu sync.Mutex
}

const defaultSessionTTL = 2 * time.Hour

// Store maps call ids to sessions. Entries expire after the TTL since
// their last turn, so abandoned calls do not accumulate.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewStore builds a store whose sessions expire ttl after last use. A
// non-positive ttl falls back to two hours.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{cache: cache.New(ttl, ttl/4)}
}

// GetOrCreate returns the session for a call id, creating an empty one on
// first sight. Each hit refreshes the expiry.
func (s *Store) GetOrCreate(callID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(callID); ok {
		sess := v.(*Session)
		s.cache.Set(callID, sess, cache.DefaultExpiration)
		return sess
	}
	sess := &Session{CallID: callID}
	s.cache.Set(callID, sess, cache.DefaultExpiration)
	return sess
}

// Reset drops a session entirely.
func (s *Store) Reset(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(callID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
