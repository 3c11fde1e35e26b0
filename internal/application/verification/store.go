package verification

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	"github.com/AlexanderKamenka/QuickLine-back/internal/pkg/otp"
)

// Lifecycle defaults, applied when the corresponding StoreConfig field is zero.
const (
	DefaultCodeTTL        = 5 * time.Minute
	DefaultResendCooldown = 60 * time.Second
	DefaultMaxAttempts    = 3
)

const (
	shardCount    = 32
	sweepInterval = time.Minute
)

// record is an in-flight verification code for one phone number. Records are
// replaced, never mutated, on resend; only the attempt counter changes in place.
type record struct {
	code       string
	createdAt  time.Time
	expiresAt  time.Time
	lastSentAt time.Time
	attempts   int
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// StoreConfig tunes the verification code lifecycle.
type StoreConfig struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
}

// Store is the authoritative holder of in-flight verification codes, keyed by
// normalized phone number. State is sharded so operations on different phone
// numbers do not contend; all operations on one number serialize on its shard.
// State is process-local: a restart drops all in-flight codes.
type Store struct {
	cfg    StoreConfig
	shards [shardCount]*shard
	now    func() time.Time
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = DefaultResendCooldown
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	s := &Store{cfg: cfg, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*record)}
	}
	go s.sweepLoop()
	return s
}

// Issued describes a freshly stored verification code.
type Issued struct {
	Code      string
	ExpiresIn time.Duration
}

// RateLimitedError reports that the resend cooldown for a phone number has
// not elapsed yet. It unwraps to domain.ErrRateLimited.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("wait %d seconds before requesting a new code", e.WaitSeconds())
}

func (e *RateLimitedError) Unwrap() error { return domain.ErrRateLimited }

// WaitSeconds is the remaining cooldown rounded up to whole seconds.
func (e *RateLimitedError) WaitSeconds() int {
	return int((e.Wait + time.Second - 1) / time.Second)
}

// CheckStatus is the outcome of a code check.
type CheckStatus int

const (
	StatusVerified CheckStatus = iota
	StatusNotFound
	StatusExpired
	StatusTooManyAttempts
	StatusMismatch
)

// CheckResult is the outcome of Check. RemainingAttempts is only meaningful
// for StatusMismatch.
type CheckResult struct {
	Status            CheckStatus
	RemainingAttempts int
}

// Stats is a point-in-time snapshot for the monitoring endpoint.
type Stats struct {
	ActiveCodes    int           `json:"active_codes"`
	CodeTTL        time.Duration `json:"-"`
	ResendCooldown time.Duration `json:"-"`
	MaxAttempts    int           `json:"max_attempts"`
}

// Issue stores a fresh verification code for the given normalized phone
// number and returns it together with its expiry horizon.
//
// If a live code already exists and the resend cooldown since it was last
// sent has not elapsed, Issue returns a *RateLimitedError and mutates
// nothing. Once the cooldown has passed (or the previous code expired) the
// record is replaced with a new code and a zeroed attempt counter.
func (s *Store) Issue(phoneNumber string) (*Issued, error) {
	s.SweepExpired()

	sh := s.shard(phoneNumber)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	if rec, ok := sh.records[phoneNumber]; ok && !now.After(rec.expiresAt) {
		if wait := s.cfg.ResendCooldown - now.Sub(rec.lastSentAt); wait > 0 {
			return nil, &RateLimitedError{Wait: wait}
		}
	}

	code, err := otp.NewCode()
	if err != nil {
		return nil, err
	}
	sh.records[phoneNumber] = &record{
		code:       code,
		createdAt:  now,
		expiresAt:  now.Add(s.cfg.CodeTTL),
		lastSentAt: now,
	}
	return &Issued{Code: code, ExpiresIn: s.cfg.CodeTTL}, nil
}

// Check verifies a candidate code for the given normalized phone number.
// The record is consumed on success, on expiry and on exhausting the attempt
// budget; only a plain mismatch below the budget leaves it in place.
func (s *Store) Check(phoneNumber, candidate string) CheckResult {
	sh := s.shard(phoneNumber)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[phoneNumber]
	if !ok {
		return CheckResult{Status: StatusNotFound}
	}
	if s.now().After(rec.expiresAt) {
		delete(sh.records, phoneNumber)
		return CheckResult{Status: StatusExpired}
	}

	// The attempt is charged before the comparison, so a correct code on the
	// final allowed attempt is still rejected. Clients rely on the exact
	// remaining-attempts count this produces.
	rec.attempts++
	if rec.attempts >= s.cfg.MaxAttempts {
		delete(sh.records, phoneNumber)
		return CheckResult{Status: StatusTooManyAttempts}
	}
	if rec.code == candidate {
		delete(sh.records, phoneNumber)
		return CheckResult{Status: StatusVerified}
	}
	return CheckResult{Status: StatusMismatch, RemainingAttempts: s.cfg.MaxAttempts - rec.attempts}
}

// SweepExpired removes every record whose expiry has passed and returns the
// number of records removed. Safe to call concurrently with any operation.
func (s *Store) SweepExpired() int {
	removed := 0
	now := s.now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, rec := range sh.records {
			if now.After(rec.expiresAt) {
				delete(sh.records, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Snapshot returns current store statistics.
func (s *Store) Snapshot() Stats {
	s.SweepExpired()
	active := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		active += len(sh.records)
		sh.mu.Unlock()
	}
	return Stats{
		ActiveCodes:    active,
		CodeTTL:        s.cfg.CodeTTL,
		ResendCooldown: s.cfg.ResendCooldown,
		MaxAttempts:    s.cfg.MaxAttempts,
	}
}

// sweepLoop bounds memory growth for numbers that request a code and never
// come back to check it.
func (s *Store) sweepLoop() {
	for {
		time.Sleep(sweepInterval)
		s.SweepExpired()
	}
}

func (s *Store) shard(phoneNumber string) *shard {
	h := fnv.New32a()
	h.Write([]byte(phoneNumber))
	return s.shards[h.Sum32()%shardCount]
}
