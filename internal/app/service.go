// Package app wires the domain together: it issues anti-cheat game
// sessions, validates and commits results to the point ledger, runs
// cycle settlement, and hands winner events to the pity fan-out.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willerob90/SubGames-Working/internal/adapters/mq/queue"
	"github.com/willerob90/SubGames-Working/internal/adapters/mq/worker"
	"github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/internal/domain/cycle"
	"github.com/willerob90/SubGames-Working/internal/domain/model"
	"github.com/willerob90/SubGames-Working/internal/domain/ratelimit"
	"github.com/willerob90/SubGames-Working/internal/domain/rules"
	"github.com/willerob90/SubGames-Working/pkg/logger"
	"github.com/willerob90/SubGames-Working/pkg/metrics"
)

const (
	defaultSessionTTL  = 10 * time.Minute
	defaultQueueSize   = 1024
	defaultWorkerCount = 2
)

// ResultReceipt reports a committed game result back to the caller.
type ResultReceipt struct {
	SessionID    string
	CycleID      string
	GameType     string
	CreatorID    string
	Points       int
	NewSupporter bool
}

// Service is the application core. Construct with New, provide a store,
// then Start before serving traffic.
type Service struct {
	store   repository.Store
	clock   *cycle.Clock
	rules   *rules.Table
	limiter *ratelimit.Limiter

	queue       *queue.InMemoryQueue
	workers     []*worker.Worker
	queueSize   int
	workerCount int

	sessionTTL time.Duration

	mu      sync.Mutex
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ledger store. Required.
func WithStore(s repository.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithClock overrides the cycle clock.
func WithClock(c *cycle.Clock) Option {
	return func(svc *Service) {
		if c != nil {
			svc.clock = c
		}
	}
}

// WithRules overrides the game rule table.
func WithRules(t *rules.Table) Option {
	return func(svc *Service) {
		if t != nil {
			svc.rules = t
		}
	}
}

// WithLimiter overrides the rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(svc *Service) {
		if l != nil {
			svc.limiter = l
		}
	}
}

// WithSessionTTL overrides how long an issued session stays playable.
func WithSessionTTL(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.sessionTTL = d
		}
	}
}

// WithQueueSize bounds the winner-event queue.
func WithQueueSize(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.queueSize = n
		}
	}
}

// WithWorkerCount sets the number of pity fan-out workers.
func WithWorkerCount(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.workerCount = n
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// New constructs a Service with defaults for everything but the store.
func New(opts ...Option) *Service {
	svc := &Service{
		clock:       cycle.New(),
		rules:       rules.NewTable(rules.Defaults()),
		limiter:     ratelimit.New(),
		queueSize:   defaultQueueSize,
		workerCount: defaultWorkerCount,
		sessionTTL:  defaultSessionTTL,
		logger:      logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start spins up the winner-event queue and pity workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return fmt.Errorf("start service: a store is required")
	}
	if s.started {
		return nil
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workers = make([]*worker.Worker, 0, s.workerCount)
	for i := 0; i < s.workerCount; i++ {
		w := worker.New(s.queue, s.store, worker.WithName(fmt.Sprintf("pity-worker-%d", i)))
		s.workers = append(s.workers, w)
		go w.Run(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("games", s.rules.Games()),
	)
	return nil
}

// Stop drains the queue and shuts the workers down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	if err := s.queue.Close(); err != nil {
		return err
	}
	for _, w := range s.workers {
		if err := w.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "service stopped")
	return nil
}

// CurrentCycle returns the key of the cycle accepting points now.
func (s *Service) CurrentCycle() string { return s.clock.Current() }

// LatestClosedCycle returns the key of the most recently completed cycle.
func (s *Service) LatestClosedCycle() string { return s.clock.LatestClosed() }

// StartSession issues a single-use play session for one game. The point
// value and timing window come from the server-side rule table; clients
// never set either.
func (s *Service) StartSession(ctx context.Context, userID, gameType, difficulty string) (model.GameSession, error) {
	if userID == "" {
		return model.GameSession{}, ErrUnauthenticated
	}
	rule, ok := s.rules.Lookup(gameType)
	if !ok {
		return model.GameSession{}, fmt.Errorf("%w: %q", ErrUnknownGame, gameType)
	}
	if err := s.limiter.Allow(ctx, userID, ratelimit.ActionSessionStart); err != nil {
		return model.GameSession{}, err
	}

	now := s.clock.Now()
	session := model.GameSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		GameType:      gameType,
		Difficulty:    difficulty,
		StartTime:     now,
		ExpiresAt:     now.Add(s.sessionTTL),
		ExpectedValue: rule.Points,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return model.GameSession{}, fmt.Errorf("create session: %w", err)
	}

	metrics.RecordSessionIssued()
	s.logger.Debug(ctx, "session issued",
		logger.String("session", session.ID),
		logger.String("user", userID),
		logger.String("game", gameType),
	)
	return session, nil
}

// SubmitResult validates a finished play against its session and, if it
// passes every gate, commits the points atomically. Validation runs
// strictly on server-side state: the client-reported duration is stored
// for audit but never scored.
func (s *Service) SubmitResult(ctx context.Context, userID, sessionID string, clientSecs float64) (ResultReceipt, error) {
	if userID == "" {
		return ResultReceipt{}, ErrUnauthenticated
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		metrics.RecordResultRejected("not_found")
		return ResultReceipt{}, err
	}
	if session.Used {
		metrics.RecordResultRejected("already_used")
		return ResultReceipt{}, repository.ErrSessionAlreadyUsed
	}
	if session.UserID != userID {
		metrics.RecordResultRejected("wrong_user")
		return ResultReceipt{}, ErrPermissionDenied
	}

	now := s.clock.Now()
	if !now.Before(session.ExpiresAt) {
		metrics.RecordResultRejected("expired")
		return ResultReceipt{}, ErrSessionExpired
	}

	rule, ok := s.rules.Lookup(session.GameType)
	if !ok {
		metrics.RecordResultRejected("unknown_game")
		return ResultReceipt{}, fmt.Errorf("%w: %q", ErrUnknownGame, session.GameType)
	}
	elapsed := now.Sub(session.StartTime).Seconds()
	if elapsed < rule.MinSeconds {
		metrics.RecordResultRejected("too_fast")
		return ResultReceipt{}, fmt.Errorf("%w: %.1fs < %.1fs", ErrTooFast, elapsed, rule.MinSeconds)
	}
	if elapsed > rule.MaxSeconds {
		metrics.RecordResultRejected("too_slow")
		return ResultReceipt{}, fmt.Errorf("%w: %.1fs > %.1fs", ErrTooSlow, elapsed, rule.MaxSeconds)
	}

	cycleID := s.clock.KeyAt(now)
	start := time.Now()
	receipt, err := s.store.CommitResult(ctx, repository.CommitParams{
		SessionID:   sessionID,
		UserID:      userID,
		CycleID:     cycleID,
		GameType:    session.GameType,
		Difficulty:  session.Difficulty,
		Points:      session.ExpectedValue,
		ElapsedSecs: elapsed,
		ClientSecs:  clientSecs,
		Now:         now,
	})
	metrics.RecordLedgerTxSeconds(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionAlreadyUsed):
			metrics.RecordResultRejected("already_used")
		case errors.Is(err, repository.ErrPickNotFound):
			metrics.RecordResultRejected("no_pick")
		}
		return ResultReceipt{}, err
	}

	metrics.RecordResultCommitted()
	metrics.RecordPointsAwarded(receipt.Points)
	s.logger.Info(ctx, "result committed",
		logger.String("user", userID),
		logger.String("creator", receipt.CreatorID),
		logger.String("cycle", cycleID),
		logger.Int("points", receipt.Points),
	)
	return ResultReceipt{
		SessionID:    sessionID,
		CycleID:      cycleID,
		GameType:     session.GameType,
		CreatorID:    receipt.CreatorID,
		Points:       receipt.Points,
		NewSupporter: receipt.NewSupporter,
	}, nil
}

// PickCreator records or switches the caller's creator pick for the
// current cycle. Points already earned stay with the creator they were
// earned for.
func (s *Service) PickCreator(ctx context.Context, userID, creatorID string) (model.CyclePick, error) {
	if userID == "" {
		return model.CyclePick{}, ErrUnauthenticated
	}
	if _, err := s.store.GetCreator(ctx, creatorID); err != nil {
		return model.CyclePick{}, err
	}
	return s.store.UpsertPick(ctx, s.clock.Current(), userID, creatorID, s.clock.Now())
}

// CurrentPick returns the caller's pick for the current cycle.
func (s *Service) CurrentPick(ctx context.Context, userID string) (model.CyclePick, error) {
	if userID == "" {
		return model.CyclePick{}, ErrUnauthenticated
	}
	return s.store.GetPick(ctx, s.clock.Current(), userID)
}

// Leaderboard returns the top n entries of a cycle, defaulting to the
// current one when cycleID is empty. The resolved key is returned so
// callers can echo it.
func (s *Service) Leaderboard(ctx context.Context, cycleID string, n int) ([]model.LeaderboardEntry, string, error) {
	key, err := s.resolveCycle(cycleID, s.clock.Current)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.store.TopEntries(ctx, key, n)
	if err != nil {
		return nil, "", err
	}
	return entries, key, nil
}

// Winner returns the settled result of a cycle, defaulting to the most
// recently completed one.
func (s *Service) Winner(ctx context.Context, cycleID string) (model.CycleWinner, error) {
	key, err := s.resolveCycle(cycleID, s.clock.LatestClosed)
	if err != nil {
		return model.CycleWinner{}, err
	}
	return s.store.GetWinner(ctx, key)
}

// SettleCycle settles a completed cycle, defaulting to the most recently
// closed one. Settlement is idempotent: re-settling an already settled
// cycle returns the recorded winner untouched unless force is set. When
// a winner is newly written the pity fan-out is enqueued.
func (s *Service) SettleCycle(ctx context.Context, cycleID string, force bool) (model.CycleWinner, bool, error) {
	key, err := s.resolveCycle(cycleID, s.clock.LatestClosed)
	if err != nil {
		return model.CycleWinner{}, false, err
	}
	start, end, err := s.clock.Bounds(key)
	if err != nil {
		return model.CycleWinner{}, false, err
	}

	winner, created, err := s.store.SettleCycle(ctx, key, start, end, s.clock.Now(), force)
	if err != nil {
		return model.CycleWinner{}, false, err
	}
	if !created {
		return winner, false, nil
	}

	metrics.RecordCycleSettled()
	s.logger.Info(ctx, "cycle settled",
		logger.String("cycle", key),
		logger.String("winner", winner.WinnerID),
		logger.Int("score", winner.FinalScore),
	)

	s.publishWinner(ctx, winner)
	return winner, true, nil
}

// publishWinner hands the settled winner to the pity fan-out. A full or
// stopped queue is logged and left to AwardPityPoints; the fan-out is
// idempotent either way.
func (s *Service) publishWinner(ctx context.Context, w model.CycleWinner) {
	s.mu.Lock()
	q := s.queue
	started := s.started
	s.mu.Unlock()

	if !started {
		s.logger.Warn(ctx, "winner event not published, service not started",
			logger.String("cycle", w.CycleID))
		return
	}
	ok := q.Enqueue(ctx, model.WinnerEvent{
		CycleID:     w.CycleID,
		WinnerID:    w.WinnerID,
		AnnouncedAt: w.AnnouncedAt,
	})
	if !ok {
		s.logger.Warn(ctx, "winner event dropped",
			logger.String("cycle", w.CycleID))
	}
}

// AwardPityPoints runs the pity eligibility fan-out for a settled cycle
// directly, bypassing the queue. Safe to call repeatedly; supporters
// already marked are skipped.
func (s *Service) AwardPityPoints(ctx context.Context, cycleID string) (int64, error) {
	key, err := s.resolveCycle(cycleID, s.clock.LatestClosed)
	if err != nil {
		return 0, err
	}
	winner, err := s.store.GetWinner(ctx, key)
	if err != nil {
		return 0, err
	}
	issued, err := s.store.IssuePityEligibility(ctx, key, winner.WinnerID)
	if err != nil {
		return 0, err
	}
	metrics.RecordPityIssued(issued)
	return issued, nil
}

// RedeemPity spends the caller's pity eligibility from a settled cycle
// as one bonus point for their current pick. A failed precondition
// (no current pick, not eligible, already claimed) is reported in the
// receipt, not as an error.
func (s *Service) RedeemPity(ctx context.Context, userID, settledCycleID string) (repository.RedeemReceipt, error) {
	if userID == "" {
		return repository.RedeemReceipt{}, ErrUnauthenticated
	}
	key, err := s.resolveCycle(settledCycleID, s.clock.LatestClosed)
	if err != nil {
		return repository.RedeemReceipt{}, err
	}

	receipt, err := s.store.RedeemPity(ctx, key, s.clock.Current(), userID, s.clock.Now())
	if err != nil {
		return repository.RedeemReceipt{}, err
	}
	if receipt.Applied {
		metrics.RecordPityRedeemed()
		s.logger.Info(ctx, "pity point redeemed",
			logger.String("user", userID),
			logger.String("from_cycle", key),
			logger.String("creator", receipt.CreatorID),
		)
	}
	return receipt, nil
}

// PityStatus returns the caller's pity eligibility for a settled cycle,
// defaulting to the most recently completed one.
func (s *Service) PityStatus(ctx context.Context, userID, cycleID string) (model.PityEligibility, error) {
	if userID == "" {
		return model.PityEligibility{}, ErrUnauthenticated
	}
	key, err := s.resolveCycle(cycleID, s.clock.LatestClosed)
	if err != nil {
		return model.PityEligibility{}, err
	}
	return s.store.GetPityEligibility(ctx, key, userID)
}

// RegisterCreator adds or updates a creator registry record.
func (s *Service) RegisterCreator(ctx context.Context, c model.Creator) error {
	if c.ID == "" || c.Name == "" {
		return ErrInvalidCreator
	}
	return s.store.UpsertCreator(ctx, c)
}

// GetCreator looks up a creator's public record. Lookups are throttled
// per caller.
func (s *Service) GetCreator(ctx context.Context, actorID, creatorID string) (model.Creator, error) {
	if actorID != "" {
		if err := s.limiter.Allow(ctx, actorID, ratelimit.ActionChannelLookup); err != nil {
			return model.Creator{}, err
		}
	}
	return s.store.GetCreator(ctx, creatorID)
}

// TrackReferralClick counts one click on a creator's promotional link
// and returns the new total. Throttled per caller.
func (s *Service) TrackReferralClick(ctx context.Context, actorID, creatorID string) (int, error) {
	if actorID == "" {
		return 0, ErrUnauthenticated
	}
	if err := s.limiter.Allow(ctx, actorID, ratelimit.ActionReferralClick); err != nil {
		return 0, err
	}
	return s.store.IncrementReferralClicks(ctx, creatorID)
}

// UserStats returns a player's lifetime aggregates.
func (s *Service) UserStats(ctx context.Context, userID string) (model.UserStats, error) {
	if userID == "" {
		return model.UserStats{}, ErrUnauthenticated
	}
	return s.store.UserStats(ctx, userID)
}

// History returns a player's most recent plays, newest first.
func (s *Service) History(ctx context.Context, userID string, n int) ([]model.PlayRecord, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.RecentPlays(ctx, userID, n)
}

// CleanupExpiredSessions deletes unplayed sessions past their expiry and
// compacts the rate limiter.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	swept, err := s.store.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		metrics.RecordSessionsSwept(swept)
	}
	s.limiter.Cleanup(ctx)
	return swept, nil
}

// Stats reports operational counters for the /stats endpoint.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.Lock()
	queueDepth := 0
	if s.queue != nil {
		queueDepth = s.queue.Len(ctx)
	}
	started := s.started
	s.mu.Unlock()

	return map[string]any{
		"started":           started,
		"current_cycle":     s.clock.Current(),
		"latest_closed":     s.clock.LatestClosed(),
		"next_close":        s.clock.NextClose(),
		"games":             s.rules.Games(),
		"queue_depth":       queueDepth,
		"limiter_windows":   s.limiter.Size(),
		"session_ttl_secs":  s.sessionTTL.Seconds(),
		"pity_worker_count": s.workerCount,
		"queue_capacity":    s.queueSize,
	}
}

// resolveCycle validates an explicit cycle key or falls back to the
// given default.
func (s *Service) resolveCycle(cycleID string, fallback func() string) (string, error) {
	if cycleID == "" {
		return fallback(), nil
	}
	if !s.clock.Valid(cycleID) {
		return "", fmt.Errorf("%w: %q", cycle.ErrBadKey, cycleID)
	}
	return cycleID, nil
}
