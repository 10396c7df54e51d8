package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// SQLiteStore implements Store on a single SQLite database. SQLite
// serializes writers, so every read-modify-write below is free of lost
// updates; concurrent commits against the same rows queue behind the
// busy timeout instead of clobbering each other.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY between pooled
	// connections; SQLite has no write concurrency to exploit anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func ms(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMS(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.UnixMilli(n).UTC()
}

// --- Sessions -----------------------------------------------------------

func (s *SQLiteStore) CreateSession(ctx context.Context, gs model.GameSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, user_id, game_type, difficulty, start_time, expires_at, used, expected_value)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		gs.ID, gs.UserID, gs.GameType, gs.Difficulty, ms(gs.StartTime), ms(gs.ExpiresAt), gs.ExpectedValue)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.GameSession, error) {
	var (
		gs                 model.GameSession
		startMS, expiresMS int64
		used               int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, game_type, difficulty, start_time, expires_at, used, expected_value
		FROM game_sessions WHERE id = ?`, id).
		Scan(&gs.ID, &gs.UserID, &gs.GameType, &gs.Difficulty, &startMS, &expiresMS, &used, &gs.ExpectedValue)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GameSession{}, ErrSessionNotFound
	}
	if err != nil {
		return model.GameSession{}, fmt.Errorf("get session: %w", err)
	}
	gs.StartTime = fromMS(startMS)
	gs.ExpiresAt = fromMS(expiresMS)
	gs.Used = used != 0
	return gs, nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM game_sessions WHERE expires_at < ? AND used = 0`, ms(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// --- Picks --------------------------------------------------------------

// UpsertPick creates the user's pick for the cycle or switches it to a
// new creator. Points already earned stay where they were awarded;
// switching only redirects future awards.
func (s *SQLiteStore) UpsertPick(ctx context.Context, cycleID, userID, creatorID string, now time.Time) (model.CyclePick, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.CyclePick{}, fmt.Errorf("upsert pick: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycle_picks (cycle_id, user_id, creator_id, points_earned, picked_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(cycle_id, user_id) DO UPDATE SET
			creator_id = excluded.creator_id,
			last_switched_at = excluded.picked_at,
			switch_count = switch_count + 1
		WHERE creator_id != excluded.creator_id`,
		cycleID, userID, creatorID, ms(now))
	if err != nil {
		return model.CyclePick{}, fmt.Errorf("upsert pick: %w", err)
	}

	if err := joinSupporters(ctx, tx, cycleID, creatorID, userID, now); err != nil {
		return model.CyclePick{}, err
	}

	pick, err := getPickTx(ctx, tx, cycleID, userID)
	if err != nil {
		return model.CyclePick{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.CyclePick{}, fmt.Errorf("upsert pick: %w", err)
	}
	return pick, nil
}

// joinSupporters registers the user as a supporter of the creator in
// the cycle, lazily creating the leaderboard entry. The entry's points
// are untouched here; only membership and supporter count change.
func joinSupporters(ctx context.Context, tx *sql.Tx, cycleID, creatorID, userID string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_supporters (cycle_id, creator_id, user_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, cycleID, creatorID, userID)
	if err != nil {
		return fmt.Errorf("join supporters: %w", err)
	}
	added, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("join supporters: %w", err)
	}
	if added == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (cycle_id, creator_id, total_points, supporter_count, first_to_reach_at, last_updated)
		VALUES (?, ?, 0, 1, 0, ?)
		ON CONFLICT(cycle_id, creator_id) DO UPDATE SET
			supporter_count = supporter_count + 1,
			last_updated = excluded.last_updated`,
		cycleID, creatorID, ms(now))
	if err != nil {
		return fmt.Errorf("join supporters: %w", err)
	}
	return nil
}

func getPickTx(ctx context.Context, tx *sql.Tx, cycleID, userID string) (model.CyclePick, error) {
	var (
		p                    model.CyclePick
		pickedMS, switchedMS int64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT cycle_id, user_id, creator_id, points_earned, picked_at, last_switched_at, switch_count
		FROM cycle_picks WHERE cycle_id = ? AND user_id = ?`, cycleID, userID).
		Scan(&p.CycleID, &p.UserID, &p.CreatorID, &p.PointsEarned, &pickedMS, &switchedMS, &p.SwitchCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CyclePick{}, ErrPickNotFound
	}
	if err != nil {
		return model.CyclePick{}, fmt.Errorf("get pick: %w", err)
	}
	p.PickedAt = fromMS(pickedMS)
	p.LastSwitchedAt = fromMS(switchedMS)
	return p, nil
}

func (s *SQLiteStore) GetPick(ctx context.Context, cycleID, userID string) (model.CyclePick, error) {
	var (
		p                    model.CyclePick
		pickedMS, switchedMS int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT cycle_id, user_id, creator_id, points_earned, picked_at, last_switched_at, switch_count
		FROM cycle_picks WHERE cycle_id = ? AND user_id = ?`, cycleID, userID).
		Scan(&p.CycleID, &p.UserID, &p.CreatorID, &p.PointsEarned, &pickedMS, &switchedMS, &p.SwitchCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CyclePick{}, ErrPickNotFound
	}
	if err != nil {
		return model.CyclePick{}, fmt.Errorf("get pick: %w", err)
	}
	p.PickedAt = fromMS(pickedMS)
	p.LastSwitchedAt = fromMS(switchedMS)
	return p, nil
}

// --- Point ledger -------------------------------------------------------

// CommitResult applies one validated game result atomically: session
// used-flip, pick increment, leaderboard upsert, user stats, audit row.
// The conditional used-flip is the at-most-once guard; everything else
// rolls back with it.
func (s *SQLiteStore) CommitResult(ctx context.Context, p CommitParams) (CommitReceipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CommitReceipt{}, fmt.Errorf("commit result: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE game_sessions SET used = 1 WHERE id = ? AND used = 0`, p.SessionID)
	if err != nil {
		return CommitReceipt{}, fmt.Errorf("mark session used: %w", err)
	}
	flipped, err := res.RowsAffected()
	if err != nil {
		return CommitReceipt{}, fmt.Errorf("mark session used: %w", err)
	}
	if flipped == 0 {
		return CommitReceipt{}, ErrSessionAlreadyUsed
	}

	pick, err := getPickTx(ctx, tx, p.CycleID, p.UserID)
	if err != nil {
		return CommitReceipt{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cycle_picks SET points_earned = points_earned + ?
		WHERE cycle_id = ? AND user_id = ?`,
		p.Points, p.CycleID, p.UserID); err != nil {
		return CommitReceipt{}, fmt.Errorf("increment pick: %w", err)
	}

	supRes, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_supporters (cycle_id, creator_id, user_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, p.CycleID, pick.CreatorID, p.UserID)
	if err != nil {
		return CommitReceipt{}, fmt.Errorf("record supporter: %w", err)
	}
	supAdded, err := supRes.RowsAffected()
	if err != nil {
		return CommitReceipt{}, fmt.Errorf("record supporter: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (cycle_id, creator_id, total_points, supporter_count, first_to_reach_at, last_updated)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(cycle_id, creator_id) DO UPDATE SET
			total_points = total_points + excluded.total_points,
			supporter_count = supporter_count + ?,
			first_to_reach_at = excluded.first_to_reach_at,
			last_updated = excluded.last_updated`,
		p.CycleID, pick.CreatorID, p.Points, ms(p.Now), ms(p.Now), supAdded); err != nil {
		return CommitReceipt{}, fmt.Errorf("update leaderboard: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, games_played, points_earned)
		VALUES (?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			games_played = games_played + 1,
			points_earned = points_earned + excluded.points_earned`,
		p.UserID, p.Points); err != nil {
		return CommitReceipt{}, fmt.Errorf("update user stats: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO play_results (user_id, cycle_id, game_type, difficulty, creator_id, points, elapsed_secs, client_secs, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.CycleID, p.GameType, p.Difficulty, pick.CreatorID,
		p.Points, p.ElapsedSecs, p.ClientSecs, ms(p.Now)); err != nil {
		return CommitReceipt{}, fmt.Errorf("append play record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CommitReceipt{}, fmt.Errorf("commit result: %w", err)
	}
	return CommitReceipt{
		CreatorID:    pick.CreatorID,
		Points:       p.Points,
		NewSupporter: supAdded > 0,
	}, nil
}

// --- Leaderboard & settlement -------------------------------------------

func (s *SQLiteStore) TopEntries(ctx context.Context, cycleID string, n int) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle_id, creator_id, total_points, supporter_count, first_to_reach_at, last_updated
		FROM leaderboard_entries
		WHERE cycle_id = ?
		ORDER BY total_points DESC, first_to_reach_at ASC, creator_id ASC
		LIMIT ?`, cycleID, n)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var (
			e                  model.LeaderboardEntry
			firstMS, updatedMS int64
		)
		if err := rows.Scan(&e.CycleID, &e.CreatorID, &e.TotalPoints, &e.SupporterCount, &firstMS, &updatedMS); err != nil {
			return nil, fmt.Errorf("top entries: %w", err)
		}
		e.FirstToReachAt = fromMS(firstMS)
		e.LastUpdated = fromMS(updatedMS)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	return entries, nil
}

// SettleCycle ranks the cycle's entries and writes the winner record.
// Re-settling an already-settled cycle returns the existing winner and
// created=false unless force is set, in which case the record is
// replaced deterministically.
func (s *SQLiteStore) SettleCycle(ctx context.Context, cycleID string, cycleStart, cycleEnd, now time.Time, force bool) (model.CycleWinner, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.CycleWinner{}, false, fmt.Errorf("settle cycle: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := getWinnerRow(ctx, tx.QueryRowContext, cycleID)
	switch {
	case err == nil:
		if !force {
			return existing, false, nil
		}
	case !errors.Is(err, ErrWinnerNotFound):
		return model.CycleWinner{}, false, err
	}

	var (
		w       model.CycleWinner
		firstMS int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT e.creator_id, e.total_points, e.supporter_count, e.first_to_reach_at,
		       COALESCE(c.name, ''), COALESCE(c.photo_url, ''), COALESCE(c.promotional_url, '')
		FROM leaderboard_entries e
		LEFT JOIN creators c ON c.id = e.creator_id
		WHERE e.cycle_id = ?
		ORDER BY e.total_points DESC, e.first_to_reach_at ASC, e.creator_id ASC
		LIMIT 1`, cycleID).
		Scan(&w.WinnerID, &w.FinalScore, &w.SupporterCount, &firstMS, &w.WinnerName, &w.WinnerPhotoURL, &w.PromotionalURL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CycleWinner{}, false, ErrNoEntries
	}
	if err != nil {
		return model.CycleWinner{}, false, fmt.Errorf("rank entries: %w", err)
	}

	w.CycleID = cycleID
	w.FirstToReachAt = fromMS(firstMS)
	w.AnnouncedAt = now
	w.CycleStart = cycleStart
	w.CycleEnd = cycleEnd

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO cycle_winners
			(cycle_id, winner_id, winner_name, winner_photo_url, promotional_url,
			 final_score, supporter_count, first_to_reach_at, announced_at, cycle_start, cycle_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.CycleID, w.WinnerID, w.WinnerName, w.WinnerPhotoURL, w.PromotionalURL,
		w.FinalScore, w.SupporterCount, ms(w.FirstToReachAt), ms(w.AnnouncedAt),
		ms(w.CycleStart), ms(w.CycleEnd)); err != nil {
		return model.CycleWinner{}, false, fmt.Errorf("write winner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.CycleWinner{}, false, fmt.Errorf("settle cycle: %w", err)
	}
	return w, true, nil
}

type rowQuerier func(ctx context.Context, query string, args ...any) *sql.Row

func getWinnerRow(ctx context.Context, queryRow rowQuerier, cycleID string) (model.CycleWinner, error) {
	var (
		w                              model.CycleWinner
		firstMS, annMS, startMS, endMS int64
	)
	err := queryRow(ctx, `
		SELECT cycle_id, winner_id, winner_name, winner_photo_url, promotional_url,
		       final_score, supporter_count, first_to_reach_at, announced_at, cycle_start, cycle_end
		FROM cycle_winners WHERE cycle_id = ?`, cycleID).
		Scan(&w.CycleID, &w.WinnerID, &w.WinnerName, &w.WinnerPhotoURL, &w.PromotionalURL,
			&w.FinalScore, &w.SupporterCount, &firstMS, &annMS, &startMS, &endMS)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CycleWinner{}, ErrWinnerNotFound
	}
	if err != nil {
		return model.CycleWinner{}, fmt.Errorf("get winner: %w", err)
	}
	w.FirstToReachAt = fromMS(firstMS)
	w.AnnouncedAt = fromMS(annMS)
	w.CycleStart = fromMS(startMS)
	w.CycleEnd = fromMS(endMS)
	return w, nil
}

func (s *SQLiteStore) GetWinner(ctx context.Context, cycleID string) (model.CycleWinner, error) {
	return getWinnerRow(ctx, s.db.QueryRowContext, cycleID)
}

// --- Pity points --------------------------------------------------------

// IssuePityEligibility fans out over every pick in the settled cycle
// whose creator is not the winner. Upsert semantics make the fan-out
// safe to re-run after a partial failure.
func (s *SQLiteStore) IssuePityEligibility(ctx context.Context, cycleID, winnerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pity_eligibility (cycle_id, user_id, eligible, clicked_winner_link, winner_id, their_creator_id)
		SELECT cycle_id, user_id, 1, 0, ?, creator_id
		FROM cycle_picks
		WHERE cycle_id = ? AND creator_id != ?
		ON CONFLICT(cycle_id, user_id) DO NOTHING`,
		winnerID, cycleID, winnerID)
	if err != nil {
		return 0, fmt.Errorf("issue pity eligibility: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("issue pity eligibility: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) GetPityEligibility(ctx context.Context, cycleID, userID string) (model.PityEligibility, error) {
	var (
		p                 model.PityEligibility
		eligible, clicked int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT cycle_id, user_id, eligible, clicked_winner_link, winner_id, their_creator_id
		FROM pity_eligibility WHERE cycle_id = ? AND user_id = ?`, cycleID, userID).
		Scan(&p.CycleID, &p.UserID, &eligible, &clicked, &p.WinnerID, &p.TheirCreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PityEligibility{}, ErrEligibilityNotFound
	}
	if err != nil {
		return model.PityEligibility{}, fmt.Errorf("get pity eligibility: %w", err)
	}
	p.Eligible = eligible != 0
	p.ClickedWinnerLink = clicked != 0
	return p, nil
}

// RedeemPity spends an eligibility from the settled cycle as one bonus
// point for the user's current-cycle creator. Failed preconditions are
// reported through the receipt, not as errors.
func (s *SQLiteStore) RedeemPity(ctx context.Context, settledCycleID, currentCycleID, userID string, now time.Time) (RedeemReceipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RedeemReceipt{}, fmt.Errorf("redeem pity: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	pick, err := getPickTx(ctx, tx, currentCycleID, userID)
	if errors.Is(err, ErrPickNotFound) {
		return RedeemReceipt{Reason: "no pick in current cycle"}, nil
	}
	if err != nil {
		return RedeemReceipt{}, err
	}

	// The conditional flip is the single-spend guard.
	res, err := tx.ExecContext(ctx, `
		UPDATE pity_eligibility SET clicked_winner_link = 1
		WHERE cycle_id = ? AND user_id = ? AND eligible = 1 AND clicked_winner_link = 0`,
		settledCycleID, userID)
	if err != nil {
		return RedeemReceipt{}, fmt.Errorf("spend eligibility: %w", err)
	}
	spent, err := res.RowsAffected()
	if err != nil {
		return RedeemReceipt{}, fmt.Errorf("spend eligibility: %w", err)
	}
	if spent == 0 {
		return RedeemReceipt{Reason: "not eligible or already claimed"}, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cycle_picks SET points_earned = points_earned + 1
		WHERE cycle_id = ? AND user_id = ?`, currentCycleID, userID); err != nil {
		return RedeemReceipt{}, fmt.Errorf("increment pick: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (cycle_id, creator_id, total_points, supporter_count, first_to_reach_at, last_updated)
		VALUES (?, ?, 1, 1, ?, ?)
		ON CONFLICT(cycle_id, creator_id) DO UPDATE SET
			total_points = total_points + 1,
			first_to_reach_at = excluded.first_to_reach_at,
			last_updated = excluded.last_updated`,
		currentCycleID, pick.CreatorID, ms(now), ms(now)); err != nil {
		return RedeemReceipt{}, fmt.Errorf("update leaderboard: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO starting_bonuses (cycle_id, creator_id, pity_points)
		VALUES (?, ?, 1)
		ON CONFLICT(cycle_id, creator_id) DO UPDATE SET pity_points = pity_points + 1`,
		currentCycleID, pick.CreatorID); err != nil {
		return RedeemReceipt{}, fmt.Errorf("record starting bonus: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO starting_bonus_supporters (cycle_id, creator_id, user_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		currentCycleID, pick.CreatorID, userID); err != nil {
		return RedeemReceipt{}, fmt.Errorf("record starting bonus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RedeemReceipt{}, fmt.Errorf("redeem pity: %w", err)
	}
	return RedeemReceipt{Applied: true, CreatorID: pick.CreatorID, Points: 1}, nil
}

// --- Creators & players -------------------------------------------------

func (s *SQLiteStore) UpsertCreator(ctx context.Context, c model.Creator) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO creators (id, name, photo_url, promotional_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo_url = excluded.photo_url,
			promotional_url = excluded.promotional_url`,
		c.ID, c.Name, c.PhotoURL, c.PromotionalURL)
	if err != nil {
		return fmt.Errorf("upsert creator: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCreator(ctx context.Context, id string) (model.Creator, error) {
	var c model.Creator
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, photo_url, promotional_url, referral_clicks
		FROM creators WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.PhotoURL, &c.PromotionalURL, &c.ReferralClicks)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Creator{}, ErrCreatorNotFound
	}
	if err != nil {
		return model.Creator{}, fmt.Errorf("get creator: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) IncrementReferralClicks(ctx context.Context, creatorID string) (int, error) {
	var clicks int
	err := s.db.QueryRowContext(ctx, `
		UPDATE creators SET referral_clicks = referral_clicks + 1
		WHERE id = ?
		RETURNING referral_clicks`, creatorID).Scan(&clicks)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCreatorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment referral clicks: %w", err)
	}
	return clicks, nil
}

func (s *SQLiteStore) UserStats(ctx context.Context, userID string) (model.UserStats, error) {
	stats := model.UserStats{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT games_played, points_earned FROM user_stats WHERE user_id = ?`, userID).
		Scan(&stats.GamesPlayed, &stats.PointsEarned)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return model.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) RecentPlays(ctx context.Context, userID string, n int) ([]model.PlayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, cycle_id, game_type, difficulty, creator_id, points, elapsed_secs, client_secs, played_at
		FROM play_results
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("recent plays: %w", err)
	}
	defer rows.Close()

	var plays []model.PlayRecord
	for rows.Next() {
		var (
			p        model.PlayRecord
			playedMS int64
		)
		if err := rows.Scan(&p.UserID, &p.CycleID, &p.GameType, &p.Difficulty, &p.CreatorID,
			&p.Points, &p.ElapsedSecs, &p.ClientSecs, &playedMS); err != nil {
			return nil, fmt.Errorf("recent plays: %w", err)
		}
		p.PlayedAt = fromMS(playedMS)
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent plays: %w", err)
	}
	return plays, nil
}
