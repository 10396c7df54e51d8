package repository

// Schema creation is idempotent; every statement uses IF NOT EXISTS so
// it is safe to run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS creators (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL DEFAULT '',
    photo_url       TEXT NOT NULL DEFAULT '',
    promotional_url TEXT NOT NULL DEFAULT '',
    referral_clicks INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS game_sessions (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    game_type      TEXT NOT NULL,
    difficulty     TEXT NOT NULL DEFAULT '',
    start_time     INTEGER NOT NULL,
    expires_at     INTEGER NOT NULL,
    used           INTEGER NOT NULL DEFAULT 0,
    expected_value INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON game_sessions(expires_at, used);

CREATE TABLE IF NOT EXISTS cycle_picks (
    cycle_id         TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    creator_id       TEXT NOT NULL,
    points_earned    INTEGER NOT NULL DEFAULT 0,
    picked_at        INTEGER NOT NULL,
    last_switched_at INTEGER NOT NULL DEFAULT 0,
    switch_count     INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (cycle_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_picks_creator ON cycle_picks(cycle_id, creator_id);

CREATE TABLE IF NOT EXISTS leaderboard_entries (
    cycle_id          TEXT NOT NULL,
    creator_id        TEXT NOT NULL,
    total_points      INTEGER NOT NULL DEFAULT 0,
    supporter_count   INTEGER NOT NULL DEFAULT 0,
    first_to_reach_at INTEGER NOT NULL DEFAULT 0,
    last_updated      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (cycle_id, creator_id)
);

CREATE TABLE IF NOT EXISTS leaderboard_supporters (
    cycle_id   TEXT NOT NULL,
    creator_id TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    PRIMARY KEY (cycle_id, creator_id, user_id)
);

CREATE TABLE IF NOT EXISTS cycle_winners (
    cycle_id          TEXT PRIMARY KEY,
    winner_id         TEXT NOT NULL,
    winner_name       TEXT NOT NULL DEFAULT '',
    winner_photo_url  TEXT NOT NULL DEFAULT '',
    promotional_url   TEXT NOT NULL DEFAULT '',
    final_score       INTEGER NOT NULL,
    supporter_count   INTEGER NOT NULL,
    first_to_reach_at INTEGER NOT NULL,
    announced_at      INTEGER NOT NULL,
    cycle_start       INTEGER NOT NULL,
    cycle_end         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pity_eligibility (
    cycle_id            TEXT NOT NULL,
    user_id             TEXT NOT NULL,
    eligible            INTEGER NOT NULL DEFAULT 0,
    clicked_winner_link INTEGER NOT NULL DEFAULT 0,
    winner_id           TEXT NOT NULL DEFAULT '',
    their_creator_id    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (cycle_id, user_id)
);

CREATE TABLE IF NOT EXISTS starting_bonuses (
    cycle_id    TEXT NOT NULL,
    creator_id  TEXT NOT NULL,
    pity_points INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (cycle_id, creator_id)
);

CREATE TABLE IF NOT EXISTS starting_bonus_supporters (
    cycle_id   TEXT NOT NULL,
    creator_id TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    PRIMARY KEY (cycle_id, creator_id, user_id)
);

CREATE TABLE IF NOT EXISTS user_stats (
    user_id       TEXT PRIMARY KEY,
    games_played  INTEGER NOT NULL DEFAULT 0,
    points_earned INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS play_results (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      TEXT NOT NULL,
    cycle_id     TEXT NOT NULL,
    game_type    TEXT NOT NULL,
    difficulty   TEXT NOT NULL DEFAULT '',
    creator_id   TEXT NOT NULL,
    points       INTEGER NOT NULL,
    elapsed_secs REAL NOT NULL,
    client_secs  REAL NOT NULL,
    played_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_play_results_user ON play_results(user_id, played_at DESC);
`
