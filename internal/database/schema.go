package database

const schema = `
CREATE TABLE shows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tmdb_id INTEGER NOT NULL UNIQUE,
	title TEXT NOT NULL,
	poster_path TEXT,
	user_status TEXT NOT NULL DEFAULT 'airing',
	type TEXT NOT NULL DEFAULT 'tv',
	added_at TEXT NOT NULL,
	last_watched_at TEXT,
	watch_pace TEXT NOT NULL DEFAULT 'binge',
	episodes_cache TEXT NOT NULL DEFAULT 'uncached',
	cast_cache TEXT NOT NULL DEFAULT 'uncached'
);

CREATE INDEX ix_shows_user_status ON shows(user_status);

CREATE TABLE episodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	show_id INTEGER NOT NULL REFERENCES shows(id),
	tmdb_show_id INTEGER NOT NULL,
	season_number INTEGER NOT NULL,
	episode_number INTEGER NOT NULL,
	title TEXT,
	air_date TEXT,
	watched INTEGER NOT NULL DEFAULT 0,
	watched_at TEXT,
	CHECK (watched = 1 OR watched_at IS NULL),
	UNIQUE (tmdb_show_id, season_number, episode_number)
);

CREATE INDEX ix_episodes_tmdb_show_id ON episodes(tmdb_show_id);
-- "seen in" subquery: WHERE watched = 1 -> tmdb_show_id
CREATE INDEX ix_episodes_watched_tmdb ON episodes(watched, tmdb_show_id);

CREATE TABLE people (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tmdb_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	profile_path TEXT,
	credits_cached_at TEXT
);

CREATE TABLE person_credits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	person_tmdb_id INTEGER NOT NULL REFERENCES people(tmdb_id),
	show_tmdb_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	character TEXT,
	type TEXT NOT NULL
);

CREATE UNIQUE INDEX ix_person_credits_person_show ON person_credits(person_tmdb_id, show_tmdb_id);

CREATE TABLE watch_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tmdb_show_id INTEGER NOT NULL,
	season_number INTEGER NOT NULL,
	episode_number INTEGER NOT NULL,
	watched_at TEXT,
	recorded_at TEXT NOT NULL
);

CREATE INDEX ix_watch_history_episode ON watch_history(tmdb_show_id, season_number, episode_number);
CREATE INDEX ix_watch_history_recorded_at ON watch_history(recorded_at);

CREATE TABLE show_cast (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	show_tmdb_id INTEGER NOT NULL,
	person_tmdb_id INTEGER NOT NULL REFERENCES people(tmdb_id),
	character TEXT,
	cast_order INTEGER NOT NULL DEFAULT 999
);

CREATE UNIQUE INDEX ix_show_cast_show_person ON show_cast(show_tmdb_id, person_tmdb_id);
`

// migrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
	`-- Migration 1: fold legacy statuses into the canonical set
	UPDATE shows SET user_status = CASE user_status
		WHEN 'watching' THEN 'binging'
		WHEN 'finished' THEN 'done'
		WHEN 'watchlist' THEN 'caught_up'
		WHEN 'abandoned' THEN 'done'
		ELSE user_status
	END;`,
}
