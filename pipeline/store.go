package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Stage names, in pipeline order.
const (
	StageSplit     = "split"
	StageGlossary  = "glossary"
	StageTranslate = "translate"
	StageQA        = "qa"
)

// Stage statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// EpisodeRecord is one source episode tracked in the state database.
type EpisodeRecord struct {
	Series      string
	Number      int
	Title       string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StageRecord is the status of one stage for one episode and language.
// Language is empty for language-independent stages (split).
type StageRecord struct {
	Series    string
	Number    int
	Stage     string
	Language  string
	Status    string
	Error     string
	UpdatedAt time.Time
}

// Store persists pipeline state in SQLite so interrupted runs resume.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the state database.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applyMigrations(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
            series TEXT NOT NULL,
            number INTEGER NOT NULL,
            title TEXT,
            content_hash TEXT NOT NULL,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            PRIMARY KEY (series, number)
        )`,
		`CREATE TABLE IF NOT EXISTS stage_status (
            series TEXT NOT NULL,
            number INTEGER NOT NULL,
            stage TEXT NOT NULL,
            language TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            error TEXT,
            updated_at TEXT NOT NULL,
            PRIMARY KEY (series, number, stage, language)
        )`,
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            series TEXT NOT NULL,
            stage TEXT NOT NULL,
            language TEXT NOT NULL DEFAULT '',
            started_at TEXT NOT NULL,
            finished_at TEXT,
            succeeded INTEGER NOT NULL DEFAULT 0,
            failed INTEGER NOT NULL DEFAULT 0
        )`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// UpsertEpisode inserts or refreshes an episode record. A changed content
// hash resets nothing by itself; stages compare hashes when deciding to skip.
func (s *Store) UpsertEpisode(ctx context.Context, series string, number int, title, contentHash string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO episodes (series, number, title, content_hash, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(series, number) DO UPDATE SET
             title = excluded.title,
             content_hash = excluded.content_hash,
             updated_at = excluded.updated_at`,
		series, number, nullableString(title), contentHash, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert episode: %w", err)
	}
	return nil
}

// Episodes returns all episode records for a series in number order.
func (s *Store) Episodes(ctx context.Context, series string) ([]EpisodeRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT series, number, title, content_hash, created_at, updated_at
         FROM episodes WHERE series = ? ORDER BY number`,
		series,
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		rec, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkStage records the outcome of one stage for one episode and language.
func (s *Store) MarkStage(ctx context.Context, series string, number int, stage, language, status, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_status (series, number, stage, language, status, error, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(series, number, stage, language) DO UPDATE SET
             status = excluded.status,
             error = excluded.error,
             updated_at = excluded.updated_at`,
		series, number, stage, language, status, nullableString(errMsg), now,
	)
	if err != nil {
		return fmt.Errorf("mark stage: %w", err)
	}
	return nil
}

// StageStatus returns the recorded status for one episode/stage/language, or
// StatusPending when nothing is recorded.
func (s *Store) StageStatus(ctx context.Context, series string, number int, stage, language string) (StageRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT series, number, stage, language, status, error, updated_at
         FROM stage_status
         WHERE series = ? AND number = ? AND stage = ? AND language = ?`,
		series, number, stage, language,
	)
	rec, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StageRecord{
			Series:   series,
			Number:   number,
			Stage:    stage,
			Language: language,
			Status:   StatusPending,
		}, nil
	}
	if err != nil {
		return StageRecord{}, fmt.Errorf("stage status: %w", err)
	}
	return rec, nil
}

// PendingEpisodes returns episodes whose stage is not yet done for a
// language, in number order. This is the resume query: completed episodes
// never rerun.
func (s *Store) PendingEpisodes(ctx context.Context, series, stage, language string) ([]EpisodeRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT e.series, e.number, e.title, e.content_hash, e.created_at, e.updated_at
         FROM episodes e
         LEFT JOIN stage_status ss
             ON ss.series = e.series AND ss.number = e.number
             AND ss.stage = ? AND ss.language = ?
         WHERE e.series = ? AND (ss.status IS NULL OR ss.status != ?)
         ORDER BY e.number`,
		stage, language, series, StatusDone,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		rec, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// StageCounts returns episode counts grouped by status for one stage and
// language.
func (s *Store) StageCounts(ctx context.Context, series, stage, language string) (map[string]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM stage_status
         WHERE series = ? AND stage = ? AND language = ?
         GROUP BY status`,
		series, stage, language,
	)
	if err != nil {
		return nil, fmt.Errorf("stage counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// BeginRun records the start of a stage run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, runID, series, stage, language string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, series, stage, language, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, series, stage, language, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records a stage run's outcome.
func (s *Store) FinishRun(ctx context.Context, runID string, succeeded, failed int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), succeeded, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RunRecord summarizes one recorded stage run.
type RunRecord struct {
	ID         string
	Series     string
	Stage      string
	Language   string
	StartedAt  time.Time
	FinishedAt *time.Time
	Succeeded  int
	Failed     int
}

// Runs returns the most recent runs for a series, newest first.
func (s *Store) Runs(ctx context.Context, series string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, series, stage, language, started_at, finished_at, succeeded, failed
         FROM runs WHERE series = ? ORDER BY started_at DESC LIMIT ?`,
		series, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec         RunRecord
			startedRaw  string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Series, &rec.Stage, &rec.Language, &startedRaw, &finishedRaw, &rec.Succeeded, &rec.Failed); err != nil {
			return nil, err
		}
		if started, err := parseTimeString(startedRaw); err == nil {
			rec.StartedAt = started
		}
		if finishedRaw.Valid {
			if finished, err := parseTimeString(finishedRaw.String); err == nil {
				rec.FinishedAt = &finished
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (EpisodeRecord, error) {
	var (
		rec        EpisodeRecord
		title      sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&rec.Series, &rec.Number, &title, &rec.ContentHash, &createdRaw, &updatedRaw); err != nil {
		return EpisodeRecord{}, err
	}
	rec.Title = title.String
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func scanStage(scanner interface{ Scan(dest ...any) error }) (StageRecord, error) {
	var (
		rec        StageRecord
		errMsg     sql.NullString
		updatedRaw string
	)
	if err := scanner.Scan(&rec.Series, &rec.Number, &rec.Stage, &rec.Language, &rec.Status, &errMsg, &updatedRaw); err != nil {
		return StageRecord{}, err
	}
	rec.Error = errMsg.String
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
