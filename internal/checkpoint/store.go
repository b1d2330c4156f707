package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"subflow/internal/config"
	"subflow/internal/stage"
	"subflow/internal/timedtext"
)

// Store manages checkpoint persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the checkpoint database and applies
// migrations. It acquires the store's lock file; a second writer on the
// same directory fails fast instead of corrupting state.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.CheckpointDir, "checkpoints.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire checkpoint lock: %w", err)
	}
	if !locked {
		return nil, errors.New("checkpoint store is locked by another process")
	}

	dbPath := filepath.Join(cfg.Paths.CheckpointDir, "checkpoints.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection and the store lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the checkpoint, replacing any previous record for the job
// in a single transaction.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil {
		return errors.New("checkpoint is required")
	}
	if cp.JobID == "" {
		return errors.New("checkpoint job id is required")
	}
	if !cp.LastCompletedStage.Valid() {
		return fmt.Errorf("checkpoint stage %d is not valid", cp.LastCompletedStage)
	}

	transcriptJSON, err := marshalTranscript(cp.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	translatedJSON, err := marshalTranscript(cp.TranslatedTranscript)
	if err != nil {
		return fmt.Errorf("encode translated transcript: %w", err)
	}
	videoJSON, err := json.Marshal(cp.Video)
	if err != nil {
		return fmt.Errorf("encode video descriptor: %w", err)
	}
	outputJSON, err := json.Marshal(cp.Output)
	if err != nil {
		return fmt.Errorf("encode output options: %w", err)
	}

	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO checkpoints (
            job_id, created_at, last_completed_stage, downloaded_video_path,
            transcript_json, translated_transcript_json, video_json,
            target_language, output_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            created_at = excluded.created_at,
            last_completed_stage = excluded.last_completed_stage,
            downloaded_video_path = excluded.downloaded_video_path,
            transcript_json = excluded.transcript_json,
            translated_transcript_json = excluded.translated_transcript_json,
            video_json = excluded.video_json,
            target_language = excluded.target_language,
            output_json = excluded.output_json`,
		cp.JobID,
		createdAt.Format(time.RFC3339Nano),
		cp.LastCompletedStage.String(),
		cp.DownloadedVideoPath,
		transcriptJSON,
		translatedJSON,
		string(videoJSON),
		cp.TargetLanguage,
		string(outputJSON),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint for a job, or nil when none exists.
func (s *Store) Load(ctx context.Context, jobID string) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT job_id, created_at, last_completed_stage, downloaded_video_path,
               transcript_json, translated_transcript_json, video_json,
               target_language, output_json
        FROM checkpoints WHERE job_id = ?`, jobID)

	var (
		cp             Checkpoint
		createdAt      string
		stageLabel     string
		transcriptJSON string
		translatedJSON string
		videoJSON      string
		outputJSON     string
	)
	err := row.Scan(
		&cp.JobID, &createdAt, &stageLabel, &cp.DownloadedVideoPath,
		&transcriptJSON, &translatedJSON, &videoJSON,
		&cp.TargetLanguage, &outputJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if cp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse checkpoint timestamp: %w", err)
	}
	if cp.LastCompletedStage, err = stage.Parse(stageLabel); err != nil {
		return nil, fmt.Errorf("parse checkpoint stage: %w", err)
	}
	if cp.Transcript, err = unmarshalTranscript(transcriptJSON); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	if cp.TranslatedTranscript, err = unmarshalTranscript(translatedJSON); err != nil {
		return nil, fmt.Errorf("decode translated transcript: %w", err)
	}
	if videoJSON != "" {
		if err := json.Unmarshal([]byte(videoJSON), &cp.Video); err != nil {
			return nil, fmt.Errorf("decode video descriptor: %w", err)
		}
	}
	if outputJSON != "" {
		if err := json.Unmarshal([]byte(outputJSON), &cp.Output); err != nil {
			return nil, fmt.Errorf("decode output options: %w", err)
		}
	}
	return &cp, nil
}

// LoadValid loads and validates in one step. Invalid checkpoints are
// reported through the error while still returning the record so callers
// can surface what was rejected.
func (s *Store) LoadValid(ctx context.Context, jobID string, now time.Time) (*Checkpoint, error) {
	cp, err := s.Load(ctx, jobID)
	if err != nil || cp == nil {
		return cp, err
	}
	if err := cp.Validate(now); err != nil {
		return cp, err
	}
	return cp, nil
}

// Delete removes the checkpoint for a job.
func (s *Store) Delete(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// List returns every stored checkpoint, most recent first.
func (s *Store) List(ctx context.Context) ([]*Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT job_id FROM checkpoints ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan checkpoint id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	checkpoints := make([]*Checkpoint, 0, len(ids))
	for _, id := range ids {
		cp, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if cp != nil {
			checkpoints = append(checkpoints, cp)
		}
	}
	return checkpoints, nil
}

func marshalTranscript(t *timedtext.Transcript) (string, error) {
	if t == nil {
		return "", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalTranscript(raw string) (*timedtext.Transcript, error) {
	if raw == "" {
		return nil, nil
	}
	var t timedtext.Transcript
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}
