package media

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipx/clipx-agent/internal/probe"
)

type Repository interface {
	CreateFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, id string) (*File, error)
	GetFileByPath(ctx context.Context, path string) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)
	DeleteFile(ctx context.Context, id string) error
	CountFiles(ctx context.Context) (int, error)
	SetMediaInfo(ctx context.Context, id string, info *probe.MediaInfo) error

	CreateSegment(ctx context.Context, seg *Segment) error
	GetSegment(ctx context.Context, id string) (*Segment, error)
	ListSegments(ctx context.Context) ([]*Segment, error)
	ListSegmentsByFile(ctx context.Context, fileID string) ([]*Segment, error)
	DeleteSegment(ctx context.Context, id string) error
	NextSegmentOrd(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int, stage string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const fileColumns = `id, path, filename, size, mtime, probed, width, height, fps_num, fps_den, duration, codec, pix_fmt, bitrate, created_at`

func (r *SQLiteRepository) CreateFile(ctx context.Context, f *File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, path, filename, size, mtime, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.ID, f.Path, f.Filename, f.Size, f.Mtime.Format(time.RFC3339), f.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetFile(ctx context.Context, id string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

func (r *SQLiteRepository) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	return scanFile(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var mtime, createdAt string
	var probed int
	var info probe.MediaInfo

	err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.Size, &mtime, &probed,
		&info.Width, &info.Height, &info.FPSNum, &info.FPSDen,
		&info.Duration, &info.Codec, &info.PixFmt, &info.Bitrate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if probed == 1 {
		f.Info = &info
	}
	return &f, nil
}

func (r *SQLiteRepository) ListFiles(ctx context.Context) ([]*File, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) DeleteFile(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

// SetMediaInfo attaches the probe descriptor to a file exactly once; a
// second write for the same file is rejected.
func (r *SQLiteRepository) SetMediaInfo(ctx context.Context, id string, info *probe.MediaInfo) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE files SET probed = 1, width = ?, height = ?, fps_num = ?, fps_den = ?,
			duration = ?, codec = ?, pix_fmt = ?, bitrate = ?
		WHERE id = ? AND probed = 0
	`, info.Width, info.Height, info.FPSNum, info.FPSDen,
		info.Duration, info.Codec, info.PixFmt, info.Bitrate, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("file %s not found or already probed", id)
	}
	return nil
}

func (r *SQLiteRepository) CreateSegment(ctx context.Context, s *Segment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (id, file_id, start_sec, end_sec, ord, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.FileID, s.Start, s.End, s.Ord, s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSegment(ctx context.Context, id string) (*Segment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, file_id, start_sec, end_sec, ord, created_at
		FROM segments WHERE id = ?
	`, id)
	return scanSegment(row)
}

func scanSegment(row rowScanner) (*Segment, error) {
	var s Segment
	var createdAt string

	err := row.Scan(&s.ID, &s.FileID, &s.Start, &s.End, &s.Ord, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

// ListSegments returns all segments in final concatenation order: the global
// order key, ties broken by insertion order.
func (r *SQLiteRepository) ListSegments(ctx context.Context) ([]*Segment, error) {
	return r.querySegments(ctx, `
		SELECT id, file_id, start_sec, end_sec, ord, created_at
		FROM segments ORDER BY ord ASC, created_at ASC, id ASC
	`)
}

func (r *SQLiteRepository) ListSegmentsByFile(ctx context.Context, fileID string) ([]*Segment, error) {
	return r.querySegments(ctx, `
		SELECT id, file_id, start_sec, end_sec, ord, created_at
		FROM segments WHERE file_id = ? ORDER BY ord ASC, created_at ASC, id ASC
	`, fileID)
}

func (r *SQLiteRepository) querySegments(ctx context.Context, query string, args ...any) ([]*Segment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *SQLiteRepository) DeleteSegment(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM segments WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) NextSegmentOrd(ctx context.Context) (int, error) {
	var maxOrd sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT MAX(ord) FROM segments").Scan(&maxOrd)
	if err != nil {
		return 0, err
	}
	return int(maxOrd.Int64) + 1, nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, stage, error, output_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Status, j.Progress, j.Stage, nullString(j.Error), j.OutputPath,
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, progress, stage, error, output_path, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Status, &j.Progress, &j.Stage, &errMsg, &j.OutputPath, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, progress, stage, error, output_path, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int, stage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, stage = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, stage, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
