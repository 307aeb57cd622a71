package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type postgresSegmentRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresSegmentRepo(db *pgxpool.Pool, logger logger.Logger) segment.Repository {
	return &postgresSegmentRepo{db: db, logger: logger}
}

const segmentColumns = `id, content_id, segment_number, prompt, duration_seconds, status,
	remote_uri, operation_handle, error_message, started_at, completed_at, failed_at, created_at, updated_at`

func scanSegment(row pgx.Row) (*segment.VideoSegment, error) {
	s := &segment.VideoSegment{}
	err := row.Scan(
		&s.ID, &s.ContentID, &s.SegmentNumber, &s.Prompt, &s.DurationSeconds, &s.Status,
		&s.RemoteURI, &s.OperationHandle, &s.ErrorMessage,
		&s.StartedAt, &s.CompletedAt, &s.FailedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, segment.ErrSegmentNotFound
		}
		return nil, apperror.NewInternal("failed to scan video segment row", err)
	}
	return s, nil
}

func (r *postgresSegmentRepo) ReplaceBatch(ctx context.Context, contentID int64, segments []*segment.VideoSegment) error {
	if err := segment.ValidateBatch(segments); err != nil {
		return apperror.NewInvalidInput("invalid segment batch", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperror.NewInternal("failed to begin segment batch transaction", err)
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx, `DELETE FROM video_segments WHERE content_id = $1`, contentID)
	if err != nil {
		return apperror.NewInternal("failed to clear previous segments", err)
	}
	if n := cmdTag.RowsAffected(); n > 0 {
		r.logger.Info("Replaced previous segment batch", zap.Int64("content_id", contentID), zap.Int64("removed", n))
	}

	if len(segments) > 0 {
		builder := psql.Insert("video_segments").Columns(
			"id", "content_id", "segment_number", "prompt", "duration_seconds", "status", "created_at", "updated_at",
		)
		for _, s := range segments {
			builder = builder.Values(s.ID, contentID, s.SegmentNumber, s.Prompt, s.DurationSeconds, s.Status, s.CreatedAt, s.UpdatedAt)
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return apperror.NewInternal("failed to build segment batch insert", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return apperror.NewInternal("failed to insert segment batch", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewInternal("failed to commit segment batch", err)
	}
	return nil
}

func (r *postgresSegmentRepo) Update(ctx context.Context, s *segment.VideoSegment) error {
	query := `
		UPDATE video_segments SET
			prompt = $2, status = $3, remote_uri = $4, operation_handle = $5, error_message = $6,
			started_at = $7, completed_at = $8, failed_at = $9, updated_at = $10
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		s.ID, s.Prompt, s.Status, s.RemoteURI, s.OperationHandle, s.ErrorMessage,
		s.StartedAt, s.CompletedAt, s.FailedAt, s.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("video segment", "status", string(s.Status))
		}
		return apperror.NewInternal("failed to update video segment", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return segment.ErrSegmentNotFound
	}
	return nil
}

func (r *postgresSegmentRepo) FindByNumber(ctx context.Context, contentID int64, number int) (*segment.VideoSegment, error) {
	query, args, err := psql.Select(segmentColumns).
		From("video_segments").
		Where(sq.Eq{"content_id": contentID, "segment_number": number}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find segment query", err)
	}
	return scanSegment(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresSegmentRepo) ListByContent(ctx context.Context, contentID int64) ([]*segment.VideoSegment, error) {
	query, args, err := psql.Select(segmentColumns).
		From("video_segments").
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("segment_number ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list segments query", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query video segments", err)
	}
	defer rows.Close()

	segments := make([]*segment.VideoSegment, 0)
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment rows: %w", err)
	}
	return segments, nil
}
