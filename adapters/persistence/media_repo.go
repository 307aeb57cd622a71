package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type postgresMediaRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresMediaRepo(db *pgxpool.Pool, logger logger.Logger) media.Repository {
	return &postgresMediaRepo{db: db, logger: logger}
}

const mediaColumns = `id, content_id, kind, file_path, file_size, mime_type, is_segmented, segment_count, created_at`

func scanMedia(row pgx.Row, contentID int64) (*media.Media, error) {
	m := &media.Media{}
	err := row.Scan(
		&m.ID, &m.ContentID, &m.Kind, &m.FilePath, &m.FileSize,
		&m.MimeType, &m.IsSegmented, &m.SegmentCount, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("media", fmt.Sprint(contentID))
		}
		return nil, apperror.NewInternal("failed to scan media row", err)
	}
	return m, nil
}

// ReplaceExtendedVideo swaps the content's extended video row inside one
// transaction so readers never observe zero or two of them.
func (r *postgresMediaRepo) ReplaceExtendedVideo(ctx context.Context, m *media.Media) (*media.Media, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewInternal("failed to begin media transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM media WHERE content_id = $1 AND kind = $2 RETURNING ` + mediaColumns
	previous, err := scanMedia(tx.QueryRow(ctx, query, m.ContentID, media.KindExtendedVideo), m.ContentID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	insert, args, err := psql.Insert("media").
		Columns("id", "content_id", "kind", "file_path", "file_size", "mime_type", "is_segmented", "segment_count", "created_at").
		Values(m.ID, m.ContentID, m.Kind, m.FilePath, m.FileSize, m.MimeType, m.IsSegmented, m.SegmentCount, m.CreatedAt).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build media insert", err)
	}
	if _, err := tx.Exec(ctx, insert, args...); err != nil {
		return nil, apperror.NewInternal("failed to insert media", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewInternal("failed to commit media transaction", err)
	}

	if previous != nil {
		r.logger.Info("Replaced extended video",
			zap.Int64("content_id", m.ContentID),
			zap.String("previous_id", previous.ID.String()),
			zap.String("media_id", m.ID.String()))
	}
	return previous, nil
}

func (r *postgresMediaRepo) FindExtendedVideo(ctx context.Context, contentID int64) (*media.Media, error) {
	query, args, err := psql.Select(mediaColumns).
		From("media").
		Where(sq.Eq{"content_id": contentID, "kind": media.KindExtendedVideo}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find media query", err)
	}
	return scanMedia(r.db.QueryRow(ctx, query, args...), contentID)
}
