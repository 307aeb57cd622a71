package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/reel-forge/internal/domain/content"
)

type postgresContentRepo struct {
	db *pgxpool.Pool
}

func NewPostgresContentRepo(db *pgxpool.Pool) content.Repository {
	return &postgresContentRepo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const contentColumns = `id, idea, content_type, aspect_ratio, desired_duration_seconds, is_extended_video,
	video_script, generation_status, generation_error, created_at, updated_at`

func scanContent(row pgx.Row) (*content.Content, error) {
	c := &content.Content{}
	var duration sql.NullInt32
	var scriptBytes []byte
	var genError sql.NullString

	err := row.Scan(
		&c.ID,
		&c.Idea,
		&c.ContentType,
		&c.AspectRatio,
		&duration,
		&c.IsExtendedVideo,
		&scriptBytes,
		&c.GenerationStatus,
		&genError,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to scan content row: %w", err)
	}

	if duration.Valid {
		c.DesiredDurationSeconds = int(duration.Int32)
	}
	if genError.Valid {
		c.GenerationError = &genError.String
	}
	if len(scriptBytes) > 0 {
		if err := json.Unmarshal(scriptBytes, &c.VideoScript); err != nil {
			c.VideoScript = nil
		}
	}
	return c, nil
}

func (r *postgresContentRepo) FindByID(ctx context.Context, id int64) (*content.Content, error) {
	query, args, err := psql.Select(contentColumns).From("contents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find content query: %w", err)
	}
	return scanContent(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresContentRepo) QueueExtendedVideo(ctx context.Context, id int64, desiredDurationSeconds int) error {
	query, args, err := psql.Update("contents").
		SetMap(sq.Eq{
			"is_extended_video":        true,
			"desired_duration_seconds": desiredDurationSeconds,
			"generation_status":        string(content.GenerationQueued),
			"generation_error":         nil,
		}).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"generation_status": []string{string(content.GenerationQueued), string(content.GenerationRunning)}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build queue extended video query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to queue extended video: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check content: %w", err)
	}
	if !exists {
		return content.ErrContentNotFound
	}
	return content.ErrGenerationActive
}

func (r *postgresContentRepo) SaveVideoScript(ctx context.Context, id int64, script []string) error {
	scriptBytes, err := json.Marshal(script)
	if err != nil {
		return fmt.Errorf("failed to marshal video script: %w", err)
	}
	return r.update(ctx, id, "save video script", sq.Eq{"video_script": scriptBytes})
}

func (r *postgresContentRepo) UpdateGenerationStatus(ctx context.Context, id int64, status content.GenerationStatus, errMsg *string) error {
	return r.update(ctx, id, "update generation status", sq.Eq{
		"generation_status": status,
		"generation_error":  errMsg,
	})
}

func (r *postgresContentRepo) update(ctx context.Context, id int64, op string, set sq.Eq) error {
	builder := psql.Update("contents").
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", op, err)
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return content.ErrContentNotFound
	}
	return nil
}
