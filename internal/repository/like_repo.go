package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// Like records a (profile, video) like idempotently. The pair row is the
// source of truth: after the upsert, likes_count is rewritten from a
// recount in the same transaction, which also repairs any drift left by an
// earlier crash between insert and counter update. Returns the new count.
func (r *LikeRepo) Like(ctx context.Context, videoID, profileID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM videos WHERE id = $1`, videoID).Scan(&one); err != nil {
		return 0, err // pgx.ErrNoRows when the video is absent
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO video_likes (video_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT (video_id, profile_id) DO NOTHING`,
		videoID, profileID)
	if err != nil {
		return 0, err
	}

	count, err := syncLikesCount(ctx, tx, videoID)
	if err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

// Unlike removes a (profile, video) like if present. Deleting an absent
// like is a no-op that still returns the current count.
func (r *LikeRepo) Unlike(ctx context.Context, videoID, profileID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM videos WHERE id = $1`, videoID).Scan(&one); err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM video_likes WHERE video_id = $1 AND profile_id = $2`,
		videoID, profileID)
	if err != nil {
		return 0, err
	}

	count, err := syncLikesCount(ctx, tx, videoID)
	if err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

// Exists reports whether the (profile, video) like row is present.
func (r *LikeRepo) Exists(ctx context.Context, videoID, profileID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM video_likes WHERE video_id = $1 AND profile_id = $2)`,
		videoID, profileID).Scan(&exists)
	return exists, err
}

// syncLikesCount rewrites the cached counter from the authoritative
// pair-row count and returns the result.
func syncLikesCount(ctx context.Context, tx pgx.Tx, videoID string) (int64, error) {
	var count int64
	err := tx.QueryRow(ctx, `
		UPDATE videos
		SET likes_count = (SELECT COUNT(*) FROM video_likes WHERE video_id = $1)
		WHERE id = $1
		RETURNING likes_count`, videoID).Scan(&count)
	return count, err
}
