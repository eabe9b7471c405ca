package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Subscribe records a (profile, channel) subscription idempotently.
// Duplicate-insert conflicts are treated as already subscribed, and the
// cached subscribers_count is rewritten from a recount of the pair rows.
func (r *SubscriptionRepo) Subscribe(ctx context.Context, channelID, profileID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM channels WHERE id = $1`, channelID).Scan(&one); err != nil {
		return 0, err // pgx.ErrNoRows when the channel is absent
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (channel_id, subscriber_profile_id)
		VALUES ($1, $2)
		ON CONFLICT (channel_id, subscriber_profile_id) DO NOTHING`,
		channelID, profileID)
	if err != nil {
		return 0, err
	}

	count, err := syncSubscribersCount(ctx, tx, channelID)
	if err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

// Unsubscribe removes a (profile, channel) subscription if present;
// removing an absent one is a no-op that still returns the current count.
func (r *SubscriptionRepo) Unsubscribe(ctx context.Context, channelID, profileID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM channels WHERE id = $1`, channelID).Scan(&one); err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM subscriptions WHERE channel_id = $1 AND subscriber_profile_id = $2`,
		channelID, profileID)
	if err != nil {
		return 0, err
	}

	count, err := syncSubscribersCount(ctx, tx, channelID)
	if err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

// Exists reports whether the (profile, channel) subscription row is present.
func (r *SubscriptionRepo) Exists(ctx context.Context, channelID, profileID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = $1 AND subscriber_profile_id = $2)`,
		channelID, profileID).Scan(&exists)
	return exists, err
}

func syncSubscribersCount(ctx context.Context, tx pgx.Tx, channelID string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE channels
		SET subscribers_count = (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1)
		WHERE id = $1
		RETURNING subscribers_count`, channelID).Scan(&count)
	return count, err
}
