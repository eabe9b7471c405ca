package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazetjaz01/streamdi/internal/model"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

const channelColumns = `id, profile_id, name, handle, description, visibility,
	       avatar_url, banner_url, subscribers_count, total_views_count, created_at`

func scanChannel(row interface{ Scan(...any) error }) (*model.Channel, error) {
	var ch model.Channel
	err := row.Scan(
		&ch.ID, &ch.ProfileID, &ch.Name, &ch.Handle, &ch.Description, &ch.Visibility,
		&ch.AvatarURL, &ch.BannerURL, &ch.SubscribersCount, &ch.TotalViewsCount, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// FindByID returns a single channel by its identifier.
func (r *ChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE id = $1`
	return scanChannel(r.pool.QueryRow(ctx, query, id))
}

// FindByHandle returns a single channel by its unique handle.
func (r *ChannelRepo) FindByHandle(ctx context.Context, handle string) (*model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE handle = $1`
	return scanChannel(r.pool.QueryRow(ctx, query, handle))
}

// HandleExists probes the channel handle namespace for a candidate.
// Channel handles are independent from profile handles.
func (r *ChannelRepo) HandleExists(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE handle = $1)`, handle).Scan(&exists)
	return exists, err
}

// CountByProfile returns the authoritative number of channels a profile owns.
func (r *ChannelRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM channels WHERE profile_id = $1`, profileID).Scan(&n)
	return n, err
}

// Insert persists a new channel with zero-valued counters. The
// per-profile ceiling is enforced here: the transaction locks the owning
// profile row so concurrent creates serialize at the store instead of
// racing a count read, and the insert only fires while the profile is
// under the ceiling. A full profile surfaces as ErrLimitExceeded, a
// handle collision as ErrDuplicate.
func (r *ChannelRepo) Insert(ctx context.Context, ch *model.Channel, maxPerProfile int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM profiles WHERE id = $1 FOR UPDATE`, ch.ProfileID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO channels (id, profile_id, name, handle, description, visibility, avatar_url, banner_url)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE (SELECT COUNT(*) FROM channels WHERE profile_id = $2) < $9`,
		ch.ID, ch.ProfileID, ch.Name, ch.Handle, ch.Description, ch.Visibility, ch.AvatarURL, ch.BannerURL,
		maxPerProfile)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLimitExceeded
	}

	return tx.Commit(ctx)
}

// ListByProfile returns all channels a profile owns, oldest first.
func (r *ChannelRepo) ListByProfile(ctx context.Context, profileID string) ([]model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE profile_id = $1
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}
