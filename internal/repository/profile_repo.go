package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazetjaz01/streamdi/internal/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `id, account_id, display_name, handle, avatar_url, banner_url,
	       locale, city, country, channels_count, created_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Handle, &p.AvatarURL, &p.BannerURL,
		&p.Locale, &p.City, &p.Country, &p.ChannelsCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByAccountID returns the profile owned by an authenticated account.
// Returns pgx.ErrNoRows when the account has no profile yet.
func (r *ProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE account_id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, accountID))
}

// FindByID returns a single profile by its identifier.
func (r *ProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

// HandleExists probes the profile handle namespace for a candidate.
// One round trip per candidate; the allocation loop bounds the total.
func (r *ProfileRepo) HandleExists(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE handle = $1)`, handle).Scan(&exists)
	return exists, err
}

// Insert persists a new profile. The store enforces uniqueness of both
// account_id and handle; violations surface as ErrDuplicate.
func (r *ProfileRepo) Insert(ctx context.Context, p *model.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, account_id, display_name, handle, avatar_url, banner_url, locale, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.AccountID, p.DisplayName, p.Handle, p.AvatarURL, p.BannerURL, p.Locale, p.City, p.Country)
	return translateUnique(err)
}

// BumpChannelsCount adjusts the cached channels_count. The field is an
// optimization only; the authoritative count is a row count over channels.
func (r *ProfileRepo) BumpChannelsCount(ctx context.Context, profileID string, delta int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET channels_count = GREATEST(channels_count + $2, 0)
		WHERE id = $1`, profileID, delta)
	return err
}
