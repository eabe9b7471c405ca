package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazetjaz01/streamdi/internal/model"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

const videoColumns = `id, channel_id, title, description, media_url, thumbnail_url,
	       visibility, views_count, likes_count, status, created_at`

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	var v model.Video
	err := row.Scan(
		&v.ID, &v.ChannelID, &v.Title, &v.Description, &v.MediaURL, &v.ThumbnailURL,
		&v.Visibility, &v.ViewsCount, &v.LikesCount, &v.Status, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindByID returns a single video by its identifier.
func (r *VideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE id = $1`
	return scanVideo(r.pool.QueryRow(ctx, query, id))
}

// Insert persists a new video with zero-valued counters and active status.
// Media must already be uploaded; the row only references the locations.
func (r *VideoRepo) Insert(ctx context.Context, v *model.Video) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO videos (id, channel_id, title, description, media_url, thumbnail_url, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.ChannelID, v.Title, v.Description, v.MediaURL, v.ThumbnailURL, v.Visibility)
	return translateUnique(err)
}

// IncrementViews bumps the video's monotonic view counter atomically and
// mirrors the increment onto the owning channel's aggregate total. Both
// writes happen in one transaction so the aggregate never runs ahead of
// the per-video counter. Returns the new views count.
func (r *VideoRepo) IncrementViews(ctx context.Context, videoID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var views int64
	var channelID string
	err = tx.QueryRow(ctx, `
		UPDATE videos
		SET views_count = views_count + 1
		WHERE id = $1
		RETURNING views_count, channel_id`, videoID).Scan(&views, &channelID)
	if err != nil {
		return 0, err // pgx.ErrNoRows when the video is absent
	}

	_, err = tx.Exec(ctx, `
		UPDATE channels
		SET total_views_count = total_views_count + 1
		WHERE id = $1`, channelID)
	if err != nil {
		return 0, err
	}

	return views, tx.Commit(ctx)
}

// ListRecent returns the home feed: active public videos across all
// channels, newest first, each joined with its owning channel's summary.
func (r *VideoRepo) ListRecent(ctx context.Context, limit int) ([]model.FeedItem, error) {
	query := `
		SELECT v.id, v.channel_id, v.title, v.description, v.media_url, v.thumbnail_url,
		       v.visibility, v.views_count, v.likes_count, v.status, v.created_at,
		       c.id, c.name, c.handle, c.avatar_url
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		WHERE v.status = 'active' AND v.visibility = 'public'
		ORDER BY v.created_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		var it model.FeedItem
		err := rows.Scan(
			&it.ID, &it.ChannelID, &it.Title, &it.Description, &it.MediaURL, &it.ThumbnailURL,
			&it.Visibility, &it.ViewsCount, &it.LikesCount, &it.Status, &it.CreatedAt,
			&it.Channel.ID, &it.Channel.Name, &it.Channel.Handle, &it.Channel.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByChannel returns a channel's videos, newest first. Blocked videos
// are excluded unless includeBlocked is set (owner/studio views).
func (r *VideoRepo) ListByChannel(ctx context.Context, channelID string, includeBlocked bool) ([]model.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE channel_id = $1 AND ($2 OR status = 'active')
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, channelID, includeBlocked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}
