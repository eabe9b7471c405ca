package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazetjaz01/streamdi/internal/model"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Insert persists a pending report. The (video_id, reporter_id) pair is
// unique at the store; a second report from the same profile surfaces as
// ErrDuplicate rather than relying on a pre-read existence check.
func (r *ReportRepo) Insert(ctx context.Context, rep *model.Report) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reports (id, video_id, reporter_id, reason, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rep.ID, rep.VideoID, rep.ReporterID, rep.Reason, rep.Details).Scan(&rep.CreatedAt)
	if err != nil {
		return translateUnique(err)
	}
	rep.Status = model.ReportStatusPending
	return nil
}

// BlockIfThresholdReached transitions the video to blocked once its report
// count reaches the threshold. The status guard makes the transition a
// single conditional update: two concurrent reports crossing the threshold
// cannot double-transition, and an already-blocked video is left unchanged.
// Returns whether this call performed the transition.
func (r *ReportRepo) BlockIfThresholdReached(ctx context.Context, videoID string, threshold int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos
		SET status = 'blocked'
		WHERE id = $1
		  AND status = 'active'
		  AND (SELECT COUNT(*) FROM reports WHERE video_id = $1) >= $2`,
		videoID, threshold)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountForVideo returns the number of reports (pending and resolved) a
// video has accumulated.
func (r *ReportRepo) CountForVideo(ctx context.Context, videoID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE video_id = $1`, videoID).Scan(&n)
	return n, err
}

// Resolve marks a report resolved. It never reverses the video's blocked
// status; unblocking is a separate administrative action.
func (r *ReportRepo) Resolve(ctx context.Context, reportID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET status = 'resolved' WHERE id = $1`, reportID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListPending returns pending reports for the moderation queue, oldest first.
func (r *ReportRepo) ListPending(ctx context.Context, limit int) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, video_id, reporter_id, reason, details, status, created_at
		FROM reports
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var rep model.Report
		err := rows.Scan(&rep.ID, &rep.VideoID, &rep.ReporterID, &rep.Reason, &rep.Details, &rep.Status, &rep.CreatedAt)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
