package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/repository"
)

// ReportStore is the persistence surface for the moderation gate.
type ReportStore interface {
	Insert(ctx context.Context, rep *model.Report) error
	BlockIfThresholdReached(ctx context.Context, videoID string, threshold int) (bool, error)
	CountForVideo(ctx context.Context, videoID string) (int, error)
	Resolve(ctx context.Context, reportID string) error
	ListPending(ctx context.Context, limit int) ([]model.Report, error)
}

const pendingQueueLimit = 100

// ReportService records abuse reports and escalates a video to blocked
// once its report count reaches the configured threshold.
type ReportService struct {
	reports   ReportStore
	videos    VideoCounterStore
	cache     *CacheService
	threshold int
}

func NewReportService(reports ReportStore, videos VideoCounterStore, cache *CacheService, threshold int) *ReportService {
	return &ReportService{reports: reports, videos: videos, cache: cache, threshold: threshold}
}

// Submit records one report per (video, reporting profile) pair, then runs
// the escalation check. A second report from the same profile is rejected
// with ErrDuplicateReport via the store's unique constraint, so the count
// never grows. Reporting an already-blocked video succeeds; the guarded
// transition is simply a no-op.
func (s *ReportService) Submit(ctx context.Context, reporterID string, req model.CreateReportRequest) (*model.ReportResponse, error) {
	if _, err := s.videos.FindByID(ctx, req.VideoID); err != nil {
		return nil, mapNoRows(err)
	}

	rep := &model.Report{
		ID:         uuid.New().String(),
		VideoID:    req.VideoID,
		ReporterID: reporterID,
		Reason:     req.Reason,
		Details:    req.Details,
	}
	if err := s.reports.Insert(ctx, rep); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReport
		}
		return nil, err
	}

	// The insert is committed; if the escalation check fails here the
	// state stays valid and the next report re-evaluates the threshold.
	blocked, err := s.reports.BlockIfThresholdReached(ctx, req.VideoID, s.threshold)
	if err != nil {
		log.Printf("reports: escalation check failed for video %s: %v", req.VideoID, err)
		blocked = false
	}
	if blocked && s.cache != nil {
		if err := s.cache.InvalidateVideo(ctx, req.VideoID); err != nil {
			log.Printf("cache: invalidate video error: %v", err)
		}
	}

	return &model.ReportResponse{Report: rep, VideoBlocked: blocked}, nil
}

// Resolve marks a report resolved. The video's blocked status is never
// reversed here; unblocking is a separate administrative action.
func (s *ReportService) Resolve(ctx context.Context, reportID string) error {
	if err := s.reports.Resolve(ctx, reportID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Pending returns the oldest pending reports for the moderation queue.
func (s *ReportService) Pending(ctx context.Context) ([]model.Report, error) {
	return s.reports.ListPending(ctx, pendingQueueLimit)
}
