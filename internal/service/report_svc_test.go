package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/repository"
)

// fakeReportStore mimics the reports table: a (video, reporter) unique
// constraint and the guarded block transition on the video row.
type fakeReportStore struct {
	mu                 sync.Mutex
	reports            []*model.Report
	pairs              map[string]bool
	videos             *fakeVideoCounter
	blockedTransitions int
}

func newFakeReportStore(videos *fakeVideoCounter) *fakeReportStore {
	return &fakeReportStore{pairs: make(map[string]bool), videos: videos}
}

func (f *fakeReportStore) Insert(ctx context.Context, rep *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rep.VideoID + "|" + rep.ReporterID
	if f.pairs[key] {
		return repository.ErrDuplicate
	}
	f.pairs[key] = true
	rep.Status = model.ReportStatusPending
	f.reports = append(f.reports, rep)
	return nil
}

func (f *fakeReportStore) BlockIfThresholdReached(ctx context.Context, videoID string, threshold int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, r := range f.reports {
		if r.VideoID == videoID {
			count++
		}
	}
	v, ok := f.videos.videos[videoID]
	if !ok {
		return false, nil
	}
	// Single guarded transition: only active videos flip.
	if v.Status == model.VideoStatusActive && count >= threshold {
		v.Status = model.VideoStatusBlocked
		f.blockedTransitions++
		return true, nil
	}
	return false, nil
}

func (f *fakeReportStore) CountForVideo(ctx context.Context, videoID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.reports {
		if r.VideoID == videoID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReportStore) Resolve(ctx context.Context, reportID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.ID == reportID {
			r.Status = model.ReportStatusResolved
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeReportStore) ListPending(ctx context.Context, limit int) ([]model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Report
	for _, r := range f.reports {
		if r.Status == model.ReportStatusPending {
			out = append(out, *r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func activeVideo(id string) *model.Video {
	return &model.Video{ID: id, Status: model.VideoStatusActive}
}

func TestSubmit_RecordsPendingReport(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	// Threshold above 1 so this report does not escalate.
	svc := NewReportService(store, videos, nil, 3)

	resp, err := svc.Submit(context.Background(), "p-1", model.CreateReportRequest{
		VideoID: "v-1",
		Reason:  "spam",
		Details: "repetitive uploads",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Report.Status != model.ReportStatusPending {
		t.Errorf("status = %q, want pending", resp.Report.Status)
	}
	if resp.VideoBlocked {
		t.Error("video blocked below threshold")
	}
}

func TestSubmit_DuplicateRejectedWithoutCountGrowth(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 3)
	ctx := context.Background()

	req := model.CreateReportRequest{VideoID: "v-1", Reason: "spam"}
	if _, err := svc.Submit(ctx, "p-1", req); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(ctx, "p-1", req)
	if !errors.Is(err, ErrDuplicateReport) {
		t.Fatalf("err = %v, want ErrDuplicateReport", err)
	}

	count, _ := store.CountForVideo(ctx, "v-1")
	if count != 1 {
		t.Errorf("report count = %d, want 1 (duplicate must not grow the count)", count)
	}
}

func TestSubmit_ThresholdOneBlocksImmediately(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 1)

	resp, err := svc.Submit(context.Background(), "p-1", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.VideoBlocked {
		t.Fatal("video not blocked at threshold 1")
	}
	if videos.videos["v-1"].Status != model.VideoStatusBlocked {
		t.Errorf("video status = %q, want blocked", videos.videos["v-1"].Status)
	}
}

func TestSubmit_AlreadyBlockedVideoDoesNotTransitionTwice(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 1)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "p-1", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// A different reporter on the now-blocked video: accepted, but the
	// status transition must not fire again.
	resp, err := svc.Submit(ctx, "p-2", model.CreateReportRequest{VideoID: "v-1", Reason: "copyright"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if resp.VideoBlocked {
		t.Error("second report claims to have blocked an already-blocked video")
	}
	if store.blockedTransitions != 1 {
		t.Errorf("transitions = %d, want exactly 1", store.blockedTransitions)
	}
}

func TestSubmit_ThresholdTwoNeedsTwoReporters(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 2)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "p-1", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.VideoBlocked {
		t.Fatal("blocked after one report at threshold 2")
	}

	second, err := svc.Submit(ctx, "p-2", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.VideoBlocked {
		t.Fatal("not blocked after reaching threshold 2")
	}
}

func TestSubmit_UnknownVideo(t *testing.T) {
	videos := newFakeVideoCounter()
	svc := NewReportService(newFakeReportStore(videos), videos, nil, 1)

	_, err := svc.Submit(context.Background(), "p-1", model.CreateReportRequest{VideoID: "v-missing", Reason: "spam"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_MarksReportResolved(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 3)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, "p-1", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Resolve(ctx, resp.Report.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	pending, _ := svc.Pending(ctx)
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestResolve_NeverUnblocksVideo(t *testing.T) {
	videos := newFakeVideoCounter(activeVideo("v-1"))
	store := newFakeReportStore(videos)
	svc := NewReportService(store, videos, nil, 1)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, "p-1", model.CreateReportRequest{VideoID: "v-1", Reason: "spam"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Resolve(ctx, resp.Report.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if videos.videos["v-1"].Status != model.VideoStatusBlocked {
		t.Error("resolving the report must not unblock the video")
	}
}

func TestResolve_UnknownReport(t *testing.T) {
	videos := newFakeVideoCounter()
	svc := NewReportService(newFakeReportStore(videos), videos, nil, 1)

	err := svc.Resolve(context.Background(), "r-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
