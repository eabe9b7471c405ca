package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
)

// fakeLikeStore mimics the pair-table toggle: row existence is the source
// of truth and the returned count is a recount of the rows.
type fakeLikeStore struct {
	mu     sync.Mutex
	videos map[string]bool
	pairs  map[string]bool // videoID + "|" + profileID
}

func newFakeLikeStore(videoIDs ...string) *fakeLikeStore {
	videos := make(map[string]bool)
	for _, id := range videoIDs {
		videos[id] = true
	}
	return &fakeLikeStore{videos: videos, pairs: make(map[string]bool)}
}

func (f *fakeLikeStore) recount(videoID string) int64 {
	var n int64
	for pair, ok := range f.pairs {
		if ok && strings.HasPrefix(pair, videoID+"|") {
			n++
		}
	}
	return n
}

func (f *fakeLikeStore) Like(ctx context.Context, videoID, profileID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.videos[videoID] {
		return 0, pgx.ErrNoRows
	}
	f.pairs[videoID+"|"+profileID] = true
	return f.recount(videoID), nil
}

func (f *fakeLikeStore) Unlike(ctx context.Context, videoID, profileID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.videos[videoID] {
		return 0, pgx.ErrNoRows
	}
	delete(f.pairs, videoID+"|"+profileID)
	return f.recount(videoID), nil
}

func (f *fakeLikeStore) Exists(ctx context.Context, videoID, profileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[videoID+"|"+profileID], nil
}

type fakeSubStore struct {
	mu       sync.Mutex
	channels map[string]bool
	pairs    map[string]bool
}

func newFakeSubStore(channelIDs ...string) *fakeSubStore {
	channels := make(map[string]bool)
	for _, id := range channelIDs {
		channels[id] = true
	}
	return &fakeSubStore{channels: channels, pairs: make(map[string]bool)}
}

func (f *fakeSubStore) recount(channelID string) int {
	n := 0
	for pair, ok := range f.pairs {
		if ok && strings.HasPrefix(pair, channelID+"|") {
			n++
		}
	}
	return n
}

func (f *fakeSubStore) Subscribe(ctx context.Context, channelID, profileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.channels[channelID] {
		return 0, pgx.ErrNoRows
	}
	f.pairs[channelID+"|"+profileID] = true
	return f.recount(channelID), nil
}

func (f *fakeSubStore) Unsubscribe(ctx context.Context, channelID, profileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.channels[channelID] {
		return 0, pgx.ErrNoRows
	}
	delete(f.pairs, channelID+"|"+profileID)
	return f.recount(channelID), nil
}

func (f *fakeSubStore) Exists(ctx context.Context, channelID, profileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[channelID+"|"+profileID], nil
}

type fakeVideoCounter struct {
	mu     sync.Mutex
	videos map[string]*model.Video
	incErr error
}

func newFakeVideoCounter(videos ...*model.Video) *fakeVideoCounter {
	m := make(map[string]*model.Video)
	for _, v := range videos {
		m[v.ID] = v
	}
	return &fakeVideoCounter{videos: m}
}

func (f *fakeVideoCounter) IncrementViews(ctx context.Context, videoID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return 0, f.incErr
	}
	v, ok := f.videos[videoID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	v.ViewsCount++
	return v.ViewsCount, nil
}

func (f *fakeVideoCounter) FindByID(ctx context.Context, id string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

type fakeChannelReader struct {
	channels map[string]*model.Channel
}

func (f *fakeChannelReader) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	if ch, ok := f.channels[id]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

// fakeMarker is an in-memory SETNX.
type fakeMarker struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{seen: make(map[string]bool)}
}

func (f *fakeMarker) Seen(ctx context.Context, sessionKey, videoID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[sessionKey+"|"+videoID], nil
}

func (f *fakeMarker) MarkViewed(ctx context.Context, sessionKey, videoID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionKey + "|" + videoID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func newEngagementServiceForTest(likes *fakeLikeStore, subs *fakeSubStore, videos *fakeVideoCounter, marker *fakeMarker) *EngagementService {
	chans := &fakeChannelReader{channels: map[string]*model.Channel{
		"c-1": {ID: "c-1", SubscribersCount: 0},
	}}
	return NewEngagementService(likes, subs, videos, chans, marker, nil)
}

func TestLike_Idempotent(t *testing.T) {
	likes := newFakeLikeStore("v-1")
	svc := newEngagementServiceForTest(likes, newFakeSubStore(), newFakeVideoCounter(), newFakeMarker())

	first, err := svc.Like(context.Background(), "v-1", "p-1")
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	if !first.Liked || first.LikesCount != 1 {
		t.Errorf("first = %+v, want liked with count 1", first)
	}

	second, err := svc.Like(context.Background(), "v-1", "p-1")
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if second.LikesCount != 1 {
		t.Errorf("count after duplicate like = %d, want 1", second.LikesCount)
	}
}

func TestLikeUnlike_RoundTripRestoresCount(t *testing.T) {
	likes := newFakeLikeStore("v-1")
	svc := newEngagementServiceForTest(likes, newFakeSubStore(), newFakeVideoCounter(), newFakeMarker())

	if _, err := svc.Like(context.Background(), "v-1", "p-1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	resp, err := svc.Unlike(context.Background(), "v-1", "p-1")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if resp.Liked || resp.LikesCount != 0 {
		t.Errorf("after round trip = %+v, want unliked with count 0", resp)
	}
}

func TestUnlike_AbsentIsNoOp(t *testing.T) {
	likes := newFakeLikeStore("v-1")
	svc := newEngagementServiceForTest(likes, newFakeSubStore(), newFakeVideoCounter(), newFakeMarker())

	resp, err := svc.Unlike(context.Background(), "v-1", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.LikesCount != 0 {
		t.Errorf("count = %d, want 0 (never negative)", resp.LikesCount)
	}
}

func TestLike_UnknownVideo(t *testing.T) {
	svc := newEngagementServiceForTest(newFakeLikeStore(), newFakeSubStore(), newFakeVideoCounter(), newFakeMarker())

	_, err := svc.Like(context.Background(), "v-missing", "p-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscribe_ToggleAndStatus(t *testing.T) {
	subs := newFakeSubStore("c-1")
	svc := newEngagementServiceForTest(newFakeLikeStore(), subs, newFakeVideoCounter(), newFakeMarker())
	ctx := context.Background()

	resp, err := svc.Subscribe(ctx, "c-1", "p-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !resp.Subscribed || resp.SubscribersCount != 1 {
		t.Errorf("subscribe = %+v, want subscribed with count 1", resp)
	}

	// Duplicate subscribe is a no-op
	resp, err = svc.Subscribe(ctx, "c-1", "p-1")
	if err != nil {
		t.Fatalf("duplicate subscribe: %v", err)
	}
	if resp.SubscribersCount != 1 {
		t.Errorf("count after duplicate = %d, want 1", resp.SubscribersCount)
	}

	status, err := svc.SubscriptionStatus(ctx, "c-1", "p-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Subscribed {
		t.Error("status.Subscribed = false, want true")
	}

	resp, err = svc.Unsubscribe(ctx, "c-1", "p-1")
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if resp.Subscribed || resp.SubscribersCount != 0 {
		t.Errorf("unsubscribe = %+v, want unsubscribed with count 0", resp)
	}
}

func TestRecordView_CountsOncePerSession(t *testing.T) {
	videos := newFakeVideoCounter(&model.Video{ID: "v-1", ViewsCount: 9})
	svc := newEngagementServiceForTest(newFakeLikeStore("v-1"), newFakeSubStore(), videos, newFakeMarker())
	ctx := context.Background()

	first, err := svc.RecordView(ctx, "v-1", "session-a")
	if err != nil {
		t.Fatalf("first view: %v", err)
	}
	if !first.Counted || first.Views != 10 {
		t.Errorf("first = %+v, want counted with views 10", first)
	}

	second, err := svc.RecordView(ctx, "v-1", "session-a")
	if err != nil {
		t.Fatalf("repeat view: %v", err)
	}
	if second.Counted || second.Views != 10 {
		t.Errorf("repeat = %+v, want not counted with views 10", second)
	}

	other, err := svc.RecordView(ctx, "v-1", "session-b")
	if err != nil {
		t.Fatalf("other session: %v", err)
	}
	if !other.Counted || other.Views != 11 {
		t.Errorf("other session = %+v, want counted with views 11", other)
	}
}

func TestRecordView_SameSessionDifferentVideos(t *testing.T) {
	videos := newFakeVideoCounter(
		&model.Video{ID: "v-1", ViewsCount: 0},
		&model.Video{ID: "v-2", ViewsCount: 0},
	)
	svc := newEngagementServiceForTest(newFakeLikeStore(), newFakeSubStore(), videos, newFakeMarker())
	ctx := context.Background()

	a, _ := svc.RecordView(ctx, "v-1", "session-a")
	b, err := svc.RecordView(ctx, "v-2", "session-a")
	if err != nil {
		t.Fatalf("second video: %v", err)
	}
	if !a.Counted || !b.Counted {
		t.Error("the marker must be scoped per (session, video), not per session")
	}
}

func TestRecordView_MarkerFailureStillCounts(t *testing.T) {
	videos := newFakeVideoCounter(&model.Video{ID: "v-1", ViewsCount: 0})
	marker := newFakeMarker()
	marker.err = errors.New("redis down")
	svc := newEngagementServiceForTest(newFakeLikeStore(), newFakeSubStore(), videos, marker)

	resp, err := svc.RecordView(context.Background(), "v-1", "session-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Counted || resp.Views != 1 {
		t.Errorf("resp = %+v, want counted despite marker failure", resp)
	}
}

func TestRecordView_FailedIncrementDoesNotMarkSessionSeen(t *testing.T) {
	videos := newFakeVideoCounter(&model.Video{ID: "v-1", ViewsCount: 0})
	marker := newFakeMarker()
	svc := newEngagementServiceForTest(newFakeLikeStore(), newFakeSubStore(), videos, marker)
	ctx := context.Background()

	videos.incErr = errors.New("db down")
	if _, err := svc.RecordView(ctx, "v-1", "session-a"); err == nil {
		t.Fatal("expected increment error")
	}

	// The marker must not remember a view that was never written, so the
	// session's retry still counts.
	videos.incErr = nil
	resp, err := svc.RecordView(ctx, "v-1", "session-a")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !resp.Counted || resp.Views != 1 {
		t.Errorf("retry = %+v, want counted with views 1", resp)
	}
}

func TestRecordView_UnknownVideo(t *testing.T) {
	svc := newEngagementServiceForTest(newFakeLikeStore(), newFakeSubStore(), newFakeVideoCounter(), newFakeMarker())

	_, err := svc.RecordView(context.Background(), "v-missing", "session-a")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
