package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/repository"
	"github.com/jazetjaz01/streamdi/pkg/slug"
)

// fakeChannelStore is an in-memory ChannelStore with a handle unique
// constraint.
type fakeChannelStore struct {
	mu       sync.Mutex
	byID     map[string]*model.Channel
	byHandle map[string]*model.Channel
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{
		byID:     make(map[string]*model.Channel),
		byHandle: make(map[string]*model.Channel),
	}
}

func (f *fakeChannelStore) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.byID[id]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeChannelStore) FindByHandle(ctx context.Context, handle string) (*model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.byHandle[handle]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeChannelStore) HandleExists(ctx context.Context, handle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byHandle[handle]
	return ok, nil
}

func (f *fakeChannelStore) CountByProfile(ctx context.Context, profileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ch := range f.byID {
		if ch.ProfileID == profileID {
			n++
		}
	}
	return n, nil
}

// Insert enforces the handle constraint and the per-profile ceiling under
// one lock, the way the real store does inside one transaction.
func (f *fakeChannelStore) Insert(ctx context.Context, ch *model.Channel, maxPerProfile int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byHandle[ch.Handle]; ok {
		return repository.ErrDuplicate
	}
	n := 0
	for _, existing := range f.byID {
		if existing.ProfileID == ch.ProfileID {
			n++
		}
	}
	if n >= maxPerProfile {
		return repository.ErrLimitExceeded
	}
	cp := *ch
	f.byID[ch.ID] = &cp
	f.byHandle[ch.Handle] = &cp
	return nil
}

func (f *fakeChannelStore) ListByProfile(ctx context.Context, profileID string) ([]model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Channel
	for _, ch := range f.byID {
		if ch.ProfileID == profileID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

type fakeProfileCounter struct {
	mu    sync.Mutex
	bumps map[string]int
	err   error
}

func newFakeProfileCounter() *fakeProfileCounter {
	return &fakeProfileCounter{bumps: make(map[string]int)}
}

func (f *fakeProfileCounter) BumpChannelsCount(ctx context.Context, profileID string, delta int) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumps[profileID] += delta
	return nil
}

type fakeMediaStore struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (f *fakeMediaStore) Upload(ctx context.Context, objectName string, src io.Reader, size int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, objectName)
	return "http://media.local/" + objectName, nil
}

func newChannelServiceForTest(store *fakeChannelStore, media *fakeMediaStore) (*ChannelService, *fakeProfileCounter) {
	counter := newFakeProfileCounter()
	return NewChannelService(store, counter, media, NewWordFilter(nil), nil), counter
}

func testProfile() *model.Profile {
	return &model.Profile{ID: "p-1", DisplayName: "Jazz Trio", Handle: "jazz-trio"}
}

func TestEnsureDefault_CreatesOneChannel(t *testing.T) {
	store := newFakeChannelStore()
	svc, counter := newChannelServiceForTest(store, &fakeMediaStore{})
	p := testProfile()

	if err := svc.EnsureDefault(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	channels, _ := store.ListByProfile(context.Background(), p.ID)
	if len(channels) != 1 {
		t.Fatalf("channels = %d, want 1", len(channels))
	}
	ch := channels[0]
	if ch.Name != "Jazz Trio" {
		t.Errorf("name = %q, want %q", ch.Name, "Jazz Trio")
	}
	if ch.Visibility != model.VisibilityPublic {
		t.Errorf("visibility = %q, want public", ch.Visibility)
	}
	if !slug.Valid(ch.Handle) {
		t.Errorf("handle %q is not a valid slug", ch.Handle)
	}
	if ch.SubscribersCount != 0 || ch.TotalViewsCount != 0 {
		t.Errorf("counters not zero: subs=%d views=%d", ch.SubscribersCount, ch.TotalViewsCount)
	}
	if counter.bumps[p.ID] != 1 {
		t.Errorf("channels_count bump = %d, want 1", counter.bumps[p.ID])
	}
}

func TestEnsureDefault_NoOpWhenChannelExists(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})
	p := testProfile()

	if err := svc.EnsureDefault(context.Background(), p); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.EnsureDefault(context.Background(), p); err != nil {
		t.Fatalf("second call: %v", err)
	}

	channels, _ := store.ListByProfile(context.Background(), p.ID)
	if len(channels) != 1 {
		t.Fatalf("channels = %d, want 1 (second call must be a no-op)", len(channels))
	}
}

func TestCreate_EnforcesChannelCeiling(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})
	p := testProfile()

	for i := 0; i < MaxChannelsPerProfile; i++ {
		_, err := svc.Create(context.Background(), p, model.CreateChannelRequest{
			Name:       fmt.Sprintf("Channel %d", i+1),
			Visibility: model.VisibilityPublic,
		}, nil)
		if err != nil {
			t.Fatalf("creation %d under the ceiling failed: %v", i+1, err)
		}
	}

	_, err := svc.Create(context.Background(), p, model.CreateChannelRequest{Name: "One Too Many"}, nil)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("err = %v, want ErrLimitExceeded", err)
	}

	channels, _ := store.ListByProfile(context.Background(), p.ID)
	if len(channels) != MaxChannelsPerProfile {
		t.Errorf("channels = %d, want %d", len(channels), MaxChannelsPerProfile)
	}
}

// staleCountChannelStore under-reports the channel count by one, the way
// a concurrent insert landing between the count read and the insert makes
// the read stale.
type staleCountChannelStore struct {
	*fakeChannelStore
}

func (s *staleCountChannelStore) CountByProfile(ctx context.Context, profileID string) (int, error) {
	n, err := s.fakeChannelStore.CountByProfile(ctx, profileID)
	if n > 0 {
		n--
	}
	return n, err
}

func TestCreate_CeilingHoldsWhenCountReadIsStale(t *testing.T) {
	store := &staleCountChannelStore{fakeChannelStore: newFakeChannelStore()}
	svc := NewChannelService(store, newFakeProfileCounter(), &fakeMediaStore{}, NewWordFilter(nil), nil)
	p := testProfile()

	for i := 0; i < MaxChannelsPerProfile; i++ {
		if _, err := svc.Create(context.Background(), p, model.CreateChannelRequest{
			Name: fmt.Sprintf("Channel %d", i+1),
		}, nil); err != nil {
			t.Fatalf("creation %d under the ceiling failed: %v", i+1, err)
		}
	}

	// The stale read says 4 channels exist, so the pre-check passes; the
	// insert itself must still reject.
	_, err := svc.Create(context.Background(), p, model.CreateChannelRequest{Name: "One Too Many"}, nil)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("err = %v, want ErrLimitExceeded", err)
	}

	channels, _ := store.ListByProfile(context.Background(), p.ID)
	if len(channels) != MaxChannelsPerProfile {
		t.Errorf("channels = %d, want %d", len(channels), MaxChannelsPerProfile)
	}
}

func TestCreate_ConcurrentCreatesNeverExceedCeiling(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})
	p := testProfile()

	for i := 0; i < MaxChannelsPerProfile-1; i++ {
		if _, err := svc.Create(context.Background(), p, model.CreateChannelRequest{
			Name: fmt.Sprintf("Channel %d", i+1),
		}, nil); err != nil {
			t.Fatalf("seeding channel %d: %v", i+1, err)
		}
	}

	const racers = 4
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), p, model.CreateChannelRequest{
				Name: fmt.Sprintf("Racer %d", i+1),
			}, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrLimitExceeded):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1 slot under the ceiling", successes)
	}

	channels, _ := store.ListByProfile(context.Background(), p.ID)
	if len(channels) != MaxChannelsPerProfile {
		t.Errorf("channels = %d, want %d", len(channels), MaxChannelsPerProfile)
	}
}

func TestCreate_RejectsBannedWordNameFirst(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})

	// Both fields contain a banned term; the name match must be the one
	// reported.
	_, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{
		Name:        "Totally Spam! Channel",
		Description: "scam central",
	}, nil)

	var banned *BannedWordError
	if !errors.As(err, &banned) {
		t.Fatalf("err = %v, want BannedWordError", err)
	}
	if banned.Field != "name" || banned.Term != "spam" {
		t.Errorf("got field=%q term=%q, want name/spam", banned.Field, banned.Term)
	}
}

func TestCreate_RejectsBannedWordCaseAndDiacriticFolded(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})

	_, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{
		Name: "Honest Channel",
		// Diacritics and punctuation must not hide the term.
		Description: "the best SPÁM, around",
	}, nil)

	var banned *BannedWordError
	if !errors.As(err, &banned) {
		t.Fatalf("err = %v, want BannedWordError", err)
	}
	if banned.Field != "description" || banned.Term != "spam" {
		t.Errorf("got field=%q term=%q, want description/spam", banned.Field, banned.Term)
	}
}

func TestCreate_TruncatesLongNameAndDescription(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})

	name := strings.TrimSpace(strings.Repeat("word ", 25))
	desc := strings.TrimSpace(strings.Repeat("lorem ", 120))

	ch, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{
		Name:        name,
		Description: desc,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(strings.Fields(ch.Name)); got != 20 {
		t.Errorf("name tokens = %d, want 20", got)
	}
	if got := len(strings.Fields(ch.Description)); got != 100 {
		t.Errorf("description tokens = %d, want 100", got)
	}
}

func TestCreate_BannedWordBeyondCapIsDropped(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})

	// The banned term sits past the 20-token cap, so truncation removes
	// it before the filter runs.
	name := strings.TrimSpace(strings.Repeat("fine ", 20)) + " spam"

	ch, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{Name: name}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(ch.Name, "spam") {
		t.Errorf("truncated name still contains the overflow token: %q", ch.Name)
	}
}

func TestCreate_UploadFailureAbortsInsert(t *testing.T) {
	store := newFakeChannelStore()
	media := &fakeMediaStore{err: errors.New("storage unreachable")}
	svc, _ := newChannelServiceForTest(store, media)

	_, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{Name: "Gaming"}, []MediaUpload{
		{Purpose: "avatar", Filename: "a.png", Reader: strings.NewReader("img"), Size: 3, ContentType: "image/png"},
	})
	if err == nil {
		t.Fatal("expected upload error")
	}

	channels, _ := store.ListByProfile(context.Background(), "p-1")
	if len(channels) != 0 {
		t.Errorf("channels = %d, want 0 (failed upload must abort creation)", len(channels))
	}
}

func TestCreate_SetsMediaURLs(t *testing.T) {
	store := newFakeChannelStore()
	media := &fakeMediaStore{}
	svc, _ := newChannelServiceForTest(store, media)

	ch, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{Name: "Gaming"}, []MediaUpload{
		{Purpose: "avatar", Filename: "a.png", Reader: strings.NewReader("img"), Size: 3, ContentType: "image/png"},
		{Purpose: "banner", Filename: "b.jpg", Reader: strings.NewReader("img"), Size: 3, ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.AvatarURL == nil || ch.BannerURL == nil {
		t.Fatal("avatar and banner URLs must both be set")
	}
	if len(media.objects) != 2 {
		t.Errorf("uploaded objects = %d, want 2", len(media.objects))
	}
}

func TestCreate_DuplicateNamesGetDistinctHandles(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})
	p := testProfile()

	first, err := svc.Create(context.Background(), p, model.CreateChannelRequest{Name: "Électronique Fun!!"}, nil)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(context.Background(), p, model.CreateChannelRequest{Name: "Électronique Fun!!"}, nil)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if first.Handle != "electronique-fun" {
		t.Errorf("first handle = %q, want electronique-fun", first.Handle)
	}
	if second.Handle != "electronique-fun-2" {
		t.Errorf("second handle = %q, want electronique-fun-2", second.Handle)
	}
}

func TestCreate_BumpFailureDoesNotFailCreation(t *testing.T) {
	store := newFakeChannelStore()
	svc, counter := newChannelServiceForTest(store, &fakeMediaStore{})
	counter.err = errors.New("profiles table busy")

	_, err := svc.Create(context.Background(), testProfile(), model.CreateChannelRequest{Name: "Gaming"}, nil)
	if err != nil {
		t.Fatalf("creation must succeed despite bump failure, got: %v", err)
	}
}

func TestLookup_NotFound(t *testing.T) {
	store := newFakeChannelStore()
	svc, _ := newChannelServiceForTest(store, &fakeMediaStore{})

	_, err := svc.Lookup(context.Background(), "no-such-handle")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
