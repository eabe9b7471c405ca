package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jazetjaz01/streamdi/internal/repository"
	"github.com/jazetjaz01/streamdi/pkg/slug"
)

const (
	// handleSuffixSeed is the first numeric suffix tried after the bare
	// base candidate ("name" -> "name-2").
	handleSuffixSeed = 2

	// maxHandleAttempts caps the probe/insert loop so a pathological
	// namespace cannot spin forever.
	maxHandleAttempts = 20
)

// HandleNamespace is the store surface the allocator probes. Profile and
// channel handles are separate namespaces, so each gets its own allocator.
type HandleNamespace interface {
	HandleExists(ctx context.Context, handle string) (bool, error)
}

// HandleAllocator derives URL-safe unique handles within one namespace.
//
// The existence probe is one store round trip per candidate, which is an
// accepted trade-off at this volume. The probe alone is racy: two
// concurrent allocations can both see a candidate as free. Correctness
// therefore rests on the insert hitting the store's unique constraint:
// AllocateWithRetry regenerates and retries on a duplicate instead of
// surfacing the raw constraint error.
type HandleAllocator struct {
	ns HandleNamespace
}

func NewHandleAllocator(ns HandleNamespace) *HandleAllocator {
	return &HandleAllocator{ns: ns}
}

// AllocateWithRetry normalizes displayName into a base slug, finds a free
// candidate and runs insert with it. When insert reports a duplicate (the
// probe lost a race), the next suffixed candidate is tried. Any other
// insert error aborts. Attempts are capped at maxHandleAttempts, after
// which ErrHandleExhausted is returned. Returns the committed handle.
func (a *HandleAllocator) AllocateWithRetry(ctx context.Context, displayName string, insert func(handle string) error) (string, error) {
	base := slug.Make(displayName)
	candidate := base
	suffix := handleSuffixSeed

	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		exists, err := a.ns.HandleExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			err := insert(candidate)
			if err == nil {
				return candidate, nil
			}
			if !errors.Is(err, repository.ErrDuplicate) {
				return "", err
			}
			// Lost the race to a concurrent allocation; fall through
			// and regenerate.
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
		suffix++
	}

	return "", ErrHandleExhausted
}
