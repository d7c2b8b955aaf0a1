package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeProvider struct {
	coords *Coordinates
	err    error
	delay  time.Duration
	// ignoreCtx simulates a platform call that cannot be interrupted
	ignoreCtx    bool
	calls        int
	highAccuracy bool
}

func (f *fakeProvider) CurrentPosition(ctx context.Context, highAccuracy bool) (*Coordinates, error) {
	f.calls++
	f.highAccuracy = highAccuracy
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return f.coords, f.err
}

func TestAcquireFix(t *testing.T) {
	provider := &fakeProvider{coords: &Coordinates{Latitude: 52.52, Longitude: 13.405}}
	coords := NewAcquirer(provider).Acquire(context.Background(), time.Second)

	if diff := cmp.Diff(&Coordinates{Latitude: 52.52, Longitude: 13.405}, coords); diff != "" {
		t.Errorf("unexpected coordinates (-want +got):\n%s", diff)
	}
	if provider.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", provider.calls)
	}
	if !provider.highAccuracy {
		t.Errorf("expected a high accuracy request")
	}
}

func TestAcquireAbsent(t *testing.T) {
	cases := map[string]*fakeProvider{
		"denied":      {err: ErrPermissionDenied},
		"unsupported": {err: ErrUnsupported},
		"no fix":      {},
		"timeout":     {coords: &Coordinates{Latitude: 1, Longitude: 2}, delay: time.Second},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			coords := NewAcquirer(provider).Acquire(context.Background(), 50*time.Millisecond)
			if coords != nil {
				t.Errorf("expected no coordinates, got %s", coords)
			}
			if provider.delay == 0 && provider.calls != 1 {
				t.Errorf("expected exactly one attempt, got %d", provider.calls)
			}
		})
	}
}

func TestAcquireTimeoutBoundsUncooperativeProvider(t *testing.T) {
	provider := &fakeProvider{coords: &Coordinates{Latitude: 1, Longitude: 2}, delay: 2 * time.Second, ignoreCtx: true}

	start := time.Now()
	coords := NewAcquirer(provider).Acquire(context.Background(), 50*time.Millisecond)
	elapsed := time.Since(start)

	if coords != nil {
		t.Errorf("expected no coordinates, got %s", coords)
	}
	if elapsed > time.Second {
		t.Errorf("expected acquisition to give up after the timeout, took %s", elapsed)
	}
}

func TestAcquireWithoutProvider(t *testing.T) {
	if coords := NewAcquirer(nil).Acquire(context.Background(), time.Second); coords != nil {
		t.Errorf("expected no coordinates, got %s", coords)
	}
	var acquirer *Acquirer
	if coords := acquirer.Acquire(context.Background(), time.Second); coords != nil {
		t.Errorf("expected no coordinates from nil acquirer, got %s", coords)
	}
}
