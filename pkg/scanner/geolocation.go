package scanner

import (
	"context"
	"time"

	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultGeolocationTimeout = 5 * time.Second

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnsupported      = errors.New("location capability not available")
)

// LocationProvider is the device's positioning capability.
type LocationProvider interface {
	CurrentPosition(ctx context.Context, highAccuracy bool) (*Coordinates, error)
}

type Acquirer struct {
	Provider LocationProvider
}

func NewAcquirer(provider LocationProvider) *Acquirer {
	return &Acquirer{Provider: provider}
}

// Acquire makes exactly one attempt to get a high accuracy fix.  Any failure,
// including timeout, yields nil: missing coordinates never stop a scan.
func (a *Acquirer) Acquire(ctx context.Context, timeout time.Duration) *Coordinates {
	if a == nil || a.Provider == nil {
		logrus.Debugf("no location provider, submitting without coordinates")
		telemetry.RecordEvent("geolocation", "unsupported", nil)
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultGeolocationTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fix struct {
		coords *Coordinates
		err    error
	}
	// buffered so a provider that ignores ctx can finish late without blocking
	done := make(chan fix, 1)
	start := time.Now()
	go func() {
		coords, err := a.Provider.CurrentPosition(ctx, true)
		done <- fix{coords: coords, err: err}
	}()

	var result fix
	select {
	case result = <-done:
	case <-ctx.Done():
		result = fix{err: errors.Wrapf(ctx.Err(), "no location fix within %s", timeout)}
	}
	telemetry.RecordDuration("geolocation", time.Since(start).Seconds())

	switch {
	case result.err != nil:
		logrus.Infof("location unavailable, continuing without coordinates: %s", result.err)
		telemetry.RecordEvent("geolocation", "unavailable", result.err)
		return nil
	case result.coords == nil:
		logrus.Infof("location provider returned no fix, continuing without coordinates")
		telemetry.RecordEvent("geolocation", "unavailable", nil)
		return nil
	}
	logrus.Debugf("location fix: %s", result.coords)
	telemetry.RecordEvent("geolocation", "fix", nil)
	coords := *result.coords
	return &coords
}
