package location

import (
	"context"

	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Unavailable is a device without positioning.
type Unavailable struct{}

func (Unavailable) CurrentPosition(ctx context.Context, highAccuracy bool) (*scanner.Coordinates, error) {
	return nil, scanner.ErrUnsupported
}

// Static reports a fixed position, e.g. for a scanner mounted at a counter.
type Static struct {
	Coordinates scanner.Coordinates
}

func (s *Static) CurrentPosition(ctx context.Context, highAccuracy bool) (*scanner.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coords := s.Coordinates
	return &coords, nil
}

// Fix is the on-disk format read by File, written by a GPS daemon or by hand:
//
//	latitude: 52.52
//	longitude: 13.405
//	denied: false
type Fix struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Denied    bool     `json:"denied"`
}

// File reads the latest fix from a yaml or json file on every request.
type File struct {
	Path string
}

func (f *File) CurrentPosition(ctx context.Context, highAccuracy bool) (*scanner.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exists, err := utils.FileExists(f.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(scanner.ErrUnsupported, "no location fix file at %s", f.Path)
	}
	fix, err := utils.ParseYamlFromFile[Fix](f.Path)
	if err != nil {
		return nil, err
	}
	if fix.Denied {
		return nil, scanner.ErrPermissionDenied
	}
	if fix.Latitude == nil || fix.Longitude == nil {
		return nil, errors.Errorf("location fix file %s has no position", f.Path)
	}
	logrus.Tracef("read fix %f,%f from %s (high accuracy: %t)", *fix.Latitude, *fix.Longitude, f.Path, highAccuracy)
	return &scanner.Coordinates{Latitude: *fix.Latitude, Longitude: *fix.Longitude}, nil
}

// NewProvider picks a provider from configuration: a fix file wins over static
// coordinates; with neither the device has no positioning.
func NewProvider(fixFile string, static *scanner.Coordinates) scanner.LocationProvider {
	switch {
	case fixFile != "":
		return &File{Path: fixFile}
	case static != nil:
		return &Static{Coordinates: *static}
	default:
		return Unavailable{}
	}
}
