package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const DefaultDuplicateWindow = 2 * time.Minute

type Server struct {
	Registry *Registry
	Now      func() time.Time

	mu         sync.Mutex
	events     []*ScanEvent
	recentKeys *cache.Cache
}

// NewServer keeps every accepted scan in memory; a second scan of the same
// pharmacy from the same client within duplicateWindow is stored but flagged.
func NewServer(registry *Registry, duplicateWindow time.Duration) *Server {
	if duplicateWindow <= 0 {
		duplicateWindow = DefaultDuplicateWindow
	}
	return &Server{
		Registry:   registry,
		Now:        time.Now,
		recentKeys: cache.New(duplicateWindow, 2*duplicateWindow),
	}
}

func RunServer(ctx context.Context, addr string, server *Server) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: NewRouter(server),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("unable to shut down http server: %+v", err)
		}
	}()

	logrus.Infof("starting HTTP server on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RecordScan validates and stores one scan.  A *Rejection error means the
// request itself was bad.
func (s *Server) RecordScan(ctx context.Context, record *scanner.ScanRecord, client ClientInfo) (*ScanEvent, error) {
	if record.PharmacyPublicID == "" {
		return nil, &Rejection{Message: "Missing pharmacy_public_id"}
	}
	pharmacy := s.Registry.PharmacyByPublicID(record.PharmacyPublicID)
	if pharmacy == nil {
		logrus.Infof("scan for unknown pharmacy %s from %s", record.PharmacyPublicID, client.IPAddress)
		return nil, &Rejection{Message: "Unknown pharmacy"}
	}
	region := s.Registry.Region(pharmacy.RegionID)

	event := &ScanEvent{
		ID:               uuid.New().String(),
		ScannedAt:        s.Now().UTC(),
		PharmacyID:       pharmacy.ID,
		PharmacyPublicID: pharmacy.PublicID,
		PharmacyName:     pharmacy.Name,
		Latitude:         record.Latitude,
		Longitude:        record.Longitude,
		RawQR:            record.RawQR,
		UserAgent:        client.UserAgent,
		IPAddress:        client.IPAddress,
	}
	if region != nil {
		event.RegionID = &region.ID
		event.RegionName = region.Name
	}

	dedupKey := fmt.Sprintf("%d|%s|%s", pharmacy.ID, client.IPAddress, client.UserAgent)
	if err := s.recentKeys.Add(dedupKey, event.ID, cache.DefaultExpiration); err != nil {
		event.Duplicate = true
		logrus.Infof("repeat scan of pharmacy %s from %s within the duplicate window", pharmacy.PublicID, client.IPAddress)
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	telemetry.RecordEvent("ingest", fmt.Sprintf("duplicate=%t", event.Duplicate), nil)
	logrus.Infof("recorded scan %s for pharmacy %s (%s)", event.ID, pharmacy.PublicID, pharmacy.Name)
	return event, nil
}

// ListScans returns all scans, newest first.
func (s *Server) ListScans() []*ScanEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	newestFirst := make([]*ScanEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, s.events[i])
	}
	return newestFirst
}
