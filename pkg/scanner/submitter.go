package scanner

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MessageTransportError = "Network error, please try again."
	MessageScanRejected   = "Scan rejected."
)

var (
	errMalformedResponse = errors.New("malformed scan response")
	errRejected          = errors.New("scan rejected by server")
)

type ScanSubmitter interface {
	Submit(ctx context.Context, record ScanRecord) *ScanResult
}

type Submitter struct {
	RestyClient *resty.Client
}

func NewSubmitter(serverAddress string, timeout time.Duration) *Submitter {
	return &Submitter{RestyClient: NewRestyClient(serverAddress, timeout)}
}

// wireResult tells a missing "ok" apart from ok=false.  scan_id is only
// informational and may be a number or a string.
type wireResult struct {
	Ok     *bool           `json:"ok"`
	Error  string          `json:"error"`
	ScanID json.RawMessage `json:"scan_id"`
}

func (w *wireResult) scanID() string {
	raw := strings.TrimSpace(string(w.ScanID))
	if raw == "" || raw == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(w.ScanID, &id); err == nil {
		return id
	}
	return raw
}

// Submit sends the record once.  It never returns an error: transport and
// decoding problems become a generic failed result, server rejections keep
// the server's message.
func (s *Submitter) Submit(ctx context.Context, record ScanRecord) *ScanResult {
	ctx, span := telemetry.Tracer("pickupscan/scanner").Start(ctx, "submit-scan")
	defer span.End()
	span.SetAttributes(attribute.String("pharmacy_public_id", record.PharmacyPublicID))

	start := time.Now()
	resp, err := IssueRequest(ctx, s.RestyClient, "POST", ScanPath, record, nil)
	telemetry.RecordDuration("submit", time.Since(start).Seconds())
	if err != nil {
		logrus.Errorf("unable to submit scan for %s: %+v", record.PharmacyPublicID, err)
		telemetry.RecordEvent("submit", "transport", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return &ScanResult{Ok: false, Error: MessageTransportError}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	var wire wireResult
	if err := json.Unmarshal(resp.Body(), &wire); err != nil || wire.Ok == nil {
		logrus.Errorf("unexpected response from %s (status %d): %s",
			ScanPath, resp.StatusCode(), utils.StringPrefix(resp.String(), 200))
		telemetry.RecordEvent("submit", "malformed", errMalformedResponse)
		span.SetStatus(codes.Error, "malformed response")
		return &ScanResult{Ok: false, Error: MessageTransportError}
	}

	if !*wire.Ok {
		message := wire.Error
		if message == "" {
			message = MessageScanRejected
		}
		logrus.Infof("scan for %s rejected by server (status %d): %s", record.PharmacyPublicID, resp.StatusCode(), message)
		telemetry.RecordEvent("submit", "rejected", errRejected)
		span.SetStatus(codes.Error, message)
		return &ScanResult{Ok: false, Error: message}
	}

	scanID := wire.scanID()
	logrus.Infof("scan for %s accepted, scan id %s", record.PharmacyPublicID, scanID)
	telemetry.RecordEvent("submit", "accepted", nil)
	return &ScanResult{Ok: true, ScanID: scanID}
}
