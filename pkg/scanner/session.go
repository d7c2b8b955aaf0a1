package scanner

import (
	"context"
	"time"

	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MessageStarting            = "Starting camera..."
	MessageScanning            = "Point the camera at the pharmacy QR code."
	MessageProcessing          = "QR code detected, submitting scan..."
	MessageSuccess             = "Scan saved. Thank you!"
	MessageNoCamera            = "No camera found."
	MessageCameraFailed        = "Camera could not be started."
	MessageFormatNotRecognized = "QR code format not recognized."
	MessageCancelled           = "Scanning cancelled."
)

var ErrSessionFinished = errors.New("scan session already ran; create a new session to scan again")

type SessionState string

const (
	StateIdle        SessionState = "Idle"
	StateEnumerating SessionState = "Enumerating"
	StateScanning    SessionState = "Scanning"
	StateProcessing  SessionState = "Processing"
	StateDone        SessionState = "Done"
)

type DecodeConfig struct {
	FramesPerSecond  int
	DetectionBoxSize int
}

func DefaultDecodeConfig() DecodeConfig {
	return DecodeConfig{
		FramesPerSecond:  10,
		DetectionBoxSize: 250,
	}
}

// DecodeEvent is one frame's outcome: either decoded Text or a FailureReason
// (typically "no code in frame").
type DecodeEvent struct {
	Text          string
	FailureReason string
}

func (e DecodeEvent) IsSuccess() bool {
	return e.FailureReason == ""
}

// Camera is an exclusively owned decoding device.  Start returns a channel of
// per-frame events which is closed when decoding ends; Stop halts decoding and
// returns once the device is released.
type Camera interface {
	ListDevices(ctx context.Context) ([]string, error)
	Start(ctx context.Context, deviceID string, config DecodeConfig) (<-chan DecodeEvent, error)
	Stop(ctx context.Context) error
}

type Outcome struct {
	Success bool
	Message string
	Record  *ScanRecord
	Result  *ScanResult
}

// SessionController runs a single scan: enumerate, decode until the first
// success, stop the camera, then parse, locate and submit.
type SessionController struct {
	Camera             Camera
	Acquirer           *Acquirer
	Submitter          ScanSubmitter
	Status             StatusSink
	DecodeConfig       DecodeConfig
	GeolocationTimeout time.Duration

	state SessionState
}

func NewSessionController(camera Camera, acquirer *Acquirer, submitter ScanSubmitter, status StatusSink) *SessionController {
	return &SessionController{
		Camera:             camera,
		Acquirer:           acquirer,
		Submitter:          submitter,
		Status:             status,
		DecodeConfig:       DefaultDecodeConfig(),
		GeolocationTimeout: DefaultGeolocationTimeout,
		state:              StateIdle,
	}
}

func (s *SessionController) State() SessionState {
	if s.state == "" {
		return StateIdle
	}
	return s.state
}

func (s *SessionController) transition(next SessionState) {
	logrus.Debugf("scan session: %s -> %s", s.State(), next)
	s.state = next
}

// Run drives the session to Done and reports the outcome.  The only error is
// ErrSessionFinished: every workflow failure is an unsuccessful Outcome.
func (s *SessionController) Run(ctx context.Context) (*Outcome, error) {
	if s.State() != StateIdle {
		return nil, ErrSessionFinished
	}
	ctx, span := telemetry.Tracer("pickupscan/scanner").Start(ctx, "scan-session")
	defer span.End()

	outcome := s.run(ctx)

	span.SetAttributes(attribute.Bool("success", outcome.Success))
	if !outcome.Success {
		span.SetStatus(codes.Error, outcome.Message)
	}
	var err error
	if !outcome.Success {
		err = errors.New(outcome.Message)
	}
	telemetry.RecordEvent("session", "done", err)
	return outcome, nil
}

func (s *SessionController) run(ctx context.Context) *Outcome {
	s.transition(StateEnumerating)
	s.Status.SetStatus(MessageStarting, StatusInfo)

	devices, err := s.Camera.ListDevices(ctx)
	if err != nil {
		logrus.Errorf("unable to enumerate cameras: %+v", err)
		return s.finish(&Outcome{Message: MessageCameraFailed})
	}
	if len(devices) == 0 {
		logrus.Infof("no camera devices available")
		return s.finish(&Outcome{Message: MessageNoCamera})
	}

	deviceID := devices[0]
	logrus.Infof("starting camera %s (of %d) at %d fps", deviceID, len(devices), s.DecodeConfig.FramesPerSecond)
	events, err := s.Camera.Start(ctx, deviceID, s.DecodeConfig)
	if err != nil {
		logrus.Errorf("unable to start camera %s: %+v", deviceID, err)
		return s.finish(&Outcome{Message: MessageCameraFailed})
	}

	s.transition(StateScanning)
	s.Status.SetStatus(MessageScanning, StatusInfo)
	text, decoded, failure := awaitFirstDecode(ctx, events)

	// the camera is stopped before anything else happens: a code that stays in
	// frame must not produce a second submission
	s.stopCamera(ctx, deviceID)

	if !decoded {
		return s.finish(&Outcome{Message: failure})
	}

	s.transition(StateProcessing)
	s.Status.SetStatus(MessageProcessing, StatusInfo)
	return s.finish(s.process(ctx, text))
}

func awaitFirstDecode(ctx context.Context, events <-chan DecodeEvent) (string, bool, string) {
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("scanning stopped: %s", ctx.Err())
			return "", false, MessageCancelled
		case event, ok := <-events:
			if !ok {
				logrus.Errorf("camera stopped delivering frames before a code was decoded")
				return "", false, MessageCameraFailed
			}
			if !event.IsSuccess() {
				logrus.Tracef("frame not decoded: %s", event.FailureReason)
				continue
			}
			return event.Text, true, ""
		}
	}
}

func (s *SessionController) stopCamera(ctx context.Context, deviceID string) {
	// the session ctx may already be cancelled; the device is released regardless
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.Camera.Stop(stopCtx)
	telemetry.RecordEvent("camera stop", deviceID, err)
	if err != nil {
		logrus.Errorf("unable to stop camera %s: %+v", deviceID, err)
	}
}

func (s *SessionController) process(ctx context.Context, text string) *Outcome {
	pharmacyID, err := ParsePayload(text)
	telemetry.RecordEvent("parse", "payload", err)
	if err != nil {
		logrus.Infof("unrecognized qr payload %q: %s", text, err)
		return &Outcome{Message: MessageFormatNotRecognized}
	}

	coords := s.Acquirer.Acquire(ctx, s.GeolocationTimeout)
	record := NewScanRecord(pharmacyID, coords, text)
	logrus.Infof("submitting scan for pharmacy %s at %s", pharmacyID, coords)

	result := s.submit(ctx, record)
	if !result.Ok {
		return &Outcome{Message: result.Error, Record: &record, Result: result}
	}
	return &Outcome{Success: true, Message: MessageSuccess, Record: &record, Result: result}
}

// submit turns a nil result or a panicking submitter into a transport failure.
func (s *SessionController) submit(ctx context.Context, record ScanRecord) (result *ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("recovered from scan submitter panic: %+v", r)
			telemetry.RecordEvent("submit", "panic", errors.Errorf("%v", r))
			result = &ScanResult{Ok: false, Error: MessageTransportError}
		}
	}()
	result = s.Submitter.Submit(ctx, record)
	if result == nil {
		result = &ScanResult{Ok: false, Error: MessageTransportError}
	}
	return result
}

func (s *SessionController) finish(outcome *Outcome) *Outcome {
	s.transition(StateDone)
	level := StatusError
	if outcome.Success {
		level = StatusOK
	}
	s.Status.SetStatus(outcome.Message, level)
	return outcome
}
