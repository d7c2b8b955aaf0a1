package camera

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

// StdinDevice names the process's standard input as a scanning device.
const StdinDevice = "-"

const noCodeInFrame = "no code in frame"

// LineCamera drives hardware scanners that do their own decoding and emit one
// payload per line: keyboard-wedge and serial barcode readers, or a pipe.  It
// polls for a decoded line once per frame.
type LineCamera struct {
	DevicePaths []string
	Open        func(path string) (io.ReadCloser, error)

	mu      sync.Mutex
	current *lineRun

	stdinOnce  sync.Once
	stdinLines <-chan string
}

type lineRun struct {
	deviceID string
	reader   io.ReadCloser
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (r *lineRun) halt() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func NewLineCamera(devicePaths []string) *LineCamera {
	return &LineCamera{
		DevicePaths: devicePaths,
		Open:        openDevice,
	}
}

func openDevice(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	return file, errors.Wrapf(err, "unable to open device %s", path)
}

// ListDevices returns the configured devices that are present, in order.
func (c *LineCamera) ListDevices(ctx context.Context) ([]string, error) {
	var devices []string
	for _, path := range c.DevicePaths {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "device enumeration interrupted")
		}
		if path == StdinDevice {
			devices = append(devices, path)
			continue
		}
		exists, err := utils.FileExists(path)
		if err != nil {
			return nil, err
		}
		if !exists {
			logrus.Debugf("skipping missing device %s", path)
			continue
		}
		devices = append(devices, path)
	}
	return devices, nil
}

func (c *LineCamera) Start(ctx context.Context, deviceID string, config scanner.DecodeConfig) (<-chan scanner.DecodeEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil, errors.Errorf("device %s is already running", c.current.deviceID)
	}
	if config.FramesPerSecond <= 0 {
		return nil, errors.Errorf("invalid frame rate %d", config.FramesPerSecond)
	}
	run := &lineRun{
		deviceID: deviceID,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	var lines <-chan string
	if deviceID == StdinDevice {
		lines = c.stdin()
	} else {
		open := c.Open
		if open == nil {
			open = openDevice
		}
		reader, err := open(deviceID)
		if err != nil {
			return nil, err
		}
		run.reader = reader
		deviceLines := make(chan string, 16)
		go readLines(reader, deviceLines, run.stop)
		lines = deviceLines
	}
	// line devices deliver already-decoded text, so the detection box has no effect here
	logrus.Debugf("starting line device %s: %d fps, detection box %dpx ignored", deviceID, config.FramesPerSecond, config.DetectionBoxSize)

	events := make(chan scanner.DecodeEvent, 1)

	period := time.Second / time.Duration(config.FramesPerSecond)
	go func() {
		defer close(run.done)
		defer close(events)
		wait.Until(func() { frame(lines, events, run) }, period, run.stop)
	}()

	c.current = run
	return events, nil
}

// stdin is read by one goroutine for the camera's lifetime: a line read while
// no session is running waits for the next one instead of being dropped.
func (c *LineCamera) stdin() <-chan string {
	c.stdinOnce.Do(func() {
		lines := make(chan string)
		go readLines(os.Stdin, lines, nil)
		c.stdinLines = lines
	})
	return c.stdinLines
}

// readLines feeds lines until EOF, a read error, or stop.  A nil stop never fires.
func readLines(reader io.Reader, lines chan<- string, stop <-chan struct{}) {
	defer close(lines)
	lineScanner := bufio.NewScanner(reader)
	for lineScanner.Scan() {
		select {
		case lines <- lineScanner.Text():
		case <-stop:
			return
		}
	}
	if err := lineScanner.Err(); err != nil {
		logrus.Debugf("device read ended: %s", err)
	}
}

// frame emits one event for one poll of the device.  Misses are dropped when
// the consumer is busy; decoded text is not.
func frame(lines <-chan string, events chan<- scanner.DecodeEvent, run *lineRun) {
	select {
	case line, ok := <-lines:
		if !ok {
			logrus.Infof("device %s reached end of input", run.deviceID)
			run.halt()
			return
		}
		text := strings.TrimSpace(line)
		if text == "" {
			break
		}
		select {
		case events <- scanner.DecodeEvent{Text: text}:
		case <-run.stop:
		}
		return
	default:
	}

	select {
	case events <- scanner.DecodeEvent{FailureReason: noCodeInFrame}:
	default:
	}
}

func (c *LineCamera) Stop(ctx context.Context) error {
	c.mu.Lock()
	run := c.current
	c.current = nil
	c.mu.Unlock()

	if run == nil {
		return nil
	}
	run.halt()
	var closeErr error
	if run.reader != nil {
		closeErr = run.reader.Close()
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "timed out waiting for device %s to stop", run.deviceID)
	}
	logrus.Debugf("device %s stopped", run.deviceID)
	return errors.Wrapf(closeErr, "unable to close device %s", run.deviceID)
}
