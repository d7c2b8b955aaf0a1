package scanner

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

type StatusLevel string

const (
	StatusInfo  StatusLevel = "info"
	StatusOK    StatusLevel = "ok"
	StatusError StatusLevel = "error"
)

// StatusSink is the single place a scan session reports progress and results.
type StatusSink interface {
	SetStatus(message string, level StatusLevel)
}

// TerminalStatus writes one line per update, e.g. "[ok] Scan saved. Thank you!".
type TerminalStatus struct {
	Out io.Writer
	mu  sync.Mutex
}

func NewTerminalStatus(out io.Writer) *TerminalStatus {
	return &TerminalStatus{Out: out}
}

func (t *TerminalStatus) SetStatus(message string, level StatusLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch level {
	case StatusError:
		logrus.Warnf("status: %s", message)
	default:
		logrus.Debugf("status (%s): %s", level, message)
	}
	if _, err := fmt.Fprintf(t.Out, "[%s] %s\n", level, message); err != nil {
		logrus.Errorf("unable to write status: %+v", err)
	}
}
