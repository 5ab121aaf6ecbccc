package talloc

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hook receives telemetry events around Pool operations. Member itself
// never calls a Hook -- Pool wires them in at the boundary, so the core
// stays hook-free, allocation-free, and single-threaded per its contract.
type Hook interface {
	OnMark(poolID uuid.UUID, label string, n int, addr uint32, ok bool)
	OnClear(poolID uuid.UUID, label string, addr uint32, n int)
	OnExhausted(poolID uuid.UUID, label string, class int)
}

// NoopHook discards every event. It is never attached explicitly; a Pool
// created with no hooks simply has an empty hook list.
type NoopHook struct{}

func (NoopHook) OnMark(uuid.UUID, string, int, uint32, bool) {}
func (NoopHook) OnClear(uuid.UUID, string, uint32, int)      {}
func (NoopHook) OnExhausted(uuid.UUID, string, int)          {}

// LogrusHook logs Pool events as structured fields: Debug for mark/clear,
// Warn for exhaustion.
type LogrusHook struct {
	Logger *logrus.Logger
}

// NewLogrusHook returns a LogrusHook writing to logger, or to
// logrus.StandardLogger() if logger is nil.
func NewLogrusHook(logger *logrus.Logger) LogrusHook {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return LogrusHook{Logger: logger}
}

func (h LogrusHook) OnMark(poolID uuid.UUID, label string, n int, addr uint32, ok bool) {
	h.Logger.WithFields(logrus.Fields{
		"pool_id": poolID,
		"label":   label,
		"n":       n,
		"addr":    addr,
		"ok":      ok,
	}).Debug("talloc: mark")
}

func (h LogrusHook) OnClear(poolID uuid.UUID, label string, addr uint32, n int) {
	h.Logger.WithFields(logrus.Fields{
		"pool_id": poolID,
		"label":   label,
		"addr":    addr,
		"n":       n,
	}).Debug("talloc: clear")
}

func (h LogrusHook) OnExhausted(poolID uuid.UUID, label string, class int) {
	h.Logger.WithFields(logrus.Fields{
		"pool_id": poolID,
		"label":   label,
		"class":   class,
	}).Warn("talloc: class exhausted")
}
