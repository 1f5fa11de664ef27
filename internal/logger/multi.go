package logger

import "github.com/harrison/docsync/internal/models"

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(message string) { m.each(func(l Logger) { l.LogTrace(message) }) }
func (m *MultiLogger) LogDebug(message string) { m.each(func(l Logger) { l.LogDebug(message) }) }
func (m *MultiLogger) LogInfo(message string)  { m.each(func(l Logger) { l.LogInfo(message) }) }
func (m *MultiLogger) LogWarn(message string)  { m.each(func(l Logger) { l.LogWarn(message) }) }
func (m *MultiLogger) LogError(message string) { m.each(func(l Logger) { l.LogError(message) }) }

func (m *MultiLogger) LogDocumentStart(path string, examples int) {
	m.each(func(l Logger) { l.LogDocumentStart(path, examples) })
}

func (m *MultiLogger) LogExample(ex *models.Example) {
	m.each(func(l Logger) { l.LogExample(ex) })
}

func (m *MultiLogger) LogUnexpected(path string, ex *models.Example, report *models.ErrorReport) {
	m.each(func(l Logger) { l.LogUnexpected(path, ex, report) })
}

func (m *MultiLogger) LogSummary(summary models.RunSummary) {
	m.each(func(l Logger) { l.LogSummary(summary) })
}
