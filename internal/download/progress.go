package download

import "sync/atomic"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Reporter is the reporting sink used by the pipeline.
//
// Fatal reports an error that aborts the pipeline. It never exits the
// process: callers receive the error as a return value and choose the
// termination policy.
type Reporter interface {
	Info(message string)
	Fatal(message string)
}

// EventReporter adapts a ProgressEvent callback into a Reporter.
type EventReporter func(ProgressEvent)

// Info emits an Info-level event.
func (r EventReporter) Info(message string) {
	r.emit(ProgressEvent{Message: message, Level: LevelInfo})
}

// Fatal emits an Error-level event.
func (r EventReporter) Fatal(message string) {
	r.emit(ProgressEvent{Message: message, Level: LevelError})
}

func (r EventReporter) emit(event ProgressEvent) {
	if r != nil {
		r(event)
	}
}

// TransferProgress is the aggregate progress of all fetchers.
//
// Counters only ever grow. They are safe for concurrent advance from
// any number of fetchers and concurrent reads from a display.
type TransferProgress struct {
	received   atomic.Int64
	declared   atomic.Int64
	filesDone  atomic.Int32
	filesTotal atomic.Int32
}

// Advance records n bytes written to disk.
func (p *TransferProgress) Advance(n int64) {
	if n > 0 {
		p.received.Add(n)
	}
}

// Declare adds a declared Content-Length to the advisory total.
func (p *TransferProgress) Declare(n int64) {
	if n > 0 {
		p.declared.Add(n)
	}
}

// AddFiles adds n files to the expected file count.
func (p *TransferProgress) AddFiles(n int) {
	p.filesTotal.Add(int32(n))
}

// FileDone records one completed file.
func (p *TransferProgress) FileDone() {
	p.filesDone.Add(1)
}

// Snapshot returns all counters. total is the sum of declared lengths
// and is advisory only.
func (p *TransferProgress) Snapshot() (received, total int64, filesDone, filesTotal int32) {
	return p.received.Load(), p.declared.Load(), p.filesDone.Load(), p.filesTotal.Load()
}
