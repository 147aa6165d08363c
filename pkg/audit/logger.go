package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docker/go-events"

	"github.com/tenantnet/netorch/pkg/util"
)

// Logger defines the interface for audit logging backends
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

var (
	_ Logger      = (*FileLogger)(nil)
	_ events.Sink = (*FileLogger)(nil)
)

// FileLogger logs audit events to a JSON-lines file
type FileLogger struct {
	path     string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.RWMutex
	rotation RotationConfig
}

// RotationConfig configures log file rotation
type RotationConfig struct {
	MaxSize    int64 // Max file size in bytes before rotation
	MaxBackups int   // Max number of old files to retain
}

// NewFileLogger creates a new file-based audit logger
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	return &FileLogger{
		path:     path,
		file:     file,
		encoder:  json.NewEncoder(file),
		rotation: rotation,
	}, nil
}

// Log appends an event, rotating the file first when it reached MaxSize.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotation.MaxSize > 0 {
		info, err := l.file.Stat()
		if err == nil && info.Size() >= l.rotation.MaxSize {
			if err := l.rotate(); err != nil {
				return fmt.Errorf("rotating audit log: %w", err)
			}
		}
	}
	return l.encoder.Encode(event)
}

// Query returns the events matching filter, oldest first, reading rotated
// files before the live one.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var events []*Event
	paths := append(l.backups(), l.path)
	for _, path := range paths {
		var err error
		events, err = scanEvents(path, filter, events)
		if err != nil {
			return nil, err
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(events) {
			return []*Event{}, nil
		}
		events = events[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(events) {
		events = events[:filter.Limit]
	}
	if events == nil {
		events = []*Event{}
	}
	return events, nil
}

func scanEvents(path string, filter Filter, out []*Event) ([]*Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			util.Warnf("audit: skipping malformed entry at %s:%d: %v", filepath.Base(path), line, err)
			continue
		}
		if filter.matches(&event) {
			out = append(out, &event)
		}
	}
	return out, scanner.Err()
}

// Write implements events.Sink so the logger can sit behind an events.Queue.
// Values that are not audit events are dropped.
func (l *FileLogger) Write(event events.Event) error {
	e, ok := event.(*Event)
	if !ok {
		util.Debugf("audit: dropping non-audit event %T", event)
		return nil
	}
	return l.Log(e)
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (filter Filter) matches(event *Event) bool {
	if filter.Router != "" && event.Router != filter.Router {
		return false
	}
	if filter.Topology != "" && event.Topology != filter.Topology {
		return false
	}
	if filter.Intent != "" && event.Intent != filter.Intent {
		return false
	}
	if filter.Outcome != "" && event.Outcome != filter.Outcome {
		return false
	}
	if filter.NetworkID != 0 && event.NetworkID != filter.NetworkID {
		return false
	}
	if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.SuccessOnly && !event.Success {
		return false
	}
	if filter.FailureOnly && event.Success {
		return false
	}
	return true
}

// keep is the number of rotated files retained; at least one.
func (l *FileLogger) keep() int {
	if l.rotation.MaxBackups < 1 {
		return 1
	}
	return l.rotation.MaxBackups
}

func (l *FileLogger) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", l.path, n)
}

// backups lists the rotated files that exist, oldest first.
func (l *FileLogger) backups() []string {
	var out []string
	for n := l.keep(); n >= 1; n-- {
		if _, err := os.Stat(l.backupPath(n)); err == nil {
			out = append(out, l.backupPath(n))
		}
	}
	return out
}

// rotate shifts audit.log.N to audit.log.N+1, dropping the oldest, and
// moves the live file to audit.log.1.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}

	keep := l.keep()
	if err := os.Remove(l.backupPath(keep)); err != nil && !os.IsNotExist(err) {
		return err
	}
	for n := keep - 1; n >= 1; n-- {
		if err := os.Rename(l.backupPath(n), l.backupPath(n+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(l.path, l.backupPath(1)); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// NewSink wraps a logger in an unbounded events.Queue so that writers on the
// dispatch path never block on file I/O. Closing the returned sink flushes
// pending events and closes the logger.
func NewSink(logger *FileLogger) events.Sink {
	return events.NewQueue(logger)
}
