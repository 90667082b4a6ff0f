// Package auditlog appends one JSON record per hook invocation to an
// external log sink (spec §2.2, §4.8, §5's shared-resource policy): create
// the file if missing, append only, one write call per record including its
// trailing newline, so concurrent appends from independent process
// invocations never interleave a partial record.
package auditlog

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gzhole/longline/internal/redact"
)

// Event is one audit record. Spec §8.3 requires every end-to-end scenario's
// record to carry the original command text, the effective decision, the
// matched rule id (if any), the parse-ok flag, and the session identifier.
type Event struct {
	Timestamp     string `json:"timestamp"`
	SessionID     string `json:"session_id"`
	Command       string `json:"command"`
	Cwd           string `json:"cwd,omitempty"`
	Decision      string `json:"decision"`
	MatchedRuleID string `json:"matched_rule_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	ParseOK       bool   `json:"parse_ok"`
	Overridden    bool   `json:"overridden,omitempty"`
}

// Logger is an append-only JSONL sink guarded by a mutex: a single process
// invocation only ever writes one record, but the mutex keeps concurrent Log
// calls within one process from interleaving. Close takes no lock.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// Open creates path (and its record stream) if it does not already exist,
// and positions writes to append at its end.
func Open(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

// Log redacts secrets out of event's command text, stamps in a generated
// session id when the caller did not supply one, and appends the record as
// one JSON line.
func (l *Logger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if event.SessionID == "" {
		event.SessionID = uuid.NewString()
	}
	event.Command = redact.String(event.Command)
	event.Reason = redact.String(event.Reason)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	_, err = l.file.Write(data)
	return err
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
