package orchestration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

const auditSeparator = 80

// Field is one "Key: value" line of an audit record. A Field without a Key
// is written as its bare Value.
type Field struct {
	Key   string
	Value string
}

// Text is a free standing line of an audit record.
func Text(line string) Field {
	return Field{Value: line}
}

// Rule is a short separator line inside an audit record.
func Rule() Field {
	return Text(strings.Repeat("-", 20))
}

// AuditLog appends human readable deployment records to
// <dir>/<operation>_<chain>.log. Records are separated by a line of 80
// dashes followed by a blank line.
type AuditLog struct {
	mu    sync.Mutex
	dir   string
	chain string
}

func NewAuditLog(dir string, chain string) *AuditLog {
	return &AuditLog{dir: dir, chain: chain}
}

// Path returns the file records of operation are appended to.
func (a *AuditLog) Path(operation string) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s_%s.log", operation, a.chain))
}

// Record appends one record for operation.
func (a *AuditLog) Record(operation string, fields ...Field) (err error) {
	var b strings.Builder
	for _, f := range fields {
		if f.Key == "" {
			b.WriteString(f.Value)
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Key, f.Value)
	}
	b.WriteString(strings.Repeat("-", auditSeparator))
	b.WriteString("\n\n")

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("could not create audit directory: %w", err)
	}
	file, err := os.OpenFile(a.Path(operation), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open audit log: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	if _, err := file.WriteString(b.String()); err != nil {
		return fmt.Errorf("could not write audit record: %w", err)
	}
	return nil
}
