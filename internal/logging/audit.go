package logging

// Audit logging writes one JSON line per event, each carrying a pre-formatted
// Mangle fact so the audit trail can be loaded into the engine and queried.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event (maps to Mangle predicate)
type AuditEventType string

const (
	// Domain events -> domain_event/3
	AuditDomainCreate AuditEventType = "domain_create"

	// Term persistence -> term_op/5
	AuditTermInsert AuditEventType = "term_insert"
	AuditTermUpdate AuditEventType = "term_update"
	AuditTermDelete AuditEventType = "term_delete"

	// Model builds -> model_build/6
	AuditModelBuild AuditEventType = "model_build"

	// Validation -> validation_event/4
	AuditValidationPass AuditEventType = "validation_pass"
	AuditValidationFail AuditEventType = "validation_fail"

	// Watcher -> watch_event/4
	AuditWatchReload AuditEventType = "watch_reload"

	// Error events -> error_event/4
	AuditErrorGeneric  AuditEventType = "error_generic"
	AuditErrorCritical AuditEventType = "error_critical"
)

// AuditEvent represents a structured audit log entry that can be parsed to Mangle.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`
	EventType  AuditEventType         `json:"event"`
	Category   string                 `json:"cat"`
	RequestID  string                 `json:"req,omitempty"`
	Domain     string                 `json:"domain,omitempty"`
	Kind       string                 `json:"kind,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	MangleFact string                 `json:"mangle"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger handles structured audit logging with Mangle fact generation
type AuditLogger struct {
	requestID string
	category  Category
}

// InitAudit opens the audit log; a no-op outside debug mode
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n# Format: Mangle-queryable structured events\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithRequest creates an audit logger scoped to one apply or build run
func AuditWithRequest(requestID string, category Category) *AuditLogger {
	return &AuditLogger{requestID: requestID, category: category}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RequestID == "" && a.requestID != "" {
		event.RequestID = a.requestID
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}

	event.MangleFact = generateMangleFact(event)

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		return
	}
	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// generateMangleFact creates a Mangle-compatible fact string from an event
func generateMangleFact(e AuditEvent) string {
	switch e.EventType {
	case AuditDomainCreate:
		return fmt.Sprintf("domain_event(%d, /%s, \"%s\").",
			e.Timestamp, e.EventType, escapeString(e.Domain))

	case AuditTermInsert, AuditTermUpdate, AuditTermDelete:
		return fmt.Sprintf("term_op(%d, /%s, \"%s\", \"%s\", \"%s\").",
			e.Timestamp, e.EventType, escapeString(e.Domain), e.Kind, escapeString(e.Target))

	case AuditModelBuild:
		return fmt.Sprintf("model_build(%d, \"%s\", %d, %d, %d, %v).",
			e.Timestamp, escapeString(e.Domain),
			intField(e.Fields, "sorts"), intField(e.Fields, "ontology"), intField(e.Fields, "knowledge"),
			e.Success)

	case AuditValidationPass, AuditValidationFail:
		return fmt.Sprintf("validation_event(%d, /%s, \"%s\", %d).",
			e.Timestamp, e.EventType, escapeString(e.Domain), intField(e.Fields, "issues"))

	case AuditWatchReload:
		return fmt.Sprintf("watch_event(%d, /%s, \"%s\", %v).",
			e.Timestamp, e.EventType, escapeString(e.Target), e.Success)

	case AuditErrorGeneric, AuditErrorCritical:
		return fmt.Sprintf("error_event(%d, /%s, \"%s\", \"%s\").",
			e.Timestamp, e.EventType, e.Category, escapeString(e.Error))

	default:
		return fmt.Sprintf("audit_event(%d, /%s, \"%s\", \"%s\", %v).",
			e.Timestamp, e.EventType, e.Category, escapeString(e.Message), e.Success)
	}
}

func intField(fields map[string]interface{}, key string) int {
	if v, ok := fields[key].(int); ok {
		return v
	}
	return 0
}

// escapeString escapes quotes, backslashes and control whitespace for Mangle strings
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/10)

	for _, c := range s {
		switch c {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// DomainCreated logs a new domain
func (a *AuditLogger) DomainCreated(domain string) {
	a.Log(AuditEvent{
		EventType: AuditDomainCreate,
		Category:  string(CategoryStore),
		Domain:    domain,
		Success:   true,
	})
}

// TermChanged logs an insert, update or delete of one term row
func (a *AuditLogger) TermChanged(op AuditEventType, domain, kind, term string) {
	a.Log(AuditEvent{
		EventType: op,
		Category:  string(CategoryStore),
		Domain:    domain,
		Kind:      kind,
		Target:    term,
		Success:   true,
	})
}

// ModelBuilt logs a finished model build with section sizes
func (a *AuditLogger) ModelBuilt(domain string, sorts, ontology, knowledge int, durationMs int64, err error) {
	e := AuditEvent{
		EventType:  AuditModelBuild,
		Category:   string(CategoryModel),
		Domain:     domain,
		Success:    err == nil,
		DurationMs: durationMs,
		Fields: map[string]interface{}{
			"sorts":     sorts,
			"ontology":  ontology,
			"knowledge": knowledge,
		},
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}

// Validated logs the outcome of a validation pass
func (a *AuditLogger) Validated(domain string, issues int) {
	event := AuditValidationPass
	if issues > 0 {
		event = AuditValidationFail
	}
	a.Log(AuditEvent{
		EventType: event,
		Category:  string(CategoryValidate),
		Domain:    domain,
		Success:   issues == 0,
		Fields:    map[string]interface{}{"issues": issues},
	})
}

// WatchReloaded logs a watcher-triggered reload of a definitions file
func (a *AuditLogger) WatchReloaded(path string, err error) {
	e := AuditEvent{
		EventType: AuditWatchReload,
		Category:  string(CategoryWatch),
		Target:    path,
		Success:   err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}

// Error logs an error event
func (a *AuditLogger) Error(category string, err error, critical bool) {
	event := AuditErrorGeneric
	if critical {
		event = AuditErrorCritical
	}
	a.Log(AuditEvent{
		EventType: event,
		Category:  category,
		Error:     err.Error(),
		Success:   false,
	})
}
