// Package audit records permission-relevant state transitions: role edits,
// binding failures, and access denials of interest. Entries are append-only.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"fitdesk/backend/internal/audit/domain"
	auditrepo "fitdesk/backend/internal/audit/repository"
)

// SentinelOrgID is the org_id used for events that have no org (e.g. a
// resolution failure before any org context exists).
const SentinelOrgID = "_system"

// recordTimeout bounds a single asynchronous write. Event uses its own
// context so request cancellation does not abort an in-flight entry.
const recordTimeout = 5 * time.Second

// Recorder writes a single audit event. Event is fire-and-forget from the
// caller's perspective: it never blocks and never affects the decision that
// triggered it.
type Recorder interface {
	Event(ctx context.Context, orgID, actorID, action, resourceType, resourceID, metadata string)
}

// Logger implements Recorder over the audit repository. Write failures are
// logged and counted, never swallowed silently and never surfaced to the
// triggering decision path.
type Logger struct {
	repo     auditrepo.Repository
	wg       sync.WaitGroup
	failures metric.Int64Counter
}

// NewLogger returns a Logger that persists to repo. repo may be nil; then
// every event is dropped with a log line (used in tooling that has no store).
func NewLogger(repo auditrepo.Repository) *Logger {
	l := &Logger{repo: repo}
	meter := otel.Meter("fitdesk/backend/internal/audit")
	counter, err := meter.Int64Counter("audit.write_failures",
		metric.WithDescription("Audit log entries that could not be persisted"))
	if err != nil {
		log.Printf("audit: write_failures counter: %v", err)
	} else {
		l.failures = counter
	}
	return l
}

// Event appends one entry asynchronously. The write happens on its own
// goroutine with recordTimeout; the caller is never blocked.
func (l *Logger) Event(ctx context.Context, orgID, actorID, action, resourceType, resourceID, metadata string) {
	entry := l.newEntry(orgID, actorID, action, resourceType, resourceID, metadata)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		writeCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.Record(writeCtx, entry); err != nil {
			log.Printf("audit: failed to record %s/%s: %v", action, resourceType, err)
		}
	}()
}

// Record appends one entry synchronously and returns the persistence error,
// for callers that want the failure (admin paths, tests).
func (l *Logger) Record(ctx context.Context, entry *domain.AuditLog) error {
	if l.repo == nil {
		log.Printf("audit: no repository configured; dropping %s/%s", entry.Action, entry.ResourceType)
		return nil
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		if l.failures != nil {
			l.failures.Add(ctx, 1)
		}
		return err
	}
	return nil
}

// Drain waits for in-flight asynchronous writes. Called on shutdown.
func (l *Logger) Drain() {
	l.wg.Wait()
}

func (l *Logger) newEntry(orgID, actorID, action, resourceType, resourceID, metadata string) *domain.AuditLog {
	if orgID == "" {
		orgID = SentinelOrgID
	}
	return &domain.AuditLog{
		ID:           uuid.New().String(),
		OrgID:        orgID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
}
