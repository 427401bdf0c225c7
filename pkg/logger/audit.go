package logger

import (
	"context"
	"log/slog"
	"time"
)

// DecisionEvent is an auditable scoring outcome for an address.
type DecisionEvent struct {
	Address     string
	Username    string
	Application string
	Decision    string
	Score       float64
	Probe       bool
}

// AuditLogger emits security audit events as structured logs.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogDecision logs the outcome of a scoring pass. Block and challenge
// verdicts are warnings so they stand out in aggregated logs.
func (al *AuditLogger) LogDecision(event DecisionEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "risk_decision"),
		slog.String("address", event.Address),
		slog.String("decision", event.Decision),
		slog.Float64("score", event.Score),
		slog.Bool("probe", event.Probe),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", event.Username))
	}
	if event.Application != "" {
		attrs = append(attrs, slog.String("application", event.Application))
	}

	if event.Decision == "allow" {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogAdminAction logs administrative interventions (unblock, purge).
func (al *AuditLogger) LogAdminAction(action, address string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("action", action),
		slog.String("address", address),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
