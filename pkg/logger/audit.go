package logger

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLogger writes admission decisions and capacity changes as JSON so
// they can be shipped separately from application logs.
type AuditLogger struct {
	logger *Logger
}

func NewAuditLogger(config *Config) (*AuditLogger, error) {
	auditConfig := *config
	auditConfig.Format = "json"

	logger, err := NewLogger(&auditConfig)
	if err != nil {
		return nil, err
	}
	return &AuditLogger{logger: logger}, nil
}

// NewAuditLoggerFrom shares an existing logger's output.
func NewAuditLoggerFrom(logger *Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) LogAction(action, resource string, actorID *primitive.ObjectID, details map[string]interface{}) {
	fields := map[string]interface{}{
		"action":    action,
		"resource":  resource,
		"timestamp": time.Now().UTC(),
		"type":      "audit",
	}
	if actorID != nil {
		fields["actor_id"] = actorID.Hex()
	}
	for k, v := range details {
		fields[k] = v
	}

	a.logger.WithFields(fields).Info("Audit log entry")
}

func (a *AuditLogger) LogAdmissionDecision(requestID, hospitalID, offerID primitive.ObjectID, decision string, won bool) {
	a.LogAction("admission_"+decision, "emergency_request", &hospitalID, map[string]interface{}{
		"emergency_id": requestID.Hex(),
		"offer_id":     offerID.Hex(),
		"won":          won,
	})
}

func (a *AuditLogger) LogCapacityChange(hospitalID primitive.ObjectID, reason string, details map[string]interface{}) {
	fields := map[string]interface{}{"reason": reason}
	for k, v := range details {
		fields[k] = v
	}
	a.LogAction("capacity_change", "hospital", &hospitalID, fields)
}

func (a *AuditLogger) LogAuthEvent(eventType string, principalID *primitive.ObjectID, ipAddress, userAgent string, success bool) {
	a.LogAction(eventType, "auth", principalID, map[string]interface{}{
		"ip_address": ipAddress,
		"user_agent": userAgent,
		"success":    success,
	})
}
