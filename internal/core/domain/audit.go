package domain

// AuditAction describes what happened to an entity.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditEntry is a secondary record of a mutation. It is not a source of
// truth: failures writing an entry never roll back the underlying change.
type AuditEntry struct {
	AuditID    string      `json:"auditID"` // Primary Key (UUID)
	EntityType string      `json:"entityType"`
	EntityID   string      `json:"entityID"`
	Action     AuditAction `json:"action"`
	Changes    string      `json:"changes"` // JSON description of the change
	AuditFields
}
