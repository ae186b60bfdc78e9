package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldService is the service name attached to every entry
	FieldService = "service"

	// FieldRunID is the export run ID
	FieldRunID = "run_id"

	// FieldConnectorID is the configured connector identity
	FieldConnectorID = "connector_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldDataStore is the fully-qualified data store resource name
	FieldDataStore = "data_store"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
