package domain

// ContentConfig is the data store's content policy.
type ContentConfig string

const (
	ContentRequired ContentConfig = "CONTENT_REQUIRED"
	NoContent       ContentConfig = "NO_CONTENT"
)

// IndustryVerticalGeneric is the only vertical the connector creates.
const IndustryVerticalGeneric = "GENERIC"

// DataStore is a handle to the target search index.
type DataStore struct {
	Name          string // projects/{p}/locations/{l}/collections/{c}/dataStores/{id}
	DisplayName   string
	ID            string
	ContentConfig ContentConfig
}

// ReconciliationMode selects how imported documents replace existing ones.
type ReconciliationMode string

const (
	ReconciliationFull        ReconciliationMode = "FULL"
	ReconciliationIncremental ReconciliationMode = "INCREMENTAL"
)

// Data schemas accepted by the bulk import.
const (
	DataSchemaDocument = "document"
	DataSchemaCustom   = "custom"
)

// ImportRequest is a bulk import against a staged location.
type ImportRequest struct {
	InputURIs          []string
	DataSchema         string
	ReconciliationMode ReconciliationMode
	AutoGenerateIDs    *bool  // nil leaves the field unset
	IDField            string // empty leaves the field unset
	ErrorPrefix        string
}

// ImportOutcome is the interpreted result of a completed import operation.
type ImportOutcome struct {
	ErrorSamples        []string
	ErrorReportLocation string
}

// Failed reports whether the import completed with error samples.
func (o *ImportOutcome) Failed() bool {
	return o != nil && len(o.ErrorSamples) > 0
}
