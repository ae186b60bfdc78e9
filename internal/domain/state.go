package domain

import (
	"encoding/json"
	"time"
)

// ExportState is the durable checkpoint written after every successful copy.
type ExportState struct {
	StateTimestamp *time.Time
	LastModified   *time.Time
	FilesExported  int
}

// IsZero reports whether no state has ever been written.
func (s ExportState) IsZero() bool {
	return s.StateTimestamp == nil && s.LastModified == nil && s.FilesExported == 0
}

type exportStateJSON struct {
	StateTimestamp *string `json:"stateTimestamp"`
	LastModified   *string `json:"lastModified"`
	FilesExported  int     `json:"filesExported"`
}

// legacyExportStateJSON matches state files written with snake_case keys.
type legacyExportStateJSON struct {
	StateTimestamp *string `json:"state_timestamp"`
	LastModified   *string `json:"last_modified"`
	FilesExported  *int    `json:"files_exported"`
}

// FormatTimestamp renders t as ISO-8601 UTC with a "Z" suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (s ExportState) MarshalJSON() ([]byte, error) {
	out := exportStateJSON{FilesExported: s.FilesExported}
	if s.StateTimestamp != nil {
		v := FormatTimestamp(*s.StateTimestamp)
		out.StateTimestamp = &v
	}
	if s.LastModified != nil {
		v := FormatTimestamp(*s.LastModified)
		out.LastModified = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Both camelCase and snake_case keys are accepted.
func (s *ExportState) UnmarshalJSON(data []byte) error {
	var current exportStateJSON
	if err := json.Unmarshal(data, &current); err != nil {
		return err
	}
	var legacy legacyExportStateJSON
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	stateTimestamp := current.StateTimestamp
	if stateTimestamp == nil {
		stateTimestamp = legacy.StateTimestamp
	}
	lastModified := current.LastModified
	if lastModified == nil {
		lastModified = legacy.LastModified
	}
	filesExported := current.FilesExported
	if filesExported == 0 && legacy.FilesExported != nil {
		filesExported = *legacy.FilesExported
	}

	var err error
	*s = ExportState{FilesExported: filesExported}
	if s.StateTimestamp, err = parseOptionalTimestamp(stateTimestamp); err != nil {
		return err
	}
	if s.LastModified, err = parseOptionalTimestamp(lastModified); err != nil {
		return err
	}
	return nil
}

// timestampLayouts covers RFC 3339 and the offset-less ISO form older writers produced.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseOptionalTimestamp(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, *v)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
