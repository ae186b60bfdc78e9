package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportState_MarshalJSON(t *testing.T) {
	ts := time.Date(2024, 1, 3, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	state := ExportState{StateTimestamp: &ts, FilesExported: 2}

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stateTimestamp":"2024-01-03T11:00:00Z","lastModified":null,"filesExported":2}`, string(data))
}

func TestExportState_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantFiles    int
		wantModified string
	}{
		{
			name:         "camel case",
			input:        `{"stateTimestamp":"2024-01-03T11:00:00Z","lastModified":"2024-01-02T00:00:00Z","filesExported":2}`,
			wantFiles:    2,
			wantModified: "2024-01-02T00:00:00Z",
		},
		{
			name:      "legacy snake case",
			input:     `{"state_timestamp":"2024-01-03T11:00:00.123456Z","files_exported":5}`,
			wantFiles: 5,
		},
		{
			name:         "offset-less timestamp",
			input:        `{"stateTimestamp":"2024-01-03T11:00:00Z","lastModified":"2024-01-02T00:00:00","filesExported":1}`,
			wantFiles:    1,
			wantModified: "2024-01-02T00:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state ExportState
			require.NoError(t, json.Unmarshal([]byte(tt.input), &state))
			assert.Equal(t, tt.wantFiles, state.FilesExported)
			require.NotNil(t, state.StateTimestamp)
			if tt.wantModified == "" {
				assert.Nil(t, state.LastModified)
				return
			}
			require.NotNil(t, state.LastModified)
			assert.Equal(t, tt.wantModified, FormatTimestamp(*state.LastModified))
		})
	}
}

func TestExportState_IsZero(t *testing.T) {
	assert.True(t, ExportState{}.IsZero())
	assert.False(t, ExportState{FilesExported: 1}.IsZero())
}
