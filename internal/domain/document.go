package domain

import "time"

// Well-known MIME types recognized by the search service.
const (
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// BlobProperties are the file attributes carried in a document's struct data.
type BlobProperties struct {
	Name         string `json:"name"`
	Ext          string `json:"ext"`
	Size         int64  `json:"size"`
	CreationTime string `json:"creationTime"`
	LastModified string `json:"lastModified"`
}

// FileMetadata is the structured record derived from one FileEntry.
type FileMetadata struct {
	ID               string
	BlobPath         string
	MimeType         *string
	Properties       BlobProperties
	LastModifiedTime time.Time
}

// DocumentRecord is one line of the import manifest.
type DocumentRecord struct {
	ID         string             `json:"id"`
	StructData DocumentStructData `json:"structData"`
	Content    DocumentContent    `json:"content"`
}

// DocumentStructData holds the searchable metadata of a DocumentRecord.
type DocumentStructData struct {
	BlobURL              string         `json:"blobUrl"`
	ExportStartTimestamp string         `json:"exportStartTimestamp"`
	ExportEndTimestamp   string         `json:"exportEndTimestamp"`
	BlobProperties       BlobProperties `json:"blobProperties"`
}

// DocumentContent points the search service at the staged bytes.
type DocumentContent struct {
	MimeType *string `json:"mimeType"`
	URI      string  `json:"uri"`
}

// NewDocumentRecord tags metadata with the run-wide export window.
func NewDocumentRecord(m FileMetadata, windowStart, windowEnd time.Time) DocumentRecord {
	return DocumentRecord{
		ID: m.ID,
		StructData: DocumentStructData{
			BlobURL:              m.BlobPath,
			ExportStartTimestamp: FormatTimestamp(windowStart),
			ExportEndTimestamp:   FormatTimestamp(windowEnd),
			BlobProperties:       m.Properties,
		},
		Content: DocumentContent{
			MimeType: m.MimeType,
			URI:      m.BlobPath,
		},
	}
}
