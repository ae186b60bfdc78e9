package domain

import (
	"regexp"
	"time"
)

// SourceDescriptor identifies the directory exported in one run.
type SourceDescriptor struct {
	ServiceAddress string         // NameNode address as configured or resolved
	RootPrefix     string         // directory relative to the filesystem root
	NameFilter     *regexp.Regexp // nil means every file matches
}

// FileEntry describes one file listed under the source prefix.
type FileEntry struct {
	Name             string // name relative to the listed directory
	Path             string // absolute source path
	URI              string // fully-qualified source URI
	Size             int64
	CreationTime     time.Time
	LastModifiedTime time.Time
}

// CopiedFile is the outcome of transferring one FileEntry.
type CopiedFile struct {
	Entry       FileEntry
	Destination string // object store URI the bytes were written to
}

// CopyResult is the set of files transferred in a run.
type CopyResult struct {
	Files []CopiedFile
}

// Count returns the number of copied files.
func (r *CopyResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Files)
}

// Names returns the source-relative names of the copied files.
func (r *CopyResult) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		names = append(names, f.Entry.Name)
	}
	return names
}
