package hdfs

import "fmt"

// WebHDFS operations.
const (
	OpListStatus = "LISTSTATUS"
	OpOpen       = "OPEN"
)

// File status types.
const (
	TypeFile      = "FILE"
	TypeDirectory = "DIRECTORY"
)

// FileStatus is HDFS file or directory metadata. Times are epoch milliseconds.
type FileStatus struct {
	AccessTime       int64  `json:"accessTime"`
	BlockSize        int64  `json:"blockSize"`
	Group            string `json:"group"`
	Length           int64  `json:"length"`
	ModificationTime int64  `json:"modificationTime"`
	Owner            string `json:"owner"`
	PathSuffix       string `json:"pathSuffix"`
	Permission       string `json:"permission"`
	Replication      int    `json:"replication"`
	Type             string `json:"type"`
}

// ListStatusResponse is the WebHDFS response for LISTSTATUS.
type ListStatusResponse struct {
	FileStatuses struct {
		FileStatus []FileStatus `json:"FileStatus"`
	} `json:"FileStatuses"`
}

// RemoteException is the error body returned by the NameNode.
type RemoteException struct {
	Exception     string `json:"exception"`
	JavaClassName string `json:"javaClassName"`
	Message       string `json:"message"`
}

// RemoteExceptionResponse wraps RemoteException.
type RemoteExceptionResponse struct {
	RemoteException *RemoteException `json:"RemoteException"`
}

func (r *RemoteExceptionResponse) describe(status int, body []byte) string {
	if r != nil && r.RemoteException != nil {
		return fmt.Sprintf("HTTP %d: %s: %s", status, r.RemoteException.Exception, r.RemoteException.Message)
	}
	if len(body) > 0 {
		return fmt.Sprintf("HTTP %d: %s", status, string(body))
	}
	return fmt.Sprintf("HTTP %d", status)
}
