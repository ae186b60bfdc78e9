package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// Supported URI schemes.
const (
	SchemeGCS  = "gs"
	SchemeS3   = "s3"
	SchemeFile = "file"
)

var locationPattern = regexp.MustCompile(`^([a-z][a-z0-9+.-]*)://([^/]+)(/.*)?$`)

// Location is a parsed scheme://bucket/key address.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation splits uri into scheme, bucket and key.
// Parameters:
//   - uri: address such as gs://bucket/path/to/object.
// Returns:
//   - Location: parsed address; Key has no leading slash.
//   - error: non-nil if uri has no scheme or bucket.
func ParseLocation(uri string) (Location, error) {
	m := locationPattern.FindStringSubmatch(uri)
	if m == nil {
		return Location{}, fmt.Errorf("invalid object path: %q", uri)
	}
	return Location{
		Scheme: m[1],
		Bucket: m[2],
		Key:    strings.TrimPrefix(m[3], "/"),
	}, nil
}

// String renders the location back into URI form.
func (l Location) String() string {
	if l.Key == "" {
		return fmt.Sprintf("%s://%s", l.Scheme, l.Bucket)
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// Join appends path elements to a URI prefix, collapsing duplicate slashes.
func Join(prefix string, elems ...string) string {
	out := strings.TrimRight(prefix, "/")
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		out += "/" + e
	}
	return out
}

// HasScheme reports whether uri is addressed with one of the object store schemes.
func HasScheme(uri string) bool {
	m := locationPattern.FindStringSubmatch(uri)
	return m != nil
}

// dirPrefix turns a key into a listing prefix ending in "/".
func dirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}
