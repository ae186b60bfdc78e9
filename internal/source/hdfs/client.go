package hdfs

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/source"
)

// DefaultPort is the NameNode WebHDFS port.
const DefaultPort = 9870

const webHDFSPrefix = "/webhdfs/v1"

// Config holds WebHDFS connection settings.
type Config struct {
	Address         string        // host, host:port or http(s) URL of the NameNode
	Port            int           // used when Address carries no port; defaults to DefaultPort
	User            string        // sent as user.name when set
	DelegationToken string        // sent as delegation when set
	Timeout         time.Duration // per-request timeout for metadata calls; file reads use ctx only
}

// Client implements source.FileSource over the WebHDFS REST API.
type Client struct {
	client    *resty.Client
	authority string
	user      string
	token     string
	timeout   time.Duration
}

var _ source.FileSource = (*Client)(nil)

// NewClient creates a WebHDFS client.
// Parameters:
//   - cfg: connection settings; Address is required.
//
// Returns:
//   - *Client: client ready for listing and reads.
//   - error: non-nil if the address cannot be parsed.
func NewClient(cfg Config) (*Client, error) {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	baseURL, authority, err := NormalizeAddress(cfg.Address, port)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")

	return &Client{
		client:    client,
		authority: authority,
		user:      cfg.User,
		token:     cfg.DelegationToken,
		timeout:   timeout,
	}, nil
}

// NormalizeAddress turns a configured service address into a base URL and
// the host:port authority used in hdfs:// URIs.
// A bare host gets the http scheme and the given port.
func NormalizeAddress(address string, port int) (baseURL, authority string, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", "", fmt.Errorf("hdfs address is required")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("invalid hdfs address %q: %w", address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("invalid hdfs address %q: unsupported scheme %q", address, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("invalid hdfs address %q: missing host", address)
	}

	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	return u.Scheme + "://" + host, host, nil
}

// Authority returns the host:port of the NameNode.
func (c *Client) Authority() string {
	return c.authority
}

// URI returns hdfs://host:port/path with path normalised.
func (c *Client) URI(path string) string {
	return "hdfs://" + c.authority + "/" + strings.Trim(path, "/")
}

// List returns the files directly under dir.
func (c *Client) List(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	statuses, err := c.ListStatus(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", source.ErrListingFailed, absPath(dir), err)
	}

	entries := make([]domain.FileEntry, 0, len(statuses))
	for _, status := range statuses {
		if status.Type != TypeFile {
			continue
		}
		rel := joinPath(dir, status.PathSuffix)
		modified := time.UnixMilli(status.ModificationTime).UTC()
		entries = append(entries, domain.FileEntry{
			Name: status.PathSuffix,
			Path: absPath(rel),
			URI:  source.FileURI("hdfs://"+c.authority, dir, status.PathSuffix),
			Size: status.Length,
			// HDFS tracks no creation time.
			CreationTime:     modified,
			LastModifiedTime: modified,
		})
	}
	return entries, nil
}

// ListStatus issues LISTSTATUS for dir.
func (c *Client) ListStatus(ctx context.Context, dir string) ([]FileStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result ListStatusResponse
	var remoteErr RemoteExceptionResponse
	resp, err := c.request(ctx, OpListStatus).
		SetResult(&result).
		SetError(&remoteErr).
		Get(endpointPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to call WebHDFS %s: %w", OpListStatus, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("WebHDFS %s returned error: %s", OpListStatus, remoteErr.describe(resp.StatusCode(), resp.Body()))
	}
	return result.FileStatuses.FileStatus, nil
}

// Open streams a file. The NameNode redirects to a DataNode; the redirect is followed.
// Parameters:
//   - ctx: context for cancellation; bounds the whole transfer.
//   - path: source-relative file path.
//
// Returns:
//   - io.ReadCloser: file content; caller must close.
//   - error: non-nil if the request fails or returns a non-2xx status.
func (c *Client) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := c.request(ctx, OpOpen).
		SetDoNotParseResponse(true).
		Get(endpointPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absPath(path), err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		defer body.Close()
		data, _ := io.ReadAll(io.LimitReader(body, 4096))
		return nil, fmt.Errorf("failed to open %s: HTTP %d: %s", absPath(path), resp.StatusCode(), strings.TrimSpace(string(data)))
	}
	return body, nil
}

func (c *Client) request(ctx context.Context, op string) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("op", op)
	if c.user != "" {
		req.SetQueryParam("user.name", c.user)
	}
	if c.token != "" {
		req.SetQueryParam("delegation", c.token)
	}
	return req
}

// absPath renders a source-relative path as an absolute HDFS path.
func absPath(p string) string {
	return "/" + strings.Trim(p, "/")
}

func joinPath(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func endpointPath(p string) string {
	return webHDFSPrefix + (&url.URL{Path: absPath(p)}).EscapedPath()
}
