package secret

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/secretmanager/v1"
)

// Manager reads secret payloads from Secret Manager.
type Manager struct {
	service *secretmanager.Service
}

// NewManager creates a Secret Manager client.
// Parameters:
//   - ctx: context used to build the API client.
//   - opts: client options (credentials, endpoint).
//
// Returns:
//   - *Manager: client ready for Access calls.
//   - error: non-nil if the client cannot be created.
func NewManager(ctx context.Context, opts ...option.ClientOption) (*Manager, error) {
	service, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &Manager{service: service}, nil
}

// VersionName returns the fully-qualified version name, defaulting to the latest version.
func VersionName(name string) string {
	name = strings.Trim(name, "/")
	if strings.Contains(name, "/versions/") {
		return name
	}
	return name + "/versions/latest"
}

// Access returns the UTF-8 payload of a secret version.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: projects/{p}/secrets/{s}[/versions/{v}].
//
// Returns:
//   - string: decoded payload.
//   - error: non-nil if the call fails or the payload is malformed.
func (m *Manager) Access(ctx context.Context, name string) (string, error) {
	version := VersionName(name)
	resp, err := m.service.Projects.Secrets.Versions.Access(version).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", version, err)
	}
	if resp.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", version)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret %s: %w", version, err)
	}
	return string(data), nil
}
