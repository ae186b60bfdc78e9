package config

import (
	"os"

	"github.com/timmy/hdfsconnector/internal/storage"
)

// S3Config configures the s3:// backend. Credentials may be given directly
// or through the named environment variables.
type S3Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKey    string `mapstructure:"secret_key"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	Type         string `mapstructure:"type"`
}

// ResolveEnvVars resolves environment variable references in the configuration.
// Direct values take precedence if already set.
func (c *S3Config) ResolveEnvVars() {
	if c.AccessKeyEnv != "" && c.AccessKey == "" {
		if val := os.Getenv(c.AccessKeyEnv); val != "" {
			c.AccessKey = val
		}
	}
	if c.SecretKeyEnv != "" && c.SecretKey == "" {
		if val := os.Getenv(c.SecretKeyEnv); val != "" {
			c.SecretKey = val
		}
	}
}

// Backends converts the storage section into object store settings.
func (c *StorageConfig) Backends() storage.BackendsConfig {
	return storage.BackendsConfig{
		S3: &storage.S3Config{
			Type:      storage.StorageType(c.S3.Type),
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			UseSSL:    c.S3.UseSSL,
			Region:    c.S3.Region,
		},
		FileRoot: c.FileRoot,
	}
}
