package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// EnvInputFile names the environment variable pointing at the config file.
const EnvInputFile = "INPUT_FILE"

// Export methods.
const (
	ExportMethodFull        = "full"
	ExportMethodIncremental = "incremental"
)

// Journal drivers.
const (
	JournalDisabled = ""
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
)

// ErrInvalidConfig marks a missing or malformed configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	ConnectorName string            `mapstructure:"connector_name"`
	ConnectorID   string            `mapstructure:"connector_id"`
	ExportMethod  string            `mapstructure:"export_method"`
	StagingPrefix string            `mapstructure:"staging_prefix"`
	StateLocation string            `mapstructure:"state_location"`
	Source        SourceConfig      `mapstructure:"source"`
	Destination   DestinationConfig `mapstructure:"destination"`
	Storage       StorageConfig     `mapstructure:"storage"`
	Journal       JournalConfig     `mapstructure:"journal"`
}

type SourceConfig struct {
	Project      string `mapstructure:"project"`
	ClusterName  string `mapstructure:"cluster_name"`
	Region       string `mapstructure:"region"`
	InternalIP   string `mapstructure:"internal_ip"`
	HDFSPort     int    `mapstructure:"hdfs_port"`
	HDFSUser     string `mapstructure:"hdfs_user"`
	WithMetadata bool   `mapstructure:"with_metadata"`
	Prefix       string `mapstructure:"prefix"`
	NameRegex    string `mapstructure:"name_regex"`
	AuthSecret   string `mapstructure:"auth_secret"`
	MountPath    string `mapstructure:"mount_path"` // reads a locally mounted tree instead of WebHDFS
}

type DestinationConfig struct {
	Project              string        `mapstructure:"project"`
	Location             string        `mapstructure:"location"`
	Collection           string        `mapstructure:"collection"`
	Branch               string        `mapstructure:"branch"`
	DataStoreID          string        `mapstructure:"data_store_id"`
	DataStoreDisplayName string        `mapstructure:"data_store_display_name"`
	WithContent          bool          `mapstructure:"with_content"`
	AllowCreateDataStore bool          `mapstructure:"allow_create_data_store"`
	SearchFirst          bool          `mapstructure:"search_first"`
	ImportTimeout        time.Duration `mapstructure:"import_timeout"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	Endpoint             string        `mapstructure:"endpoint"`
}

type StorageConfig struct {
	S3       S3Config `mapstructure:"s3"`
	FileRoot string   `mapstructure:"file_root"`
}

type JournalConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// Fetcher reads a configuration object addressed by an object store URI.
type Fetcher func(ctx context.Context, uri string) ([]byte, error)

// Load reads the configuration pointed to by path, or by INPUT_FILE when path is empty.
// Parameters:
//   - ctx: context passed to fetch.
//   - path: local file path or gs://, s3://, file:// URI.
//   - fetch: reader for object store URIs; may be nil when only local files are used.
//
// Returns:
//   - *Config: validated configuration.
//   - error: wraps ErrInvalidConfig for a missing pointer, missing file or failed validation.
func Load(ctx context.Context, path string, fetch Fetcher) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvInputFile)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %s environment variable not set", ErrInvalidConfig, EnvInputFile)
	}

	data, err := readSource(ctx, path, fetch)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func readSource(ctx context.Context, path string, fetch Fetcher) ([]byte, error) {
	if storage.HasScheme(path) {
		if fetch == nil {
			return nil, fmt.Errorf("%w: no reader for config %s", ErrInvalidConfig, path)
		}
		data, err := fetch(ctx, path)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil, fmt.Errorf("%w: config file not found: %s", ErrInvalidConfig, path)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file not found: %s", ErrInvalidConfig, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return data, nil
}

// Parse decodes and validates a JSON configuration document.
func Parse(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault("source.hdfs_port", 9870)
	v.SetDefault("source.with_metadata", false)
	v.SetDefault("destination.collection", "default_collection")
	v.SetDefault("destination.branch", "default_branch")
	v.SetDefault("destination.with_content", false)
	v.SetDefault("destination.allow_create_data_store", false)
	v.SetDefault("destination.search_first", false)
	v.SetDefault("destination.poll_interval", "5s")
	v.SetDefault("destination.import_timeout", "0s")
	v.SetDefault("journal.auto_migrate", true)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	// Legacy key names
	alias(v, "staging_prefix", "gcp_staging_gcs_prefix")
	alias(v, "source.internal_ip", "source.service_address")

	// Bind environment variables explicitly for deployment-specific values
	_ = v.BindEnv("state_location", "STATE_LOCATION")
	_ = v.BindEnv("source.internal_ip", "HDFS_ADDRESS")
	_ = v.BindEnv("source.hdfs_user", "HDFS_USER")
	_ = v.BindEnv("destination.endpoint", "DISCOVERY_ENGINE_ENDPOINT")
	_ = v.BindEnv("journal.dsn", "JOURNAL_DSN")

	if !v.IsSet("source.prefix") {
		return nil, fmt.Errorf("%w: source.prefix is required", ErrInvalidConfig)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", ErrInvalidConfig, err)
	}

	cfg.Storage.S3.ResolveEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func alias(v *viper.Viper, key, legacy string) {
	if !v.IsSet(key) && v.IsSet(legacy) {
		v.Set(key, v.Get(legacy))
	}
}

// Validate checks required fields. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"connector_id", c.ConnectorID},
		{"export_method", c.ExportMethod},
		{"staging_prefix", c.StagingPrefix},
		{"destination.project", c.Destination.Project},
		{"destination.location", c.Destination.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, r.key)
		}
	}

	switch c.ExportMethod {
	case ExportMethodFull, ExportMethodIncremental:
	default:
		return fmt.Errorf("%w: invalid export method: %s", ErrInvalidConfig, c.ExportMethod)
	}

	if !storage.HasScheme(c.StagingPrefix) {
		return fmt.Errorf("%w: staging_prefix must be an object store URI: %q", ErrInvalidConfig, c.StagingPrefix)
	}
	if c.StateLocation != "" && !storage.HasScheme(c.StateLocation) {
		return fmt.Errorf("%w: state_location must be an object store URI: %q", ErrInvalidConfig, c.StateLocation)
	}
	if _, err := c.Source.Filter(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Destination.DataStoreID == "" && c.Destination.DataStoreDisplayName == "" {
		return fmt.Errorf("%w: destination.data_store_display_name is required when no data_store_id is set", ErrInvalidConfig)
	}
	if c.Source.MountPath == "" && c.Source.InternalIP == "" && (c.Source.Project == "" || c.Source.Region == "" || c.Source.ClusterName == "") {
		return fmt.Errorf("%w: source.mount_path, source.internal_ip or source.project, region and cluster_name are required", ErrInvalidConfig)
	}
	if c.Destination.PollInterval < 0 || c.Destination.ImportTimeout < 0 {
		return fmt.Errorf("%w: destination durations must not be negative", ErrInvalidConfig)
	}

	switch c.Journal.Driver {
	case JournalDisabled:
	case JournalSQLite:
		if c.Journal.Path == "" {
			return fmt.Errorf("%w: journal.path is required for sqlite", ErrInvalidConfig)
		}
	case JournalPostgres:
		if c.Journal.DSN == "" {
			return fmt.Errorf("%w: journal.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown journal driver %q", ErrInvalidConfig, c.Journal.Driver)
	}
	return nil
}

// Filter compiles name_regex. A nil result means no filter is configured.
func (s *SourceConfig) Filter() (*regexp.Regexp, error) {
	if s.NameRegex == "" {
		return nil, nil
	}
	re, err := regexp.Compile(s.NameRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid source.name_regex %q: %w", s.NameRegex, err)
	}
	return re, nil
}

// Descriptor returns the source selection of one run.
func (s *SourceConfig) Descriptor() (domain.SourceDescriptor, error) {
	filter, err := s.Filter()
	if err != nil {
		return domain.SourceDescriptor{}, err
	}
	return domain.SourceDescriptor{
		ServiceAddress: s.InternalIP,
		RootPrefix:     s.Prefix,
		NameFilter:     filter,
	}, nil
}
