package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mmgreduce/pkg/cache"
	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
)

// DefaultConfigFile is the config file name looked up in the working
// directory.
const DefaultConfigFile = "mmgreduce.toml"

// Config is the contents of an mmgreduce.toml file.
//
//	projected_type = "PERSON"
//	ring = "sum-max"
//	path_limit = 5000
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[weights]
//	PHONE_CALL = 2.0
//	OWNS = 0.5
type Config struct {
	ProjectedType string             `toml:"projected_type"`
	Ring          string             `toml:"ring"`
	PathLimit     int                `toml:"path_limit"`
	Cache         CacheConfig        `toml:"cache"`
	Weights       map[string]float64 `toml:"weights"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"` // file, redis or none
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Scope         string `toml:"scope"` // Key prefix separating cases on a shared backend
	TTL           string `toml:"ttl"`   // Go duration, e.g. "72h"
}

// LoadConfig reads a config file from path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// DecodeConfig decodes and validates a TOML config. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, mmgerrors.New(mmgerrors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every set field.
func (c *Config) Validate() error {
	if c.ProjectedType != "" {
		if err := ValidateProjectedType(c.ProjectedType); err != nil {
			return err
		}
	}
	if c.Ring != "" {
		if err := ValidateRing(c.Ring); err != nil {
			return err
		}
	}
	if err := mmgio.ValidateWeights(c.Weights); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// Apply fills the options left unset with values from the config. Weights
// given in opts win over config weights of the same type.
func (c *Config) Apply(opts *Options) {
	if opts.ProjectedType == "" {
		opts.ProjectedType = c.ProjectedType
	}
	if opts.Ring == "" {
		opts.Ring = c.Ring
	}
	if opts.PathLimit == 0 {
		opts.PathLimit = c.PathLimit
	}
	if len(c.Weights) > 0 {
		merged := make(map[string]float64, len(c.Weights)+len(opts.Weights))
		for typ, w := range c.Weights {
			merged[typ] = w
		}
		for typ, w := range opts.Weights {
			merged[typ] = w
		}
		opts.Weights = merged
	}
}

// Validate checks the cache section.
func (c CacheConfig) Validate() error {
	if c.Backend != "" {
		if err := ValidateCacheBackend(c.Backend); err != nil {
			return err
		}
	}
	if c.Backend == CacheBackendRedis {
		if err := mmgerrors.ValidateRedisAddr(c.RedisAddr); err != nil {
			return err
		}
	}
	if c.Dir != "" {
		if err := mmgerrors.ValidatePath(c.Dir); err != nil {
			return err
		}
	}
	_, err := c.TTLDuration()
	return err
}

// TTLDuration returns the configured entry lifetime, defaulting to
// cache.TTLReduction.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return cache.TTLReduction, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 0, mmgerrors.New(mmgerrors.ErrCodeInvalidConfig, "invalid cache ttl %q", c.TTL)
	}
	return d, nil
}

// Keyer returns the key scheme for the configured scope.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Scope == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Scope)
}

// OpenCache connects the configured backend. The file backend stores
// entries in c.Dir, or in defaultDir when c.Dir is empty.
func OpenCache(ctx context.Context, c CacheConfig, defaultDir string) (cache.Cache, error) {
	backend := c.Backend
	if backend == "" {
		backend = DefaultCacheBackend
	}
	switch backend {
	case CacheBackendNone:
		return cache.NewNullCache("backend none"), nil
	case CacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.RedisAddr, cache.RedisOptions{
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidConfig, err, "redis cache")
		}
		return rc, nil
	case CacheBackendFile:
		dir := c.Dir
		if dir == "" {
			dir = defaultDir
		}
		if dir == "" {
			return cache.NewNullCache("no cache directory"), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidConfig, err, "file cache %s", dir)
		}
		return fc, nil
	default:
		return nil, ValidateCacheBackend(backend)
	}
}
