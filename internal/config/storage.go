package config

// ArtifactsConfig configures where rendering bytes are stored besides the
// local artifacts directory.
type ArtifactsConfig struct {
	Backend      string   `yaml:"backend"` // none, sqlite, s3
	Driver       string   `yaml:"driver"`  // sqlite3 (cgo) or sqlite (pure Go)
	DatabasePath string   `yaml:"database_path"`
	LocalDir     string   `yaml:"local_dir"`
	S3           S3Config `yaml:"s3"`
}

// S3Config configures an S3-compatible object store.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// SessionsConfig configures session persistence.
type SessionsConfig struct {
	Backend      string      `yaml:"backend"` // sqlite, redis
	Driver       string      `yaml:"driver"`  // driver of the history DB; blank follows artifacts.driver
	DatabasePath string      `yaml:"database_path"`
	TTL          string      `yaml:"ttl"`
	Redis        RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis snapshot store.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}
