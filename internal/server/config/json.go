package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophblog/internal/flagx"
	"github.com/dmitrijs2005/gophblog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "90s"-style strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	SessionKey       string         `json:"session_key"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	BcryptCost       int            `json:"bcrypt_cost"`
	PostsPerPage     int            `json:"posts_per_page"`
	CookieSecure     *bool          `json:"cookie_secure"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	LogLevel         string         `json:"log_level"`
	StorageBackend   string         `json:"storage_backend"`
	UploadDir        string         `json:"upload_dir"`
	UploadURLPrefix  string         `json:"upload_url_prefix"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3PublicURL      string         `json:"s3_public_url"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// Keys missing from the file keep their current values. An unreadable or
// malformed file panics: the server must not start on a half-read config.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SessionKey, c.SessionKey)
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.PostsPerPage > 0 {
		config.PostsPerPage = c.PostsPerPage
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.UploadURLPrefix, c.UploadURLPrefix)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
