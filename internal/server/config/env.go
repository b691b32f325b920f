package config

import "github.com/dmitrijs2005/gophblog/internal/flagx"

// parseEnv overlays values from environment variables. Unset or empty
// variables leave the current value untouched.
//
//	BLOG_ADDR, DATABASE_DSN, JWT_SECRET, SESSION_KEY, SESSION_TTL,
//	POSTS_PER_PAGE, COOKIE_SECURE, LOG_LEVEL, STORAGE_BACKEND, UPLOAD_DIR,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	S3_PUBLIC_URL
func parseEnv(config *Config) {
	flagx.EnvString("BLOG_ADDR", &config.EndpointAddrHTTP)
	flagx.EnvString("DATABASE_DSN", &config.DatabaseDSN)
	flagx.EnvString("JWT_SECRET", &config.SecretKey)
	flagx.EnvString("SESSION_KEY", &config.SessionKey)
	flagx.EnvDuration("SESSION_TTL", &config.SessionTTL)
	flagx.EnvInt("POSTS_PER_PAGE", &config.PostsPerPage)
	flagx.EnvBool("COOKIE_SECURE", &config.CookieSecure)
	flagx.EnvString("LOG_LEVEL", &config.LogLevel)
	flagx.EnvString("STORAGE_BACKEND", &config.StorageBackend)
	flagx.EnvString("UPLOAD_DIR", &config.UploadDir)
	flagx.EnvString("S3_ROOT_USER", &config.S3RootUser)
	flagx.EnvString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	flagx.EnvString("S3_BUCKET", &config.S3Bucket)
	flagx.EnvString("S3_REGION", &config.S3Region)
	flagx.EnvString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	flagx.EnvString("S3_PUBLIC_URL", &config.S3PublicURL)
}
