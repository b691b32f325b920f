package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-k", "-t", "-n", "-o", "-f", "-u", "-p", "-b", "-g", "-e", "-w", "-v"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-k string   session cookie key
//	-t int      session ttl, minutes
//	-n int      posts per public page
//	-o string   storage backend: local or s3
//	-f string   local upload dir
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w string   public URL prefix for stored S3 objects
//	-v string   log level
//
// Arguments are first filtered with flagx.FilterArgs, so flags meant for
// other layers (-c/-config) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SessionKey, "k", config.SessionKey, "session cookie key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session_ttl (in minutes)")

	fs.IntVar(&config.PostsPerPage, "n", config.PostsPerPage, "posts per page")
	fs.StringVar(&config.StorageBackend, "o", config.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "local upload dir")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicURL, "w", config.S3PublicURL, "S3 public URL")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
