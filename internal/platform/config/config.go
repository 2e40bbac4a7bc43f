package config

import "os"

// Server captures process-level configuration.
type Server struct {
	Addr string
	// RedisURL selects the Redis-backed realtime store; empty keeps the
	// in-memory backend (dev and tests).
	RedisURL string
	// PostgresDSN enables the durable activity-log sink; empty disables it.
	PostgresDSN string
	// BlobBaseURL prefixes retrievable blob URLs served by the Redis store.
	BlobBaseURL   string
	JWTSigningKey string
	// DriverAccounts seeds login credentials at boot as comma-separated
	// email:password:uid triples. Stands in for a real identity provider.
	DriverAccounts string
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("LALALIKA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	blobBase := os.Getenv("LALALIKA_BLOB_BASE_URL")
	if blobBase == "" {
		blobBase = "https://blobs.lalalika.example/"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           addr,
		RedisURL:       os.Getenv("LALALIKA_REDIS_URL"),
		PostgresDSN:    os.Getenv("LALALIKA_POSTGRES_DSN"),
		BlobBaseURL:    blobBase,
		JWTSigningKey:  jwtSigningKey,
		DriverAccounts: os.Getenv("LALALIKA_DRIVER_ACCOUNTS"),
	}
}
