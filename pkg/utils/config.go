package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	GoogleClientID string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// LoadConfig reads COMICHUB_* environment variables, picking up a local
// .env first if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:       getenv("COMICHUB_HTTP_ADDR", ":8080"),
		JWTSecret:      getenv("COMICHUB_JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:      getenv("COMICHUB_JWT_ISSUER", "comichub"),
		JWTDuration:    7 * 24 * time.Hour,
		GoogleClientID: os.Getenv("COMICHUB_GOOGLE_CLIENT_ID"),
		SupabaseURL:    os.Getenv("COMICHUB_SUPABASE_URL"),
		SupabaseKey:    os.Getenv("COMICHUB_SUPABASE_KEY"),
		SupabaseBucket: getenv("COMICHUB_SUPABASE_BUCKET", "comic-chapters"),
	}

	// token lifetime override, in hours
	if s := os.Getenv("COMICHUB_JWT_TTL_HOURS"); s != "" {
		if h, err := strconv.Atoi(s); err == nil && h > 0 {
			cfg.JWTDuration = time.Duration(h) * time.Hour
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
