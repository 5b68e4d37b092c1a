package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver  string // mysql|mongo
	MySQLDSN       string
	MigrateOnStart bool
	MongoURI       string
	MongoDB        string
	VectorIndex    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	FrontendURL    string
	AllowedOrigins []string

	JWTSecret    string
	JWTPublicKey string
	JWTIssuer    string

	StripeKey           string
	StripeWebhookSecret string
	StripeBase          string
	StripeRPS           int

	OpenAIKey        string
	OpenAIBase       string
	OpenAIEmbedModel string
	OpenAIChatModel  string
	OpenAIRPS        int

	EmbedWorkers      int
	PaymentPollWrites bool
	SeedFile          string
}

func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    strings.ToLower(env("LOG_LEVEL", "info")),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		StorageDriver:  strings.ToLower(env("STORAGE_DRIVER", "mysql")),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		MigrateOnStart: boolean("MIGRATE_ON_START", false),
		MongoURI:       env("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:        env("MONGODB_DATABASE", "hotels"),
		VectorIndex:    env("MONGODB_VECTOR_INDEX", "hotel_vector_index"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		FrontendURL:    strings.TrimRight(env("FRONTEND_URL", "http://localhost:5173"), "/"),
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		JWTSecret:    env("AUTH_JWT_SECRET", ""),
		JWTPublicKey: env("AUTH_JWT_PUBLIC_KEY", ""),
		JWTIssuer:    env("AUTH_JWT_ISSUER", ""),

		StripeKey:           env("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: env("STRIPE_WEBHOOK_SECRET", ""),
		StripeBase:          env("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeRPS:           atoi("STRIPE_RPS", 20),

		OpenAIKey:        env("OPENAI_API_KEY", ""),
		OpenAIBase:       env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIEmbedModel: env("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAIChatModel:  env("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIRPS:        atoi("OPENAI_RPS", 5),

		EmbedWorkers:      atoi("EMBED_WORKERS", 4),
		PaymentPollWrites: boolean("PAYMENT_POLL_WRITES", true),
		SeedFile:          env("SEED_FILE", ""),
	}
	if c.JWTSecret == "" && c.JWTPublicKey == "" {
		log.Warn().Msg("AUTH_JWT_SECRET and AUTH_JWT_PUBLIC_KEY are empty; every authenticated route will answer 401")
	}
	if c.StripeKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty")
	}
	if c.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty")
	}
	if c.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
