package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Storage. Vacíos = adapters in-memory.
	DBDSN    string
	RedisURL string

	JWTSecret     string
	JWTTTL        time.Duration
	ResetTokenTTL time.Duration
	DevAuth       bool

	PublicBaseURL string
	MailFrom      string
	SupportEmail  string
	KafkaBrokers  []string
	MailTopic     string
	MailRelayURL  string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load lee .env (si existe) y luego variables de entorno.
// Devuelve también si el .env se cargó, para que main lo loguee.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBDSN:         os.Getenv("DB_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        getDuration("JWT_TTL", 24*time.Hour),
		ResetTokenTTL: getDuration("RESET_TOKEN_TTL", time.Hour),
		DevAuth:       getBool("DEV_AUTH", false),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MailFrom:      getEnv("MAIL_FROM", "no-reply@adoptapaw.com"),
		SupportEmail:  getEnv("SUPPORT_EMAIL", "support@adoptapaw.com"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		MailTopic:     getEnv("MAIL_TOPIC", "mail.outbound"),
		MailRelayURL:  os.Getenv("MAIL_RELAY_URL"),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),
	}

	return cfg, envLoaded
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitCSV(raw string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
