package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBRetries int

	RedisAddr     string
	RedisPassword string

	KafkaBrokers  []string
	AuditTopic    string
	AuditAMQPURL  string
	AuditExchange string
	AuditBuffer   int
	AuditWorkers  int

	JWTSecret      string
	StripeAPIKey   string
	OrderTxTimeout time.Duration
	RateLimit      float64
	RateBurst      int
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8082"),

		DBHost:    getenv("DB_HOST", "localhost"),
		DBPort:    getenv("DB_PORT", "3306"),
		DBUser:    getenv("DB_USER", "root"),
		DBPass:    getenv("DB_PASS", "password"),
		DBName:    getenv("DB_NAME", "commerce"),
		DBRetries: getint("DB_RETRIES", 10),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:    getenv("AUDIT_TOPIC", "audit-topic"),
		AuditAMQPURL:  os.Getenv("AUDIT_AMQP_URL"),
		AuditExchange: getenv("AUDIT_EXCHANGE", "audit_fanout"),
		AuditBuffer:   getint("AUDIT_BUFFER", 1024),
		AuditWorkers:  getint("AUDIT_WORKERS", 2),

		JWTSecret:      getenv("JWT_SECRET", "secret"),
		StripeAPIKey:   os.Getenv("STRIPE_API_KEY"),
		OrderTxTimeout: getduration("ORDER_TX_TIMEOUT", 5*time.Second),
		RateLimit:      getfloat("RATE_LIMIT", 20),
		RateBurst:      getint("RATE_BURST", 40),
	}
}

// MySQLDSN builds the go-sql-driver dsn; parseTime lets created_at scan into time.Time.
func (c Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return f
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
