package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Application struct {
	Name        string
	Environment string
	Port        int
	Debug       bool
	Timeout     time.Duration
}

type Postgres struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type Redis struct {
	Address  string
	Password string
	DB       int
}

type Kafka struct {
	BootstrapServers string
	ClientID         string
}

type JWT struct {
	PrivateKey []byte
	PublicKey  []byte
}

type CORS struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int
	AllowCredentials bool
}

type Session struct {
	Expiration time.Duration
}

type Broadcast struct {
	SubscriberBuffer int
}

type Monitoring struct {
	OTLPEndpoint string
}

type Config struct {
	Application Application
	Postgres    Postgres
	Redis       Redis
	Kafka       Kafka
	JWT         JWT
	CORS        CORS
	Session     Session
	Broadcast   Broadcast
	Monitoring  Monitoring
}

var (
	once sync.Once
	c    *Config
)

// Get loads the configuration from the environment once and returns the
// shared instance.
func Get() *Config {
	once.Do(func() {
		c = &Config{
			Application: Application{
				Name:        getString("APP_NAME", "ts-queue"),
				Environment: getString("APP_ENVIRONMENT", "development"),
				Port:        getInt("APP_PORT", 8080),
				Debug:       getBool("APP_DEBUG", false),
				Timeout:     getDuration("APP_TIMEOUT", 10*time.Second),
			},
			Postgres: Postgres{
				Host:            getString("POSTGRES_HOST", "localhost"),
				Port:            getInt("POSTGRES_PORT", 5432),
				User:            getString("POSTGRES_USER", "postgres"),
				Password:        getString("POSTGRES_PASSWORD", ""),
				Name:            getString("POSTGRES_DB", "ts_queue"),
				SSLMode:         getString("POSTGRES_SSLMODE", "disable"),
				MaxOpenConns:    getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getInt("POSTGRES_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
			},
			Redis: Redis{
				Address:  getString("REDIS_ADDRESS", "localhost:6379"),
				Password: getString("REDIS_PASSWORD", ""),
				DB:       getInt("REDIS_DB", 0),
			},
			Kafka: Kafka{
				BootstrapServers: getString("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"),
				ClientID:         getString("KAFKA_CLIENT_ID", "ts-queue"),
			},
			JWT: JWT{
				PrivateKey: getBase64("JWT_PRIVATE_KEY"),
				PublicKey:  getBase64("JWT_PUBLIC_KEY"),
			},
			CORS: CORS{
				AllowedOrigins:   getStrings("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   getStrings("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
				AllowedHeaders:   getStrings("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
				ExposedHeaders:   getStrings("CORS_EXPOSED_HEADERS", []string{"X-Trace-Id"}),
				MaxAge:           getInt("CORS_MAX_AGE", 300),
				AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			},
			Session: Session{
				Expiration: getDuration("SESSION_EXPIRATION", 8*time.Hour),
			},
			Broadcast: Broadcast{
				SubscriberBuffer: getInt("BROADCAST_SUBSCRIBER_BUFFER", 16),
			},
			Monitoring: Monitoring{
				OTLPEndpoint: getString("OTLP_ENDPOINT", ""),
			},
		}
	})

	return c
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getStrings(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBase64(key string) []byte {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return []byte(v)
	}
	return decoded
}
