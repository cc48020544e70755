package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server
	AppURL  string `yaml:"APP_URL"`
	AppPort string `yaml:"APP_PORT"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Catalog pipeline
	DocstoreBackend    string `yaml:"DOCSTORE_BACKEND"`
	BlobstoreBackend   string `yaml:"BLOBSTORE_BACKEND"`
	AssetDir           string `yaml:"ASSET_DIR"`
	AssetRemoteTimeout string `yaml:"ASSET_REMOTE_TIMEOUT"`
	LegacyDBDir        string `yaml:"LEGACY_DB_DIR"`
	ReferenceDataset   string `yaml:"REFERENCE_DATASET"`
	ModeratorIDs       string `yaml:"MODERATOR_IDS"`
	ModeratorEmails    string `yaml:"MODERATOR_EMAILS"`

	// Decision events
	KafkaBootstrap      string `yaml:"KAFKA_BOOTSTRAP"`
	KafkaTopicDecisions string `yaml:"KAFKA_TOPIC_DECISIONS"`
	EventLogDir         string `yaml:"EVENT_LOG_DIR"`
}

var config Config

var defaults = map[string]string{
	"APP_PORT":              "8080",
	"DOCSTORE_BACKEND":      "postgres",
	"BLOBSTORE_BACKEND":     "s3",
	"ASSET_DIR":             "./data/assets",
	"ASSET_REMOTE_TIMEOUT":  "5s",
	"LEGACY_DB_DIR":         "./data/legacy",
	"KAFKA_TOPIC_DECISIONS": "catalog.decisions",
	"EVENT_LOG_DIR":         "./logs",
}

func LoadConfig() {
	LoadConfigFrom("config.yaml")
}

func LoadConfigFrom(path string) {
	file, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("Error reading YAML file: %s", err)
		return
	}

	var parsed Config
	if err := yaml.Unmarshal(file, &parsed); err != nil {
		log.Errorf("Error parsing YAML file: %s", err)
		return
	}
	config = parsed
}

// GetConfig reads key from config.yaml, then the environment, then the
// built-in defaults.
func GetConfig(key string) string {
	if v := fromFile(key); v != "" {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaults[key]
}

func fromFile(key string) string {
	switch key {
	case "APP_URL":
		return config.AppURL
	case "APP_PORT":
		return config.AppPort
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "DOCSTORE_BACKEND":
		return config.DocstoreBackend
	case "BLOBSTORE_BACKEND":
		return config.BlobstoreBackend
	case "ASSET_DIR":
		return config.AssetDir
	case "ASSET_REMOTE_TIMEOUT":
		return config.AssetRemoteTimeout
	case "LEGACY_DB_DIR":
		return config.LegacyDBDir
	case "REFERENCE_DATASET":
		return config.ReferenceDataset
	case "MODERATOR_IDS":
		return config.ModeratorIDs
	case "MODERATOR_EMAILS":
		return config.ModeratorEmails
	case "KAFKA_BOOTSTRAP":
		return config.KafkaBootstrap
	case "KAFKA_TOPIC_DECISIONS":
		return config.KafkaTopicDecisions
	case "EVENT_LOG_DIR":
		return config.EventLogDir
	default:
		return ""
	}
}

// GetConfigList splits a comma-separated value, dropping empty entries.
func GetConfigList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetConfig(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetConfigDuration parses a Go duration ("5s") or a number of seconds.
func GetConfigDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("config %s: cannot parse %q as duration, using %s", key, raw, fallback)
	return fallback
}
