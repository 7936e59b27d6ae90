package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Object store
	ObjectStore   string `envconfig:"OBJECT_STORE" default:"s3"`
	BucketName    string `envconfig:"BUCKET_NAME"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT"`
	LocalImageDir string `envconfig:"LOCAL_IMAGE_DIR" default:"."`

	// Gallery catalog
	CatalogDriver string `envconfig:"CATALOG_DRIVER" default:"mariadb"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        int    `envconfig:"DB_PORT" default:"3306"`
	DBUser        string `envconfig:"DB_USER"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBName        string `envconfig:"DB_NAME"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	// Embedding provider
	Embedder         string        `envconfig:"EMBEDDER" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DlibModelsDir    string        `envconfig:"DLIB_MODELS_DIR" default:"models"`
	EmbeddingDim     int           `envconfig:"EMBEDDING_DIM" default:"128"`

	// Matching
	MatchTolerance float64 `envconfig:"MATCH_TOLERANCE" default:"0.6"`

	// MQTT worker
	MQTTBroker       string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883"`
	MQTTClientID     string `envconfig:"MQTT_CLIENT_ID" default:"selfiematch-worker"`
	MQTTRequestTopic string `envconfig:"MQTT_REQUEST_TOPIC" default:"selfiematch/requests"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is loaded first without overriding
// variables that are already set. Overrides run before validation.
func Load(overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the cross-field requirements envconfig cannot express.
func (c *Config) Validate() error {
	switch c.ObjectStore {
	case "s3":
		if c.BucketName == "" {
			return errors.New("BUCKET_NAME is required when OBJECT_STORE=s3")
		}
	case "file":
	default:
		return fmt.Errorf("unknown object store %q (supported: s3, file)", c.ObjectStore)
	}

	switch c.CatalogDriver {
	case "mariadb":
		if c.DBUser == "" || c.DBName == "" {
			return errors.New("DB_USER and DB_NAME are required when CATALOG_DRIVER=mariadb")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when CATALOG_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown catalog driver %q (supported: mariadb, postgres)", c.CatalogDriver)
	}

	if c.MatchTolerance <= 0 {
		return fmt.Errorf("MATCH_TOLERANCE must be positive, got %v", c.MatchTolerance)
	}

	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}

	return nil
}

// MariaDBDSN builds the go-sql-driver DSN from the DB_* parts.
func (c *Config) MariaDBDSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.DBUser
	dsn.Passwd = c.DBPassword
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	return dsn.FormatDSN()
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
