package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type OrderConfig struct {
	Env               string `yaml:"env" env:"ENV" env-default:"local"`
	GRPCServer        `yaml:"grpc_server"`
	HTTPServer        `yaml:"http_server"`
	OrderDB           `yaml:"order_db"`
	LogConfig         `yaml:"log_config"`
	SettlementService `yaml:"settlement-service"`
	KafkaService      `yaml:"kafka-service"`
	Notifications     `yaml:"notifications"`
	Escrow            `yaml:"escrow"`
	Tracing           `yaml:"tracing"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type HTTPServer struct {
	Host        string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port        string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
}

type OrderDB struct {
	Dsn string `yaml:"dsn" env:"ORDER_DB_DSN"`
	// Driver is postgres or memory.
	Driver         string `yaml:"driver" env:"ORDER_DB_DRIVER" env-default:"postgres"`
	MigrationsPath string `yaml:"migrations_path" env:"ORDER_DB_MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type SettlementService struct {
	Host    string        `yaml:"host" env:"SETTLEMENT_HOST"`
	Port    string        `yaml:"port" env:"SETTLEMENT_PORT"`
	Timeout time.Duration `yaml:"timeout" env:"SETTLEMENT_TIMEOUT" env-default:"10s"`
}

func (s SettlementService) Address() string {
	if s.Port == "" {
		return s.Host
	}
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type KafkaService struct {
	Enabled bool   `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"KAFKA_HOST"`
	Port    string `yaml:"port" env:"KAFKA_PORT"`
	// Client is kafka-go or sarama.
	Client         string `yaml:"client" env:"KAFKA_CLIENT" env-default:"kafka-go"`
	EventsTopic    string `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"escrow-events"`
	DocumentsTopic string `yaml:"documents_topic" env:"KAFKA_DOCUMENTS_TOPIC" env-default:"document-verifications"`
	GroupID        string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"escrow-service"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type Notifications struct {
	QueueSize     int           `yaml:"queue_size" env:"NOTIFY_QUEUE_SIZE" env-default:"1024"`
	Workers       int           `yaml:"workers" env:"NOTIFY_WORKERS" env-default:"2"`
	NotifyTimeout time.Duration `yaml:"notify_timeout" env:"NOTIFY_TIMEOUT" env-default:"5s"`
	WebhookURL    string        `yaml:"webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	WebhookSecret string        `yaml:"webhook_secret" env:"NOTIFY_WEBHOOK_SECRET"`
	AuditLog      bool          `yaml:"audit_log" env:"NOTIFY_AUDIT_LOG" env-default:"true"`
}

type Escrow struct {
	// Document types that must be VALIDATED before the milestone's tranche
	// is released.
	ShipmentDocuments []string      `yaml:"shipment_documents" env:"ESCROW_SHIPMENT_DOCUMENTS" env-separator:","`
	DeliveryDocuments []string      `yaml:"delivery_documents" env:"ESCROW_DELIVERY_DOCUMENTS" env-separator:","`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" env:"ESCROW_RECONCILE_INTERVAL" env-default:"1m"`
	PendingReleaseAge time.Duration `yaml:"pending_release_age" env:"ESCROW_PENDING_RELEASE_AGE" env-default:"2m"`
}

type Tracing struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"TRACING_OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"TRACING_SERVICE_NAME" env-default:"escrow-service"`
	SampleRatio  float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO" env-default:"1"`
}

// Load reads the YAML file at configPath; environment variables override it.
func Load(configPath string) (*OrderConfig, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg OrderConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *OrderConfig) Validate() error {
	switch c.OrderDB.Driver {
	case "postgres":
		if c.OrderDB.Dsn == "" {
			return fmt.Errorf("order_db.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown order_db.driver %q", c.OrderDB.Driver)
	}
	switch c.KafkaService.Client {
	case "kafka-go", "sarama":
	default:
		return fmt.Errorf("unknown kafka-service.client %q", c.KafkaService.Client)
	}
	if c.SettlementService.Host == "" {
		return fmt.Errorf("settlement-service.host is required")
	}
	return nil
}

func MustLoad() *OrderConfig {

	// Processing env config variable and file
	configPath := os.Getenv("ORDER_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("ORDER_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}
