package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// EnvPrefix — префикс переменных окружения: IMPORT_POSTGRES_DSN, IMPORT_KAFKA_BROKERS и т.д.
const EnvPrefix = "IMPORT"

// Config — настройки импорта.
type Config struct {
	Log      LogConfig
	Metrics  MetricsConfig
	Pipeline PipelineConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	S3       S3Config
	Customer CustomerConfig
	Order    OrderConfig
	Product  ProductConfig
	Returns  ReturnsConfig
	Shipment ShipmentConfig
}

// LogConfig — уровень и формат логов logrus.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// MetricsConfig — HTTP-эндпоинт /metrics. Пустой адрес отключает сервер.
type MetricsConfig struct {
	Addr string
}

// PipelineConfig — поведение драйвера при ошибке записи.
type PipelineConfig struct {
	OnError string // skip, fail
}

// PostgresConfig — база платформы со справочником регионов и опциями атрибутов.
// Пустой DSN означает in-memory платформу.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// KafkaConfig — брокеры для уведомлений клиенту. Без брокеров письма не отправляются.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// S3Config — хранилище изображений товаров. Без бакета изображения пишутся в in-memory галерею.
type S3Config struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	KeyPrefix     string
	MaxImageBytes int64
}

type CustomerConfig struct {
	WithAddresses  bool
	TitleCaseNames bool
}

type OrderConfig struct {
	CustomerMappingAttribute string
	PaymentMethodCode        string
}

// ProductConfig указывает на YAML-профиль значений товара по умолчанию.
type ProductConfig struct {
	DefaultsFile string
}

type ReturnsConfig struct {
	OrderIDField        string
	SendCreditMemoEmail bool
}

type ShipmentConfig struct {
	SendShipmentEmail bool
}

// Load читает import.yaml (или файл path), затем переменные окружения IMPORT_*.
// Приоритет: окружение, файл, встроенные значения.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("import")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/commerce-import")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("postgres.auto_migrate", true)
	v.SetDefault("customer.with_addresses", true)
	v.SetDefault("returns.send_credit_memo_email", true)
	v.SetDefault("s3.use_path_style", true)

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
		Pipeline: PipelineConfig{
			OnError: v.GetString("pipeline.on_error"),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("postgres.dsn"),
			MaxOpenConns:    v.GetInt("postgres.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("postgres.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("postgres.auto_migrate"),
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(v.GetStringSlice("kafka.brokers")),
			Topic:    v.GetString("kafka.topic"),
			ClientID: v.GetString("kafka.client_id"),
		},
		S3: S3Config{
			Bucket:        v.GetString("s3.bucket"),
			Endpoint:      v.GetString("s3.endpoint"),
			Region:        v.GetString("s3.region"),
			AccessKey:     v.GetString("s3.access_key"),
			SecretKey:     v.GetString("s3.secret_key"),
			UsePathStyle:  v.GetBool("s3.use_path_style"),
			KeyPrefix:     v.GetString("s3.key_prefix"),
			MaxImageBytes: v.GetInt64("s3.max_image_bytes"),
		},
		Customer: CustomerConfig{
			WithAddresses:  v.GetBool("customer.with_addresses"),
			TitleCaseNames: v.GetBool("customer.title_case_names"),
		},
		Order: OrderConfig{
			CustomerMappingAttribute: v.GetString("order.customer_mapping_attribute"),
			PaymentMethodCode:        v.GetString("order.payment_method_code"),
		},
		Product: ProductConfig{
			DefaultsFile: v.GetString("product.defaults_file"),
		},
		Returns: ReturnsConfig{
			OrderIDField:        v.GetString("returns.order_id_field"),
			SendCreditMemoEmail: v.GetBool("returns.send_credit_memo_email"),
		},
		Shipment: ShipmentConfig{
			SendShipmentEmail: v.GetBool("shipment.send_shipment_email"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList разбирает значения вида "a,b" из окружения в отдельные элементы.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Pipeline.OnError == "" {
		cfg.Pipeline.OnError = "skip"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 10
	}
	if cfg.Postgres.ConnMaxLifetime == 0 {
		cfg.Postgres.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = "commerce-import"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.MaxImageBytes == 0 {
		cfg.S3.MaxImageBytes = 20 << 20
	}
	if cfg.Order.CustomerMappingAttribute == "" {
		cfg.Order.CustomerMappingAttribute = "email"
	}
	if cfg.Order.PaymentMethodCode == "" {
		cfg.Order.PaymentMethodCode = "checkmo"
	}
	if cfg.Returns.OrderIDField == "" {
		cfg.Returns.OrderIDField = "increment_id"
	}
}

func (c *Config) validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("log.level must be one of debug|info|warn|error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Pipeline.OnError != "skip" && c.Pipeline.OnError != "fail" {
		return fmt.Errorf("pipeline.on_error must be skip or fail, got %q", c.Pipeline.OnError)
	}
	if c.Postgres.MaxOpenConns < 0 {
		return fmt.Errorf("postgres.max_open_conns cannot be negative")
	}
	if c.S3.Bucket != "" && (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		return fmt.Errorf("s3.access_key and s3.secret_key must be set together")
	}
	if c.S3.MaxImageBytes < 0 {
		return fmt.Errorf("s3.max_image_bytes cannot be negative")
	}
	if c.Returns.OrderIDField != "increment_id" && c.Returns.OrderIDField != "entity_id" {
		return fmt.Errorf("returns.order_id_field must be increment_id or entity_id, got %q", c.Returns.OrderIDField)
	}
	return nil
}

// ProductProfile — YAML-профиль значений товара по умолчанию. Незаданные поля берутся из встроенного профиля.
type ProductProfile struct {
	Status     *int              `yaml:"status"`
	TaxClassID *int              `yaml:"tax_class_id"`
	WebsiteIDs []int64           `yaml:"website_ids"`
	TypeID     string            `yaml:"type_id"`
	Weight     string            `yaml:"weight"`
	Stock      *domain.StockData `yaml:"stock"`
}

// LoadProductProfile читает профиль из файла. Пустой путь даёт пустой профиль.
func LoadProductProfile(path string) (ProductProfile, error) {
	var profile ProductProfile
	if path == "" {
		return profile, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read product profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return profile, fmt.Errorf("parse product profile %s: %w", path, err)
	}
	if profile.TypeID != "" && profile.TypeID != string(domain.ProductTypeSimple) && profile.TypeID != string(domain.ProductTypeConfigurable) {
		return profile, fmt.Errorf("product profile %s: unsupported type_id %q", path, profile.TypeID)
	}
	return profile, nil
}
