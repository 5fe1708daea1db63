package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "skip", cfg.Pipeline.OnError)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Postgres.ConnMaxLifetime)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "commerce-import", cfg.Kafka.ClientID)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.True(t, cfg.Customer.WithAddresses)
	assert.False(t, cfg.Customer.TitleCaseNames)
	assert.Equal(t, "email", cfg.Order.CustomerMappingAttribute)
	assert.Equal(t, "checkmo", cfg.Order.PaymentMethodCode)
	assert.Equal(t, "increment_id", cfg.Returns.OrderIDField)
	assert.True(t, cfg.Returns.SendCreditMemoEmail)
	assert.False(t, cfg.Shipment.SendShipmentEmail)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeFile(t, "import.yaml", `
log:
  level: debug
  format: json
pipeline:
  on_error: fail
postgres:
  dsn: postgres://file@localhost/import
kafka:
  brokers: ["k1:9092"]
  topic: notifications
order:
  payment_method_code: banktransfer
returns:
  send_credit_memo_email: false
shipment:
  send_shipment_email: true
`)
	t.Setenv("IMPORT_POSTGRES_DSN", "postgres://env@localhost/import")
	t.Setenv("IMPORT_CUSTOMER_TITLE_CASE_NAMES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "fail", cfg.Pipeline.OnError)
	assert.Equal(t, "postgres://env@localhost/import", cfg.Postgres.DSN)
	assert.Equal(t, []string{"k1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "notifications", cfg.Kafka.Topic)
	assert.Equal(t, "banktransfer", cfg.Order.PaymentMethodCode)
	assert.False(t, cfg.Returns.SendCreditMemoEmail)
	assert.True(t, cfg.Shipment.SendShipmentEmail)
	assert.True(t, cfg.Customer.TitleCaseNames)
}

func TestLoad_BrokersFromEnvList(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "log level", env: map[string]string{"IMPORT_LOG_LEVEL": "trace"}},
		{name: "log format", env: map[string]string{"IMPORT_LOG_FORMAT": "xml"}},
		{name: "pipeline action", env: map[string]string{"IMPORT_PIPELINE_ON_ERROR": "retry"}},
		{name: "s3 half credentials", env: map[string]string{"IMPORT_S3_BUCKET": "media", "IMPORT_S3_ACCESS_KEY": "ak"}},
		{name: "order id field", env: map[string]string{"IMPORT_RETURNS_ORDER_ID_FIELD": "quote_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadProductProfile(t *testing.T) {
	path := writeFile(t, "product.yaml", `
status: 2
website_ids: [1, 3]
weight: "1.5"
stock:
  manage_stock: true
  qty: 5
  is_in_stock: true
`)

	profile, err := LoadProductProfile(path)
	require.NoError(t, err)
	require.NotNil(t, profile.Status)
	assert.Equal(t, 2, *profile.Status)
	assert.Nil(t, profile.TaxClassID)
	assert.Equal(t, []int64{1, 3}, profile.WebsiteIDs)
	assert.Equal(t, "1.5", profile.Weight)
	require.NotNil(t, profile.Stock)
	assert.True(t, profile.Stock.ManageStock)
	assert.Equal(t, float64(5), profile.Stock.Qty)

	empty, err := LoadProductProfile("")
	require.NoError(t, err)
	assert.Nil(t, empty.Status)

	_, err = LoadProductProfile(writeFile(t, "bad.yaml", "type_id: bundle\n"))
	assert.Error(t, err)

	_, err = LoadProductProfile(writeFile(t, "broken.yaml", "status: [\n"))
	assert.Error(t, err)
}
