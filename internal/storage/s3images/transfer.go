package s3images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/version"
)

const (
	defaultRegion      = "us-east-1"
	defaultKeyPrefix   = "catalog/product"
	defaultMaxBytes    = 20 << 20
	defaultMaxAttempts = 3
	downloadTimeout    = 30 * time.Second
)

// ObjectAPI — часть S3-клиента, которой пользуется перенос изображений.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Config — параметры S3-совместимого хранилища медиа.
type Config struct {
	Bucket       string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	KeyPrefix    string
}

// Transfer скачивает изображение по URL и кладёт его в бакет под ключом, производным от SKU.
type Transfer struct {
	client      ObjectAPI
	httpClient  *http.Client
	bucket      string
	keyPrefix   string
	maxBytes    int64
	maxAttempts uint
	retryDelay  time.Duration
	logger      *log.Entry
}

// Option настраивает Transfer.
type Option func(*Transfer)

// WithHTTPClient подменяет HTTP-клиент для скачивания.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transfer) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithMaxBytes ограничивает размер скачиваемого файла.
func WithMaxBytes(n int64) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.maxBytes = n
		}
	}
}

// WithMaxAttempts задаёт число попыток скачивания.
func WithMaxAttempts(n uint) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithRetryDelay задаёт начальную паузу между попытками скачивания.
func WithRetryDelay(d time.Duration) Option {
	return func(t *Transfer) {
		if d > 0 {
			t.retryDelay = d
		}
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(t *Transfer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New создаёт Transfer поверх S3-клиента, собранного из cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Transfer, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.KeyPrefix, opts...), nil
}

// NewWithClient создаёт Transfer поверх готового клиента.
func NewWithClient(client ObjectAPI, bucket, keyPrefix string, opts ...Option) *Transfer {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	t := &Transfer{
		client:      client,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		bucket:      bucket,
		keyPrefix:   strings.Trim(keyPrefix, "/"),
		maxBytes:    defaultMaxBytes,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  500 * time.Millisecond,
		logger:      log.WithField("component", "s3-image-transfer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// EnsureBucket создаёт бакет, если его ещё нет.
func (t *Transfer) EnsureBucket(ctx context.Context) error {
	_, err := t.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(t.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket %s: %w", t.bucket, err)
	}

	_, err = t.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(t.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", t.bucket, err)
	}
	t.logger.WithField("bucket", t.bucket).Info("media bucket created")
	return nil
}

// ImportImage скачивает изображение и загружает его в бакет.
// Метка, позиция и роли изображения пишутся в метаданные объекта.
func (t *Transfer) ImportImage(ctx context.Context, product domain.Product, image domain.Image) error {
	if image.URL == "" {
		return errors.New("image url is empty")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.retryDelay
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return t.download(ctx, image.URL)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(t.maxAttempts))
	if err != nil {
		return fmt.Errorf("download %s: %w", image.URL, err)
	}

	contentType := mimetype.Detect(body).String()
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("download %s: unexpected content type %s", image.URL, contentType)
	}

	key, err := t.ObjectKey(product.SKU, image.URL)
	if err != nil {
		return err
	}
	metadata := map[string]string{
		"sku":      product.SKU,
		"position": fmt.Sprintf("%d", image.Position),
	}
	if image.Label != "" {
		metadata["label"] = image.Label
	}
	if len(image.Types) > 0 {
		metadata["types"] = strings.Join(image.Types, ",")
	}

	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	t.logger.WithFields(log.Fields{
		"sku": product.SKU,
		"key": key,
	}).Debug("product image uploaded")
	return nil
}

// ObjectKey строит ключ объекта: <prefix>/<sku>/<имя файла из URL>.
func (t *Transfer) ObjectKey(sku, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("image url %s has no file name", rawURL)
	}
	return path.Join(t.keyPrefix, url.PathEscape(sku), name), nil
}

func (t *Transfer) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > t.maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("image exceeds %d bytes", t.maxBytes))
	}
	return body, nil
}

var _ domain.ImageTransfer = (*Transfer)(nil)
