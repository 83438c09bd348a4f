// Package objstore stores user avatars and product images in MinIO
package objstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"ecommerce-service/config"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/util"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrInvalidImage is returned for payloads that are not base64 data URLs
var ErrInvalidImage = errors.New("invalid image data")

type Client struct {
	mc      *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewClient creates a MinIO client
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "ecommerce"
	}

	return &Client{
		mc:      mc,
		bucket:  bucket,
		baseURL: publicBaseURL(cfg, bucket),
		logger:  util.GetLogger(),
	}, nil
}

func publicBaseURL(cfg config.MinIOConfig, bucket string) string {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return base + "/" + bucket
}

// EnsureBucket creates the bucket if it does not exist yet
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		c.logger.Info("Created bucket", zap.String("bucket", c.bucket))
	}
	return nil
}

// Ping checks that the bucket is reachable
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.mc.BucketExists(ctx, c.bucket)
	return err
}

// UploadDataURL decodes a base64 data URL and stores it under folder/
func (c *Client) UploadDataURL(ctx context.Context, folder, dataURL string) (models.Image, error) {
	contentType, data, err := parseDataURL(dataURL)
	if err != nil {
		return models.Image{}, err
	}

	key := folder + "/" + uuid.NewString()
	_, err = c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("upload %s: %w", key, err)
	}

	util.ImagesUploadedTotal.WithLabelValues(folder).Inc()
	return models.Image{PublicID: key, URL: c.baseURL + "/" + key}, nil
}

// Delete removes an object; missing objects are not an error
func (c *Client) Delete(ctx context.Context, publicID string) error {
	return c.mc.RemoveObject(ctx, c.bucket, publicID, minio.RemoveObjectOptions{})
}

// parseDataURL splits "data:<mime>;base64,<payload>" into its content type and bytes
func parseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}
