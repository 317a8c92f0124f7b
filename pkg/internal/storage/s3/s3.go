// Package s3 封装 MinIO 客户端：带进度回调的上传、中止、删除、读取与下载地址签发.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

// maxPresignExpiry S3 预签名 URL 的上限.
const maxPresignExpiry = 7 * 24 * time.Hour

// ErrObjectNotFound 对象不存在.
var ErrObjectNotFound = errors.New("s3: object not found")

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	cfg configs.S3Config
}

// New 按全局配置初始化 MinIO 客户端.
func New(ctx context.Context) (*Client, error) {
	return Open(ctx, configs.GetConfig().S3)
}

// Open 初始化 MinIO 客户端，若 bucket 不存在则创建.
func Open(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, cfg: cfg}, nil
}

// Bucket 当前使用的桶.
func (c *Client) Bucket() string {
	return c.cfg.BucketName
}

// progressHook 作为 minio 的 Progress 读取器：每上传一段数据就被 Read 一次.
type progressHook struct {
	total int64
	sent  atomic.Int64
	fn    func(sent, total int64)
}

func (p *progressHook) Read(b []byte) (int, error) {
	sent := p.sent.Add(int64(len(b)))
	if p.total > 0 && sent > p.total {
		sent = p.total
	}

	if p.fn != nil {
		p.fn(sent, p.total)
	}

	return len(b), nil
}

// Upload 上传对象，onProgress 在每段数据发送后回调（可为 nil）.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string,
	onProgress func(sent, total int64),
) (minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    c.cfg.PartSize,
		Progress:    &progressHook{total: size, fn: onProgress},
	}

	info, err := c.PutObject(ctx, c.cfg.BucketName, key, r, size, opts)
	if err != nil {
		return info, fmt.Errorf("put object %s: %w", key, err)
	}

	return info, nil
}

// Abort 清理中断的上传：未完成的分片与可能已写入的对象.
func (c *Client) Abort(ctx context.Context, key string) error {
	errIncomplete := c.RemoveIncompleteUpload(ctx, c.cfg.BucketName, key)

	return errors.Join(errIncomplete, c.Remove(ctx, key))
}

// Remove 删除对象，对象不存在不报错.
func (c *Client) Remove(ctx context.Context, key string) error {
	err := c.RemoveObject(ctx, c.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// Open 打开对象读取流，返回大小与内容类型.
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, int64, string, error) {
	info, err := c.StatObject(ctx, c.cfg.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, "", ErrObjectNotFound
		}

		return nil, 0, "", fmt.Errorf("stat object %s: %w", key, err)
	}

	obj, err := c.GetObject(ctx, c.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, "", fmt.Errorf("get object %s: %w", key, err)
	}

	return obj, info.Size, info.ContentType, nil
}

// DownloadURL 返回对象的长期地址：配置了公开地址时直接拼接，否则签发最长有效期的预签名 URL.
func (c *Client) DownloadURL(ctx context.Context, key string) (string, error) {
	if base := strings.TrimRight(c.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + escapeKey(key), nil
	}

	expiry := c.cfg.PresignExpiry
	if expiry <= 0 || expiry > maxPresignExpiry {
		expiry = maxPresignExpiry
	}

	u, err := c.PresignedGetObject(ctx, c.cfg.BucketName, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return u.String(), nil
}

// HealthCheck 检查桶是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.cfg.BucketName)

	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)

	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return strings.Join(parts, "/")
}
