// Package analysis 调用远程分析服务：multipart 上传文件、问题与图表类型，返回原始 JSON 结果
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chartboard/internal/model"
)

// maxResponseBytes 响应体上限
const maxResponseBytes = 32 << 20

// Request 一次分析请求
type Request struct {
	FileName  string
	File      []byte
	Query     string
	ChartType string
}

// StatusError 分析服务返回非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned HTTP %d", e.StatusCode)
}

// Client 分析服务客户端
type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

// NewClient 创建客户端；timeout <= 0 时不设超时
func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Analyze 提交文件并返回宽松解码后的原始结果
func (c *Client) Analyze(ctx context.Context, req Request) (model.RawPayload, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return model.RawPayload{}, fmt.Errorf("encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return model.RawPayload{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.RawPayload{}, fmt.Errorf("call analysis service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.RawPayload{}, fmt.Errorf("read analysis response: %w", err)
	}

	c.log.Debug("analysis response",
		zap.String("file", req.FileName),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.RawPayload{}, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	raw, err := model.DecodeRawPayload(data)
	if err != nil {
		return model.RawPayload{}, fmt.Errorf("decode analysis response: %w", err)
	}
	return raw, nil
}

func encodeForm(req Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("query", req.Query); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("chartType", req.ChartType); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
