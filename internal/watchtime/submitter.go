package watchtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SaveWatchTimePath 观看时长记录接口路径
const SaveWatchTimePath = "/api/saveWatchTime"

// ErrInvalidPayload 请求体校验失败，这类数据不进入重试队列
var ErrInvalidPayload = errors.New("watchtime: invalid submission")

// StatusError 接口返回非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求失败，状态码: %d, 响应: %s", e.StatusCode, e.Body)
}

// HTTPSubmitter 通过 HTTP POST 提交观看时长
type HTTPSubmitter struct {
	httpClient *http.Client
	endpoint   string
	token      func() string
	validate   *validator.Validate
}

// NewHTTPSubmitter 创建提交器，baseURL 形如 http://localhost:5005
func NewHTTPSubmitter(baseURL string, token func() string) *HTTPSubmitter {
	return &HTTPSubmitter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: strings.TrimRight(baseURL, "/") + SaveWatchTimePath,
		token:    token,
		validate: validator.New(),
	}
}

// WithHTTPClient 替换底层 http.Client
func (c *HTTPSubmitter) WithHTTPClient(hc *http.Client) *HTTPSubmitter {
	c.httpClient = hc
	return c
}

// Submit 发送请求，任何 2xx 视为成功
func (c *HTTPSubmitter) Submit(ctx context.Context, s Submission) error {
	if err := c.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
