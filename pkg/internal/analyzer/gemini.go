package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/rule"
)

// maxErrorBody 错误响应最多保留的字节数.
const maxErrorBody = 2048

// Gemini 通过 generateContent 接口调用 Gemini 模型，媒体以 base64 内联发送.
type Gemini struct {
	cfg     configs.AnalyzerConfig
	http    *http.Client
	objects ObjectReader
	logger  zerolog.Logger
}

// GeminiOption 配置 Gemini.
type GeminiOption func(*Gemini)

// WithHTTPClient 替换 HTTP 客户端.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) { g.http = c }
}

// NewGemini 创建客户端. objects 为 nil 时通过下载地址获取媒体.
func NewGemini(cfg configs.AnalyzerConfig, objects ObjectReader, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		objects: objects,
		logger:  nlog.Component("analyzer"),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
	Temperature      float64        `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

var stringArray = map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}}

// responseSchema 约束模型输出结构.
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"caption": map[string]any{"type": "STRING"},
		"tags":    stringArray,
		"moderation": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"verdict": map[string]any{"type": "STRING", "enum": []string{"SAFE", "POSSIBLE_NSFW", "NSFW"}},
				"reasons": stringArray,
			},
			"required": []string{"verdict"},
		},
		"extractedEntities": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"people":   stringArray,
				"location": map[string]any{"type": "STRING"},
				"text":     map[string]any{"type": "STRING"},
			},
		},
		"suggestion": map[string]any{"type": "STRING"},
	},
	"required": []string{"caption", "tags", "moderation"},
}

func prompt(req Request) string {
	var b strings.Builder

	b.WriteString("Analyze the attached media for a personal media library.\n")
	b.WriteString("Return a short caption, 5 to 10 lowercase descriptive tags, a safety verdict ")
	b.WriteString("(SAFE, POSSIBLE_NSFW or NSFW) with reasons, the people, location and any visible or spoken text, ")
	b.WriteString("and one suggestion for improving or organizing the media.\n")

	if len(req.KnownPeople) > 0 {
		b.WriteString("People the user has named before (reuse these names when you recognize them): ")
		b.WriteString(strings.Join(req.KnownPeople, ", "))
		b.WriteString(".\n")
	} else {
		b.WriteString("Refer to unknown people as \"Person 1\", \"Person 2\" and so on.\n")
	}

	return b.String()
}

// Analyze 实现 Analyzer.
func (g *Gemini) Analyze(ctx context.Context, req Request) (*Result, error) {
	data, mimeType, err := g.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	body, err := sonic.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: prompt(req)},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
			Temperature:      0.2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode analyzer request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if g.cfg.APIKey != "" {
		httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analyzer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analyzer response: %w", err)
	}

	result, err := decode(raw)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().Str("record_id", req.RecordID).Int("tags", len(result.Tags)).
		Str("verdict", result.Moderation.Verdict).Msg("analysis received")

	return result, nil
}

// decode 从候选回答中取出 JSON 并校验.
func decode(raw []byte) (*Result, error) {
	var resp generateResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("analyzer: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrMalformed)
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	payload := strings.TrimSpace(text.String())
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")

	var result Result
	if err := sonic.UnmarshalString(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := rule.ValidateStruct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, rule.Errors(err))
	}

	return &result, nil
}

// fetch 读取媒体字节：优先对象存储，其次下载地址.
func (g *Gemini) fetch(ctx context.Context, req Request) ([]byte, string, error) {
	limit := g.cfg.MaxInlineBytes
	if limit <= 0 {
		limit = configs.DefaultAnalyzerMaxInlineBytes
	}

	mimeType := req.MimeType

	var (
		body io.ReadCloser
		size int64
	)

	switch {
	case g.objects != nil && req.ObjectKey != "":
		rc, n, ct, err := g.objects.Open(ctx, req.ObjectKey)
		if err != nil {
			return nil, "", fmt.Errorf("open media %s: %w", req.ObjectKey, err)
		}

		body, size = rc, n
		if mimeType == "" {
			mimeType = ct
		}
	case req.DownloadURL != "":
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.DownloadURL, nil)
		if err != nil {
			return nil, "", err
		}

		resp, err := g.http.Do(httpReq)
		if err != nil {
			return nil, "", fmt.Errorf("download media: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()

			return nil, "", fmt.Errorf("download media: status %d", resp.StatusCode)
		}

		body, size = resp.Body, resp.ContentLength
		if mimeType == "" {
			mimeType = resp.Header.Get("Content-Type")
		}
	default:
		return nil, "", fmt.Errorf("analyzer: no media reference")
	}
	defer body.Close()

	if size > limit {
		return nil, "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, limit)
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read media: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	return data, mimeType, nil
}
