// Package gemini asks a Gemini model to tag clothing photos.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/dharsanguruparan/weavd/internal/vision"
)

const prompt = `You are tagging a photo of a clothing item for a wardrobe catalog.
Respond with JSON only, in the form
{"labels": [...], "brands": [...], "colors": [...]}
where labels are short garment descriptors (type, material, style), brands are
visible brand names or logos, and colors are the dominant colors as #rrggbb hex.
Use at most 5 entries per list and empty lists when unsure.`

const (
	maxImageBytes = 10 << 20
	parallelism   = 4
)

// Gemini is a labeler.Labeler backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	http   *http.Client
}

// New returns a Gemini labeler for the given model.
func New(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  model,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Detect tags every image, a few at a time.
func (g *Gemini) Detect(ctx context.Context, urls []string) ([]vision.Result, error) {
	out := make([]vision.Result, len(urls))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)
	for i, u := range urls {
		eg.Go(func() error {
			res, err := g.detectOne(ctx, u)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gemini) detectOne(ctx context.Context, url string) (vision.Result, error) {
	data, format, err := g.fetch(ctx, url)
	if err != nil {
		return vision.Result{}, err
	}
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return vision.Result{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return vision.Result{}, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return vision.Result{}, fmt.Errorf("empty content returned from Gemini")
	}
	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return vision.Result{}, fmt.Errorf("unexpected response format from Gemini")
	}
	res, err := parseResult(string(txt))
	if err != nil {
		return vision.Result{}, err
	}
	res.URL = url
	return res, nil
}

func (g *Gemini) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, imageFormat(resp.Header.Get("Content-Type"), data), nil
}

// imageFormat maps a MIME type to the short format genai.ImageData expects.
func imageFormat(contentType string, data []byte) string {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	contentType, _, _ = strings.Cut(contentType, ";")
	if f, ok := strings.CutPrefix(strings.TrimSpace(contentType), "image/"); ok {
		return f
	}
	return "jpeg"
}

type answer struct {
	Labels []string `json:"labels"`
	Brands []string `json:"brands"`
	Colors []string `json:"colors"`
}

// parseResult decodes the model's JSON, tolerating a markdown code fence.
func parseResult(text string) (vision.Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var a answer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &a); err != nil {
		return vision.Result{}, fmt.Errorf("decode gemini answer: %w", err)
	}
	res := vision.Result{Labels: a.Labels, Brands: a.Brands, Colors: []string{}}
	for _, c := range a.Colors {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "#") {
			c = "#" + c
		}
		res.Colors = append(res.Colors, c)
	}
	return res, nil
}
