// Package cloudvision detects labels, logos and dominant colors with the
// Google Cloud Vision API.
package cloudvision

import (
	"context"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	"github.com/dharsanguruparan/weavd/internal/vision"
)

// batchSize is the most images Cloud Vision accepts in one synchronous call.
const batchSize = 16

const (
	maxLabels = 10
	maxColors = 5
)

// CloudVision is a labeler.Labeler backed by images:annotate.
type CloudVision struct {
	svc *gvision.Service
}

// New builds a client. An empty credentialsFile falls back to application
// default credentials.
func New(ctx context.Context, credentialsFile string) (*CloudVision, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gvision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &CloudVision{svc: svc}, nil
}

// Detect annotates the images in batches.
func (c *CloudVision) Detect(ctx context.Context, urls []string) ([]vision.Result, error) {
	out := make([]vision.Result, 0, len(urls))
	for start := 0; start < len(urls); start += batchSize {
		chunk := urls[start:min(start+batchSize, len(urls))]
		resp, err := c.svc.Images.Annotate(buildRequest(chunk)).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("annotate images: %w", err)
		}
		if len(resp.Responses) != len(chunk) {
			return nil, fmt.Errorf("annotate images: got %d responses for %d images", len(resp.Responses), len(chunk))
		}
		for i, r := range resp.Responses {
			res, err := convert(chunk[i], r)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
	}
	return out, nil
}

// Close is a no-op; the REST service holds no connections of its own.
func (c *CloudVision) Close() error {
	return nil
}

func buildRequest(urls []string) *gvision.BatchAnnotateImagesRequest {
	req := &gvision.BatchAnnotateImagesRequest{}
	for _, u := range urls {
		req.Requests = append(req.Requests, &gvision.AnnotateImageRequest{
			Image: &gvision.Image{Source: &gvision.ImageSource{ImageUri: u}},
			Features: []*gvision.Feature{
				{Type: "LABEL_DETECTION", MaxResults: maxLabels},
				{Type: "LOGO_DETECTION", MaxResults: maxLabels},
				{Type: "IMAGE_PROPERTIES"},
			},
		})
	}
	return req
}

func convert(url string, r *gvision.AnnotateImageResponse) (vision.Result, error) {
	res := vision.Result{URL: url, Labels: []string{}, Brands: []string{}, Colors: []string{}}
	if r == nil {
		return res, nil
	}
	if r.Error != nil && r.Error.Code != 0 {
		return vision.Result{}, fmt.Errorf("annotate %s: %s (code %d)", url, r.Error.Message, r.Error.Code)
	}
	for _, l := range r.LabelAnnotations {
		if l.Description != "" {
			res.Labels = append(res.Labels, l.Description)
		}
	}
	for _, l := range r.LogoAnnotations {
		if l.Description != "" {
			res.Brands = append(res.Brands, l.Description)
		}
	}
	if p := r.ImagePropertiesAnnotation; p != nil && p.DominantColors != nil {
		for _, ci := range p.DominantColors.Colors {
			if ci.Color == nil || len(res.Colors) == maxColors {
				continue
			}
			res.Colors = append(res.Colors, hex(ci.Color))
		}
	}
	return res, nil
}

// hex renders a 0-255 channel color as #rrggbb.
func hex(c *gvision.Color) string {
	return colorful.Color{R: c.Red / 255, G: c.Green / 255, B: c.Blue / 255}.Clamped().Hex()
}
