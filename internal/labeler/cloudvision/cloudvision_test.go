package cloudvision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gvision "google.golang.org/api/vision/v1"
)

func TestConvert(t *testing.T) {
	resp := &gvision.AnnotateImageResponse{
		LabelAnnotations: []*gvision.EntityAnnotation{{Description: "Jacket"}, {Description: ""}, {Description: "Sleeve"}},
		LogoAnnotations:  []*gvision.EntityAnnotation{{Description: "Levi's"}},
		ImagePropertiesAnnotation: &gvision.ImageProperties{
			DominantColors: &gvision.DominantColorsAnnotation{
				Colors: []*gvision.ColorInfo{
					{Color: &gvision.Color{Red: 255, Green: 0, Blue: 0}},
					{Color: nil},
					{Color: &gvision.Color{Red: 16, Green: 32, Blue: 48}},
				},
			},
		},
	}
	res, err := convert("https://img/1.jpg", resp)
	require.NoError(t, err)
	assert.Equal(t, "https://img/1.jpg", res.URL)
	assert.Equal(t, []string{"Jacket", "Sleeve"}, res.Labels)
	assert.Equal(t, []string{"Levi's"}, res.Brands)
	assert.Equal(t, []string{"#ff0000", "#102030"}, res.Colors)
}

func TestConvertEmptyAndError(t *testing.T) {
	res, err := convert("u", &gvision.AnnotateImageResponse{})
	require.NoError(t, err)
	assert.NotNil(t, res.Colors)
	assert.Empty(t, res.Labels)

	_, err = convert("u", &gvision.AnnotateImageResponse{Error: &gvision.Status{Code: 7, Message: "denied"}})
	assert.ErrorContains(t, err, "denied")
}

func TestBuildRequest(t *testing.T) {
	req := buildRequest([]string{"a", "b"})
	require.Len(t, req.Requests, 2)
	assert.Equal(t, "b", req.Requests[1].Image.Source.ImageUri)
	var types []string
	for _, f := range req.Requests[0].Features {
		types = append(types, f.Type)
	}
	assert.Equal(t, []string{"LABEL_DETECTION", "LOGO_DETECTION", "IMAGE_PROPERTIES"}, types)
}
