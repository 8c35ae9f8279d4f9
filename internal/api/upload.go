package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/dharsanguruparan/weavd/internal/model"
)

const maxFilesPerRequest = 20

// readImages streams the "files" parts of a multipart body into memory,
// enforcing the per-file size limit and the allowed (sniffed) content types.
func (s *Server) readImages(w http.ResponseWriter, r *http.Request) ([]model.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFilesPerRequest*(s.cfg.MaxFileSize+1024))
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expecting multipart form", errBadRequest)
	}
	var images []model.Image
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read upload: %v", errBadRequest, err)
		}
		if part.FormName() != "files" && part.FormName() != "file" {
			part.Close()
			continue
		}
		if len(images) == maxFilesPerRequest {
			part.Close()
			return nil, fmt.Errorf("%w: at most %d files per request", errBadRequest, maxFilesPerRequest)
		}
		img, err := s.readPart(part)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: missing file part", errBadRequest)
	}
	return images, nil
}

func (s *Server) readPart(part *multipart.Part) (model.Image, error) {
	defer part.Close()
	data, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxFileSize+1))
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: read file: %v", errBadRequest, err)
	}
	name := part.FileName()
	switch {
	case len(data) == 0:
		return model.Image{}, fmt.Errorf("%w: %s: empty file", errBadRequest, name)
	case int64(len(data)) > s.cfg.MaxFileSize:
		return model.Image{}, fmt.Errorf("%w: %s: file exceeds limit (%d bytes)", errBadRequest, name, s.cfg.MaxFileSize)
	}
	// http.DetectContentType only looks at the first 512 bytes
	contentType := http.DetectContentType(data)
	if !slices.Contains(s.cfg.AllowedTypes, contentType) {
		return model.Image{}, fmt.Errorf("%w: %s: file type %s not allowed", errBadRequest, name, contentType)
	}
	if name == "" {
		name = "image"
	}
	return model.Image{Name: name, ContentType: contentType, Data: data}, nil
}
