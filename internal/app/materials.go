package app

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"mathemania-service/internal/domain"
)

const materialsPrefix = "materials/"

// MaterialsService stores question papers and solutions published by admins.
type MaterialsService struct {
	objects ObjectStore
	expiry  time.Duration
}

func NewMaterialsService(objects ObjectStore, linkExpiry time.Duration) *MaterialsService {
	if linkExpiry <= 0 {
		linkExpiry = 15 * time.Minute
	}
	return &MaterialsService{objects: objects, expiry: linkExpiry}
}

// Upload stores a material under its base name and returns the object key.
func (s *MaterialsService) Upload(ctx context.Context, up Upload) (string, error) {
	name, err := materialName(up.FileName)
	if err != nil {
		return "", err
	}
	body, err := requirePDF(up)
	if err != nil {
		return "", err
	}
	key := materialsPrefix + name
	if _, err := s.objects.Put(ctx, key, body, up.Size, pdfContentType); err != nil {
		return "", fmt.Errorf("upload material: %w", err)
	}
	return key, nil
}

// Link returns a time-limited URL for a material.
func (s *MaterialsService) Link(ctx context.Context, name string) (string, error) {
	clean, err := materialName(name)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, materialsPrefix+clean, s.expiry)
}

func materialName(name string) (string, error) {
	name = strings.TrimSpace(name)
	base := path.Base(name)
	if name == "" || base != name || base == "." || base == ".." {
		return "", &domain.ValidationError{Field: "name", Message: "Invalid file name."}
	}
	return base, nil
}
