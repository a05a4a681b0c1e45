package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type cloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewCloudinaryStore creates a Cloudinary-backed FileStore. With empty
// credentials the SDK falls back to CLOUDINARY_URL.
func NewCloudinaryStore(cfg CloudinaryConfig) (FileStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.CloudName != "" && cfg.APIKey != "" && cfg.APISecret != "" {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	} else {
		cld, err = cloudinary.New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	// Ensure HTTPS URLs by default.
	cld.Config.URL.Secure = true

	folder := cfg.Folder
	if folder == "" {
		folder = "tutorhub/resources"
	}

	return &cloudinaryStore{cld: cld, folder: folder, now: time.Now}, nil
}

func (s *cloudinaryStore) Save(ctx context.Context, r io.Reader, filename string) (*StoredFile, error) {
	if s == nil || s.cld == nil {
		return nil, fmt.Errorf("cloudinary storage is not initialized")
	}

	name := SanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidName
	}

	body, mtype, err := sniff(r, name)
	if err != nil {
		return nil, err
	}

	base, ext := SplitName(name)
	publicID := fmt.Sprintf("%s-%d", base, s.now().UnixNano())

	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		UseFilename:    api.Bool(false),
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(false),
		ResourceType:   "auto",
	}

	resp, err := s.cld.Upload.Upload(ctx, body, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to cloudinary: %w", err)
	}
	if resp.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return &StoredFile{
		Name:     publicID + ext,
		Location: resp.SecureURL,
		Mime:     mtype,
		Size:     int64(resp.Bytes),
	}, nil
}

func (s *cloudinaryStore) Delete(ctx context.Context, location string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary storage is not initialized")
	}

	resourceType, publicID := extractPublicID(location)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", location)
	}

	// Invalidate: true helps to clear CDN cache
	params := uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	}

	resp, err := s.cld.Upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to delete file from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

// extractPublicID returns the resource type and public ID of a delivery URL.
// Example: https://res.cloudinary.com/demo/raw/upload/v123/folder/notes.pdf -> raw, folder/notes
func extractPublicID(fileURL string) (string, string) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", ""
	}

	parts := strings.Split(u.Path, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}

	if uploadIndex < 1 || uploadIndex+1 >= len(parts) {
		return "", ""
	}
	resourceType := parts[uploadIndex-1]

	relevantParts := parts[uploadIndex+1:]
	if len(relevantParts) > 0 && isVersion(relevantParts[0]) {
		relevantParts = relevantParts[1:]
	}
	if len(relevantParts) == 0 {
		return "", ""
	}

	publicIDWithExt := strings.Join(relevantParts, "/")
	if resourceType == "raw" {
		// raw assets keep their extension in the public ID
		return resourceType, publicIDWithExt
	}
	return resourceType, strings.TrimSuffix(publicIDWithExt, filepath.Ext(publicIDWithExt))
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
