package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/resource/dto"
	resourceRepo "anoa.com/tutorhub/internal/modules/resource/repository"
	search "anoa.com/tutorhub/internal/modules/search/service"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/storage"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultSubject     = "misc"
	defaultSearchLimit = 20
	orphanMaxAge       = 24 * time.Hour
)

var allowedExt = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".ppt": {}, ".pptx": {}, ".xls": {}, ".xlsx": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".mp4": {}, ".mov": {}, ".m4v": {},
	".mp3": {}, ".wav": {}, ".txt": {}, ".csv": {},
}

// Allowed reports whether filename has an accepted extension.
func Allowed(filename string) bool {
	_, ok := allowedExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

type ResourceService interface {
	AddLinkResource(ctx context.Context, ownerID uuid.UUID, input dto.LinkInput) (*entity.Resource, error)
	AddFileResource(ctx context.Context, ownerID uuid.UUID, input dto.FileInput, r io.Reader, filename string) (*entity.Resource, error)
	Upload(ctx context.Context, ownerID uuid.UUID, input dto.UploadInput, files []*multipart.FileHeader) (*dto.UploadResult, error)
	ListResources(ctx context.Context, ownerID uuid.UUID) ([]entity.Resource, error)
	Search(ctx context.Context, ownerID uuid.UUID, query dto.SearchQuery) ([]entity.Resource, error)
	Open(ctx context.Context, filename string) (*dto.OpenResult, error)
	CleanupOrphanFiles(ctx context.Context) (int, error)
}

type resourceService struct {
	repo      resourceRepo.ResourceRepository
	files     storage.FileStore
	index     search.ResourceIndex
	sanitizer *bluemonday.Policy
	maxBytes  int64
	log       *logger.Logger
}

// NewResourceService wires the catalog. index may be nil; maxBytes <= 0
// disables the per-file size check.
func NewResourceService(repo resourceRepo.ResourceRepository, files storage.FileStore, index search.ResourceIndex, maxBytes int64, log *logger.Logger) ResourceService {
	return &resourceService{
		repo:      repo,
		files:     files,
		index:     index,
		sanitizer: bluemonday.StrictPolicy(),
		maxBytes:  maxBytes,
		log:       log,
	}
}

func (s *resourceService) AddLinkResource(ctx context.Context, ownerID uuid.UUID, input dto.LinkInput) (*entity.Resource, error) {
	input.Title = s.clean(input.Title)
	input.Description = s.clean(input.Description)
	input.URL = strings.TrimSpace(input.URL)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := checkLink(input.URL); err != nil {
		return nil, err
	}

	res := newLink(ownerID, input.Title, input.Subject, input.Description, input.URL)
	if err := s.repo.CreateBatch(ctx, []*entity.Resource{res}); err != nil {
		return nil, apperror.Storage(err)
	}
	s.indexAll(ctx, res)
	return res, nil
}

func (s *resourceService) AddFileResource(ctx context.Context, ownerID uuid.UUID, input dto.FileInput, r io.Reader, filename string) (*entity.Resource, error) {
	input.Title = s.clean(input.Title)
	input.Description = s.clean(input.Description)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	safe := storage.SanitizeFilename(filename)
	if safe == "" || !Allowed(safe) {
		return nil, apperror.ErrUnsupportedFileType
	}

	stored, err := s.files.Save(ctx, r, safe)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	res := newFile(ownerID, input.Title, input.Subject, input.Description, stored)
	if err := s.repo.CreateBatch(ctx, []*entity.Resource{res}); err != nil {
		s.discard(ctx, stored)
		return nil, apperror.Storage(err)
	}
	s.indexAll(ctx, res)
	return res, nil
}

// Upload handles the combined form: an optional link plus any number of
// files. Rejected files become warnings; the rest are committed together.
func (s *resourceService) Upload(ctx context.Context, ownerID uuid.UUID, input dto.UploadInput, files []*multipart.FileHeader) (*dto.UploadResult, error) {
	input.Title = s.clean(input.Title)
	input.Description = s.clean(input.Description)
	input.Link = strings.TrimSpace(input.Link)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if input.Link == "" && len(files) == 0 {
		return nil, apperror.Invalid("files", "Add a link or choose at least one file")
	}

	result := &dto.UploadResult{}
	var pending []*entity.Resource

	if input.Link != "" {
		if err := checkLink(input.Link); err != nil {
			return nil, err
		}
		title := input.Title
		if title == "" {
			title = truncate(input.Link, 120)
		}
		pending = append(pending, newLink(ownerID, title, input.Subject, input.Description, input.Link))
	}

	var written []*storage.StoredFile
	for _, fh := range files {
		stored, warning, err := s.saveUpload(ctx, fh)
		if err != nil {
			s.discard(ctx, written...)
			return nil, apperror.Storage(err)
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		written = append(written, stored)

		title := input.Title
		if title == "" || len(files) > 1 {
			title = truncate(stored.Name, 120)
		}
		pending = append(pending, newFile(ownerID, title, input.Subject, input.Description, stored))
	}

	if len(pending) == 0 {
		return nil, apperror.New(http.StatusUnsupportedMediaType, strings.Join(result.Warnings, "; "), apperror.ErrUnsupportedFileType)
	}

	if err := s.repo.CreateBatch(ctx, pending); err != nil {
		s.discard(ctx, written...)
		return nil, apperror.Storage(err)
	}

	s.indexAll(ctx, pending...)
	result.Resources = make([]entity.Resource, 0, len(pending))
	for _, res := range pending {
		result.Resources = append(result.Resources, *res)
	}

	s.log.Info("resources uploaded", "owner_id", ownerID, "count", len(pending), "warnings", len(result.Warnings))
	return result, nil
}

func (s *resourceService) saveUpload(ctx context.Context, fh *multipart.FileHeader) (*storage.StoredFile, string, error) {
	safe := storage.SanitizeFilename(fh.Filename)
	if safe == "" || !Allowed(safe) {
		return nil, fmt.Sprintf("%s: file type not allowed", displayName(fh.Filename)), nil
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return nil, fmt.Sprintf("%s: file is larger than %d MB", displayName(fh.Filename), s.maxBytes>>20), nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	stored, err := s.files.Save(ctx, f, safe)
	if err != nil {
		return nil, "", err
	}
	return stored, "", nil
}

func (s *resourceService) ListResources(ctx context.Context, ownerID uuid.UUID) ([]entity.Resource, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return rows, nil
}

func (s *resourceService) Search(ctx context.Context, ownerID uuid.UUID, query dto.SearchQuery) ([]entity.Resource, error) {
	query.Q = strings.TrimSpace(query.Q)
	if err := validator.Struct(query); err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, ownerID, query.Q, limit)
		if err == nil {
			rows, err := s.repo.FindByIDs(ctx, ownerID, ids)
			if err != nil {
				return nil, apperror.Storage(err)
			}
			return rows, nil
		}
		s.log.Warn("search index unavailable, falling back to database", "error", err)
	}

	rows, err := s.repo.Search(ctx, ownerID, query.Q, limit)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return rows, nil
}

func (s *resourceService) Open(ctx context.Context, filename string) (*dto.OpenResult, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return nil, apperror.ErrNotFound
	}

	res, err := s.repo.FindByStoredName(ctx, filename)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	out := &dto.OpenResult{Name: filename}
	if res.Mime != nil {
		out.Mime = *res.Mime
	}

	if local, ok := s.files.(*storage.LocalStore); ok {
		path, err := local.Resolve(filename)
		if err != nil {
			return nil, apperror.ErrNotFound
		}
		out.Path = path
		return out, nil
	}

	if res.Path == nil || *res.Path == "" {
		return nil, apperror.ErrNotFound
	}
	out.RedirectURL = *res.Path
	return out, nil
}

// CleanupOrphanFiles removes local files older than a day that no resource
// references. Remote stores are left alone.
func (s *resourceService) CleanupOrphanFiles(ctx context.Context) (int, error) {
	local, ok := s.files.(*storage.LocalStore)
	if !ok {
		return 0, nil
	}
	return local.Sweep(ctx, orphanMaxAge, func(name string) (bool, error) {
		return s.repo.StoredNameExists(ctx, name)
	})
}

func (s *resourceService) indexAll(ctx context.Context, resources ...*entity.Resource) {
	if s.index == nil {
		return
	}
	for _, res := range resources {
		if err := s.index.IndexResource(ctx, res); err != nil {
			s.log.Warn("failed to index resource", "resource_id", res.ID, "error", err)
		}
	}
}

func (s *resourceService) discard(ctx context.Context, files ...*storage.StoredFile) {
	for _, f := range files {
		if err := s.files.Delete(ctx, f.Location); err != nil {
			s.log.Warn("failed to remove uncommitted upload", "name", f.Name, "error", err)
		}
	}
}

func (s *resourceService) clean(v string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(v))
}

func checkLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperror.Invalid("url", "URL must be an absolute http or https address")
	}
	return nil
}

func newLink(ownerID uuid.UUID, title, subject, description, link string) *entity.Resource {
	return &entity.Resource{
		OwnerID:     ownerID,
		Title:       title,
		Subject:     subjectOrDefault(subject),
		Type:        entity.ResourceTypeLink,
		Description: description,
		URL:         &link,
	}
}

func newFile(ownerID uuid.UUID, title, subject, description string, stored *storage.StoredFile) *entity.Resource {
	if title == "" {
		title = truncate(stored.Name, 120)
	}
	name, location, mime, size := stored.Name, stored.Location, stored.Mime, stored.Size
	return &entity.Resource{
		OwnerID:     ownerID,
		Title:       title,
		Subject:     subjectOrDefault(subject),
		Type:        entity.ResourceTypeFile,
		Description: description,
		StoredName:  &name,
		Path:        &location,
		Mime:        &mime,
		Size:        &size,
	}
}

func subjectOrDefault(subject string) string {
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	return defaultSubject
}

func displayName(name string) string {
	if base := filepath.Base(strings.ReplaceAll(name, "\\", "/")); base != "." && base != "/" {
		return base
	}
	return "file"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
