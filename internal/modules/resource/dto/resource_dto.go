package dto

import "anoa.com/tutorhub/internal/entity"

type LinkInput struct {
	Title       string `json:"title" form:"title" binding:"required,max=120"`
	Subject     string `json:"subject" form:"subject" binding:"omitempty,max=80"`
	URL         string `json:"url" form:"url" binding:"required,url,max=2048"`
	Description string `json:"description" form:"description" binding:"max=5000"`
}

type FileInput struct {
	Title       string `json:"title" form:"title" binding:"omitempty,max=120"`
	Subject     string `json:"subject" form:"subject" binding:"omitempty,max=80"`
	Description string `json:"description" form:"description" binding:"max=5000"`
}

// UploadInput is the multipart form of POST /resources. Link is optional
// and files come from the "files" parts.
type UploadInput struct {
	Title       string `form:"title" binding:"omitempty,max=120"`
	Subject     string `form:"subject" binding:"omitempty,max=80"`
	Description string `form:"description" binding:"max=5000"`
	Link        string `form:"link" binding:"omitempty,url,max=2048"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"required,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type UploadResult struct {
	Resources []entity.Resource `json:"resources"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// OpenResult says how to deliver a stored file: either a local Path to
// stream or a RedirectURL for remote stores.
type OpenResult struct {
	Name        string
	Mime        string
	Path        string
	RedirectURL string
}
