package handler

import (
	"github.com/blogmirror/internal/search"
	"github.com/blogmirror/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	mirror    *service.MirrorService
	search    *search.Index
	imageDir  string
	avatarDir string
	pageSize  int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(mirror *service.MirrorService, idx *search.Index, imageDir, avatarDir string, pageSize int) *API {
	if pageSize <= 0 {
		pageSize = 30
	}
	return &API{
		mirror:    mirror,
		search:    idx,
		imageDir:  imageDir,
		avatarDir: avatarDir,
		pageSize:  pageSize,
	}
}
