package handlers

import (
	"fmt"
	"html/template"
	"net/url"

	"photo-album/internal/services"
	"photo-album/web"
)

type Handler struct {
	gallery       *services.GalleryService
	maxUploadSize int64
	index         *template.Template
}

func New(gallery *services.GalleryService, maxUploadSize int64) (*Handler, error) {
	index, err := template.New("index.html").
		Funcs(template.FuncMap{"pathEscape": url.PathEscape}).
		ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		gallery:       gallery,
		maxUploadSize: maxUploadSize,
		index:         index,
	}, nil
}
