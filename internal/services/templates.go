package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scribeworks/scribe/internal/api"
)

// TemplateService wraps the template CRUD endpoints.
type TemplateService struct {
	client *api.Client
	root   string
}

// NewTemplateService creates a template service rooted at the given endpoint
// prefix (e.g. "/templates").
func NewTemplateService(client *api.Client, root string) *TemplateService {
	if root == "" {
		root = "/templates"
	}
	return &TemplateService{client: client, root: root}
}

// List retrieves all of the user's templates.
func (s *TemplateService) List(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := s.client.Get(ctx, s.root+"/", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Create stores a new template.
func (s *TemplateService) Create(ctx context.Context, name, content string) (*Template, error) {
	var template Template
	body := map[string]string{"name": name, "content": content}
	if err := s.client.Post(ctx, s.root+"/", body, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// Update replaces a template's name and content.
func (s *TemplateService) Update(ctx context.Context, id, name, content string) (*Template, error) {
	var template Template
	endpoint := fmt.Sprintf("%s/%s/", s.root, url.PathEscape(id))
	body := map[string]string{"name": name, "content": content}
	if err := s.client.Put(ctx, endpoint, body, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s/", s.root, url.PathEscape(id))
	return s.client.Delete(ctx, endpoint, nil)
}
