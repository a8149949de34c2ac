package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
)

var _ driving.Documents = (*DocumentService)(nil)

// DocumentService reads the cached document store.
type DocumentService struct {
	store driven.DocumentStore
}

// NewDocumentService creates a document read service.
func NewDocumentService(store driven.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// Get retrieves a document by local id, falling back to URL lookup when
// the reference looks like one or the id is unknown.
func (d *DocumentService) Get(ctx context.Context, ref string) (*domain.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: document reference is required", domain.ErrInvalidInput)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return d.store.GetDocumentByURL(ctx, ref)
	}

	doc, err := d.store.GetDocument(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return d.store.GetDocumentByURL(ctx, ref)
	}
	return doc, err
}

// List returns cached document summaries matching the filters.
func (d *DocumentService) List(ctx context.Context, filters domain.SearchFilters) ([]domain.Document, error) {
	return d.store.ListDocuments(ctx, filters)
}
