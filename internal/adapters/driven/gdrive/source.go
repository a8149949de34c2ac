// Package gdrive implements a document source backed by the Google
// Drive v3 API. A scope is a Drive folder id; Google Workspace files
// are exported to plain text and regular text files are downloaded
// directly.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Google Workspace MIME types.
const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeFolder       = "application/vnd.google-apps.folder"
)

const (
	// MaxContentSize caps downloaded and exported content (5MB).
	MaxContentSize = 5 * 1024 * 1024

	// pageSize is the Drive listing page size.
	pageSize = 100

	// Drive allows 10 requests per second per user; stay below it.
	requestsPerSecond = 8.0
	burstSize         = 10
)

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, webViewLink, size, trashed)"

// Config holds settings for one Drive source.
type Config struct {
	// Team labels every document fetched from this source.
	Team string
}

// Source streams files from Google Drive folders.
type Source struct {
	svc    *drive.Service
	bucket *rate.Limiter
	team   string
}

// NewSource creates a Drive document source using the token source for
// authentication.
func NewSource(ctx context.Context, ts oauth2.TokenSource, cfg Config) (*Source, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return newSource(svc, cfg), nil
}

// NewSourceWithService wraps an existing Drive service. Used by tests
// and callers that manage client construction themselves.
func NewSourceWithService(svc *drive.Service, cfg Config) *Source {
	return newSource(svc, cfg)
}

func newSource(svc *drive.Service, cfg Config) *Source {
	return &Source{
		svc:    svc,
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		team:   cfg.Team,
	}
}

// Provider returns the source type identifier.
func (s *Source) Provider() string {
	return "gdrive"
}

// Validate checks connectivity and credentials.
func (s *Source) Validate(ctx context.Context) error {
	if err := s.bucket.Wait(ctx); err != nil {
		return err
	}
	_, err := s.svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// FetchSince streams files in the folder modified after since. A zero
// since fetches the whole folder.
func (s *Source) FetchSince(ctx context.Context, scope string, since time.Time) (<-chan domain.RemoteDocument, <-chan error) {
	docs := make(chan domain.RemoteDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		query := folderQuery(scope)
		if !since.IsZero() {
			query += fmt.Sprintf(" and modifiedTime > '%s'", since.UTC().Format(time.RFC3339))
		}

		pageToken := ""
		for {
			if err := s.bucket.Wait(ctx); err != nil {
				errs <- err
				return
			}

			call := s.svc.Files.List().
				Q(query).
				Fields(listFields).
				OrderBy("modifiedTime").
				PageSize(pageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			page, err := call.Do()
			if err != nil {
				errs <- fmt.Errorf("%w: list files: %v", domain.ErrSourceUnavailable, err)
				return
			}

			for _, file := range page.Files {
				if file.MimeType == mimeFolder || file.Trashed {
					continue
				}
				doc, err := s.toRemoteDocument(ctx, file)
				if err != nil {
					errs <- err
					return
				}
				select {
				case docs <- doc:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}

			if page.NextPageToken == "" {
				return
			}
			pageToken = page.NextPageToken
		}
	}()

	return docs, errs
}

// ListSourceIDs returns the ids of every file currently in the folder.
func (s *Source) ListSourceIDs(ctx context.Context, scope string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		if err := s.bucket.Wait(ctx); err != nil {
			return nil, err
		}

		call := s.svc.Files.List().
			Q(folderQuery(scope)).
			Fields("nextPageToken, files(id, mimeType, trashed)").
			PageSize(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list files: %v", domain.ErrSourceUnavailable, err)
		}

		for _, file := range page.Files {
			if file.MimeType == mimeFolder || file.Trashed {
				continue
			}
			ids = append(ids, file.Id)
		}

		if page.NextPageToken == "" {
			return ids, nil
		}
		pageToken = page.NextPageToken
	}
}

func (s *Source) toRemoteDocument(ctx context.Context, file *drive.File) (domain.RemoteDocument, error) {
	content, err := s.fetchContent(ctx, file)
	if err != nil {
		return domain.RemoteDocument{}, fmt.Errorf("%w: fetch %s: %v", domain.ErrSourceUnavailable, file.Id, err)
	}

	updated, err := time.Parse(time.RFC3339, file.ModifiedTime)
	if err != nil {
		updated = time.Now().UTC()
	}

	return domain.RemoteDocument{
		SourceID:  file.Id,
		Title:     file.Name,
		URL:       file.WebViewLink,
		Content:   content,
		Team:      s.team,
		UpdatedAt: updated,
	}, nil
}

// fetchContent exports Workspace files to text and downloads plain
// text files directly. Binary and oversized files sync metadata only.
func (s *Source) fetchContent(ctx context.Context, file *drive.File) (string, error) {
	if err := s.bucket.Wait(ctx); err != nil {
		return "", err
	}

	switch file.MimeType {
	case mimeGoogleDoc, mimeGoogleSlides:
		return s.export(ctx, file.Id, "text/plain")
	case mimeGoogleSheet:
		return s.export(ctx, file.Id, "text/csv")
	}

	if !isTextMIME(file.MimeType) || file.Size > MaxContentSize {
		return "", nil
	}

	resp, err := s.svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return readBody(resp)
}

func (s *Source) export(ctx context.Context, fileID, mimeType string) (string, error) {
	resp, err := s.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return readBody(resp)
}

func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func folderQuery(scope string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", strings.TrimSpace(scope))
}

func isTextMIME(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}
