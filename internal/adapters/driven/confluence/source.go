package confluence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// cqlTimeLayout is the timestamp format CQL accepts in lastmodified
// comparisons. Minute precision only, so callers overlap rather than
// miss updates on the boundary.
const cqlTimeLayout = "2006/01/02 15:04"

// Source streams Confluence pages for one or more space keys.
type Source struct {
	client *client
	team   string
}

// NewSource creates a Confluence document source.
func NewSource(cfg Config) *Source {
	return &Source{
		client: newClient(cfg),
		team:   cfg.Team,
	}
}

// Provider returns the source type identifier.
func (s *Source) Provider() string {
	return "confluence"
}

// Validate checks connectivity and credentials.
func (s *Source) Validate(ctx context.Context) error {
	return s.client.currentUser(ctx)
}

// FetchSince streams pages in the space modified after since. A zero
// since fetches the whole space.
func (s *Source) FetchSince(ctx context.Context, scope string, since time.Time) (<-chan domain.RemoteDocument, <-chan error) {
	docs := make(chan domain.RemoteDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		cql := scopeQuery(scope)
		if !since.IsZero() {
			cql += fmt.Sprintf(` and lastmodified >= "%s"`, since.UTC().Format(cqlTimeLayout))
		}
		cql += " order by lastmodified asc"

		start := 0
		for {
			page, err := s.client.search(ctx, cql, start, PageLimit, "body.storage,version,metadata.labels")
			if err != nil {
				errs <- err
				return
			}

			for _, res := range page.Results {
				doc := s.toRemoteDocument(res)
				select {
				case docs <- doc:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}

			if page.Size < page.Limit {
				return
			}
			start += page.Size
		}
	}()

	return docs, errs
}

// ListSourceIDs returns the ids of every page currently in the space.
func (s *Source) ListSourceIDs(ctx context.Context, scope string) ([]string, error) {
	var ids []string
	start := 0
	for {
		page, err := s.client.search(ctx, scopeQuery(scope), start, PageLimit, "")
		if err != nil {
			return nil, err
		}
		for _, res := range page.Results {
			ids = append(ids, res.ID)
		}
		if page.Size < page.Limit {
			return ids, nil
		}
		start += page.Size
	}
}

func (s *Source) toRemoteDocument(res contentResult) domain.RemoteDocument {
	var tags []string
	for _, label := range res.Metadata.Labels.Results {
		if label.Name != "" {
			tags = append(tags, label.Name)
		}
	}

	docURL := res.Links.WebUI
	if docURL != "" && !strings.HasPrefix(docURL, "http") {
		docURL = s.client.baseURL + docURL
	}

	return domain.RemoteDocument{
		SourceID:  res.ID,
		Title:     res.Title,
		URL:       docURL,
		Content:   storageToText(res.Body.Storage.Value),
		Team:      s.team,
		Tags:      tags,
		UpdatedAt: res.Version.When,
	}
}

// scopeQuery builds the CQL filter for one space. Quotes are stripped
// from the scope so it cannot break out of the quoted literal; space
// keys never contain them anyway.
func scopeQuery(scope string) string {
	key := strings.ReplaceAll(strings.TrimSpace(scope), `"`, ``)
	return fmt.Sprintf(`space = "%s" and type = page`, key)
}
