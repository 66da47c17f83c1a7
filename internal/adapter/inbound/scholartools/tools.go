// Package scholartools defines the MCP tools served by scholarmcp: their
// argument specs, the API requests they make and how results are rendered.
package scholartools

import (
	"log/slog"

	"github.com/i2y/scholarmcp/internal/usecase"
)

// DefaultEnrichmentConcurrency bounds concurrent detail lookups during search
// enrichment when Config leaves it unset.
const DefaultEnrichmentConcurrency = 4

// Config tunes tool behaviour.
type Config struct {
	// Enrichment fetches references, citations and TL;DR for every search
	// result before rendering markdown.
	Enrichment bool

	// EnrichmentConcurrency bounds concurrent enrichment requests.
	EnrichmentConcurrency int
}

// paperFields is requested for paper lookups.
var paperFields = []string{
	"title", "year", "authors", "venue", "citationCount", "externalIds",
	"abstract", "url", "journal", "fieldsOfStudy", "publicationTypes",
	"publicationDate", "referenceCount", "influentialCitationCount",
	"isOpenAccess", "s2FieldsOfStudy", "publicationVenue", "tldr",
}

// searchFields is paperFields without tldr, which the search endpoint does
// not serve. TL;DR reaches search results through enrichment.
var searchFields = paperFields[:len(paperFields)-1 : len(paperFields)-1]

// summaryFields is requested for compact paper listings.
var summaryFields = []string{
	"title", "year", "authors", "venue", "citationCount", "externalIds", "url", "publicationDate",
}

// authorFields is requested for author lookups.
var authorFields = []string{
	"name", "aliases", "affiliations", "homepage", "paperCount", "citationCount", "hIndex", "url",
}

// Tools returns the full tool table in registration order.
func Tools(cfg Config, logger *slog.Logger) []usecase.ToolBinding {
	if cfg.EnrichmentConcurrency <= 0 {
		cfg.EnrichmentConcurrency = DefaultEnrichmentConcurrency
	}
	logger = logger.With("component", "scholartools")

	return []usecase.ToolBinding{
		searchPapersTool(cfg, logger),
		paperDetailsTool(),
		searchAuthorsTool(),
		authorDetailsTool(),
		papersBatchTool(),
		recommendationsTool(),
	}
}

func with(fields []string, extra ...string) []string {
	out := make([]string, 0, len(fields)+len(extra))
	out = append(out, fields...)
	return append(out, extra...)
}
