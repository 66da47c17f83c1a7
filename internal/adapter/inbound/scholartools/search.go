package scholartools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

const noPapersFound = "No papers found matching your search criteria."

// enrichFields adds a handful of references and citations to paperFields.
var enrichFields = with(paperFields, "references.limit(5)", "citations.limit(5)")

func searchPapersTool(cfg Config, logger *slog.Logger) usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "search_papers_via_semanticscholar",
			Description: "Search for academic papers and research articles across multiple disciplines using Semantic Scholar's database. " +
				"Returns detailed results with titles, authors, abstracts, citations, fields of study, and more. " +
				`Example advanced_filters: '{"venue":"Nature", "fields_of_study":["Computer Science"], "min_citation_count":10, "is_open_access":true}'`,
			Args: []domain.ArgSpec{
				{Name: "keyword", Type: domain.ArgString, Required: true, Description: "Search query for academic papers (e.g., 'quantum computing')"},
				{Name: "limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(100), Default: 10, Description: "Maximum number of results to return"},
				{Name: "year_from", Type: domain.ArgInteger, Min: domain.Bound(0), Description: "Filter papers from this year onwards"},
				{Name: "year_to", Type: domain.ArgInteger, Min: domain.Bound(0), Description: "Filter papers up to this year"},
				{Name: "sort_by", Type: domain.ArgString, Enum: []string{"relevance", "citationCount", "year"}, Default: "relevance", Description: "Sort results by: relevance, citationCount, year"},
				{Name: "advanced_filters", Type: domain.ArgString, Description: "JSON string with advanced filters (venue, fields_of_study, publication_types, min_citation_count, is_open_access)"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointPaperSearch, domain.EndpointPaper},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			raw, err := api.Send(ctx, searchRequest(call.Args, logger))
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}

			papers := gjson.GetBytes(raw, "data").Array()
			if len(papers) == 0 {
				return noPapersFound, nil
			}
			var details map[string]gjson.Result
			if cfg.Enrichment {
				details = enrichPapers(ctx, api, papers, cfg.EnrichmentConcurrency, logger.With("call_id", call.ID))
			}
			return formatSearch(call.Args.String("keyword"), call.Args.String("sort_by"), gjson.ParseBytes(raw), details), nil
		},
	}
}

func searchRequest(args domain.Args, logger *slog.Logger) domain.RequestDescriptor {
	limit, _ := args.Int("limit")
	query := map[string]any{
		"query":  args.String("keyword"),
		"limit":  limit,
		"fields": searchFields,
	}
	if year := yearRange(args); year != "" {
		query["year"] = year
	}
	switch args.String("sort_by") {
	case "citationCount":
		query["sort"] = "citationCount:desc"
	case "year":
		query["sort"] = "year:desc"
	}
	if raw := args.String("advanced_filters"); raw != "" {
		filter, err := searchFilter(raw)
		if err != nil {
			logger.Warn("Ignoring invalid advanced_filters", slog.String("advanced_filters", raw), slog.Any("error", err))
		} else if filter != "" {
			query["filter"] = filter
		}
	}
	return domain.RequestDescriptor{Endpoint: domain.EndpointPaperSearch, Query: query}
}

// yearRange renders year_from/year_to as "from-to", "from-" or "-to".
func yearRange(args domain.Args) string {
	from, hasFrom := args.Int("year_from")
	to, hasTo := args.Int("year_to")
	hasFrom = hasFrom && from > 0
	hasTo = hasTo && to > 0
	switch {
	case hasFrom && hasTo:
		return fmt.Sprintf("%d-%d", from, to)
	case hasFrom:
		return fmt.Sprintf("%d-", from)
	case hasTo:
		return fmt.Sprintf("-%d", to)
	}
	return ""
}

// searchFilter maps the advanced_filters argument onto the API's JSON filter
// object. Falsy values and unknown keys are dropped; "" means no filter.
func searchFilter(raw string) (string, error) {
	if !gjson.Valid(raw) {
		return "", fmt.Errorf("invalid JSON")
	}
	in := gjson.Parse(raw)
	if !in.IsObject() {
		return "", fmt.Errorf("expected a JSON object")
	}

	filter := map[string]any{}
	in.ForEach(func(key, value gjson.Result) bool {
		if !truthy(value) {
			return true
		}
		switch key.String() {
		case "venue":
			filter["venue"] = value.Value()
		case "fields_of_study":
			filter["fieldsOfStudy"] = map[string]any{"$in": value.Value()}
		case "publication_types":
			filter["publicationTypes"] = map[string]any{"$in": value.Value()}
		case "min_citation_count":
			filter["citationCount"] = map[string]any{"$gte": value.Value()}
		case "is_open_access":
			filter["isOpenAccess"] = value.Value()
		}
		return true
	})
	if len(filter) == 0 {
		return "", nil
	}
	out, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	}
	return true
}

// enrichPapers fetches details for every result paper with at most limit
// requests in flight. Failed lookups are logged and left out.
func enrichPapers(ctx context.Context, api usecase.APIClient, papers []gjson.Result, limit int, logger *slog.Logger) map[string]gjson.Result {
	var (
		mu      sync.Mutex
		details = make(map[string]gjson.Result, len(papers))
		g       errgroup.Group
	)
	g.SetLimit(limit)

	for _, p := range papers {
		id := p.Get("paperId").String()
		if id == "" {
			continue
		}
		g.Go(func() error {
			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointPaper,
				PathParams: map[string]string{"paper_id": id},
				Query:      map[string]any{"fields": enrichFields},
			})
			if err != nil {
				logger.Warn("Failed to get details for paper", slog.String("paper_id", id), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			details[id] = gjson.ParseBytes(raw)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug("Enriched search results", slog.Int("requested", len(papers)), slog.Int("enriched", len(details)))
	return details
}

func formatSearch(keyword, sortBy string, data gjson.Result, details map[string]gjson.Result) string {
	papers := data.Get("data").Array()
	if sortBy == "" {
		sortBy = "relevance"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Academic Search Results for '%s'\n\n", keyword)
	fmt.Fprintf(&sb, "📚 Found %s papers. Showing %d results sorted by %s:\n\n", commas(data.Get("total").Int()), len(papers), sortBy)

	for i, p := range papers {
		refs, cites, tldr := p.Get("references"), p.Get("citations"), p.Get("tldr")
		if d, ok := details[p.Get("paperId").String()]; ok {
			refs, cites, tldr = d.Get("references"), d.Get("citations"), d.Get("tldr")
		}
		writeSearchResult(&sb, i+1, p, refs, cites, tldr)
	}

	sb.WriteString("\n## 📥 Export Options\n\n")
	sb.WriteString("To cite these papers in your research, you can use the following formats:\n\n")
	sb.WriteString("- **APA**: Author, A. A., & Author, B. B. (Year). Title of article. *Journal Title*, Volume(Issue), page range. https://doi.org/xxxx\n")
	sb.WriteString("- **MLA**: Author Surname, First Name. \"Title of Article.\" *Journal Title*, vol. number, no. number, Year, pp. range. DOI or URL.\n")
	sb.WriteString("- **Chicago**: Author Surname, First Name. Year. \"Title of Article.\" *Journal Title* Volume, no. Issue (Year): Page range. DOI or URL.\n\n")
	sb.WriteString("For full APA, MLA and BibTeX citations of a single paper, use get_paper_details with its paper ID or DOI.\n")
	return sb.String()
}

func writeSearchResult(sb *strings.Builder, n int, p, refs, cites, tldr gjson.Result) {
	types := ""
	if t := strs(p.Get("publicationTypes")); len(t) > 0 {
		types = " [" + strings.Join(t[:min(2, len(t))], ", ") + "]"
	}
	fmt.Fprintf(sb, "## %d. %s (%s)%s\n\n", n, text(p.Get("title"), "Untitled"), text(p.Get("year"), "N/A"), types)

	if authors := p.Get("authors"); len(authors.Array()) > 0 {
		fmt.Fprintf(sb, "👥 **Authors:** %s\n\n", authorLinks(authors, 5))
	}

	journal := p.Get("journal.name").String()
	venue := p.Get("venue").String()
	if journal != "" {
		fmt.Fprintf(sb, "📍 **Journal:** %s\n", journal)
	} else if venue != "" {
		fmt.Fprintf(sb, "📍 **Venue:** %s\n", venue)
	}
	if date := p.Get("publicationDate").String(); date != "" {
		fmt.Fprintf(sb, "📅 **Published:** %s\n", publishedDate(date))
	}

	fmt.Fprintf(sb, "📊 **Citations:** %s total", commas(p.Get("citationCount").Int()))
	if influential := p.Get("influentialCitationCount").Int(); influential != 0 {
		fmt.Fprintf(sb, ", %s influential", commas(influential))
	}
	fmt.Fprintf(sb, "\n📚 **References:** %s\n", commas(p.Get("referenceCount").Int()))

	if fields := strs(p.Get("fieldsOfStudy")); len(fields) > 0 {
		fmt.Fprintf(sb, "🔬 **Fields:** %s\n", strings.Join(fields, ", "))
	}
	fmt.Fprintf(sb, "🔓 **Open Access:** %s\n", yesNo(p.Get("isOpenAccess").Bool()))

	if ids := externalIDs(p.Get("externalIds")); len(ids) > 0 {
		fmt.Fprintf(sb, "🔗 **Identifiers:** %s\n", strings.Join(ids, ", "))
	}
	if t := tldr.Get("text").String(); t != "" {
		fmt.Fprintf(sb, "💡 **TL;DR:** %s\n", t)
	}
	if abstract := p.Get("abstract").String(); abstract != "" {
		fmt.Fprintf(sb, "\n📝 **Abstract:**\n%s\n", abstract)
	}

	writeKeyPapers(sb, "📣 **Key Citations:**", cites)
	writeKeyPapers(sb, "📚 **Key References:**", refs)

	if u := p.Get("url").String(); u != "" {
		fmt.Fprintf(sb, "\n🌐 **Full Paper:** [View on Semantic Scholar](%s)\n", u)
	} else if id := p.Get("paperId").String(); id != "" {
		fmt.Fprintf(sb, "\n🌐 **Paper Link:** [View on Semantic Scholar](%s%s)\n", paperURL, id)
	}

	sb.WriteString("\n📋 **Citation:**\n```\n")
	fmt.Fprintf(sb, "%s. (%s). %s. ", authorNames(p.Get("authors"), 6), text(p.Get("year"), "n.d."), text(p.Get("title"), "Untitled"))
	if journal == "" {
		journal = venue
	}
	if journal != "" {
		fmt.Fprintf(sb, "%s. ", journal)
	}
	if doi := p.Get("externalIds.DOI").String(); doi != "" {
		sb.WriteString(doiURL + doi)
	}
	sb.WriteString("\n```\n")
	sb.WriteString("\n---\n\n")
}

// writeKeyPapers lists the first three entries of a citations or references
// array.
func writeKeyPapers(sb *strings.Builder, heading string, list gjson.Result) {
	items := list.Array()
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s\n", heading)
	for i, item := range items[:min(3, len(items))] {
		fmt.Fprintf(sb, "%d. %s (%s) - %s\n", i+1, text(item.Get("title"), "Untitled"), text(item.Get("year"), "N/A"), authorNames(item.Get("authors"), 3))
	}
}

// externalIDs renders the linkable identifiers of a paper.
func externalIDs(ext gjson.Result) []string {
	var ids []string
	if doi := ext.Get("DOI").String(); doi != "" {
		ids = append(ids, fmt.Sprintf("DOI: [%s](%s%s)", doi, doiURL, doi))
	}
	if arxiv := ext.Get("ArXiv").String(); arxiv != "" {
		ids = append(ids, fmt.Sprintf("arXiv: [%s](%s%s)", arxiv, arxivURL, arxiv))
	}
	if pubmed := ext.Get("PubMed").String(); pubmed != "" {
		ids = append(ids, "PubMed: "+pubmed)
	}
	if corpus := ext.Get("CorpusId"); corpus.Exists() && corpus.String() != "" {
		ids = append(ids, "Corpus ID: "+corpus.String())
	}
	return ids
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
