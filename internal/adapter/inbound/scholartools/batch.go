package scholartools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

// maxBatchIDs is the most ids the batch endpoint accepts per request.
const maxBatchIDs = 500

func papersBatchTool() usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "get_papers_batch",
			Description: "Look up several papers at once by Semantic Scholar ID or DOI. " +
				"Returns a compact summary per paper and lists the IDs that were not found.",
			Args: []domain.ArgSpec{
				{Name: "paper_ids", Type: domain.ArgArray, Required: true, MinItems: 1, MaxItems: maxBatchIDs, Description: "Semantic Scholar paper IDs or DOIs"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointPaperBatch},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			requested := call.Args.Strings("paper_ids")
			ids := make([]string, len(requested))
			for i, id := range requested {
				ids[i] = normalizePaperID(id)
			}

			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint: domain.EndpointPaperBatch,
				Query:    map[string]any{"fields": summaryFields},
				Body:     map[string]any{"ids": ids},
			})
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}
			return formatBatch(requested, gjson.ParseBytes(raw)), nil
		},
	}
}

// formatBatch renders batch results. The API answers with one entry per
// requested id, null where the id is unknown.
func formatBatch(requested []string, data gjson.Result) string {
	entries := data.Array()

	var found int
	var missing []string
	for i, e := range entries {
		if e.IsObject() {
			found++
		} else if i < len(requested) {
			missing = append(missing, requested[i])
		}
	}

	var sb strings.Builder
	sb.WriteString("# Paper Batch Results\n\n")
	fmt.Fprintf(&sb, "Found %d of %d requested papers.\n\n", found, len(requested))

	n := 0
	for _, e := range entries {
		if !e.IsObject() {
			continue
		}
		n++
		writePaperSummary(&sb, n, e)
	}

	if len(missing) > 0 {
		sb.WriteString("## Not Found\n\n")
		for _, id := range missing {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
	}
	return sb.String()
}

// writePaperSummary renders the compact form used for batch results and
// recommendations.
func writePaperSummary(sb *strings.Builder, n int, p gjson.Result) {
	fmt.Fprintf(sb, "## %d. %s (%s)\n\n", n, text(p.Get("title"), "Untitled"), text(p.Get("year"), "N/A"))
	if authors := p.Get("authors"); len(authors.Array()) > 0 {
		fmt.Fprintf(sb, "👥 **Authors:** %s\n", authorNames(authors, 3))
	}
	if venue := p.Get("venue").String(); venue != "" {
		fmt.Fprintf(sb, "📍 **Venue:** %s\n", venue)
	}
	if date := p.Get("publicationDate").String(); date != "" {
		fmt.Fprintf(sb, "📅 **Published:** %s\n", publishedDate(date))
	}
	fmt.Fprintf(sb, "📊 **Citations:** %s\n", count(p.Get("citationCount")))
	if ids := externalIDs(p.Get("externalIds")); len(ids) > 0 {
		fmt.Fprintf(sb, "🔗 **Identifiers:** %s\n", strings.Join(ids, ", "))
	}
	if id := p.Get("paperId").String(); id != "" {
		fmt.Fprintf(sb, "🆔 **Paper ID:** %s\n", id)
	}
	if link := paperLink(p); link != "" {
		fmt.Fprintf(sb, "🌐 [View on Semantic Scholar](%s)\n", link)
	}
	sb.WriteString("\n---\n\n")
}
