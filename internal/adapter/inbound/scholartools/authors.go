package scholartools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

func searchAuthorsTool() usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "search_authors",
			Description: "Search for authors in Semantic Scholar by name. " +
				"Returns information about matching authors including their publications, h-index, and citation count.",
			Args: []domain.ArgSpec{
				{Name: "author_name", Type: domain.ArgString, Required: true, Description: "Author name to search for"},
				{Name: "limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(50), Default: 10, Description: "Maximum number of results to return"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointAuthorSearch},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			name := call.Args.String("author_name")
			limit, _ := call.Args.Int("limit")
			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint: domain.EndpointAuthorSearch,
				Query: map[string]any{
					"query":  name,
					"limit":  limit,
					"fields": authorFields,
				},
			})
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}
			return formatAuthorSearch(name, gjson.ParseBytes(raw)), nil
		},
	}
}

func formatAuthorSearch(query string, data gjson.Result) string {
	authors := data.Get("data").Array()
	if len(authors) == 0 {
		return fmt.Sprintf("No authors found matching '%s'.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Author Search Results for '%s'\n\n", query)
	fmt.Fprintf(&sb, "Found %s authors. Showing top %d:\n\n", commas(data.Get("total").Int()), len(authors))
	for i, a := range authors {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, text(a.Get("name"), "Unknown"))
		writeAuthorProfile(&sb, a)
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}

// writeAuthorProfile renders aliases, affiliations, metrics and links.
func writeAuthorProfile(sb *strings.Builder, a gjson.Result) {
	if aliases := strs(a.Get("aliases")); len(aliases) > 0 {
		fmt.Fprintf(sb, "**Also known as:** %s\n", strings.Join(aliases, ", "))
	}
	if aff := strs(a.Get("affiliations")); len(aff) > 0 {
		fmt.Fprintf(sb, "**Affiliations:** %s\n", strings.Join(aff, ", "))
	}

	sb.WriteString("**Metrics:**\n")
	fmt.Fprintf(sb, "- H-index: %s\n", text(a.Get("hIndex"), "N/A"))
	fmt.Fprintf(sb, "- Total Citations: %s\n", count(a.Get("citationCount")))
	fmt.Fprintf(sb, "- Publications: %s\n", count(a.Get("paperCount")))

	if home := a.Get("homepage").String(); home != "" {
		fmt.Fprintf(sb, "**Homepage:** [%s](%s)\n", home, home)
	}
	if u := a.Get("url").String(); u != "" {
		fmt.Fprintf(sb, "**Semantic Scholar Profile:** [View Profile](%s)\n", u)
	} else if id := a.Get("authorId").String(); id != "" {
		fmt.Fprintf(sb, "**Semantic Scholar Profile:** [View Profile](%s%s)\n", authorURL, id)
	}
}

func authorDetailsTool() usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "get_author_details",
			Description: "Get a Semantic Scholar author profile by author ID, " +
				"including metrics, affiliations and their most recent papers.",
			Args: []domain.ArgSpec{
				{Name: "author_id", Type: domain.ArgString, Required: true, Description: "Semantic Scholar author ID"},
				{Name: "paper_limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(100), Default: 10, Description: "Maximum number of papers to list"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointAuthor},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			limit, _ := call.Args.Int("paper_limit")
			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointAuthor,
				PathParams: map[string]string{"author_id": strings.TrimSpace(call.Args.String("author_id"))},
				Query: map[string]any{
					"fields": with(authorFields, fmt.Sprintf("papers.limit(%d)", limit)),
				},
			})
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}
			return formatAuthorDetails(gjson.ParseBytes(raw), limit), nil
		},
	}
}

func formatAuthorDetails(a gjson.Result, limit int) string {
	if !a.IsObject() || len(a.Map()) == 0 {
		return "No author found with the provided ID."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", text(a.Get("name"), "Unknown"))
	writeAuthorProfile(&sb, a)

	papers := a.Get("papers").Array()
	if len(papers) > limit {
		papers = papers[:limit]
	}
	if len(papers) == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n## 📚 Papers (%d of %s)\n\n", len(papers), count(a.Get("paperCount")))
	for i, p := range papers {
		fmt.Fprintf(&sb, "%d. **%s** (%s)", i+1, text(p.Get("title"), "Untitled"), text(p.Get("year"), "N/A"))
		if c := p.Get("citationCount"); c.Exists() {
			fmt.Fprintf(&sb, " - %s citations", commas(c.Int()))
		}
		sb.WriteString("\n")
		if link := paperLink(p); link != "" {
			fmt.Fprintf(&sb, "   [View Paper](%s)\n", link)
		}
	}
	return sb.String()
}
