package scholartools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

const noPaperFound = "No paper found with the provided ID or DOI."

func paperDetailsTool() usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "get_paper_details",
			Description: "Get detailed information about a specific academic paper using its Semantic Scholar ID or DOI. " +
				"Returns comprehensive metadata, abstract, citations, references, and citation formats.",
			Args: []domain.ArgSpec{
				{Name: "paper_id", Type: domain.ArgString, Required: true, Description: "Semantic Scholar Paper ID or DOI"},
				{Name: "include_references", Type: domain.ArgBoolean, Default: true, Description: "Include paper references"},
				{Name: "include_citations", Type: domain.ArgBoolean, Default: true, Description: "Include paper citations"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointPaper},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			withRefs := call.Args.Bool("include_references")
			withCites := call.Args.Bool("include_citations")

			fields := with(paperFields)
			if withRefs {
				fields = append(fields, "references.limit(20)")
			}
			if withCites {
				fields = append(fields, "citations.limit(20)")
			}

			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointPaper,
				PathParams: map[string]string{"paper_id": normalizePaperID(call.Args.String("paper_id"))},
				Query:      map[string]any{"fields": fields},
			})
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}

			data := gjson.ParseBytes(raw)
			if !data.IsObject() || len(data.Map()) == 0 {
				return noPaperFound, nil
			}
			return formatPaperDetails(data, withRefs, withCites), nil
		},
	}
}

func formatPaperDetails(p gjson.Result, withRefs, withCites bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", text(p.Get("title"), "Untitled Paper"))
	types := ""
	if t := strs(p.Get("publicationTypes")); len(t) > 0 {
		types = " [" + strings.Join(t, ", ") + "]"
	}
	fmt.Fprintf(&sb, "**Published:** %s%s\n\n", text(p.Get("year"), "N/A"), types)

	if authors := p.Get("authors").Array(); len(authors) > 0 {
		sb.WriteString("## 👥 Authors\n\n")
		for _, a := range authors {
			name := text(a.Get("name"), "Unknown")
			if id := a.Get("authorId").String(); id != "" {
				fmt.Fprintf(&sb, "- [%s](%s%s)", name, authorURL, id)
			} else {
				fmt.Fprintf(&sb, "- %s", name)
			}
			if aff := strs(a.Get("affiliations")); len(aff) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(aff, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	journal := p.Get("journal")
	if name := journal.Get("name").String(); name != "" {
		fmt.Fprintf(&sb, "**Journal:** %s\n", name)
		if vol := journal.Get("volume").String(); vol != "" {
			fmt.Fprintf(&sb, "**Volume:** %s", vol)
			if pages := journal.Get("pages").String(); pages != "" {
				fmt.Fprintf(&sb, ", Pages: %s", pages)
			}
			sb.WriteString("\n")
		}
	} else if venue := p.Get("venue").String(); venue != "" {
		fmt.Fprintf(&sb, "**Publication Venue:** %s\n", venue)
	}

	citations := p.Get("citationCount").Int()
	references := p.Get("referenceCount").Int()
	sb.WriteString("## 📊 Impact Metrics\n\n")
	fmt.Fprintf(&sb, "- **Total Citations:** %s\n", commas(citations))
	fmt.Fprintf(&sb, "- **Influential Citations:** %s\n", commas(p.Get("influentialCitationCount").Int()))
	fmt.Fprintf(&sb, "- **References:** %s\n", commas(references))
	if p.Get("isOpenAccess").Bool() {
		sb.WriteString("- **Open Access:** Yes ✓\n\n")
	} else {
		sb.WriteString("- **Open Access:** No ✗\n\n")
	}

	if ext := p.Get("externalIds"); ext.IsObject() && len(ext.Map()) > 0 {
		sb.WriteString("## 🔗 Identifiers\n\n")
		if doi := ext.Get("DOI").String(); doi != "" {
			fmt.Fprintf(&sb, "- **DOI:** [%s](%s%s)\n", doi, doiURL, doi)
		}
		if arxiv := ext.Get("ArXiv").String(); arxiv != "" {
			fmt.Fprintf(&sb, "- **arXiv:** [%s](%s%s)\n", arxiv, arxivURL, arxiv)
		}
		for _, id := range []struct{ key, label string }{
			{"PubMed", "PubMed"},
			{"DBLP", "DBLP"},
			{"CorpusId", "Corpus ID"},
		} {
			if v := ext.Get(id.key).String(); v != "" {
				fmt.Fprintf(&sb, "- **%s:** %s\n", id.label, v)
			}
		}
		if id := p.Get("paperId").String(); id != "" {
			fmt.Fprintf(&sb, "- **Semantic Scholar ID:** %s\n", id)
		}
		sb.WriteString("\n")
	}

	if fields := strs(p.Get("fieldsOfStudy")); len(fields) > 0 {
		sb.WriteString("## 🔬 Research Fields\n\n")
		for _, f := range fields {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}
	if tldr := p.Get("tldr.text").String(); tldr != "" {
		fmt.Fprintf(&sb, "## 💡 TL;DR\n\n%s\n\n", tldr)
	}
	if abstract := p.Get("abstract").String(); abstract != "" {
		fmt.Fprintf(&sb, "## 📝 Abstract\n\n%s\n\n", abstract)
	}

	if cites := p.Get("citations").Array(); withCites && len(cites) > 0 {
		fmt.Fprintf(&sb, "## 📣 Key Citations (%d of %s)\n\n", min(len(cites), 20), commas(citations))
		for i, c := range cites {
			fmt.Fprintf(&sb, "### %d. %s (%s) - %s citations\n", i+1, text(c.Get("title"), "Untitled"), text(c.Get("year"), "N/A"), commas(c.Get("citationCount").Int()))
			if authors := c.Get("authors"); len(authors.Array()) > 0 {
				fmt.Fprintf(&sb, "**Authors:** %s\n", authorNames(authors, 5))
			}
			if abstract := c.Get("abstract").String(); abstract != "" {
				fmt.Fprintf(&sb, "**Abstract:** %s\n", truncate(abstract, 200))
			}
			if u := c.Get("url").String(); u != "" {
				fmt.Fprintf(&sb, "[View Paper](%s)\n", u)
			}
			sb.WriteString("\n")
		}
	}

	if refs := p.Get("references").Array(); withRefs && len(refs) > 0 {
		fmt.Fprintf(&sb, "## 📚 References (%d of %s)\n\n", min(len(refs), 20), commas(references))
		for i, r := range refs {
			fmt.Fprintf(&sb, "%d. **%s** (%s)\n", i+1, text(r.Get("title"), "Untitled"), text(r.Get("year"), "N/A"))
			if authors := r.Get("authors"); len(authors.Array()) > 0 {
				fmt.Fprintf(&sb, "   *%s*\n", authorNames(authors, 3))
			}
			if u := r.Get("url").String(); u != "" {
				fmt.Fprintf(&sb, "   [View Paper](%s)\n", u)
			}
			sb.WriteString("\n")
		}
	}

	if u := p.Get("url").String(); u != "" {
		fmt.Fprintf(&sb, "## 🌐 Access\n\n[View Full Paper on Semantic Scholar](%s)\n\n", u)
	}

	sb.WriteString("## 📋 Citation Formats\n\n")
	writeCitationFormats(&sb, newCitation(p))
	return sb.String()
}
