package scholartools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

func recommendationsTool() usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{
			Name: "get_paper_recommendations",
			Description: "Recommend papers related to a given paper (Semantic Scholar ID or DOI). " +
				"The recent pool favours new work; all-cs draws from all computer science papers.",
			Args: []domain.ArgSpec{
				{Name: "paper_id", Type: domain.ArgString, Required: true, Description: "Semantic Scholar Paper ID or DOI"},
				{Name: "limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(100), Default: 10, Description: "Maximum number of recommendations"},
				{Name: "pool", Type: domain.ArgString, Enum: []string{"recent", "all-cs"}, Default: "recent", Description: "Pool of papers to recommend from"},
			},
			Endpoints: []domain.Endpoint{domain.EndpointRecommendations},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			id := call.Args.String("paper_id")
			limit, _ := call.Args.Int("limit")
			pool := call.Args.String("pool")

			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointRecommendations,
				PathParams: map[string]string{"paper_id": normalizePaperID(id)},
				Query: map[string]any{
					"fields": summaryFields,
					"limit":  limit,
					"from":   pool,
				},
			})
			if err != nil {
				return "", err
			}
			if call.Format == usecase.FormatJSON {
				return string(raw), nil
			}
			return formatRecommendations(id, pool, gjson.ParseBytes(raw)), nil
		},
	}
}

func formatRecommendations(id, pool string, data gjson.Result) string {
	papers := data.Get("recommendedPapers").Array()
	if len(papers) == 0 {
		return fmt.Sprintf("No recommendations found for paper '%s'.", id)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Recommended Papers for '%s'\n\n", id)
	fmt.Fprintf(&sb, "Showing %d recommendations from the %s pool:\n\n", len(papers), pool)
	for i, p := range papers {
		writePaperSummary(&sb, i+1, p)
	}
	return sb.String()
}
