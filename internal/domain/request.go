package domain

// Endpoint identifies one operation of the Semantic Scholar API.
// Method and Path are fixed per tool; Path may contain {name} placeholders.
type Endpoint struct {
	// Name is the stable operation name, matching the operationId in the
	// embedded endpoint catalog (e.g. "paper.search").
	Name string `json:"name"`

	// Method is the HTTP verb (e.g. "GET", "POST").
	Method string `json:"method"`

	// Path is the request path template relative to the API base URL
	// (e.g. "/graph/v1/paper/{paper_id}").
	Path string `json:"path"`
}

// Known Semantic Scholar endpoints used by the tool set.
var (
	EndpointPaperSearch     = Endpoint{Name: "paper.search", Method: "GET", Path: "/graph/v1/paper/search"}
	EndpointPaper           = Endpoint{Name: "paper.get", Method: "GET", Path: "/graph/v1/paper/{paper_id}"}
	EndpointPaperBatch      = Endpoint{Name: "paper.batch", Method: "POST", Path: "/graph/v1/paper/batch"}
	EndpointAuthorSearch    = Endpoint{Name: "author.search", Method: "GET", Path: "/graph/v1/author/search"}
	EndpointAuthor          = Endpoint{Name: "author.get", Method: "GET", Path: "/graph/v1/author/{author_id}"}
	EndpointRecommendations = Endpoint{Name: "recommendations.forpaper", Method: "GET", Path: "/recommendations/v1/papers/forpaper/{paper_id}"}
)

// RequestDescriptor describes a single outbound call to the API. It is built
// per tool invocation and discarded afterwards.
type RequestDescriptor struct {
	Endpoint Endpoint

	// PathParams are substituted into the {name} placeholders of Endpoint.Path.
	PathParams map[string]string

	// Query holds query-string parameters. Values may be string, int, int64,
	// float64, bool or []string; lists are sent comma-separated.
	Query map[string]any

	// Body is JSON-encoded for methods that carry a body. Nil means no body.
	Body any
}
