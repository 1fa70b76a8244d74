package decorators

// Extension keys consumed by the Speakeasy SDK generator.
const (
	ExtPagination   = "x-speakeasy-pagination"
	ExtGroup        = "x-speakeasy-group"
	ExtNameOverride = "x-speakeasy-name-override"
	ExtErrors       = "x-speakeasy-errors"
	ExtRetries      = "x-speakeasy-retries"
)

// Pagination describes how a generated client walks a cursor-paginated
// endpoint.
type Pagination struct {
	Type    string            `json:"type"`
	Inputs  []PaginationInput `json:"inputs"`
	Outputs PaginationOutputs `json:"outputs"`
}

type PaginationInput struct {
	Name string `json:"name"`
	In   string `json:"in"`
	Type string `json:"type"`
}

// PaginationOutputs holds JSONPath expressions into the response body.
type PaginationOutputs struct {
	NextCursor string `json:"nextCursor"`
	Results    string `json:"results"`
}

// Errors scopes generated error types to a set of response status codes.
type Errors struct {
	StatusCodes []string `json:"statusCodes"`
}

// Retries is the generated client's retry policy.
type Retries struct {
	Strategy              string   `json:"strategy"`
	Backoff               Backoff  `json:"backoff"`
	StatusCodes           []string `json:"statusCodes"`
	RetryConnectionErrors bool     `json:"retryConnectionErrors"`
}

// Backoff parameters, intervals in milliseconds.
type Backoff struct {
	InitialInterval int     `json:"initialInterval"`
	MaxInterval     int     `json:"maxInterval"`
	MaxElapsedTime  int     `json:"maxElapsedTime"`
	Exponent        float64 `json:"exponent"`
}

// CursorPagination is attached to every accepted paginated operation. The
// output paths are fixed and do not follow the discovered property names.
func CursorPagination() Pagination {
	return Pagination{
		Type: "cursor",
		Inputs: []PaginationInput{{
			Name: "cursor",
			In:   "parameters",
			Type: "cursor",
		}},
		Outputs: PaginationOutputs{
			NextCursor: "$.cursor.next",
			Results:    "$.cursor.data",
		},
	}
}

// DefaultErrors limits generated errors to the fallback response.
func DefaultErrors() Errors {
	return Errors{StatusCodes: []string{"default"}}
}

// DefaultRetries is the retry policy stamped on every operation.
func DefaultRetries() Retries {
	return Retries{
		Strategy: "backoff",
		Backoff: Backoff{
			InitialInterval: 500,
			MaxInterval:     60000,
			MaxElapsedTime:  3600000,
			Exponent:        1.5,
		},
		StatusCodes:           []string{"5XX"},
		RetryConnectionErrors: true,
	}
}
