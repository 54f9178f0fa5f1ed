package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Label is a named, colored issue tag.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User identifies an issue author.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl,omitempty"`
	Hyperlink string `json:"hyperlink,omitempty"`
}

// IssueSummary describes an issue in a transport-friendly format.
type IssueSummary struct {
	ID        int64   `json:"id"`
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	Hyperlink string  `json:"hyperlink"`
	State     string  `json:"state"`
	Labels    []Label `json:"labels"`
	Author    User    `json:"author"`
	Comments  int     `json:"comments"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// BinNode is one vertex of an organized tree.
type BinNode struct {
	Name        string         `json:"name"`
	Path        []string       `json:"path"`
	Kind        string         `json:"kind"`
	Color       string         `json:"color,omitempty"`
	Description string         `json:"description,omitempty"`
	Count       int            `json:"count"`
	Issues      []IssueSummary `json:"issues,omitempty"`
	Children    []BinNode      `json:"children,omitempty"`
}

// BinRow is a flattened BinNode for tabular output.
type BinRow struct {
	Path    string `json:"path"`
	Depth   int    `json:"depth"`
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Numbers []int  `json:"numbers"`
}

// Diagnostic is a non-fatal observation recorded while organizing.
type Diagnostic struct {
	Kind      string   `json:"kind"`
	Issue     int      `json:"issue"`
	Path      string   `json:"path"`
	Bins      []string `json:"bins,omitempty"`
	ClaimedBy string   `json:"claimedBy,omitempty"`
	Entry     string   `json:"entry,omitempty"`
}

// Diagnostic kinds.
const (
	DiagnosticUnranked  = "unranked"
	DiagnosticDuplicate = "duplicate"
	DiagnosticShadowed  = "shadowed"
)

// ProfileSummary is a profile header.
type ProfileSummary struct {
	Name            string `json:"name"`
	Repo            string `json:"repo"`
	AllowDuplicates bool   `json:"allowDuplicates"`
	Source          string `json:"source"`
	Stale           bool   `json:"stale"`
	Error           string `json:"error,omitempty"`
	FetchedAt       string `json:"fetchedAt,omitempty"`
	Issues          int    `json:"issues"`
	Bins            int    `json:"bins"`
	Diagnostics     int    `json:"diagnostics"`
}

// ProfileListResponse wraps the configured profiles.
type ProfileListResponse struct {
	Profiles []ProfileSummary `json:"profiles"`
}

// BinsResponse is a profile's organized tree.
type BinsResponse struct {
	Profile     ProfileSummary `json:"profile"`
	RefreshID   string         `json:"refreshId"`
	Root        BinNode        `json:"root"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
}

// IssuesResponse is a profile's issues in fetch order.
type IssuesResponse struct {
	Profile ProfileSummary `json:"profile"`
	Issues  []IssueSummary `json:"issues"`
}

// RefreshResponse reports a completed refresh.
type RefreshResponse struct {
	RefreshID   string `json:"refreshId"`
	Profiles    int    `json:"profiles"`
	CompletedAt string `json:"completedAt"`
}

// CacheHealth reports issue cache totals.
type CacheHealth struct {
	Path   string `json:"path"`
	Repos  int    `json:"repos"`
	Issues int    `json:"issues"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse aggregates daemon runtime information for API consumers.
type StatusResponse struct {
	Running         bool             `json:"running"`
	PID             int              `json:"pid"`
	StartedAt       string           `json:"startedAt,omitempty"`
	RefreshID       string           `json:"refreshId,omitempty"`
	LastRefresh     string           `json:"lastRefresh,omitempty"`
	LastError       string           `json:"lastError,omitempty"`
	NextRefresh     string           `json:"nextRefresh,omitempty"`
	LockFilePath    string           `json:"lockFilePath"`
	Cache           CacheHealth      `json:"cache"`
	Authenticated   bool             `json:"authenticated"`
	Profiles        []ProfileSummary `json:"profiles"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
}
