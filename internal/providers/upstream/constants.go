package upstream

import "time"

const (
	providerName       = "upstream"
	defaultBaseURL     = "http://localhost:8080"
	defaultBracketPath = "/tournament/mainBracket/{id}"
	defaultTablesPath  = "/tournament/{id}/tables"
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512
	idPlaceholder      = "{id}"
)
