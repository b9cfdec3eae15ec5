package auth

// Known OAuth scopes used by the API.
const (
	ScopeResultsWrite  = "results:write"
	ScopeResultsRead   = "results:read"
	ScopeRosterWrite   = "roster:write"
	ScopeRosterRead    = "roster:read"
	ScopeAnalyticsRead = "analytics:read"
	ScopeMoodWrite     = "mood:write"
	ScopeMoodRead      = "mood:read"
)
