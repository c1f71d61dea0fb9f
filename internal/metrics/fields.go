package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod     = "method"
	AttrPath       = "path"
	AttrStatus     = "status"
	AttrProvider   = "provider"
	AttrEventType  = "event_type"
	AttrTournament = "tournament_id"
	AttrFormat     = "format"
)
