package model

import "time"

// TraceFilter holds criteria for querying archived traces.
type TraceFilter struct {
	Module string     `json:"module,omitempty"`
	Node   string     `json:"node,omitempty"`  // matches any event's node_name
	Since  *time.Time `json:"since,omitempty"` // completed_at >= Since
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
