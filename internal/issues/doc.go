// Package issues defines the issue model organized, cached, served and
// exported by issuegrid.
//
// The types are independent of the GitHub wire format; internal/github remodels
// API responses into them. LabelNames is the tag function the organize engine
// matches patterns against.
package issues
