package ipc

import "issuegrid/internal/api"

// serviceName is the net/rpc receiver name registered by the server.
const serviceName = "Issuegrid"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP status DTO.
type StatusResponse = api.StatusResponse

// ProfilesRequest lists organized profiles.
type ProfilesRequest struct{}

// ProfilesResponse mirrors the HTTP profile listing.
type ProfilesResponse = api.ProfileListResponse

// BinsRequest selects the profile whose bin tree is returned.
type BinsRequest struct {
	Profile string `json:"profile"`
}

// BinsResponse mirrors the HTTP bin tree.
type BinsResponse = api.BinsResponse

// IssuesRequest selects the profile whose issue listing is returned.
type IssuesRequest struct {
	Profile string `json:"profile"`
}

// IssuesResponse mirrors the HTTP issue listing.
type IssuesResponse = api.IssuesResponse

// RefreshRequest runs a refresh. When Async is set the daemon's refresh loop
// is nudged and the call returns immediately.
type RefreshRequest struct {
	Async bool `json:"async"`
}

// RefreshResponse reports the refresh outcome. It is empty for async requests.
type RefreshResponse struct {
	api.RefreshResponse
	Queued bool `json:"queued"`
}

// ReloadRequest re-reads the config file and re-organizes bins.
type ReloadRequest struct{}

// ReloadResponse reports the snapshot produced by a reload.
type ReloadResponse struct {
	RefreshID string `json:"refreshId"`
}

// StopRequest stops the daemon process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
