package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(serviceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profiles lists organized profiles from the current snapshot.
func (c *Client) Profiles() (*ProfilesResponse, error) {
	var resp ProfilesResponse
	if err := c.call("Profiles", ProfilesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Bins returns the bin tree of one profile.
func (c *Client) Bins(profile string) (*BinsResponse, error) {
	var resp BinsResponse
	if err := c.call("Bins", BinsRequest{Profile: profile}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Issues returns the issue listing of one profile.
func (c *Client) Issues(profile string) (*IssuesResponse, error) {
	var resp IssuesResponse
	if err := c.call("Issues", IssuesRequest{Profile: profile}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh runs a refresh, or only queues one when async is set.
func (c *Client) Refresh(async bool) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.call("Refresh", RefreshRequest{Async: async}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.call("Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
