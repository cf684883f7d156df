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
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start its pipeline.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Scribe.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop its pipeline.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Scribe.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Scribe.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit queues a transcription job for an event recording.
func (c *Client) Submit(req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.client.Call("Scribe.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs returns job snapshots optionally filtered by statuses.
func (c *Client) Jobs(statuses []string) (*JobsResponse, error) {
	var resp JobsResponse
	req := JobsRequest{Statuses: statuses}
	if err := c.client.Call("Scribe.Jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job returns a single job snapshot by ID.
func (c *Client) Job(id string) (*JobResponse, error) {
	var resp JobResponse
	req := JobRequest{ID: id}
	if err := c.client.Call("Scribe.Job", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobsForEvent returns the jobs submitted for an event.
func (c *Client) JobsForEvent(eventID string) (*JobsForEventResponse, error) {
	var resp JobsForEventResponse
	req := JobsForEventRequest{EventID: eventID}
	if err := c.client.Call("Scribe.JobsForEvent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Retry requeues a prior job for an event.
func (c *Client) Retry(eventID, jobID string) (*RetryResponse, error) {
	var resp RetryResponse
	req := RetryRequest{EventID: eventID, JobID: jobID}
	if err := c.client.Call("Scribe.Retry", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause halts dispatch, optionally terminating the in-flight job.
func (c *Client) Pause(terminate bool) (*PauseResponse, error) {
	var resp PauseResponse
	req := PauseRequest{Terminate: terminate}
	if err := c.client.Call("Scribe.Pause", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume restarts dispatch after a pause.
func (c *Client) Resume() (*ResumeResponse, error) {
	var resp ResumeResponse
	if err := c.client.Call("Scribe.Resume", ResumeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Purge removes completed and failed jobs from daemon memory.
func (c *Client) Purge() (*PurgeResponse, error) {
	var resp PurgeResponse
	if err := c.client.Call("Scribe.Purge", PurgeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Result fetches the persisted transcription result for an event.
func (c *Client) Result(eventID string) (*ResultResponse, error) {
	var resp ResultResponse
	req := ResultRequest{EventID: eventID}
	if err := c.client.Call("Scribe.Result", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Results lists persisted transcription results, newest first.
func (c *Client) Results(limit int) (*ResultsResponse, error) {
	var resp ResultsResponse
	req := ResultsRequest{Limit: limit}
	if err := c.client.Call("Scribe.Results", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches hub events newer than afterSeq.
func (c *Client) Events(afterSeq uint64, max int) (*EventsResponse, error) {
	var resp EventsResponse
	req := EventsRequest{AfterSeq: afterSeq, Max: max}
	if err := c.client.Call("Scribe.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Scribe.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Scribe.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
