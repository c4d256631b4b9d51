package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/firecorners/cornerd/internal/daemon"
	"github.com/firecorners/cornerd/internal/domain"
)

// DefaultClientTimeout bounds a single request.
const DefaultClientTimeout = 5 * time.Second

// ErrDaemon wraps errors reported by the daemon itself.
var ErrDaemon = errors.New("daemon error")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultClientTimeout,
	}
}

// WithTimeout returns a copy of c using timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	out := *c
	out.timeout = timeout
	return &out
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotRunning, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("%w: %s", ErrDaemon, resp.Error)
	}

	return &resp, nil
}

func (c *Client) simple(cmd CommandType) error {
	_, err := c.sendRequest(&Request{Command: cmd})
	return err
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.simple(CommandReload)
}

// Stop asks the daemon to exit.
func (c *Client) Stop() error {
	return c.simple(CommandStop)
}

// Pause suspends sampling.
func (c *Client) Pause() error {
	return c.simple(CommandPause)
}

// Resume resumes sampling.
func (c *Client) Resume() error {
	return c.simple(CommandResume)
}

// Status retrieves daemon status
func (c *Client) Status() (*daemon.Status, error) {
	resp, err := c.sendRequest(&Request{Command: CommandStatus})
	if err != nil {
		return nil, err
	}

	var status daemon.Status
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// Fire runs a corner's actions now and returns the trigger id.
func (c *Client) Fire(corner domain.Corner) (string, error) {
	payload, err := json.Marshal(FirePayload{Corner: string(corner)})
	if err != nil {
		return "", err
	}
	resp, err := c.sendRequest(&Request{Command: CommandFire, Payload: payload})
	if err != nil {
		return "", err
	}

	var data FireData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to parse fire data: %w", err)
	}
	return data.TriggerID, nil
}

// Ping reports whether a daemon answers on the socket.
func (c *Client) Ping() bool {
	_, err := c.Status()
	return err == nil
}
