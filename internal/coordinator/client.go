package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/signalmesh/trafficctl/internal/junction"
	"github.com/signalmesh/trafficctl/internal/state"
)

var (
	ErrBaseURLRequired = errors.New("coordinator: control-plane base url required")
	ErrBadStatus       = errors.New("coordinator: unexpected control-plane status")
)

// ProposalResult is the control plane's answer to a next-cycle
// submission.
type ProposalResult struct {
	Status         string              `json:"status"`
	ValidatedGreen [junction.Count]int `json:"validated_green"`
	CycleTotal     int                 `json:"cycle_total"`
}

type proposalPayload struct {
	NextGreen  [junction.Count]int `json:"next_green"`
	LatencyMS  int                 `json:"latency_ms"`
	ProposalID string              `json:"proposal_id"`
}

// Client speaks to trafficd over the control plane. Every call is
// bounded by the HTTP client timeout; a timeout is a transient
// failure, never mid-flight interruption of the service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Snapshot fetches the full traffic state in one round trip.
func (c *Client) Snapshot(ctx context.Context) (state.TrafficState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/state", nil)
	if err != nil {
		return state.TrafficState{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return state.TrafficState{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return state.TrafficState{}, fmt.Errorf("%w: GET /state -> %d", ErrBadStatus, resp.StatusCode)
	}
	var snap state.TrafficState
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return state.TrafficState{}, err
	}
	return snap, nil
}

// SubmitProposal commits validated green times plus the measured
// decision latency.
func (c *Client) SubmitProposal(
	ctx context.Context,
	green [junction.Count]int,
	latencyMS int,
	proposalID string,
) (ProposalResult, error) {
	body, err := json.Marshal(proposalPayload{
		NextGreen:  green,
		LatencyMS:  latencyMS,
		ProposalID: proposalID,
	})
	if err != nil {
		return ProposalResult{}, err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/cycle/next",
		bytes.NewReader(body),
	)
	if err != nil {
		return ProposalResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return ProposalResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ProposalResult{}, fmt.Errorf("%w: POST /cycle/next -> %d", ErrBadStatus, resp.StatusCode)
	}
	var result ProposalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ProposalResult{}, err
	}
	return result, nil
}
