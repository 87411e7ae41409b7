package coordinator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
	"github.com/signalmesh/trafficctl/internal/link"
	"github.com/signalmesh/trafficctl/internal/policy"
	"github.com/signalmesh/trafficctl/internal/state"
)

// Config tunes the decision cadence. The interval is wall-clock fixed:
// an iteration that overruns proceeds immediately instead of stacking
// delay.
type Config struct {
	Interval       time.Duration
	BeaconPoll     time.Duration
	RequestTimeout time.Duration
	Backoff        link.BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Interval:       cycle.Total * time.Second,
		BeaconPoll:     500 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
		Backoff: link.BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.BeaconPoll <= 0 {
		c.BeaconPoll = def.BeaconPoll
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

type stepResult int

const (
	stepProposed stepResult = iota
	stepBeaconActive
	stepTransientError
)

// Loop is the periodic decision coordinator: snapshot, policy, commit,
// on a fixed tick, yielding to an active beacon.
type Loop struct {
	cfg    Config
	client *Client
	policy policy.Policy
	rng    *rand.Rand
}

func NewLoop(cfg Config, client *Client, pol policy.Policy) *Loop {
	return &Loop{
		cfg:    cfg.withDefaults(),
		client: client,
		policy: pol,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drives decision iterations until ctx is cancelled. Network
// failures back off and retry; nothing here terminates the loop.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().Dur("interval", l.cfg.Interval).Msg("decision_loop_start")
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		iterStart := time.Now()
		switch l.step(ctx, iterStart) {
		case stepBeaconActive:
			// Normal proposals are suppressed while the override
			// runs; poll for it to clear.
			if err := sleepCtx(ctx, l.cfg.BeaconPoll); err != nil {
				return nil
			}
		case stepTransientError:
			failures++
			delay := link.NextBackoffDelay(l.cfg.Backoff, failures, l.rng)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil
			}
		case stepProposed:
			failures = 0
			// Fixed tick: measure against iteration start, never sum
			// sleeps. Overruns proceed immediately.
			if remaining := l.cfg.Interval - time.Since(iterStart); remaining > 0 {
				if err := sleepCtx(ctx, remaining); err != nil {
					return nil
				}
			}
		}
	}
}

func (l *Loop) step(ctx context.Context, iterStart time.Time) stepResult {
	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.RequestTimeout)
	snap, err := l.client.Snapshot(fetchCtx)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("snapshot_fetch_failed")
		return stepTransientError
	}
	if snap.Beacon {
		log.Debug().Int("priority_lane", snap.PriorityLane).Msg("beacon_active_yield")
		return stepBeaconActive
	}

	greens := l.decide(snap)
	validated := cycle.ValidateGreens(greens)
	latencyMS := int(time.Since(iterStart).Milliseconds())

	proposalID := uuid.NewString()
	submitCtx, cancel := context.WithTimeout(ctx, l.cfg.RequestTimeout)
	result, err := l.client.SubmitProposal(submitCtx, validated, latencyMS, proposalID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("proposal_id", proposalID).Msg("proposal_submit_failed")
		return stepTransientError
	}
	log.Info().
		Str("proposal_id", proposalID).
		Ints("validated_green", result.ValidatedGreen[:]).
		Int("latency_ms", latencyMS).
		Msg("proposal_committed")
	return stepProposed
}

// decide runs the policy over the snapshot, falling back to the safe
// default allocation on any policy failure or malformed action.
func (l *Loop) decide(snap state.TrafficState) [junction.Count]int {
	obs := BuildObservation(snap)
	action, err := l.policy.Predict(obs)
	if err != nil {
		log.Warn().Err(err).Msg("policy_failed_fallback")
		return policy.DefaultAllocation()
	}
	var greens [junction.Count]int
	for i, f := range action {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			log.Warn().Int("lane", i).Float64("action", f).Msg("policy_action_malformed_fallback")
			return policy.DefaultAllocation()
		}
		greens[i] = cycle.SecondsFromFraction(f)
	}
	return greens
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
