package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Suppression states
const (
	StateActive     = "active"
	StateSuppressed = "suppressed"
	StateProbation  = "probation"
)

// Suppression tracks per-recipient delivery health in Redis and skips
// addresses that keep bouncing. State transitions:
// active → suppressed → probation → active
//
// - Active: normal delivery. Consecutive failures are counted.
// - Suppressed: the address is skipped. Moves to probation after the
//   cooldown elapses.
// - Probation: exactly one test delivery is allowed; the worker that
//   claims it sends, everyone else keeps skipping until the outcome is
//   recorded. Success → active, failure → suppressed again.
type Suppression struct {
	redisClient      *redis.Client
	logger           *slog.Logger
	script           *redis.Script
	failureThreshold int
	cooldownPeriod   time.Duration
	probeWindow      time.Duration
}

// RecipientState is the current suppression state of one address.
type RecipientState struct {
	State        string `json:"state"`
	Failures     int    `json:"failures"`
	LastFailedAt string `json:"last_failed_at,omitempty"`
}

// Lua script for the atomic delivery decision. Reading the state and
// claiming the post-cooldown probe happen in one step, so concurrent
// workers delivering to the same address cannot both claim the probe.
// Returns {state, allowed}.
var suppressionScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])
local probeWindow = tonumber(ARGV[3])

local state = redis.call('HGET', key, 'state')
if not state or state == 'active' then
    return {'active', 1}
end

if state == 'probation' then
    local probe = tonumber(redis.call('HGET', key, 'probe_at')) or 0
    if now - probe < probeWindow then
        -- A probe is already in flight
        return {'probation', 0}
    end
    -- Stale probe never resolved: reclaim it
    redis.call('HSET', key, 'probe_at', now)
    return {'probation', 1}
end

-- Suppressed: move to probation once the cooldown has elapsed, and
-- hand the single probe to this caller.
local lastFailed = tonumber(redis.call('HGET', key, 'last_failed_at')) or 0
if now - lastFailed >= cooldown then
    redis.call('HSET', key, 'state', 'probation', 'probe_at', now)
    return {'probation', 1}
end
return {'suppressed', 0}
`)

func NewSuppression(redisClient *redis.Client, logger *slog.Logger) *Suppression {
	return &Suppression{
		redisClient:      redisClient,
		logger:           logger,
		script:           suppressionScript,
		failureThreshold: 3,
		cooldownPeriod:   72 * time.Hour,
		probeWindow:      10 * time.Minute,
	}
}

func suppressKey(email string) string {
	return fmt.Sprintf("suppress:%s", email)
}

// Allow checks whether delivery to this address should be attempted.
// Returns the current state and the decision.
func (sp *Suppression) Allow(ctx context.Context, email string) (string, bool) {
	res, err := sp.script.Run(ctx, sp.redisClient, []string{suppressKey(email)},
		time.Now().Unix(),
		int64(sp.cooldownPeriod.Seconds()),
		int64(sp.probeWindow.Seconds()),
	).Slice()
	if err != nil || len(res) != 2 {
		sp.logger.Error("suppression script failed", "error", err, "recipient", email)
		return StateActive, true // Fail open — attempt the send if Redis fails
	}

	state, _ := res[0].(string)
	allowed, _ := res[1].(int64)

	if state == StateProbation && allowed == 1 {
		sp.logger.Info("recipient on probation",
			"recipient", email,
		)
	}

	return state, allowed == 1
}

// RecordSuccess records a delivered email. Resets the address to active.
func (sp *Suppression) RecordSuccess(ctx context.Context, email string) {
	key := suppressKey(email)

	state, _ := sp.redisClient.HGet(ctx, key, "state").Result()

	sp.redisClient.HSet(ctx, key,
		"state", StateActive,
		"failures", 0,
	)
	sp.redisClient.HDel(ctx, key, "probe_at")

	if state == StateProbation {
		sp.logger.Info("recipient recovered",
			"recipient", email,
		)
	}
}

// RecordFailure records a failed delivery. Suppresses the address once
// the consecutive-failure threshold is reached.
func (sp *Suppression) RecordFailure(ctx context.Context, email string) {
	key := suppressKey(email)

	failures, err := sp.redisClient.HIncrBy(ctx, key, "failures", 1).Result()
	if err != nil {
		sp.logger.Error("failed to record suppression failure", "error", err, "recipient", email)
		return
	}

	sp.redisClient.HSet(ctx, key, "last_failed_at", time.Now().Unix())

	state, _ := sp.redisClient.HGet(ctx, key, "state").Result()

	if state == StateProbation {
		// Probation test failed → suppressed again
		sp.redisClient.HSet(ctx, key, "state", StateSuppressed)
		sp.redisClient.HDel(ctx, key, "probe_at")
		sp.logger.Warn("recipient re-suppressed (probation failed)",
			"recipient", email,
		)
	} else if failures >= int64(sp.failureThreshold) {
		sp.redisClient.HSet(ctx, key, "state", StateSuppressed)
		sp.logger.Warn("recipient suppressed",
			"recipient", email,
			"failures", failures,
			"threshold", sp.failureThreshold,
		)
	} else if state == "" {
		sp.redisClient.HSet(ctx, key, "state", StateActive)
	}
}

// State returns the current suppression state for an address. Read-only:
// a suppressed address past its cooldown is reported as probation, but
// the transition itself only happens through Allow.
func (sp *Suppression) State(ctx context.Context, email string) RecipientState {
	key := suppressKey(email)

	data, err := sp.redisClient.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		return RecipientState{State: StateActive, Failures: 0}
	}

	failures, _ := strconv.Atoi(data["failures"])
	state := data["state"]
	if state == "" {
		state = StateActive
	}

	if state == StateSuppressed {
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if time.Now().Unix()-lastFailedAt >= int64(sp.cooldownPeriod.Seconds()) {
			state = StateProbation
		}
	}

	result := RecipientState{
		State:    state,
		Failures: failures,
	}

	if ts, ok := data["last_failed_at"]; ok && ts != "" {
		lastFailed, _ := strconv.ParseInt(ts, 10, 64)
		if lastFailed > 0 {
			result.LastFailedAt = time.Unix(lastFailed, 0).Format(time.RFC3339)
		}
	}

	return result
}
