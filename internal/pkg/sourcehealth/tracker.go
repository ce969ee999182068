package sourcehealth

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

const (
	degradedThreshold = 2
	downThreshold     = 5

	cooldownMin = 8 * time.Minute
	cooldownMax = 15 * time.Minute

	alertDedupWindow = 30 * time.Minute

	recentReasonsCap = 10
)

// blockedPatterns mark a response body as bot-blocked, case-insensitive.
var blockedPatterns = []string{
	"access denied",
	"blocked",
	"captcha",
	"cloudflare",
	"please verify",
	"rate limit",
	"too many requests",
	"robot check",
	"unusual traffic",
	"automated access",
	"bot detection",
}

// IsBlocked classifies a response as bot-blocked: status 403/429/503 or a
// body matching one of the known block-page patterns.
func IsBlocked(statusCode int, body string) bool {
	switch statusCode {
	case 403, 429, 503:
		return true
	}
	lower := strings.ToLower(body)
	for _, p := range blockedPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// record is the per-source sliding health state.
type record struct {
	consecutive      int
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	markedDownAt     time.Time
	cooldownDuration time.Duration
	recentReasons    []string
}

// AlertSink receives alerts emitted on threshold crossings. Typically wired
// to the store's scraper_alerts insert plus the notifier.
type AlertSink func(alert models.ScraperAlert)

// Tracker keeps per-source health for one invocation. Construct it at job
// start and pass it to the orchestrator; there is no package-level state.
type Tracker struct {
	mu        sync.Mutex
	sources   map[string]*record
	lastAlert map[string]time.Time

	sink AlertSink
	now  func() time.Time
	rng  *rand.Rand
}

func NewTracker(sink AlertSink) *Tracker {
	return &Tracker{
		sources:   make(map[string]*record),
		lastAlert: make(map[string]time.Time),
		sink:      sink,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RecordSuccess zeroes the failure counters and returns the source to
// healthy. This is the only way out of the down state.
func (t *Tracker) RecordSuccess(source string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.record(source)
	rec.consecutive = 0
	rec.markedDownAt = time.Time{}
	rec.cooldownDuration = 0
	rec.lastSuccessAt = t.now()
}

// RecordFailure bumps the consecutive-failure counter and emits alerts at
// the degraded (warning) and down (critical) crossings. Entering down
// assigns a randomized 8-15 minute cooldown.
func (t *Tracker) RecordFailure(source, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.record(source)
	rec.consecutive++
	rec.lastFailureAt = t.now()
	rec.recentReasons = append(rec.recentReasons, reason)
	if len(rec.recentReasons) > recentReasonsCap {
		rec.recentReasons = rec.recentReasons[len(rec.recentReasons)-recentReasonsCap:]
	}

	switch rec.consecutive {
	case degradedThreshold:
		t.emitLocked(models.AlertSourceDegraded, models.SeverityWarning, source,
			fmt.Sprintf("source %s degraded: %d consecutive failures (%s)", source, rec.consecutive, reason))
	case downThreshold:
		rec.markedDownAt = t.now()
		rec.cooldownDuration = t.randomCooldownLocked()
		t.emitLocked(models.AlertSourceDown, models.SeverityCritical, source,
			fmt.Sprintf("source %s down: %d consecutive failures, cooling down for %s (%s)",
				source, rec.consecutive, rec.cooldownDuration, reason))
		slog.Warn("source marked down", "source", source, "cooldown", rec.cooldownDuration)
	}
}

// IsSourceDown reports whether the source is inside its cooldown window.
// When the window has elapsed the down state is NOT cleared: exactly one
// retry is allowed and a fresh random cooldown is assigned, so a still-broken
// source costs one request per cooldown period until a success resets it.
func (t *Tracker) IsSourceDown(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.record(source)
	if rec.consecutive < downThreshold {
		return false
	}
	if t.now().Before(rec.markedDownAt.Add(rec.cooldownDuration)) {
		return true
	}
	// Cooldown elapsed: permit this one probe and start a new window.
	rec.markedDownAt = t.now()
	rec.cooldownDuration = t.randomCooldownLocked()
	return false
}

// ConsecutiveFailures returns the current failure streak for a source.
func (t *Tracker) ConsecutiveFailures(source string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record(source).consecutive
}

// RecentReasons returns the last recorded failure reasons, newest last.
func (t *Tracker) RecentReasons(source string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.record(source)
	out := make([]string, len(rec.recentReasons))
	copy(out, rec.recentReasons)
	return out
}

func (t *Tracker) record(source string) *record {
	rec, ok := t.sources[source]
	if !ok {
		rec = &record{}
		t.sources[source] = rec
	}
	return rec
}

func (t *Tracker) randomCooldownLocked() time.Duration {
	spread := cooldownMax - cooldownMin
	return cooldownMin + time.Duration(t.rng.Int63n(int64(spread)))
}

// emitLocked sends an alert unless the same (type, source) fired within the
// dedup window.
func (t *Tracker) emitLocked(alertType string, severity models.AlertSeverity, source, message string) {
	key := alertType + "|" + source
	if last, ok := t.lastAlert[key]; ok && t.now().Sub(last) < alertDedupWindow {
		return
	}
	t.lastAlert[key] = t.now()
	if t.sink == nil {
		return
	}
	t.sink(models.ScraperAlert{
		ID:        uuid.NewString(),
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		Metadata:  map[string]string{"source": source},
		CreatedAt: t.now(),
	})
}
