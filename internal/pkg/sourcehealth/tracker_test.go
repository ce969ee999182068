package sourcehealth

import (
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// fixedClock lets tests advance time manually.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(sink AlertSink) (*Tracker, *fixedClock) {
	clock := &fixedClock{t: time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(sink)
	tr.now = clock.now
	return tr, clock
}

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   bool
	}{
		{403, "", true},
		{429, "", true},
		{503, "", true},
		{200, "Checking your browser - Cloudflare", true},
		{200, "Please complete the CAPTCHA to continue", true},
		{200, "We detected unusual traffic from your network", true},
		{200, `{"events":[]}`, false},
		{404, "not found", false},
		{500, "internal server error", false},
	}
	for _, tt := range tests {
		if got := IsBlocked(tt.status, tt.body); got != tt.want {
			t.Errorf("IsBlocked(%d, %q) = %v, want %v", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestTracker_DownAfterFiveFailures(t *testing.T) {
	tr, clock := newTestTracker(nil)

	for i := 0; i < 5; i++ {
		tr.RecordFailure("x", "http 503")
	}
	if !tr.IsSourceDown("x") {
		t.Fatal("source must be down after 5 consecutive failures")
	}

	// The cooldown is 8-15 minutes; the source stays down for at least 8.
	clock.advance(7*time.Minute + 59*time.Second)
	if !tr.IsSourceDown("x") {
		t.Fatal("source must still be down inside the minimum cooldown")
	}
}

func TestTracker_SuccessResets(t *testing.T) {
	tr, _ := newTestTracker(nil)

	for i := 0; i < 5; i++ {
		tr.RecordFailure("x", "blocked")
	}
	if !tr.IsSourceDown("x") {
		t.Fatal("precondition: source down")
	}

	tr.RecordSuccess("x")
	if tr.IsSourceDown("x") {
		t.Fatal("a successful scrape must return the source to healthy")
	}
	if got := tr.ConsecutiveFailures("x"); got != 0 {
		t.Errorf("consecutive failures = %d after success, want 0", got)
	}
}

func TestTracker_CooldownEdgeAllowsOneRetry(t *testing.T) {
	tr, clock := newTestTracker(nil)

	for i := 0; i < 5; i++ {
		tr.RecordFailure("x", "http 429")
	}
	clock.advance(16 * time.Minute) // past any possible cooldown

	if tr.IsSourceDown("x") {
		t.Fatal("cooldown elapsed: one retry must be allowed")
	}
	// The probe did not succeed, so the source is down again under a fresh window.
	if !tr.IsSourceDown("x") {
		t.Fatal("without a success the source must re-enter cooldown")
	}
}

func TestTracker_AlertThresholdsAndDedup(t *testing.T) {
	var alerts []models.ScraperAlert
	tr, clock := newTestTracker(func(a models.ScraperAlert) { alerts = append(alerts, a) })

	tr.RecordFailure("x", "timeout")
	if len(alerts) != 0 {
		t.Fatalf("one failure must not alert, got %d", len(alerts))
	}

	tr.RecordFailure("x", "timeout")
	if len(alerts) != 1 || alerts[0].AlertType != models.AlertSourceDegraded || alerts[0].Severity != models.SeverityWarning {
		t.Fatalf("expected one warning at the degraded crossing, got %+v", alerts)
	}

	tr.RecordFailure("x", "timeout")
	tr.RecordFailure("x", "timeout")
	tr.RecordFailure("x", "timeout")
	if len(alerts) != 2 || alerts[1].AlertType != models.AlertSourceDown || alerts[1].Severity != models.SeverityCritical {
		t.Fatalf("expected a critical at the down crossing, got %+v", alerts)
	}

	// Same (type, source) within 30 minutes is suppressed.
	tr.RecordSuccess("x")
	tr.RecordFailure("x", "timeout")
	tr.RecordFailure("x", "timeout")
	if len(alerts) != 2 {
		t.Fatalf("duplicate degraded alert within dedup window must be suppressed, got %d", len(alerts))
	}

	clock.advance(31 * time.Minute)
	tr.RecordSuccess("x")
	tr.RecordFailure("x", "timeout")
	tr.RecordFailure("x", "timeout")
	if len(alerts) != 3 {
		t.Fatalf("alert should re-fire after the dedup window, got %d", len(alerts))
	}
}

func TestTracker_RecentReasonsCapped(t *testing.T) {
	tr, _ := newTestTracker(nil)
	for i := 0; i < 15; i++ {
		tr.RecordFailure("x", "reason")
	}
	if got := len(tr.RecentReasons("x")); got != 10 {
		t.Errorf("recent reasons length = %d, want 10", got)
	}
}
