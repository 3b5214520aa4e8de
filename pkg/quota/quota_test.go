package quota

import (
	"fmt"
	"testing"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func testTracker(t *testing.T, limits Limits) (*Tracker, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewWithClock(limits, func() time.Time { return now })
	return tr, &now
}

func defaultLimits() Limits {
	return Limits{GlobalPerMinute: 10, GlobalPerHour: 100, PerUserPerMinute: 3}
}

func TestAdmitDoesNotCharge(t *testing.T) {
	tr, _ := testTracker(t, defaultLimits())
	for i := 0; i < 50; i++ {
		ok, reason := tr.Admit("alice")
		if !ok {
			t.Fatalf("admit %d rejected with %s; admission must not consume quota", i, reason)
		}
	}
}

func TestPerUserCeiling(t *testing.T) {
	tr, _ := testTracker(t, defaultLimits())
	for i := 0; i < 3; i++ {
		ok, _ := tr.Admit("alice")
		if !ok {
			t.Fatalf("request %d rejected under ceiling", i)
		}
		tr.Record("alice")
	}

	ok, reason := tr.Admit("alice")
	if ok || reason != models.QuotaReasonUserMinute {
		t.Errorf("4th request: ok=%v reason=%s, want rejection with user_minute", ok, reason)
	}

	// Another caller is unaffected by alice's window.
	if ok, reason := tr.Admit("bob"); !ok {
		t.Errorf("bob rejected with %s while under every ceiling", reason)
	}
}

func TestGlobalMinuteTakesPriority(t *testing.T) {
	tr, _ := testTracker(t, Limits{GlobalPerMinute: 4, GlobalPerHour: 100, PerUserPerMinute: 3})
	// alice exhausts her own window and then two other callers fill the
	// global minute window.
	for i := 0; i < 3; i++ {
		tr.Record("alice")
	}
	tr.Record("bob")

	// alice is over both global/minute and user/minute; the global tier
	// must be the one reported.
	ok, reason := tr.Admit("alice")
	if ok || reason != models.QuotaReasonGlobalMinute {
		t.Errorf("ok=%v reason=%s, want rejection with global_minute", ok, reason)
	}
}

func TestGlobalHourCeiling(t *testing.T) {
	tr, now := testTracker(t, Limits{GlobalPerMinute: 10, GlobalPerHour: 3, PerUserPerMinute: 10})
	for i := 0; i < 3; i++ {
		tr.Record(fmt.Sprintf("user%d", i))
	}

	// Drain the minute windows; the hour window still holds all three.
	*now = now.Add(61 * time.Second)
	ok, reason := tr.Admit("newcomer")
	if ok || reason != models.QuotaReasonGlobalHour {
		t.Errorf("ok=%v reason=%s, want rejection with global_hour", ok, reason)
	}

	// An hour after the bursts the window has drained.
	*now = now.Add(time.Hour)
	if ok, reason := tr.Admit("newcomer"); !ok {
		t.Errorf("rejected with %s after hour window drained", reason)
	}
}

func TestMinuteWindowSlides(t *testing.T) {
	tr, now := testTracker(t, defaultLimits())
	for i := 0; i < 3; i++ {
		tr.Record("alice")
	}
	if ok, _ := tr.Admit("alice"); ok {
		t.Fatal("expected rejection at ceiling")
	}

	*now = now.Add(59 * time.Second)
	if ok, _ := tr.Admit("alice"); ok {
		t.Fatal("window slid early")
	}

	*now = now.Add(2 * time.Second)
	if ok, reason := tr.Admit("alice"); !ok {
		t.Errorf("rejected with %s after minute window drained", reason)
	}
}

func TestStatus(t *testing.T) {
	tr, _ := testTracker(t, defaultLimits())
	tr.Record("alice")
	tr.Record("alice")

	st := tr.Status("alice")
	if st.UserID != "alice" {
		t.Errorf("user id = %q", st.UserID)
	}
	if st.IsLimited {
		t.Errorf("limited under every ceiling: %+v", st)
	}
	if st.User.Minute.Current != 2 || st.User.Minute.Max != 3 || st.User.Minute.Remaining != 1 {
		t.Errorf("user minute tier = %+v", st.User.Minute)
	}
	if st.Global.Minute.Current != 2 || st.Global.Hour.Current != 2 {
		t.Errorf("global tiers = %+v", st.Global)
	}

	tr.Record("alice")
	st = tr.Status("alice")
	if !st.IsLimited || st.LimitReason != models.QuotaReasonUserMinute {
		t.Errorf("limited=%v reason=%s, want user_minute", st.IsLimited, st.LimitReason)
	}
	if st.User.Minute.Remaining != 0 {
		t.Errorf("remaining = %d at ceiling", st.User.Minute.Remaining)
	}

	// A fresh caller sees zeroed personal tiers but shared global usage.
	st = tr.Status("bob")
	if st.User.Minute.Current != 0 || st.Global.Minute.Current != 3 {
		t.Errorf("bob status = %+v", st)
	}
}

func TestInfoCountsAndPrunesUsers(t *testing.T) {
	tr, now := testTracker(t, defaultLimits())
	tr.Record("alice")
	tr.Record("bob")

	info := tr.Info()
	if info.CurrentMinute != 2 || info.CurrentHour != 2 || info.ActiveUsers != 2 {
		t.Errorf("info = %+v", info)
	}
	if info.MaxPerMinute != 10 || info.MaxPerHour != 100 || info.MaxPerUserPerMinute != 3 {
		t.Errorf("ceilings = %+v", info)
	}

	*now = now.Add(61 * time.Second)
	info = tr.Info()
	if info.CurrentMinute != 0 || info.ActiveUsers != 0 {
		t.Errorf("idle callers not pruned: %+v", info)
	}
	if info.CurrentHour != 2 {
		t.Errorf("hour window = %d, want 2", info.CurrentHour)
	}
	if len(tr.perUser) != 0 {
		t.Errorf("user map holds %d drained windows", len(tr.perUser))
	}
}
