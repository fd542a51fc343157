package scraper

import (
	"testing"

	"github.com/pricewalk/pricewalk/config"
)

func TestSessionReleaseNeverLaunched(t *testing.T) {
	s := NewSession(config.BrowserConfig{})
	// Nothing was launched; Release must be a quiet no-op.
	s.Release()
	s.Release()
}

// A session whose launch succeeded but whose connect never did holds a live
// process without a browser handle. Release must still run the teardown, and
// only once.
func TestSessionReleaseTearsDownUnconnectedLaunch(t *testing.T) {
	stops := 0
	s := &Session{stop: func() { stops++ }}

	s.Release()
	if stops != 1 {
		t.Fatalf("teardown ran %d times after Release, want 1", stops)
	}
	if s.stop != nil {
		t.Error("session still holds its teardown after Release")
	}

	s.Release()
	if stops != 1 {
		t.Errorf("teardown ran %d times after a second Release, want 1", stops)
	}
}
