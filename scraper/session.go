package scraper

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/pricewalk/pricewalk/config"
	"github.com/pricewalk/pricewalk/models"
)

// Session owns at most one browser process for the span of a scrape call.
// Acquire launches lazily and reuses the handle; Release tears down whatever
// stage acquisition reached, so a later Acquire launches fresh. Not safe for
// concurrent use: one scrape call owns one session.
type Session struct {
	cfg     config.BrowserConfig
	browser *rod.Browser

	// stop tears down the launched process and its temp dirs. Set the
	// moment Launch succeeds, before Connect: a process whose devtools
	// handshake fails never yields a browser handle, and stop is then the
	// only reference through which Release can reach it.
	stop func()
}

// NewSession prepares a session without launching anything.
func NewSession(cfg config.BrowserConfig) *Session {
	return &Session{cfg: cfg}
}

// Acquire returns a ready browser handle, launching one on first use with
// the flags headless Chrome needs inside containers.
func (s *Session) Acquire() (*rod.Browser, error) {
	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)

	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to launch browser", err)
	}
	s.stop = func() {
		if s.browser != nil {
			if closeErr := s.browser.Close(); closeErr != nil {
				slog.Warn("browser close failed", "error", closeErr)
			}
		} else {
			// Launched but never connected: there is no handle to close,
			// so kill the process directly.
			l.Kill()
		}
		l.Cleanup()
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}
	slog.Debug("browser session started", "control_url", controlURL)

	s.browser = browser
	return browser, nil
}

// Release tears the session down and clears it. Safe to call on a session
// that never launched, and idempotent, so callers can defer it
// unconditionally at scrape entry.
func (s *Session) Release() {
	if s.stop == nil {
		return
	}
	s.stop()
	s.stop = nil
	s.browser = nil
	slog.Debug("browser session released")
}
