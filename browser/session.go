package browser

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/triprip/config"
	"github.com/use-agent/triprip/models"
)

// Session owns the authenticated browsing context for the whole run: one
// browser, one page. It is the sole implementation of the pipeline's fetcher
// and is NOT safe for concurrent use — every navigation mutates the shared
// page state, so callers must drive it strictly sequentially.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     config.BrowserConfig
	trips   config.TripsConfig
	limiter navLimiter

	// loginPrompt defaults to os.Stdin; tests substitute a reader.
	loginPrompt io.Reader
}

// NewSession launches the browser and opens the single page the run will
// navigate with. Stealth JS is injected before any navigation so it applies
// to every page load.
func NewSession(browserCfg config.BrowserConfig, tripsCfg config.TripsConfig) (*Session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-popup-blocking"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.MustClose()
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}

	if browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	return &Session{
		browser:     b,
		page:        page,
		cfg:         browserCfg,
		trips:       tripsCfg,
		limiter:     newNavLimiter(browserCfg.RequestsPerSecond),
		loginPrompt: os.Stdin,
	}, nil
}

// AwaitLogin opens the trip listing and blocks until the operator confirms
// they have signed in. Credential entry itself happens in the browser window;
// this process only waits for the ENTER keypress.
func (s *Session) AwaitLogin() error {
	loginURL := s.trips.ListingURL(s.trips.StartPage)
	if err := s.page.Navigate(loginURL); err != nil {
		return models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to open listing for login",
			err,
		)
	}

	fmt.Println()
	fmt.Println("Log in to your account in the browser window.")
	fmt.Println("Once you can see your trips list, press ENTER here to continue.")
	fmt.Print("> ")

	reader := bufio.NewReader(s.loginPrompt)
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("waiting for login confirmation: %w", err)
	}

	slog.Info("login confirmed, starting export")
	return nil
}

// Close kills the browser process. Call on shutdown to prevent zombie
// Chrome processes.
func (s *Session) Close() {
	slog.Info("session shutting down: closing browser")
	_ = s.page.Close()
	s.browser.MustClose()
}
