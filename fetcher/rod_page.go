package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"provider-scraper/config"
)

// RodPage implements the Page interface using rod (headless browser)
type RodPage struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	url      string
}

// NewRodPage launches a browser and opens the single page used for the run
func NewRodPage(cfg config.BrowserConfig) (*RodPage, error) {
	userDataDir := cfg.UserDataDir
	if userDataDir == "" {
		userDataDir = os.Getenv("BOT_DATA_DIR")
	}
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0755); err != nil {
			log.Printf("Warning: Failed to create browser data directory %s: %v\n", userDataDir, err)
			userDataDir = ""
		}
	}

	// Configure launcher with the same flags for every run
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(cfg.NoSandbox).
		Leakless(false). // Disable leakless to avoid antivirus issues
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-breakpad").
		Set("disable-default-apps").
		Set("disable-hang-monitor").
		Set("disable-popup-blocking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}

	if bin := findBrowserBin(cfg.Bin); bin != "" {
		l = l.Bin(bin)
	}

	// Launch browser
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	// Create the single page used for the whole run
	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			log.Printf("Warning: Failed to set user agent: %v\n", err)
		}
	}

	return &RodPage{
		launcher: l,
		browser:  browser,
		page:     page,
	}, nil
}

// findBrowserBin returns the configured binary or the first system Chrome found.
// An empty result lets rod download its own Chromium.
func findBrowserBin(configured string) string {
	if configured != "" {
		return configured
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}

	candidates := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	if username := os.Getenv("USERNAME"); username != "" {
		candidates = append(candidates, `C:\Users\`+username+`\AppData\Local\Google\Chrome\Application\chrome.exe`)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var (
	_ Page           = (*RodPage)(nil)
	_ documentOpener = (*rod.Page)(nil)
)

// documentOpener is the part of *rod.Page that opens a URL
type documentOpener interface {
	Navigate(url string) error
	WaitLoad() error
}

// openURL navigates and blocks until the new document has loaded, so later
// lookups never see the previous page's DOM
func openURL(p documentOpener, url string) error {
	// Navigate to the URL
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	// Wait for page to load
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

// Navigate implements the Page interface
func (rp *RodPage) Navigate(ctx context.Context, url string) error {
	rp.url = url
	return openURL(rp.page.Context(ctx), url)
}

// WaitFor implements the Page interface
func (rp *RodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p := rp.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNotReady
	}
	return fmt.Errorf("failed to wait for %q: %w", selector, err)
}

// URL implements the Page interface
func (rp *RodPage) URL() string {
	return rp.url
}

// Element implements the Element interface for the whole document
func (rp *RodPage) Element(selector string) (Element, error) {
	el, err := rp.page.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, notFound(err)
	}
	return &rodElement{el: el}, nil
}

// Elements implements the Element interface for the whole document
func (rp *RodPage) Elements(selector string) ([]Element, error) {
	els, err := rp.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

// Text returns the rendered text of the document body
func (rp *RodPage) Text() (string, error) {
	body, err := rp.Element("body")
	if err != nil {
		return "", err
	}
	return body.Text()
}

// Attribute is not meaningful for a document and always reports absence
func (rp *RodPage) Attribute(name string) (*string, error) {
	return nil, nil
}

// Close closes the page and the browser
func (rp *RodPage) Close() error {
	if rp.page != nil {
		if err := rp.page.Close(); err != nil {
			log.Printf("Warning: Failed to close page: %v\n", err)
		}
	}
	var err error
	if rp.browser != nil {
		err = rp.browser.Close()
	}
	if rp.launcher != nil {
		rp.launcher.Kill()
	}
	return err
}

type rodElement struct {
	el *rod.Element
}

func (re *rodElement) Element(selector string) (Element, error) {
	el, err := re.el.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, notFound(err)
	}
	return &rodElement{el: el}, nil
}

func (re *rodElement) Elements(selector string) ([]Element, error) {
	els, err := re.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

func (re *rodElement) Text() (string, error) {
	return re.el.Text()
}

func (re *rodElement) Attribute(name string) (*string, error) {
	return re.el.Attribute(name)
}

func wrapRodElements(els rod.Elements) []Element {
	wrapped := make([]Element, 0, len(els))
	for _, el := range els {
		wrapped = append(wrapped, &rodElement{el: el})
	}
	return wrapped
}

// notFound maps rod's not-found error onto ErrElementNotFound
func notFound(err error) error {
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) {
		return ErrElementNotFound
	}
	return err
}
