package session

import (
	"context"
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

// Fixed browser policy: the window size and hardening flags match what the
// portal tolerates and are not exposed as options. Headless is the sole
// caller-visible knob.
var launchArgs = []string{
	"--window-size=1920,1080",
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-extensions",
	"--disable-setuid-sandbox",
}

// PlaywrightFactory creates Chromium-backed sessions.
type PlaywrightFactory struct {
	headless  bool
	userAgent string
	timeout   time.Duration
}

// NewPlaywrightFactory builds a session factory. timeout bounds individual
// element operations inside the session.
func NewPlaywrightFactory(headless bool, userAgent string, timeout time.Duration) *PlaywrightFactory {
	return &PlaywrightFactory{
		headless:  headless,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// New launches a browser and opens a fresh page.
func (f *PlaywrightFactory) New(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := runtime.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(f.headless),
		Args:     launchArgs,
	})
	if err != nil {
		runtime.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(pw.BrowserNewContextOptions{
		UserAgent: pw.String(f.userAgent),
		Viewport:  &pw.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		browser.Close()
		runtime.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browser.Close()
		runtime.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &playwrightSession{
		runtime: runtime,
		browser: browser,
		page:    page,
		timeout: f.timeout,
	}, nil
}

type playwrightSession struct {
	runtime *pw.Playwright
	browser pw.Browser
	page    pw.Page
	timeout time.Duration
}

func (s *playwrightSession) NavigateTo(url string) error {
	if !s.Alive() {
		return ErrSessionLost{Err: fmt.Errorf("navigate to %s: browser disconnected", url)}
	}
	_, err := s.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
		Timeout:   pw.Float(s.millis()),
	})
	if err != nil {
		return s.wrap(fmt.Errorf("navigate to %s: %w", url, err))
	}
	return nil
}

func (s *playwrightSession) Find(selector string) (Element, error) {
	loc := s.page.Locator(selector)
	count, err := loc.Count()
	if err != nil {
		return nil, s.wrap(err)
	}
	if count == 0 {
		return nil, ErrElementNotFound{Selector: selector}
	}
	return &playwrightElement{session: s, locator: loc.First(), selector: selector}, nil
}

func (s *playwrightSession) FindAll(selector string) ([]Element, error) {
	locators, err := s.page.Locator(selector).All()
	if err != nil {
		return nil, s.wrap(err)
	}
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{session: s, locator: loc, selector: selector})
	}
	return elements, nil
}

func (s *playwrightSession) Click(selector string) error {
	el, err := s.Find(selector)
	if err != nil {
		return err
	}
	return el.Click()
}

func (s *playwrightSession) ReadText(selector string) (string, error) {
	el, err := s.Find(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *playwrightSession) Select(selector, label string) error {
	el, err := s.Find(selector)
	if err != nil {
		return err
	}
	loc := el.(*playwrightElement).locator
	labels := []string{label}
	if _, err := loc.SelectOption(pw.SelectOptionValues{Labels: &labels}, pw.LocatorSelectOptionOptions{
		Timeout: pw.Float(s.millis()),
	}); err != nil {
		return s.wrap(fmt.Errorf("select %q in %s: %w", label, selector, err))
	}
	return nil
}

func (s *playwrightSession) Screenshot() ([]byte, error) {
	data, err := s.page.Screenshot(pw.PageScreenshotOptions{FullPage: pw.Bool(true)})
	if err != nil {
		return nil, s.wrap(err)
	}
	return data, nil
}

func (s *playwrightSession) PageSource() (string, error) {
	content, err := s.page.Content()
	if err != nil {
		return "", s.wrap(err)
	}
	return content, nil
}

func (s *playwrightSession) Alive() bool {
	return s.browser.IsConnected() && !s.page.IsClosed()
}

func (s *playwrightSession) Close() error {
	if err := s.browser.Close(); err != nil {
		s.runtime.Stop()
		return fmt.Errorf("close browser: %w", err)
	}
	return s.runtime.Stop()
}

func (s *playwrightSession) millis() float64 {
	return float64(s.timeout.Milliseconds())
}

// wrap upgrades an engine error to ErrSessionLost when the browser has gone
// away, so the resilience layer knows to request a replacement.
func (s *playwrightSession) wrap(err error) error {
	if err == nil {
		return nil
	}
	if !s.Alive() {
		return ErrSessionLost{Err: err}
	}
	return err
}

type playwrightElement struct {
	session  *playwrightSession
	locator  pw.Locator
	selector string
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.locator.InnerText(pw.LocatorInnerTextOptions{Timeout: pw.Float(e.session.millis())})
	if err != nil {
		return "", e.session.wrap(fmt.Errorf("read %s: %w", e.selector, err))
	}
	return text, nil
}

func (e *playwrightElement) Click() error {
	if err := e.locator.Click(pw.LocatorClickOptions{Timeout: pw.Float(e.session.millis())}); err != nil {
		return e.session.wrap(fmt.Errorf("click %s: %w", e.selector, err))
	}
	return nil
}

func (e *playwrightElement) Find(selector string) (Element, error) {
	loc := e.locator.Locator(selector)
	count, err := loc.Count()
	if err != nil {
		return nil, e.session.wrap(err)
	}
	if count == 0 {
		return nil, ErrElementNotFound{Selector: selector}
	}
	return &playwrightElement{session: e.session, locator: loc.First(), selector: selector}, nil
}

func (e *playwrightElement) FindAll(selector string) ([]Element, error) {
	locators, err := e.locator.Locator(selector).All()
	if err != nil {
		return nil, e.session.wrap(err)
	}
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{session: e.session, locator: loc, selector: selector})
	}
	return elements, nil
}
