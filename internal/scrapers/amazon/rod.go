package amazon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodLauncher drives chromium over the devtools protocol, either a remote
// instance at ControlURL or a local one it starts itself.
type RodLauncher struct {
	ControlURL  string
	Headless    bool
	PageTimeout time.Duration
}

func (l RodLauncher) Launch(ctx context.Context) (Session, error) {
	var local *launcher.Launcher
	controlURL := l.ControlURL
	if controlURL != "" {
		resolved, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, err
		}
		controlURL = resolved
	} else {
		local = launcher.New().Headless(l.Headless).Context(ctx)
		u, err := local.Launch()
		if err != nil {
			return nil, err
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	err := browser.Connect()
	if err != nil {
		if local != nil {
			local.Kill()
		}
		return nil, err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		if local != nil {
			local.Kill()
		}
		return nil, err
	}

	timeout := l.PageTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &rodSession{
		browser: browser,
		page:    page,
		local:   local,
		timeout: timeout,
	}, nil
}

type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	local   *launcher.Launcher
	timeout time.Duration
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.timeout)
	err := page.Navigate(url)
	if err != nil {
		return err
	}
	return page.WaitLoad()
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).Timeout(s.timeout).HTML()
}

func (s *rodSession) Reload(ctx context.Context) error {
	page := s.page.Context(ctx).Timeout(s.timeout)
	err := page.Reload()
	if err != nil {
		return err
	}
	return page.WaitLoad()
}

func (s *rodSession) ClickIntoView(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	err = el.ScrollIntoView()
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) LinkByText(ctx context.Context, text string, timeout time.Duration) (string, error) {
	el, err := s.page.Context(ctx).Timeout(timeout).ElementR("a", text)
	if err != nil {
		return "", err
	}
	href, err := el.Attribute("href")
	if err != nil {
		return "", err
	}
	if href == nil {
		return "", fmt.Errorf("link %q has no href", text)
	}
	return *href, nil
}

func (s *rodSession) Close() error {
	err := errors.Join(s.page.Close(), s.browser.Close())
	if s.local != nil {
		s.local.Kill()
	}
	return err
}
