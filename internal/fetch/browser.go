package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

// BrowserOptions configures the headless browser source.
type BrowserOptions struct {
	Headless    bool
	UserAgent   string
	BrowserPath string
	Devtools    bool
}

// BrowserSource scrapes the results page with a headless browser. The court
// list renders its table with JavaScript for some courts, so a plain HTTP
// fetch comes back empty there; this source fills that gap at extension
// fidelity.
type BrowserSource struct {
	browser *rod.Browser
	mu      sync.Mutex
	logger  *logger.Logger
}

// NewBrowserSource launches the browser. Callers must Close it on shutdown.
func NewBrowserSource(opts BrowserOptions, log *logger.Logger) (*BrowserSource, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("user-agent", opts.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if opts.BrowserPath != "" {
		l = l.Bin(opts.BrowserPath)
	}
	if opts.Devtools {
		l = l.Devtools(true)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserSource{browser: browser, logger: log}, nil
}

func (s *BrowserSource) Name() string {
	return "browser"
}

// Kind reports extension fidelity: the rows come out of a rendered DOM, the
// same path the companion extension uses.
func (s *BrowserSource) Kind() Kind {
	return KindExtension
}

func (s *BrowserSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser.Close()
}

func (s *BrowserSource) Fetch(ctx context.Context, searchURL string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	s.logger.Debug("Navigating to court search page", "url", searchURL)
	if err := page.Navigate(searchURL); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page load failed: %w", err)
	}

	table, err := page.Element("table.table, table#resultados, .tabla-resultados")
	if err != nil {
		// Some "no results" pages omit the table entirely.
		body, berr := page.Element("body")
		if berr == nil {
			text, _ := body.Text()
			if strings.Contains(strings.ToLower(text), "sin resultados") ||
				strings.Contains(strings.ToLower(text), "no se encontr") {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("no results table found")
	}

	trs, err := table.Elements("tr")
	if err != nil {
		return nil, fmt.Errorf("failed to read table rows: %w", err)
	}

	var rows []Row
	for _, tr := range trs {
		tds, err := tr.Elements("td")
		if err != nil || len(tds) < 4 {
			continue
		}

		row := Row{
			AgreementID: elementText(tds[0]),
			Document:    elementText(tds[1]),
			Proceeding:  elementText(tds[2]),
			Parties:     elementText(tds[3]),
		}
		if len(tds) > 4 {
			row.Date = elementText(tds[4])
		}
		rows = append(rows, row)
	}

	s.logger.Debug("Browser scrape finished", "rows", len(rows))
	return rows, nil
}

func elementText(el *rod.Element) string {
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
