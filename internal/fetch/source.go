// Package fetch produces raw search-result rows from the court's electronic
// list. Three source classes exist: a direct HTTP fetch, a CORS-proxy
// relayed fetch, and a scrape relay (headless browser, or rows pushed by the
// companion browser extension). The reconciliation core treats all of them
// uniformly as row producers.
package fetch

import (
	"context"
)

// Kind identifies the fidelity class of a fetch source. Lower value means
// higher trust when merge tie-breaking falls back to source priority.
type Kind int

const (
	KindDirect Kind = iota
	KindProxy
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindProxy:
		return "proxy"
	case KindExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Row is one raw scraped result row, untrusted until parsed and validated.
// Fields mirror the five columns of the TSJ results table.
type Row struct {
	AgreementID string `json:"agreement_id"`
	Document    string `json:"document"`
	Proceeding  string `json:"proceeding"`
	Parties     string `json:"parties"`
	Date        string `json:"date"`
}

// Source fetches raw rows for a search URL. Implementations must honor the
// context deadline; a timed-out source is reported as an error by Fetch and
// downgraded to an empty contribution by the caller.
type Source interface {
	Name() string
	Kind() Kind
	Fetch(ctx context.Context, searchURL string) ([]Row, error)
}

// StaticSource serves a fixed set of rows. Used for extension-relayed
// ingests, where the rows were scraped out of process, and in tests.
type StaticSource struct {
	SourceName string
	SourceKind Kind
	Rows       []Row
}

func (s *StaticSource) Name() string {
	return s.SourceName
}

func (s *StaticSource) Kind() Kind {
	return s.SourceKind
}

func (s *StaticSource) Fetch(ctx context.Context, searchURL string) ([]Row, error) {
	return s.Rows, nil
}
