package pacer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ErrAmbiguousCaseNumber is returned when PACER reports several cases for a
// docket number and no case name is available to pick between them.
var ErrAmbiguousCaseNumber = errors.New("docket number matches multiple pacer cases")

// PossibleCase is one candidate returned by the possible-case-numbers endpoint
type PossibleCase struct {
	Number   string `xml:"number,attr"`
	ID       string `xml:"id,attr"`
	Title    string `xml:"title,attr"`
	Sortable string `xml:"sortable,attr"`
}

type possibleCasesResponse struct {
	XMLName xml.Name       `xml:"request"`
	Number  string         `xml:"number,attr"`
	Cases   []PossibleCase `xml:"case"`
}

// CaseLookupClient resolves docket numbers to PACER case ids via each
// court's possible_case_numbers.pl endpoint.
type CaseLookupClient struct {
	sessions *SessionManager
	client   *http.Client
	scorer   *matching.Scorer
	logger   ectologger.Logger
	// scheme is swapped out in tests
	scheme string
	host   func(courtID string) string
}

// NewCaseLookupClient creates a lookup client sharing the manager's session
func NewCaseLookupClient(sessions *SessionManager, logger ectologger.Logger) *CaseLookupClient {
	return &CaseLookupClient{
		sessions: sessions,
		client:   sessions.client,
		scorer:   matching.NewScorer(),
		logger:   logger,
		scheme:   "https",
		host:     CourtHost,
	}
}

// LookupCaseID resolves a docket number to its PACER case id. When the
// number matches several cases, caseName breaks the tie by caption
// similarity. An empty return with nil error means PACER knows no such case.
func (c *CaseLookupClient) LookupCaseID(ctx context.Context, courtID, docketNumber, caseName string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "pacer.CaseLookupClient.LookupCaseID")
	defer span.End()

	body, err := c.fetch(ctx, courtID, docketNumber, true)
	if err != nil {
		return "", err
	}

	var parsed possibleCasesResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"court_id":      courtID,
			"docket_number": docketNumber,
		}).Error("Failed to parse possible case numbers response")
		return "", err
	}

	switch len(parsed.Cases) {
	case 0:
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"court_id":      courtID,
			"docket_number": docketNumber,
		}).Debug("No PACER case found for docket number")
		return "", nil
	case 1:
		return parsed.Cases[0].ID, nil
	}

	if caseName == "" {
		return "", fmt.Errorf("%w: %s in %s (%d cases)", ErrAmbiguousCaseNumber, docketNumber, courtID, len(parsed.Cases))
	}

	titles := make([]string, len(parsed.Cases))
	for i, pc := range parsed.Cases {
		titles[i] = normalizers.Harmonize(pc.Title)
	}
	best := c.scorer.FindBestMatch(titles, normalizers.Harmonize(caseName), false)
	if best.MatchIndex < 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrAmbiguousCaseNumber, docketNumber, courtID)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"court_id":      courtID,
		"docket_number": docketNumber,
		"case_count":    len(parsed.Cases),
		"ratio":         best.Ratio,
	}).Debug("Picked PACER case by caption similarity")

	return parsed.Cases[best.MatchIndex].ID, nil
}

// fetch performs the GET, re-authenticating once if the session has gone
// stale server-side.
func (c *CaseLookupClient) fetch(ctx context.Context, courtID, docketNumber string, retry bool) ([]byte, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s://%s/cgi-bin/possible_case_numbers.pl?%s", c.scheme, c.host(courtID), docketNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	session.Apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if retry {
			if _, err := c.sessions.Refresh(ctx); err != nil {
				return nil, err
			}
			return c.fetch(ctx, courtID, docketNumber, false)
		}
		return nil, fmt.Errorf("pacer rejected session for %s: status %d", courtID, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("possible case numbers lookup failed for %s: status %d", courtID, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
