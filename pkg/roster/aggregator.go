// Package roster builds the list of a creator's patrons by walking every page
// of the campaign's pledges and flattening each pledge into a Patron.
package roster

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/patreon-roster/pkg/pagination"
	"github.com/Sternrassler/patreon-roster/pkg/patreon"
)

// PageSize is the number of pledges requested per page.
const PageSize = 25

var (
	// ErrNoClient is returned when the aggregator has no API client.
	ErrNoClient = errors.New("patreon API client not defined")

	// ErrNoCampaign is returned when the token's user owns no campaign.
	ErrNoCampaign = errors.New("no campaign found for current user")
)

// pledgeFields limits pledge pages to the attributes the roster reads.
var pledgeFields = map[string][]string{
	"pledge": {attrTotalHistorical, attrDeclinedSince},
}

// PledgeSource is the part of the API client the aggregator drives.
type PledgeSource interface {
	FetchCampaign(ctx context.Context, includes []string, fields map[string][]string) (*patreon.Document, error)
	FetchPageOfPledges(ctx context.Context, req patreon.PledgePageRequest) (*patreon.Document, error)
}

// Source produces a roster.
type Source interface {
	Patrons(ctx context.Context) ([]Patron, error)
}

// pledgeRecord keeps a pledge together with the page that includes its
// related resources.
type pledgeRecord struct {
	pledge *patreon.Resource
	page   *patreon.Document
}

// Aggregator walks a campaign's pledges.
type Aggregator struct {
	client PledgeSource
	logger zerolog.Logger
}

// New creates an aggregator over client.
func New(client PledgeSource) *Aggregator {
	if c, ok := client.(*patreon.Client); ok && c == nil {
		client = nil
	}
	return &Aggregator{
		client: client,
		logger: log.With().Str("component", "roster").Logger(),
	}
}

// Patrons returns every patron of the current user's first campaign, in page
// order. Upstream error payloads are returned as a wrapped *patreon.APIError.
func (a *Aggregator) Patrons(ctx context.Context) ([]Patron, error) {
	if a == nil || a.client == nil {
		log.Error().Msg("Patreon API client not defined")
		return nil, ErrNoClient
	}

	start := time.Now()

	patrons, err := a.collect(ctx)
	if err != nil {
		aggregationsTotal.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Msg("Roster aggregation failed")
		return nil, err
	}

	aggregationsTotal.WithLabelValues("success").Inc()
	rosterSize.Set(float64(len(patrons)))
	a.logger.Info().
		Int("patrons", len(patrons)).
		Dur("duration", time.Since(start)).
		Msg("Roster built")

	return patrons, nil
}

func (a *Aggregator) collect(ctx context.Context) ([]Patron, error) {
	campaignID, err := a.campaignID(ctx)
	if err != nil {
		return nil, err
	}

	records, stats, err := pagination.Walk(ctx, a.pledgePage(campaignID))
	if err != nil {
		return nil, fmt.Errorf("walk pledges of campaign %s: %w", campaignID, err)
	}

	a.logger.Debug().
		Str("campaign_id", campaignID).
		Int("pages", stats.Pages).
		Int("pledges", stats.Items).
		Msg("Pledges collected")

	return extract(ctx, records)
}

// campaignID returns the id of the first campaign of the current user.
func (a *Aggregator) campaignID(ctx context.Context) (string, error) {
	doc, err := a.client.FetchCampaign(ctx, nil, nil)
	if err != nil {
		return "", fmt.Errorf("fetch campaign: %w", err)
	}
	if len(doc.Data) == 0 {
		return "", ErrNoCampaign
	}

	campaign := &doc.Data[0]

	var attrs campaignAttributes
	if err := campaign.DecodeAttributes(&attrs); err != nil {
		a.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("Unreadable campaign attributes")
	}
	a.logger.Debug().
		Str("campaign_id", campaign.ID).
		Str("creation_name", attrs.CreationName).
		Int("patron_count", attrs.PatronCount).
		Int("campaigns", len(doc.Data)).
		Msg("Campaign selected")

	return campaign.ID, nil
}

// campaignAttributes are the campaign fields reported when a walk starts.
type campaignAttributes struct {
	CreationName string `json:"creation_name"`
	PatronCount  int    `json:"patron_count"`
}

func (a *Aggregator) pledgePage(campaignID string) pagination.PageFunc[pledgeRecord] {
	return func(ctx context.Context, cursor string) ([]pledgeRecord, string, error) {
		doc, err := a.client.FetchPageOfPledges(ctx, patreon.PledgePageRequest{
			CampaignID: campaignID,
			PageSize:   PageSize,
			Cursor:     cursor,
			Fields:     pledgeFields,
		})
		if err != nil {
			return nil, "", err
		}

		next, err := patreon.ExtractCursor(doc, patreon.DefaultCursorPath)
		if err != nil {
			return nil, "", err
		}

		records := make([]pledgeRecord, 0, len(doc.Data))
		for i := range doc.Data {
			records = append(records, pledgeRecord{pledge: &doc.Data[i], page: doc})
		}
		return records, next, nil
	}
}

// extract converts every record, yielding to the scheduler between records
// so long rosters do not hog a processor. The first failing record aborts.
func extract(ctx context.Context, records []pledgeRecord) ([]Patron, error) {
	patrons := make([]Patron, 0, len(records))

	for _, rec := range records {
		runtime.Gosched()
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := toPatron(rec.page, rec.pledge)
		if err != nil {
			return nil, fmt.Errorf("pledge %s: %w", rec.pledge.ID, err)
		}
		patrons = append(patrons, p)
	}

	return patrons, nil
}
