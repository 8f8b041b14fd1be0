package roster

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Sternrassler/patreon-roster/pkg/patreon"
)

// Pledge and user attribute names read by the roster.
const (
	attrTotalHistorical = "total_historical_amount_cents"
	attrDeclinedSince   = "declined_since"
	attrAmountCents     = "amount_cents"
	attrFirstName       = "first_name"
	attrDiscordUserID   = "social_connections.discord.user_id"
)

var (
	// ErrMissingResource is returned when a pledge links to a patron or
	// reward the page does not include.
	ErrMissingResource = errors.New("related resource not included")

	// ErrMissingAttribute is returned when a pledge lacks its lifetime total.
	ErrMissingAttribute = errors.New("required attribute missing")
)

// Patron is one supporter of the campaign.
type Patron struct {
	Name string `json:"name"`

	// Payment is the amount of the pledged reward tier in whole currency
	// units, 0 without a tier.
	Payment int `json:"payment"`

	// Declined is set while the latest payment has been declined.
	Declined bool `json:"declined"`

	// Total is the lifetime amount paid in whole currency units.
	Total int `json:"total"`

	// DiscordID is the linked Discord account, nil when none is linked.
	DiscordID *int64 `json:"discord_id"`
}

// DiscordID returns the Discord user id linked to a patron. It reports false
// when the connection is missing or the id is not a whole number.
func DiscordID(patron *patreon.Resource) (int64, bool) {
	v := patron.Attribute(attrDiscordUserID)

	switch v.Type {
	case gjson.String:
		id, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case gjson.Number:
		if id, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return id, true
		}
		// Whole numbers written as floats (123.0, 1e3). Fractions are rejected.
		if v.Num != math.Trunc(v.Num) || math.Abs(v.Num) >= 1<<63 {
			return 0, false
		}
		return int64(v.Num), true
	default:
		return 0, false
	}
}

// Declined reports whether a pledge carries a declined_since timestamp.
func Declined(pledge *patreon.Resource) bool {
	v := pledge.Attribute(attrDeclinedSince)
	return v.Exists() && v.Type != gjson.Null
}

// toPatron flattens a pledge and the resources its page includes.
func toPatron(page *patreon.Document, pledge *patreon.Resource) (Patron, error) {
	total := pledge.Attribute(attrTotalHistorical)
	if total.Type != gjson.Number {
		return Patron{}, fmt.Errorf("%w: %s", ErrMissingAttribute, attrTotalHistorical)
	}

	user, ok := page.Related(pledge, "patron")
	if !ok {
		return Patron{}, fmt.Errorf("%w: patron", ErrMissingResource)
	}

	payment, err := rewardPayment(page, pledge)
	if err != nil {
		return Patron{}, err
	}

	p := Patron{
		Name:     user.Attribute(attrFirstName).String(),
		Payment:  payment,
		Declined: Declined(pledge),
		Total:    int(total.Int() / 100),
	}
	if id, ok := DiscordID(user); ok {
		p.DiscordID = &id
	}

	return p, nil
}

// rewardPayment returns the pledged tier's amount in whole units, or 0 when
// the pledge has no reward.
func rewardPayment(page *patreon.Document, pledge *patreon.Resource) (int, error) {
	rel, ok := pledge.Relationships["reward"]
	if !ok || !rel.HasData() {
		return 0, nil
	}

	reward, ok := page.Related(pledge, "reward")
	if !ok {
		return 0, fmt.Errorf("%w: reward %s", ErrMissingResource, rel.Data[0].ID)
	}
	return int(reward.Attribute(attrAmountCents).Int() / 100), nil
}
