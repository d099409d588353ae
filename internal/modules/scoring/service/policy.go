// Package scoring maps tracked actions to engagement points.
package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	ActionRegistration           = "registration"
	ActionLogin                  = "login"
	ActionProfileCompleted       = "profile_completed"
	ActionListingViewed          = "listing_viewed"
	ActionListingFavorited       = "listing_favorited"
	ActionFavoriteRemoved        = "favorite_removed"
	ActionListingShared          = "listing_shared"
	ActionListingInquiry         = "listing_inquiry"
	ActionSearchPerformed        = "search_performed"
	ActionSearchSaved            = "search_saved"
	ActionAlertCreated           = "alert_created"
	ActionTourRequested          = "tour_requested"
	ActionPhoneCallMade          = "phone_call_made"
	ActionEmailOpened            = "email_opened"
	ActionEmailClicked           = "email_clicked"
	ActionDocumentDownloaded     = "document_downloaded"
	ActionMortgageCalculatorUsed = "mortgage_calculator_used"
	ActionNewsletterSignup       = "newsletter_signup"
	ActionTimeOnSite             = "time_on_site"
)

const (
	MaxTimeOnSitePoints = 10

	LongViewSeconds      = 60
	LongViewBonus        = 1
	DetailedInquiryChars = 100
	DetailedInquiryBonus = 3
)

// DefaultWeights is the base point value of every known action.
var DefaultWeights = map[string]int{
	ActionRegistration:           10,
	ActionLogin:                  2,
	ActionProfileCompleted:       5,
	ActionListingViewed:          2,
	ActionListingFavorited:       3,
	ActionFavoriteRemoved:        -2,
	ActionListingShared:          4,
	ActionListingInquiry:         15,
	ActionSearchPerformed:        1,
	ActionSearchSaved:            5,
	ActionAlertCreated:           5,
	ActionTourRequested:          25,
	ActionPhoneCallMade:          20,
	ActionEmailOpened:            1,
	ActionEmailClicked:           3,
	ActionDocumentDownloaded:     5,
	ActionMortgageCalculatorUsed: 8,
	ActionNewsletterSignup:       5,
	ActionTimeOnSite:             0,
}

// Rule derives the final points of an action from its base weight and metadata.
type Rule func(base int, metadata map[string]any) int

// Policy is safe for concurrent use once constructed.
type Policy struct {
	weights map[string]int
	rules   map[string]Rule
}

type Option func(*Policy)

// WithWeights overrides or extends the base weight table.
func WithWeights(weights map[string]int) Option {
	return func(p *Policy) {
		for action, points := range weights {
			p.weights[action] = points
		}
	}
}

// WithRule installs a metadata rule for action, replacing any existing one.
func WithRule(action string, rule Rule) Option {
	return func(p *Policy) {
		p.rules[action] = rule
	}
}

func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		weights: make(map[string]int, len(DefaultWeights)),
		rules: map[string]Rule{
			ActionTimeOnSite:     timeOnSiteRule,
			ActionListingViewed:  listingViewedRule,
			ActionListingInquiry: listingInquiryRule,
		},
	}
	for action, points := range DefaultWeights {
		p.weights[action] = points
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate returns the points earned by action. Unknown actions earn nothing.
func (p *Policy) Evaluate(action string, metadata map[string]any) int {
	base, known := p.weights[action]
	rule, hasRule := p.rules[action]
	if !known && !hasRule {
		return 0
	}
	if hasRule {
		return rule(base, metadata)
	}
	return base
}

// Known reports whether action has a weight or rule.
func (p *Policy) Known(action string) bool {
	if _, ok := p.weights[action]; ok {
		return true
	}
	_, ok := p.rules[action]
	return ok
}

// Weights returns a copy of the effective weight table.
func (p *Policy) Weights() map[string]int {
	out := make(map[string]int, len(p.weights))
	for action, points := range p.weights {
		out[action] = points
	}
	return out
}

// Minutes on site count one point each, capped.
func timeOnSiteRule(_ int, metadata map[string]any) int {
	minutes, ok := number(metadata, "minutes")
	if !ok || minutes <= 0 {
		return 0
	}
	return int(math.Min(math.Floor(minutes), MaxTimeOnSitePoints))
}

func listingViewedRule(base int, metadata map[string]any) int {
	if seconds, ok := number(metadata, "view_time_seconds"); ok && seconds > LongViewSeconds {
		return base + LongViewBonus
	}
	return base
}

func listingInquiryRule(base int, metadata map[string]any) int {
	if length, ok := number(metadata, "message_length"); ok && length > DetailedInquiryChars {
		return base + DetailedInquiryBonus
	}
	return base
}

// number reads a numeric metadata value. JSON decoding yields float64 while
// in-process callers pass ints or numeric strings.
func number(metadata map[string]any, key string) (float64, bool) {
	raw, ok := metadata[key]
	if !ok || raw == nil {
		return 0, false
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
