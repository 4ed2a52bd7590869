// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package advisor

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/dialogue"
	"github.com/AleutianAI/Harborview/services/advisor/generate"
	"github.com/AleutianAI/Harborview/services/advisor/market"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var intentHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "harborview",
	Subsystem: "resolver",
	Name:      "data_intent_hits_total",
	Help:      "Data-intent matches by intent name",
}, []string{"intent"})

// =============================================================================
// Data-Intent Table
// =============================================================================

// dataIntent is one entry in the ordered data-intent table. Like the
// dialogue rule table, order IS the priority: "unemployment" must match the
// economy intent before the employer intent gets a chance at "employ".
type dataIntent struct {
	name string

	// match reports whether this intent handles the lowercased query.
	match func(q string) bool

	// compose renders the data-backed answer from the profile. ok=false
	// means the record this intent needs is missing and the cascade should
	// continue instead of answering with nothing.
	compose func(p *datatypes.CompositeAreaProfile) (string, bool)
}

var (
	rentalRe   = regexp.MustCompile(`\brent(al|s|ed|ing)?\b|\broi\b|cash flow|yield`)
	strRe      = regexp.MustCompile(`airbnb|short[ -]term|\bstr\b|nightly|vacation rental`)
	economyRe  = regexp.MustCompile(`unemployment|job growth|\beconom(y|ic)`)
	employerRe = regexp.MustCompile(`employer|\bjobs?\b|hiring|\bwork(s|ing)? (in|near|around)\b`)
	buildGoRe  = regexp.MustCompile(`construction cost|cost (to|of) build(ing)?|cost per (square|sq)|permit`)
	demoRe     = regexp.MustCompile(`population|median (household )?income|demographic|median age`)
	overviewRe = regexp.MustCompile(`overview|profile|\bstats\b|market (in|data|report)|how('s| is) the market`)
)

// dataIntents is evaluated top to bottom; first match wins.
var dataIntents = []dataIntent{
	{name: "short_term_rental", match: strRe.MatchString, compose: composeShortTerm},
	{name: "rental", match: rentalRe.MatchString, compose: composeRental},
	{name: "economy", match: economyRe.MatchString, compose: composeEconomy},
	{name: "employers", match: employerRe.MatchString, compose: composeEmployers},
	{name: "construction", match: buildGoRe.MatchString, compose: composeConstruction},
	{name: "demographics", match: demoRe.MatchString, compose: composeDemographics},
	{name: "area_overview", match: overviewRe.MatchString, compose: composeOverview},
}

// =============================================================================
// Stage 4: data-backed answer
// =============================================================================

// tryDomainData answers queries that name a known data-intent, using the
// composite profile of the area named in the query (or the session's last
// mentioned area). Confidence scales with profile completeness within
// [0.80, 0.95]: an answer drawn from a full seven-domain profile carries
// more certainty than one from a profile with a single record.
func (r *Resolver) tryDomainData(ctx context.Context, p *pass) *datatypes.AnswerCandidate {
	var hit *dataIntent
	for i := range dataIntents {
		if dataIntents[i].match(p.lower) {
			hit = &dataIntents[i]
			break
		}
	}
	if hit == nil {
		return nil
	}
	area := r.targetArea(p)
	if area == "" {
		return nil
	}
	intentHits.WithLabelValues(hit.name).Inc()

	profile := r.aggregator.GetAreaProfile(ctx, area)
	text, ok := hit.compose(profile)
	if !ok {
		return nil
	}
	return &datatypes.AnswerCandidate{
		Text:       text,
		Confidence: dataConfidence(profile),
		Sources:    []string{generate.DatasetName},
		SuggestedActions: []datatypes.SuggestedAction{
			{Label: "Full area profile", ActionToken: "area_profile"},
			{Label: "Compare another area", ActionToken: "compare_area"},
		},
	}
}

// targetArea picks the area a data answer should cover: named in this query
// first, then the session's last mentioned area.
func (r *Resolver) targetArea(p *pass) string {
	if areas := areasInText(p.lower); len(areas) > 0 {
		return areas[len(areas)-1]
	}
	if p.sctx != nil {
		return p.sctx.Slots.LastMentionedArea()
	}
	return ""
}

// areasInText scans lowercased text for known area names, in order of
// appearance.
func areasInText(lower string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, name := range dialogue.KnownAreas() {
		if pos := strings.Index(lower, name); pos >= 0 {
			hits = append(hits, hit{pos: pos, name: name})
		}
	}
	// Insertion sort by position; the list is tiny.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// dataConfidence maps profile completeness onto [0.80, 0.95]. The sum can
// land a float ulp above the ceiling for a complete profile, so clamp.
func dataConfidence(p *datatypes.CompositeAreaProfile) float64 {
	c := 0.80 + 0.15*float64(p.DomainsPresent())/float64(len(market.AllDomains))
	return math.Min(c, 0.95)
}

// =============================================================================
// Intent Composers
// =============================================================================

func composeRental(p *datatypes.CompositeAreaProfile) (string, bool) {
	r := p.Rental
	if r == nil {
		return "", false
	}
	text := fmt.Sprintf("Rental numbers for %s: median rent is %s/month with occupancy at %.1f%% "+
		"and average ROI around %.1f%%.",
		displayArea(p.Area), dialogue.FormatUSD(r.MedianRent), r.OccupancyRate, r.AvgROI)
	if r.YoYRentChange != 0 {
		text += fmt.Sprintf(" Rents have moved %+.1f%% year over year.", r.YoYRentChange)
	}
	if p.ShortTerm != nil {
		text += fmt.Sprintf(" If you're weighing short-term instead, nightly rates average %s at %.1f%% occupancy.",
			dialogue.FormatUSD(p.ShortTerm.AvgDailyRate), p.ShortTerm.OccupancyRate)
	}
	text += " Want me to compare yields against another area?"
	return text, true
}

func composeShortTerm(p *datatypes.CompositeAreaProfile) (string, bool) {
	s := p.ShortTerm
	if s == nil {
		return "", false
	}
	text := fmt.Sprintf("Short-term rentals in %s: %d active listings, averaging %s/night at %.1f%% "+
		"occupancy, which works out to roughly %s in monthly revenue.",
		displayArea(p.Area), s.ActiveListings, dialogue.FormatUSD(s.AvgDailyRate),
		s.OccupancyRate, dialogue.FormatUSD(s.MonthlyRevenue))
	if p.Rental != nil {
		text += fmt.Sprintf(" For reference, a long-term lease there runs about %s/month.",
			dialogue.FormatUSD(p.Rental.MedianRent))
	}
	text += " Should I break down the long-term vs short-term math?"
	return text, true
}

func composeEconomy(p *datatypes.CompositeAreaProfile) (string, bool) {
	e := p.Employment
	if e == nil {
		return "", false
	}
	text := fmt.Sprintf("Economic picture for %s: unemployment sits at %.1f%% with job growth of "+
		"%+.1f%% year over year.", displayArea(p.Area), e.UnemploymentRate, e.JobGrowthYoY)
	if p.Demographics != nil {
		text += fmt.Sprintf(" Median household income is %s across a population of %s.",
			dialogue.FormatUSD(p.Demographics.MedianHouseholdIncome),
			formatCount(p.Demographics.Population))
	}
	text += " Job growth above 2% usually shows up in housing demand within a year - want the market numbers too?"
	return text, true
}

func composeEmployers(p *datatypes.CompositeAreaProfile) (string, bool) {
	e := p.Employment
	if e == nil || len(e.MajorEmployers) == 0 {
		return "", false
	}
	names := make([]string, 0, 3)
	for i, emp := range e.MajorEmployers {
		if i == 3 {
			break
		}
		names = append(names, fmt.Sprintf("%s (%s, ~%s employees)",
			emp.Name, emp.Sector, formatCount(emp.Employees)))
	}
	text := fmt.Sprintf("Major employers around %s: %s.", displayArea(p.Area), strings.Join(names, ", "))
	text += fmt.Sprintf(" Unemployment there is %.1f%% with %+.1f%% job growth.",
		e.UnemploymentRate, e.JobGrowthYoY)
	text += " Employer concentration matters for rental demand - want the rental numbers?"
	return text, true
}

func composeConstruction(p *datatypes.CompositeAreaProfile) (string, bool) {
	c := p.Construction
	if c == nil {
		return "", false
	}
	text := fmt.Sprintf("Construction activity in %s: %d permits on file, %d new units coming, and "+
		"%d active builders. Build cost averages %s per square foot",
		displayArea(p.Area), c.PermitCount, c.NewUnits, c.ActiveBuilders,
		dialogue.FormatUSD(c.AvgCostPerSqft))
	if c.AvgUnitPrice > 0 {
		text += fmt.Sprintf(", with new units pricing around %s", dialogue.FormatUSD(c.AvgUnitPrice))
	}
	text += "."
	if p.Development != nil && p.Development.ProjectCount > 0 {
		text += fmt.Sprintf(" There are also %d announced development projects in the pipeline.",
			p.Development.ProjectCount)
	}
	text += " Are you pricing a build or reading the supply trend?"
	return text, true
}

func composeDemographics(p *datatypes.CompositeAreaProfile) (string, bool) {
	d := p.Demographics
	if d == nil {
		return "", false
	}
	text := fmt.Sprintf("Demographics for %s: population %s", displayArea(p.Area), formatCount(d.Population))
	if d.PopulationGrowth != 0 {
		text += fmt.Sprintf(" (%+.1f%% growth)", d.PopulationGrowth)
	}
	text += fmt.Sprintf(", median household income %s, median age %.0f.",
		dialogue.FormatUSD(d.MedianHouseholdIncome), d.MedianAge)
	text += " Income growth and in-migration are the two demand signals I'd watch here. " +
		"Want the price trend alongside?"
	return text, true
}

func composeOverview(p *datatypes.CompositeAreaProfile) (string, bool) {
	m := p.Market
	if m == nil {
		return "", false
	}
	text := fmt.Sprintf("Market snapshot for %s: median price %s at %s/sqft, homes averaging "+
		"%.0f days on market with %.1f months of inventory, and prices %+.1f%% year over year.",
		displayArea(p.Area), dialogue.FormatUSD(m.MedianPrice), dialogue.FormatUSD(m.PricePerSqft),
		m.AvgDaysOnMarket, m.MonthsInventory, m.YoYPriceChange)
	if p.Investment != nil {
		text += fmt.Sprintf(" Growth potential scores %.0f/200 and the overall investment score is %.0f/100.",
			p.GrowthPotential, p.Investment.Total)
	}
	if len(p.MissingDomains) > 0 {
		text += fmt.Sprintf(" (No data yet for: %s.)", strings.Join(p.MissingDomains, ", "))
	}
	text += " Want me to zoom into rentals, construction, or jobs?"
	return text, true
}

// =============================================================================
// Stage 5: smart aggregate answer
// =============================================================================

var aggregateRe = regexp.MustCompile(`invest|should i (buy|build)|worth (buying|building|it)|develop|good (area|place|market)|compare`)

// trySmartAggregate is the broad multi-domain fallback for build/invest/
// develop intents: it leans on the full composite profile and the derived
// assessment instead of a single domain record.
func (r *Resolver) trySmartAggregate(ctx context.Context, p *pass) *datatypes.AnswerCandidate {
	goalDriven := false
	if p.sctx != nil {
		g := p.sctx.Slots.Goal
		goalDriven = g == datatypes.GoalInvest || g == datatypes.GoalBuild
	}
	if !aggregateRe.MatchString(p.lower) && !goalDriven {
		return nil
	}
	area := r.targetArea(p)
	if area == "" {
		return nil
	}

	profile := r.aggregator.GetAreaProfile(ctx, area)
	inv := profile.Investment
	if inv == nil || profile.DomainsPresent() == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's the full picture on %s: investment score %.0f/100, growth potential %.0f/200.",
		displayArea(profile.Area), inv.Total, profile.GrowthPotential)
	if len(inv.Recommendations) > 0 {
		b.WriteString(" " + inv.Recommendations[0])
	}
	if len(inv.RiskFactors) > 0 {
		fmt.Fprintf(&b, " Watch out for: %s.", strings.Join(inv.RiskFactors, "; "))
	}
	if c := profile.Construction; c != nil && c.AvgCostPerSqft > 0 {
		fmt.Fprintf(&b, " If you'd rather build, construction runs about %s/sqft there.",
			dialogue.FormatUSD(c.AvgCostPerSqft))
	}
	b.WriteString(" Want the component scores behind that number?")

	return &datatypes.AnswerCandidate{
		Text:       b.String(),
		Confidence: dataConfidence(profile),
		Sources:    []string{generate.DatasetName, "scoring-engine"},
		SuggestedActions: []datatypes.SuggestedAction{
			{Label: "Component scores", ActionToken: "score_breakdown"},
			{Label: "Risk factors", ActionToken: "risk_factors"},
		},
	}
}

// =============================================================================
// Formatting Helpers
// =============================================================================

// displayArea renders a normalized (lowercased) area name for user-facing
// text.
func displayArea(area string) string {
	words := strings.Fields(area)
	for i, w := range words {
		if w == "the" && i > 0 {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatCount renders an integer with comma grouping.
func formatCount(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
