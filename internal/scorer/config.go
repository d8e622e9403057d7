// Package scorer implements keyword, vendor and boost scoring for pricing
// intelligence items.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
)

// DefaultConfig returns a config.ScoringConfig with the standard weights and
// caps. Revenue weights sum to 1.
func DefaultConfig() config.ScoringConfig {
	return config.ScoringConfig{
		// Keyword category weights and caps.
		PricingWeight:       1.0,
		PricingCap:          5.0,
		UrgencyHighWeight:   2.0,
		UrgencyHighCap:      6.0,
		UrgencyMediumWeight: 1.0,
		UrgencyMediumCap:    3.0,
		ContextWeight:       0.5,
		ContextCap:          2.0,

		// Vendor and recency.
		VendorWeight: 1.5,
		VendorCap:    6.0,
		Tier1Bonus:   1.0,
		RecencyDay:   1.5,
		RecencyWeek:  0.5,

		// Boosts.
		CloudSecurityBoost:       3.0,
		CloudSecurityVendorBoost: 1.0,
		MABoost:                  3.0,
		MAConsolidatorBoost:      2.0,
		MALicenseAuditBoost:      1.5,
		MACap:                    6.5,
		PartnershipBoost:         2.0,
		PartnerTierChangeBoost:   4.0,
		RelationshipChangeBoost:  3.0,
		PartnershipCap:           8.0,

		// Context multiplier and urgency threshold.
		MSPMultiplier:  1.5,
		MediumTotalMin: 7.0,

		RevenueWeights: model.RevenueWeights{
			Immediate:   0.30,
			Margin:      0.25,
			Competitive: 0.20,
			Strategic:   0.15,
			Urgency:     0.10,
		},
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	// All weights, caps and boosts must be non-negative.
	values := map[string]float64{
		"pricing_weight":              c.PricingWeight,
		"pricing_cap":                 c.PricingCap,
		"urgency_high_weight":         c.UrgencyHighWeight,
		"urgency_high_cap":            c.UrgencyHighCap,
		"urgency_medium_weight":       c.UrgencyMediumWeight,
		"urgency_medium_cap":          c.UrgencyMediumCap,
		"context_weight":              c.ContextWeight,
		"context_cap":                 c.ContextCap,
		"vendor_weight":               c.VendorWeight,
		"vendor_cap":                  c.VendorCap,
		"tier1_bonus":                 c.Tier1Bonus,
		"recency_day":                 c.RecencyDay,
		"recency_week":                c.RecencyWeek,
		"cloud_security_boost":        c.CloudSecurityBoost,
		"cloud_security_vendor_boost": c.CloudSecurityVendorBoost,
		"ma_boost":                    c.MABoost,
		"ma_consolidator_boost":       c.MAConsolidatorBoost,
		"ma_license_audit_boost":      c.MALicenseAuditBoost,
		"ma_cap":                      c.MACap,
		"partnership_boost":           c.PartnershipBoost,
		"partner_tier_change_boost":   c.PartnerTierChangeBoost,
		"relationship_change_boost":   c.RelationshipChangeBoost,
		"partnership_cap":             c.PartnershipCap,
		"medium_total_min":            c.MediumTotalMin,
	}
	for name, v := range values {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	// A multiplier below 1 would let context matches lower a score.
	if c.MSPMultiplier < 1.0 {
		errs = append(errs, "msp_multiplier must be >= 1.0")
	}

	w := c.RevenueWeights
	revWeights := map[string]float64{
		"immediate":   w.Immediate,
		"margin":      w.Margin,
		"competitive": w.Competitive,
		"strategic":   w.Strategic,
		"urgency":     w.Urgency,
	}
	for name, v := range revWeights {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("revenue_weights.%s must be >= 0", name))
		}
	}

	sum := w.Immediate + w.Margin + w.Competitive + w.Strategic + w.Urgency
	if math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("revenue weights should sum to 1.0, got %.2f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
