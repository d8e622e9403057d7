package patterns

// DefaultKeywords returns the built-in keyword categories. A keywords_path
// file replaces the whole mapping.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		CategoryPricing: {
			"pricing update", "cost increase", "price increase", "vendor discount",
			"licensing change", "licensing increase", "license increase",
			"margin compression", "cybersecurity budget",
			"cloud pricing", "software inflation", "hardware surcharge",
			"tool rationalization", "contract renewal", "subscription pricing",
			"enterprise discount",
		},
		CategoryUrgencyHigh: {
			"urgent", "critical", "immediate", "emergency", "breaking",
			"price increase", "licensing increase", "discontinued",
			"end of life", "eol", "supply shortage", "recall",
			"security breach", "zero-day", "acquisition", "merger",
			"bankruptcy", "lawsuit",
		},
		CategoryUrgencyMedium: {
			"update", "change", "new pricing", "promotion", "discount",
			"partnership", "launch", "release", "expansion", "announcement",
		},
		CategorySupply: {
			"supply shortage", "out of stock", "backorder", "lead time",
			"supply chain", "allocation", "component shortage", "constrained supply",
		},
		CategoryStrategy: {
			"restructuring", "layoffs", "divestiture", "spin-off",
			"market exit", "consolidation", "go-to-market", "roadmap",
		},
		CategoryTechnology: {
			"end of support", "deprecation", "migration", "general availability",
			"upgrade path", "new release", "cloud native", "platform refresh",
		},
		CategoryCloudSecurity: {
			"cnapp", "cspm", "cwpp", "cloud security platform",
			"cloud security posture", "container security", "zero trust",
			"sase", "secure access service edge", "xdr",
		},
		CategoryPricingChange: {
			"price increase", "pricing doubled", "price hike", "cost increase",
			"licensing increase", "price jump", "pricing overhaul",
			"price adjustment", "subscription increase", "renewal increase",
		},
		CategoryPostAcquisition: {
			"post-acquisition", "acquisition audit", "auditing organizations",
			"post-merger", "monetization strategy", "licensing compliance",
			"licensing overhaul",
		},
		CategoryLicenseEnforcement: {
			"license audit", "license enforcement", "true-up",
			"compliance audit", "software audit", "audit letter",
		},
		CategoryPartnership: {
			"partner program", "channel program", "reseller program",
			"var program", "csp program", "distributor program",
			"certification program", "alliance",
		},
		CategoryPartnerTierChange: {
			"program is closing", "program closure", "program shutdown",
			"program discontinuation", "tier change", "partner tier",
		},
		CategoryRelationshipChange: {
			"migrate clients", "client migration", "migrate to competitors",
			"asked to shutdown", "business shutdown", "contract termination",
			"switching vendors", "thousands of partners",
		},
		CategoryMSPContext: {
			"msp", "msps", "managed service provider", "managed services",
			"rmm", "psa",
		},
		CategoryBusinessImpact: {
			"revenue impact", "margin impact", "margin hit", "budget impact",
			"cost impact", "financial impact", "bottom line", "profitability",
			"pass through", "absorb the cost", "program shutdown",
			"business shutdown",
		},
		CategoryDeadline: {
			"deadline", "expires", "by end of", "effective immediately",
			"within 30 days", "within 60 days", "renewal date", "cutoff",
			"time-sensitive", "limited time", "act now",
		},
		CategoryScale: {
			"thousands of", "all partners", "all customers", "every customer",
			"entire fleet", "org-wide", "company-wide", "across the board",
		},
	}
}
