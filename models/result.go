package models

import "time"

// Placeholders used when a page carries no title or description.
const (
	PlaceholderTitle       = "No title found"
	PlaceholderDescription = "No description found"
)

// SourceHTML is the provenance tag every result carries.
const SourceHTML = "html-scraping"

// ScrapedResult is the structured competitive-intelligence view of one
// seed page and the related pages discovered from it.
type ScrapedResult struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Pricing     []PricingItem  `json:"pricing"`
	Coupons     []CouponItem   `json:"coupons"`
	Discounts   []DiscountItem `json:"discounts"`
	Features    []FeatureItem  `json:"features"`
	Buttons     []ButtonItem   `json:"buttons"`
	Pages       []PageRef      `json:"pages"`
	Metadata    ResultMetadata `json:"metadata"`

	// Findings lists alternative-source discoveries (structured data,
	// feeds, embedded API endpoints).
	Findings []Finding `json:"findings,omitempty"`

	// Archive lists web archive captures of the seed URL.
	Archive []ArchiveSnapshot `json:"archive,omitempty"`

	// Snapshot is a diffable digest of the seed page for change analysis.
	Snapshot *ContentSnapshot `json:"snapshot,omitempty"`
}

// ResultMetadata carries timing and provenance for a ScrapedResult.
type ResultMetadata struct {
	URL              string    `json:"url"`
	ScrapedAt        time.Time `json:"scrapedAt"`
	PagesScraped     int       `json:"pagesScraped"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	DataQuality      float64   `json:"dataQuality"`
	Sources          []string  `json:"sources"`
}

// Billing periods.
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
	BillingWeekly  = "weekly"
	BillingDaily   = "daily"
	BillingOneTime = "one-time"
)

// Pricing categories.
const (
	PricingSubscription = "subscription"
	PricingOneTime      = "one-time"
	PricingUsageBased   = "usage-based"
	PricingFreemium     = "freemium"
	PricingEnterprise   = "enterprise"
)

// PricingItem is one price point, attributed to a plan.
type PricingItem struct {
	Price      string   `json:"price"`
	Plan       string   `json:"plan"`
	Features   []string `json:"features"`
	Billing    string   `json:"billing"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`

	// Source is set when the item came from structured data rather
	// than DOM heuristics (e.g. "json-ld", "microdata").
	Source string `json:"source,omitempty"`
}

// CouponItem is a redeemable promotional code.
type CouponItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Discount    string  `json:"discount"`
	Expiry      string  `json:"expiry,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Discount types.
const (
	DiscountPercentage   = "percentage"
	DiscountFixed        = "fixed"
	DiscountBOGO         = "bogo"
	DiscountFreeTrial    = "free-trial"
	DiscountFreeShipping = "free-shipping"
	DiscountLimitedTime  = "limited-time"
)

// DiscountItem is an advertised reduction or promotional offer.
type DiscountItem struct {
	Text       string  `json:"text"`
	Percentage string  `json:"percentage,omitempty"`
	Amount     string  `json:"amount,omitempty"`
	Type       string  `json:"type"`
	Conditions string  `json:"conditions,omitempty"`
	ValidUntil string  `json:"validUntil,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Feature categories.
const (
	FeatureCore       = "core"
	FeaturePremium    = "premium"
	FeatureEnterprise = "enterprise"
	FeatureAddon      = "addon"
)

// FeatureItem is a product capability claim.
type FeatureItem struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Plan       string  `json:"plan,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Button types.
const (
	ButtonCTA      = "cta"
	ButtonSignup   = "signup"
	ButtonTrial    = "trial"
	ButtonPurchase = "purchase"
	ButtonContact  = "contact"
	ButtonDemo     = "demo"
	ButtonDownload = "download"
	ButtonPricing  = "pricing"
)

// ButtonItem is a call-to-action element.
type ButtonItem struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	URL        string  `json:"url,omitempty"`
	Plan       string  `json:"plan,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Page types assigned to related pages.
const (
	PagePricing  = "pricing"
	PagePlans    = "plans"
	PageFeatures = "features"
	PageOffers   = "offers"
	PageCoupons  = "coupons"
)

// PageRef is a related page that was fetched and mined.
type PageRef struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Finding is one alternative-source discovery with its provenance tag.
type Finding struct {
	Source     string            `json:"source"`
	Kind       string            `json:"kind"`
	URL        string            `json:"url,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Confidence float64           `json:"confidence"`
}

// ArchiveSnapshot is one web archive capture of a URL.
type ArchiveSnapshot struct {
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Original  string `json:"original"`
}

// ContentSnapshot is the part of a page the change-analysis collaborator
// diffs between two runs.
type ContentSnapshot struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"`
	Markdown    string   `json:"markdown"`
	Tokens      int      `json:"tokens"`

	// ContentHash and StructureHash are 64-bit simhash fingerprints in hex.
	ContentHash   string `json:"contentHash"`
	StructureHash string `json:"structureHash"`
}

// Page is a fetched HTML document.
type Page struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url"`
	HTML       string    `json:"-"`
	StatusCode int       `json:"status_code"`
	Engine     string    `json:"engine"`
	FetchedAt  time.Time `json:"fetched_at"`
	FromCache  bool      `json:"from_cache"`
}
