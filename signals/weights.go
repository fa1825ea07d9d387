package signals

// Weights is the scoring table shared by all extractors. Every confidence
// is Base plus the deltas whose condition holds, clamped to [0.1, 1.0].
// Items below Min are dropped; at most Cap survive ranking.
//
// The table is data, not state: nothing mutates it at runtime. Change
// DefaultWeights and bump Version together so results scored under
// different tables can be told apart.
type Weights struct {
	Version  int
	Pricing  PricingWeights
	Coupon   CouponWeights
	Discount DiscountWeights
	Feature  FeatureWeights
	Button   ButtonWeights
}

type PricingWeights struct {
	Base           float64
	PricingContext float64 // inside a pricing/plan/cost/tier block
	BillingKeyword float64 // month, year, plan, subscription, billing
	CurrencyMarkup float64 // dedicated currency/symbol child element
	CleanPrice     float64 // element text is just the price
	StructuredAttr float64 // itemprop=price or data-price present
	LongText       float64 // text over 150 chars
	ScriptTag      float64
	Min            float64
	Cap            int
}

type CouponWeights struct {
	Base          float64
	Cue           float64 // "code:", "use coupon", "promo code" before the token
	CouponContext float64 // inside a coupon/promo/voucher block
	DataAttr      float64 // token came from data-coupon / data-promo-code
	HasValue      float64 // a % or currency value accompanies it
	CopyControl   float64 // a copy button sits next to it
	Chrome        float64 // inside nav/header/footer
	ScriptLike    float64
	Min           float64
	Cap           int
}

type DiscountWeights struct {
	Base            float64
	DiscountContext float64 // inside a discount/sale/offer/deal block
	ExplicitValue   float64 // a percentage or amount was captured
	Urgency         float64 // limited time, ends soon, today only
	Chrome          float64
	LongText        float64
	ScriptLike      float64
	Min             float64
	Cap             int
}

type FeatureWeights struct {
	Base        float64
	ListContext float64 // inside a feature/benefit block or a list
	Sentence    float64 // starts upper-case and longer than 8 chars
	Icon        float64 // check mark or icon next to it
	PlanContext float64 // inside a plan card
	LongText    float64
	ScriptLike  float64
	ScriptTag   float64
	Min         float64
	Cap         int
}

type ButtonWeights struct {
	Base          float64
	PrimaryClass  float64 // cta / primary styling
	ActionKeyword float64 // get started, sign up, try, buy, contact...
	HeroContext   float64 // hero, banner or cta section
	Chrome        float64 // inside nav/header/footer
	ScriptLike    float64
	Min           float64
	Cap           int
}

// DefaultWeights is the current scoring table.
var DefaultWeights = Weights{
	Version: 1,
	Pricing: PricingWeights{
		Base:           0.5,
		PricingContext: 0.25,
		BillingKeyword: 0.15,
		CurrencyMarkup: 0.1,
		CleanPrice:     0.2,
		StructuredAttr: 0.1,
		LongText:       -0.2,
		ScriptTag:      -0.8,
		Min:            0.4,
		Cap:            12,
	},
	Coupon: CouponWeights{
		Base:          0.6,
		Cue:           0.2,
		CouponContext: 0.1,
		DataAttr:      0.15,
		HasValue:      0.1,
		CopyControl:   0.05,
		Chrome:        -0.2,
		ScriptLike:    -0.6,
		Min:           0.5,
		Cap:           8,
	},
	Discount: DiscountWeights{
		Base:            0.6,
		DiscountContext: 0.15,
		ExplicitValue:   0.1,
		Urgency:         0.05,
		Chrome:          -0.1,
		LongText:        -0.2,
		ScriptLike:      -0.6,
		Min:             0.5,
		Cap:             10,
	},
	Feature: FeatureWeights{
		Base:        0.5,
		ListContext: 0.2,
		Sentence:    0.15,
		Icon:        0.1,
		PlanContext: 0.05,
		LongText:    -0.2,
		ScriptLike:  -0.5,
		ScriptTag:   -0.8,
		Min:         0.4,
		Cap:         25,
	},
	Button: ButtonWeights{
		Base:          0.6,
		PrimaryClass:  0.2,
		ActionKeyword: 0.15,
		HeroContext:   0.1,
		Chrome:        -0.2,
		ScriptLike:    -0.5,
		Min:           0.5,
		Cap:           18,
	},
}
