// Package pricing computes lead prices. Capture-time pricing is a pure
// function of the scored signal; purchase-time pricing applies the buying
// provider's subscription discount on top of the stored price.
package pricing

import (
	"math"

	"github.com/voicebridge/lead-marketplace/internal/leads"
)

const (
	// BasePrice is the floor every lead starts from, in dollars.
	BasePrice = 35
	// MaxPrice caps the capture-time price. It is a ceiling only; a
	// computed price below BasePrice cannot occur since all multipliers
	// are >= 1.
	MaxPrice = 75
)

// ForCapture prices a freshly scored lead.
func ForCapture(leadScore int, usageDays int, appEngagement float64) leads.Pricing {
	quality := 1 + float64(leadScore)/100

	var urgency float64
	switch {
	case usageDays < 3:
		urgency = 1.8
	case usageDays < 7:
		urgency = 1.5
	default:
		urgency = 1.2
	}

	engagement := 1 + appEngagement/200

	price := int(math.Round(BasePrice * quality * urgency * engagement))
	if price > MaxPrice {
		price = MaxPrice
	}

	return leads.Pricing{
		BasePrice:            BasePrice,
		QualityMultiplier:    quality,
		UrgencyMultiplier:    urgency,
		EngagementMultiplier: engagement,
		FinalPrice:           price,
	}
}

// ForPurchase applies the buyer's subscription tier discount to the stored
// lead price. The result is what gets charged and recorded; the lead's
// capture-time price is left untouched.
func ForPurchase(finalPrice int, subscriptionTier string) int {
	mult := 1.0
	switch subscriptionTier {
	case "enterprise":
		mult = 0.7
	case "practice_plus":
		mult = 0.8
	case "pro":
		mult = 0.9
	}
	return int(math.Round(float64(finalPrice) * mult))
}
