package shipping

import "strings"

// Tracking URL templates keyed by normalized carrier code, with an explicit
// multi-carrier fallback for anything we do not recognize.
var trackingURLs = map[string]string{
	"ups":   "https://www.ups.com/track?tracknum=",
	"fedex": "https://www.fedex.com/fedextrack/?trknbr=",
	"usps":  "https://tools.usps.com/go/TrackConfirmAction?tLabels=",
	"dhl":   "https://www.dhl.com/en/express/tracking.html?AWB=",
}

const fallbackTrackingURL = "https://www.aftership.com/track/"

// NormalizeCarrier collapses vendor spellings ("FedEx Ground", "USPS First
// Class") onto the lookup keys.
func NormalizeCarrier(carrier string) string {
	c := strings.ToLower(strings.TrimSpace(carrier))
	for code := range trackingURLs {
		if strings.Contains(c, code) {
			return code
		}
	}
	return c
}

func TrackingURL(carrier, trackingNumber string) string {
	if base, ok := trackingURLs[NormalizeCarrier(carrier)]; ok {
		return base + trackingNumber
	}
	return fallbackTrackingURL + trackingNumber
}
