package models

// DayHours is one day's opening window. Disabled days keep their last hours.
type DayHours struct {
	Open    string `json:"open"`
	Close   string `json:"close"`
	Enabled bool   `json:"enabled"`
}

// DeliveryZone maps a set of zip codes to a delivery fee.
type DeliveryZone struct {
	Name        string   `json:"name"`
	ZipCodes    []string `json:"zipCodes"`
	DeliveryFee float64  `json:"deliveryFee"`
	Enabled     bool     `json:"enabled"`
}

// Settings is the store-wide configuration record. The fee and tax fields are
// what the storefront displays; the pricing pipeline keeps its own pinned
// rates so historical order totals stay reproducible.
type Settings struct {
	DeliveryFee        float64             `json:"deliveryFee"`
	MinimumOrder       float64             `json:"minimumOrder"`
	TaxRate            float64             `json:"taxRate"`
	ProcessingFeeRate  float64             `json:"processingFeeRate"`
	ProcessingFeeFixed float64             `json:"processingFeeFixed"`
	BusinessHours      map[string]DayHours `json:"businessHours"`
	DeliveryZones      []DeliveryZone      `json:"deliveryZones"`
	Notifications      NotificationPrefs   `json:"notifications"`
}

// NotificationPrefs toggles the outbound notification channels.
type NotificationPrefs struct {
	SMSEnabled   bool `json:"smsEnabled"`
	EmailEnabled bool `json:"emailEnabled"`
}
