package model

// Frequency identifies how often a donation recurs.
type Frequency string

const (
	FrequencyOneTime Frequency = "one_time"
	FrequencyMonthly Frequency = "monthly"
)

// Metadata keys the donation form attaches to processor objects.
const (
	MetaDonorName   = "donor_name"
	MetaPhone       = "phone"
	MetaAddress     = "address"
	MetaCity        = "city"
	MetaState       = "state"
	MetaZip         = "zip"
	MetaDedication  = "dedication"
	MetaNotifyEmail = "notifyEmail"
	MetaNewsletter  = "subscribeToNewsletter"
)

// DonationEvent is the normalized outcome of one payment or subscription
// invoice, derived from a verified webhook event. AmountCents is always in
// minor currency units and never re-derived after extraction.
type DonationEvent struct {
	AmountCents int64
	Currency    string
	Frequency   Frequency
	DonorEmail  string
	Metadata    map[string]string
}

// Meta returns the metadata value for key, or "" when absent.
func (e DonationEvent) Meta(key string) string {
	return e.Metadata[key]
}

// NotificationMessage is a composed email. It is consumed immediately by the
// transport and never stored.
type NotificationMessage struct {
	Recipients []string
	Sender     string
	Subject    string
	BodyHTML   string
}
