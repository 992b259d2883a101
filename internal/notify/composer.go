// Package notify builds donor-facing and internal notification messages from
// donation events.
package notify

import (
	"fmt"
	"strings"

	"github.com/jjdow676/donationform-backend-test/internal/model"
)

// FormatAmount renders minor currency units as a two-decimal dollar string.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// DonorMessage composes the thank-you email for the donor. Returns nil when
// the event carries no donor email.
func DonorMessage(ev model.DonationEvent, from string) *model.NotificationMessage {
	if ev.DonorEmail == "" {
		return nil
	}

	name := ev.Meta(model.MetaDonorName)
	if name == "" {
		name = "Friend"
	}

	subject := "Thank you for your donation!"
	wording := "donation"
	if ev.Frequency == model.FrequencyMonthly {
		subject = "Thank you for your monthly donation!"
		wording = "monthly donation"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Dear %s,</p>", name)
	fmt.Fprintf(&b, "<p>Thank you for your %s of %s. Your generosity makes our work possible.</p>",
		wording, FormatAmount(ev.AmountCents))
	if ded := ev.Meta(model.MetaDedication); ded != "" {
		fmt.Fprintf(&b, "<p>Dedication: %s</p>", ded)
	}
	b.WriteString("<p>With gratitude,<br>The Team</p>")

	return &model.NotificationMessage{
		Recipients: []string{ev.DonorEmail},
		Sender:     from,
		Subject:    subject,
		BodyHTML:   b.String(),
	}
}

// InternalMessage composes the staff notification with a fixed-order field
// dump of the donation. Returns nil when no recipients are configured.
func InternalMessage(ev model.DonationEvent, from string, recipients []string) *model.NotificationMessage {
	if len(recipients) == 0 {
		return nil
	}

	freq := "One-time"
	if ev.Frequency == model.FrequencyMonthly {
		freq = "Monthly"
	}

	// The form sends the literal string "Yes"; anything else means no.
	newsletter := "No"
	if ev.Meta(model.MetaNewsletter) == "Yes" {
		newsletter = "Yes"
	}

	var b strings.Builder
	b.WriteString("<p>A new donation has been received.</p><ul>")
	fmt.Fprintf(&b, "<li>Amount: %s</li>", FormatAmount(ev.AmountCents))
	fmt.Fprintf(&b, "<li>Frequency: %s</li>", freq)
	fmt.Fprintf(&b, "<li>Name: %s</li>", ev.Meta(model.MetaDonorName))
	fmt.Fprintf(&b, "<li>Email: %s</li>", ev.DonorEmail)
	fmt.Fprintf(&b, "<li>Phone: %s</li>", ev.Meta(model.MetaPhone))
	fmt.Fprintf(&b, "<li>Address: %s, %s, %s %s</li>",
		ev.Meta(model.MetaAddress), ev.Meta(model.MetaCity),
		ev.Meta(model.MetaState), ev.Meta(model.MetaZip))
	if ded := ev.Meta(model.MetaDedication); ded != "" {
		fmt.Fprintf(&b, "<li>Dedication: %s</li>", ded)
	}
	if ack := ev.Meta(model.MetaNotifyEmail); ack != "" {
		fmt.Fprintf(&b, "<li>Send acknowledgement to: %s</li>", ack)
	}
	fmt.Fprintf(&b, "<li>Newsletter signup: %s</li>", newsletter)
	b.WriteString("</ul>")

	return &model.NotificationMessage{
		Recipients: recipients,
		Sender:     from,
		Subject:    fmt.Sprintf("New %s donation: %s", strings.ToLower(freq), FormatAmount(ev.AmountCents)),
		BodyHTML:   b.String(),
	}
}
