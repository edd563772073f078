package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verdictaid/notifier/pkg/email"
	"github.com/verdictaid/notifier/pkg/email/templates"
)

// EmailSender renders the template registered for the event type and mails
// it to the device owner's address.
type EmailSender struct {
	senderBase
	mailer  email.EmailSender
	catalog *templates.Catalog
}

// NewEmailSender creates an email channel sender. A nil catalog means the
// built-in one.
func NewEmailSender(mailer email.EmailSender, catalog *templates.Catalog, opts ...SenderOption) *EmailSender {
	if catalog == nil {
		catalog = templates.DefaultCatalog()
	}
	return &EmailSender{
		senderBase: newSenderBase(ChannelEmail, DefaultSenderTimeout, opts),
		mailer:     mailer,
		catalog:    catalog,
	}
}

// Deliver renders the catalog template for the event type and mails it to
// the device address.
func (s *EmailSender) Deliver(ctx context.Context, d Device, ev Event) bool {
	return s.run(ctx, d, ev, func(ctx context.Context) error {
		addr := strings.TrimSpace(d.Email)
		if addr == "" {
			return fmt.Errorf("%w: no email address", ErrMissingCredential)
		}
		if !email.IsValidAddress(addr) {
			return fmt.Errorf("%w: malformed email address", ErrDeliveryFailure)
		}

		msg, err := s.catalog.Compose(ctx, ev.Type, ev.Payload)
		if err != nil {
			if errors.Is(err, templates.ErrUnknownTemplate) {
				return fmt.Errorf("%w: %q", ErrUnknownNotificationType, ev.Type)
			}
			return errors.Join(ErrDeliveryFailure, err)
		}

		return s.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   addr,
			Subject:  msg.Subject,
			BodyHTML: msg.HTML,
			Tag:      msg.Tag,
		})
	})
}
