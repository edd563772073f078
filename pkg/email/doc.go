// Package email is the mail transport used by the notification email channel.
//
// EmailSender is the provider-agnostic contract. Two implementations exist:
//
//   - NewPostmarkClient sends through github.com/mrz1836/postmark.
//   - NewDevSender writes .html/.json files to a directory for local work.
//
// NewSender chooses between them from Config. Recipient addresses are checked
// with github.com/mcnijman/go-emailaddress before anything is sent; invalid
// parameters fail with ErrInvalidParams and transport errors with
// ErrFailedToSendEmail.
//
// Subject lines and HTML bodies for notification types come from the
// templates subpackage.
package email
