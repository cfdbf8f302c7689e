// Package intake pulls census submissions out of mailboxes and parks
// the raw messages on disk plus an uploads row, ready for processing.
package intake

import "censusfmt/internal"

type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
