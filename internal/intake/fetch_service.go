package intake

import (
	"censusfmt/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched      int
	Stored       int
	AlreadyKnown int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		// A message the store already tracks keeps its lifecycle state;
		// storing it again would not change anything on disk either.
		existing, err := s.db.GetUploadBySourceMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return FetchResult{}, err
		}
		if existing != nil {
			result.AlreadyKnown++
			continue
		}
		if _, err := s.store.Store(msg); err != nil {
			return FetchResult{}, err
		}
		result.Stored++
	}

	return result, nil
}
