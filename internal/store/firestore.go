package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
)

// FirestoreStore keeps one document per record. Documents get generated IDs
// and are looked up by their fileName field, since identifiers may contain
// characters Firestore rejects in document IDs.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: collection,
	}
}

func (fs *FirestoreStore) byFileName(id string) firestore.Query {
	return fs.client.Collection(fs.collection).Where("fileName", "==", id).Limit(1)
}

// Gets a record by identifier.
func (fs *FirestoreStore) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	iter := fs.byFileName(id).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) || status.Code(err) == codes.NotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	var record models.ImageRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", apperrors.ErrStoreCorrupt, doc.Ref.ID, err)
	}
	record.ID = id

	return &record, nil
}

// Creates or replaces the record for id inside a transaction, so two
// uploads of the same identifier never produce two documents.
func (fs *FirestoreStore) Put(ctx context.Context, id string, record *models.ImageRecord) error {
	stored := *record
	stored.ID = id

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		iter := tx.Documents(fs.byFileName(id))
		defer iter.Stop()

		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return tx.Create(fs.client.Collection(fs.collection).NewDoc(), &stored)
		}
		if err != nil {
			return err
		}
		return tx.Set(doc.Ref, &stored)
	})
	if err != nil {
		return fmt.Errorf("failed to put metadata: %w", err)
	}

	return nil
}

// Retrieves all records ordered by identifier.
func (fs *FirestoreStore) List(ctx context.Context) ([]*models.ImageRecord, error) {
	iter := fs.client.Collection(fs.collection).OrderBy("fileName", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var results []*models.ImageRecord
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}

		var record models.ImageRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", apperrors.ErrStoreCorrupt, doc.Ref.ID, err)
		}

		results = append(results, &record)
	}

	return results, nil
}

func (fs *FirestoreStore) Close() error {
	return fs.client.Close()
}
