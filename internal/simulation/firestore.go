package simulation

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/rs/xid"
	"golang.org/x/xerrors"
	"google.golang.org/api/option"
)

// FirestoreSink stores every sample as a document of a Firestore collection.
// The documents of a run share the same run id.
//
// - implements simulation.TraceSink
type FirestoreSink struct {
	client     *firestore.Client
	collection string
	run        string
}

// NewFirestoreSink connects to the Firestore of the project described by the
// credentials file.
func NewFirestoreSink(ctx context.Context, credentials, collection string) (*FirestoreSink, error) {
	opt := option.WithCredentialsFile(credentials)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, xerrors.Errorf("failed to create app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to create firestore client: %v", err)
	}

	return &FirestoreSink{
		client:     client,
		collection: collection,
		run:        xid.New().String(),
	}, nil
}

// Run returns the id shared by the documents of the run.
func (s *FirestoreSink) Run() string {
	return s.run
}

// Record implements simulation.TraceSink.
func (s *FirestoreSink) Record(ctx context.Context, sample Sample) error {
	_, _, err := s.client.Collection(s.collection).Add(ctx, s.document(sample))
	if err != nil {
		return xerrors.Errorf("failed to store sample: %v", err)
	}

	return nil
}

// Close implements simulation.TraceSink.
func (s *FirestoreSink) Close() error {
	return s.client.Close()
}

func (s *FirestoreSink) document(sample Sample) map[string]interface{} {
	return map[string]interface{}{
		"run":         s.run,
		"seconds":     sample.At.Seconds(),
		"generated":   int64(sample.Generated),
		"reputations": sample.Reputations,
	}
}
