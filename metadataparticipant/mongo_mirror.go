package metadataparticipant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/flexicommit/upload2pc/configs"
)

// MongoMirror writes a best-effort copy of every committed CatalogEntry to
// a Mongo collection, for out-of-band catalog browsing. Adapted from the
// teacher's storage.MongoDB — the upsert-by-key idiom is kept, the
// YCSB row-versioning fields (WriteLatchOwner, OldValue, rollback helpers)
// are dropped since there is no transactional rollback on this path: a
// mirror write either succeeds or is logged and forgotten (spec §4.3
// addition, "never on the commit-critical path").
type MongoMirror struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoMirror connects to uri and selects collection "catalog" in
// database "upload2pc_<nodeID>".
func NewMongoMirror(ctx context.Context, uri, nodeID string) (*MongoMirror, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	coll := client.Database("upload2pc_" + nodeID).Collection("catalog")
	return &MongoMirror{client: client, coll: coll}, nil
}

// Mirror upserts entry by filename. Called from a goroutine after commit;
// failures are logged and never propagated (CatalogMirror interface).
func (m *MongoMirror) Mirror(entry CatalogEntry) {
	ctx := context.Background()
	_, err := m.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: entry.Filename}},
		bson.M{"$set": bson.M{
			"filename": entry.Filename,
			"size":     entry.Size,
			"user":     entry.User,
			"path":     entry.Path,
			"version":  entry.Version,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		configs.Warn(false, "metadataparticipant: mongo mirror write failed for "+entry.Filename+": "+err.Error())
	}
}

// Close disconnects the Mongo client.
func (m *MongoMirror) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
