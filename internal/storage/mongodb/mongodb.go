// Package mongodb provides a MongoDB-backed implementation of the
// storage.Storage interface using the official Go driver.
//
// Students live in a single collection. The driver's *mongo.Client owns
// the connection pool and is safe for concurrent use, so one Store is
// created at startup and shared by every request.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// studentDocument is the stored shape of a student. _id is left zero on
// insert so the driver generates it.
type studentDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Age     int                `bson:"age"`
	Address addressDocument    `bson:"address"`
}

type addressDocument struct {
	City    *string `bson:"city"`
	Country *string `bson:"country"`
}

func toAddressDocument(a types.Address) addressDocument {
	return addressDocument{City: a.City, Country: a.Country}
}

// toStudent re-keys the store's _id to the public id.
func (d studentDocument) toStudent() types.Student {
	return types.Student{
		ID:   d.ID.Hex(),
		Name: d.Name,
		Age:  d.Age,
		Address: types.Address{
			City:    d.Address.City,
			Country: d.Address.Country,
		},
	}
}

// Store is the concrete implementation of storage.Storage.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to the deployment named by cfg.Storage.MongoURI, verifies
// it with a ping, and returns a Store bound to the configured collection.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	coll := client.Database(cfg.Storage.Database).Collection(cfg.Storage.Collection)
	return &Store{client: client, coll: coll}, nil
}

// NewWithCollection wraps an existing collection handle. The caller keeps
// ownership of the underlying client.
func NewWithCollection(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Close disconnects the client created by New.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// CreateStudent inserts a new document and returns its generated _id as hex.
func (s *Store) CreateStudent(ctx context.Context, name string, age int, address types.Address) (string, error) {
	doc := studentDocument{
		Name:    name,
		Age:     age,
		Address: toAddressDocument(address),
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: insert: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("CreateStudent: unexpected id type %T", res.InsertedID)
	}

	return oid.Hex(), nil
}

// listFilter builds the query document for filter. Both conditions are
// AND-combined by being keys of the same document.
func listFilter(filter types.StudentFilter) bson.M {
	query := bson.M{}
	if filter.Country != nil {
		query["address.country"] = *filter.Country
	}
	if filter.MinAge != nil {
		query["age"] = bson.M{"$gte": *filter.MinAge}
	}
	return query
}

// GetStudents returns all documents matching filter.
func (s *Store) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	cur, err := s.coll.Find(ctx, listFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}
	defer cur.Close(ctx)

	students := make([]types.Student, 0)
	for cur.Next(ctx) {
		var doc studentDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("GetStudents: decode: %w", err)
		}
		students = append(students, doc.toStudent())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: cursor: %w", err)
	}

	return students, nil
}

// GetStudentByID fetches one document by _id.
func (s *Store) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	var doc studentDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return doc.toStudent(), nil
}

// updateSet builds the $set document for patch. Only supplied fields
// appear; address is written as a whole sub-document.
func updateSet(patch types.StudentPatch) bson.M {
	set := bson.M{}
	if v, ok := patch.Name.Get(); ok {
		set["name"] = v
	}
	if v, ok := patch.Age.Get(); ok {
		set["age"] = v
	}
	if v, ok := patch.Address.Get(); ok {
		set["address"] = toAddressDocument(v)
	}
	return set
}

// UpdateStudentByID applies patch with $set.
func (s *Store) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) error {
	set := updateSet(patch)
	if len(set) == 0 {
		return storage.ErrNoFields
	}

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteStudentByID removes one document by _id.
func (s *Store) DeleteStudentByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// objectID parses id, mapping malformed input to storage.ErrNotFound
// before any command reaches the server.
func objectID(id string) (primitive.ObjectID, error) {
	if !storage.IsValidID(id) {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}
