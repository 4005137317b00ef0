package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB database. Each collection name
// maps to the Mongo collection of the same name. Documents use a string _id
// (the hex form of a fresh ObjectID) so ids stay opaque strings end to end.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (m *MongoStore) col(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *MongoStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	id := primitive.NewObjectID().Hex()
	// upsert so that ServerTimestamp fields can be resolved with $currentDate,
	// which InsertOne does not support
	opts := options.Update().SetUpsert(true)
	_, err := m.col(collection).UpdateOne(ctx, bson.M{"_id": id}, buildUpdate(fields), opts)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return id, nil
}

func (m *MongoStore) Merge(ctx context.Context, collection, id string, fields Fields) error {
	res, err := m.col(collection).UpdateOne(ctx, bson.M{"_id": id}, buildUpdate(fields))
	if err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := m.col(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := m.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return toDocument(raw), nil
}

func (m *MongoStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q, err := buildQuery(filters)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	cur, err := m.col(collection).Find(ctx, q.filter, q.options())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cur.Close(ctx)
	out := []Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, toDocument(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return out, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

// buildUpdate splits fields into a $set document and a $currentDate document
// for ServerTimestamp values.
func buildUpdate(fields Fields) bson.M {
	set := bson.M{}
	now := bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		if IsServerTimestamp(v) {
			now[k] = true
			continue
		}
		set[k] = v
	}
	upd := bson.M{}
	if len(set) > 0 {
		upd["$set"] = set
	}
	if len(now) > 0 {
		upd["$currentDate"] = now
	}
	return upd
}

type mongoQuery struct {
	filter bson.M
	sort   bson.D
	limit  int64
}

func (q mongoQuery) options() *options.FindOptions {
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}
	return opts
}

var mongoOps = map[Op]string{
	OpEqual:          "$eq",
	OpNotEqual:       "$ne",
	OpLess:           "$lt",
	OpLessOrEqual:    "$lte",
	OpGreater:        "$gt",
	OpGreaterOrEqual: "$gte",
	OpIn:             "$in",
}

func buildQuery(filters []Filter) (mongoQuery, error) {
	q := mongoQuery{filter: bson.M{}}
	limitZero := false
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return q, err
		}
		switch f.Kind {
		case KindWhere:
			cond, ok := q.filter[f.Field].(bson.M)
			if !ok {
				cond = bson.M{}
				q.filter[f.Field] = cond
			}
			if f.Op == OpArrayContains {
				// an equality match against an array field matches any element
				cond["$elemMatch"] = bson.M{"$eq": f.Value}
				continue
			}
			if f.Op == OpNotEqual {
				// != only matches documents that have the field
				cond["$exists"] = true
			}
			cond[mongoOps[f.Op]] = f.Value
		case KindOrderBy:
			dir := 1
			if f.Direction == Desc {
				dir = -1
			}
			q.sort = append(q.sort, bson.E{Key: f.Field, Value: dir})
		case KindLimit:
			q.limit = int64(f.N)
			limitZero = f.N == 0
		}
	}
	if limitZero {
		// Mongo treats limit 0 as "no limit"; match nothing instead
		q.filter = bson.M{"_id": bson.M{"$exists": false}}
	}
	return q, nil
}

func toDocument(raw bson.M) Document {
	id, _ := raw["_id"].(string)
	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	fields := make(Fields, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = normalize(v)
	}
	return Document{ID: id, Fields: fields}
}

// normalize converts BSON decoding types into plain Go values.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return primitive.DateTime(int64(t.T) * 1000).Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	}
	return v
}
