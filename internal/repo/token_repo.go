package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// SetRefreshHash overwrites the user's single refresh-token slot.
func (s *Store) SetRefreshHash(ctx context.Context, id, hash string) (err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.refresh.set", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.colUsers.UpdateOne(ctx, bson.M{"_id": o},
		bson.M{"$set": bson.M{"refresh_token_hash": hash, "updated_at": s.now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefresh empties the slot. Clearing an empty slot or a missing user is not an error.
func (s *Store) ClearRefresh(ctx context.Context, id string) (err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.refresh.clear", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return nil
	}
	_, err = s.colUsers.UpdateOne(ctx, bson.M{"_id": o},
		bson.M{"$set": bson.M{"refresh_token_hash": nil, "updated_at": s.now()}})
	return err
}
