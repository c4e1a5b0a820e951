package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/security"
)

// SetResetToken stores the hash and expiry of a pending password reset, replacing any
// earlier one.
func (s *Store) SetResetToken(ctx context.Context, id, hash string, expires time.Time) (err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.reset_token.set", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.colUsers.UpdateOne(ctx, bson.M{"_id": o}, bson.M{"$set": bson.M{
		"reset_token_hash":    hash,
		"reset_token_expires": expires.UTC(),
		"updated_at":          s.now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword consumes a pending reset in one conditional update: the hash must
// match and the expiry must be after now. The new password is stored, both reset
// fields are removed and the refresh slot is cleared.
func (s *Store) ResetPassword(ctx context.Context, hash, newPassword string, now time.Time) (u *domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.reset_token.consume")
	defer func() { finish(sp, err) }()

	pw, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	filter := bson.M{
		"reset_token_hash":    hash,
		"reset_token_expires": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash":      pw,
			"refresh_token_hash": nil,
			"updated_at":         s.now(),
		},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expires": ""},
	}
	return s.findOneAndUpdate(ctx, filter, update)
}
