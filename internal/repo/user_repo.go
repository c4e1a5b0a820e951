package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/security"
)

func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return o, nil
}

func finish(sp ddtrace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		sp.SetTag("error", err)
	}
	sp.Finish()
}

// CreateUser hashes password and inserts u, filling in its ID.
func (s *Store) CreateUser(ctx context.Context, u *domain.User, password string) (err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.insert")
	defer func() { finish(sp, err) }()

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u.PasswordHash = hash
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := s.colUsers.InsertOne(ctx, u)
	if IsDup(err) {
		return ErrEmailExists
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.find_by_email")
	defer func() { finish(sp, err) }()
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (u *domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.find_by_id", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": o})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) (out []domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.list")
	defer func() { finish(sp, err) }()

	cur, err := s.colUsers.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out = []domain.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.delete", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.colUsers.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate carries the fields a profile update may touch; nil means unchanged.
type ProfileUpdate struct {
	Name *string
	Role *domain.Role
}

// UpdateProfile applies p in a single FindOneAndUpdate and returns the new document,
// so concurrent updates to one user never interleave a read and a write.
func (s *Store) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (u *domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.update_profile", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": s.now()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": o}, bson.M{"$set": set})
}

// FederatedLink is what a first federated login attaches to an existing local account.
type FederatedLink struct {
	FederatedID string
	AuthType    string
	Avatar      string // empty keeps the current avatar
}

// LinkFederated sets the federated identity only if the user has none yet.
// ErrNotFound means the user is gone or was linked concurrently.
func (s *Store) LinkFederated(ctx context.Context, id string, l FederatedLink) (u *domain.User, err error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.link_federated", tracer.Tag("user_id", id))
	defer func() { finish(sp, err) }()

	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"federated_id": l.FederatedID,
		"auth_type":    l.AuthType,
		"updated_at":   s.now(),
	}
	if l.Avatar != "" {
		set["avatar"] = l.Avatar
	}
	filter := bson.M{
		"_id":          o,
		"federated_id": bson.M{"$in": bson.A{nil, ""}},
	}
	return s.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
