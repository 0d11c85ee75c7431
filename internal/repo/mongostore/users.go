package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/domain"
)

type UserStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{c: db.Collection(database.CollUsers), now: time.Now}
}

var _ domain.UserRepository = (*UserStore)(nil)

var noHash = bson.D{{Key: "password_hash", Value: 0}}

func (s *UserStore) findOne(ctx context.Context, filter bson.M, withHash bool) (*domain.User, error) {
	filter["active"] = true
	opts := options.FindOne()
	if !withHash {
		opts.SetProjection(noHash)
	}
	var u domain.User
	if err := s.c.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, u)
	return translate(err)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, false)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, false)
}

func (s *UserStore) FindCredentialsByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, true)
}

func (s *UserStore) FindCredentialsByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, true)
}

func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return s.findOne(ctx, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now},
	}, false)
}

func (s *UserStore) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = s.now().UTC()
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields}))
}

func (s *UserStore) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.set(ctx, id, bson.M{"password_reset_token": tokenHash, "password_reset_expires": expires})
}

func (s *UserStore) ClearResetToken(ctx context.Context, id string) error {
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"password_reset_token": "", "password_reset_expires": ""},
	}))
}

func (s *UserStore) ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string, changedAt time.Time) error {
	filter := bson.M{
		"_id":                    id,
		"active":                 true,
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash":       passwordHash,
			"password_changed_at": changedAt,
			"updated_at":          s.now().UTC(),
		},
		"$unset": bson.M{"password_reset_token": "", "password_reset_expires": ""},
	}
	return matched(s.c.UpdateOne(ctx, filter, update))
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	return s.set(ctx, id, bson.M{"password_hash": passwordHash, "password_changed_at": changedAt})
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) error {
	fields := bson.M{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}
	if p.Role != nil {
		fields["role"] = *p.Role
	}
	if p.Photo != nil {
		fields["photo"] = *p.Photo
	}
	if len(fields) == 0 {
		return nil
	}
	return s.set(ctx, id, fields)
}

func (s *UserStore) Deactivate(ctx context.Context, id string) error {
	return s.set(ctx, id, bson.M{"active": false})
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	return deleted(s.c.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *UserStore) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	filter := bson.M{}
	if !q.WithInactive {
		filter["active"] = true
	}
	if q.Q != "" {
		re := ciRegex(q.Q)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := pageOpts(q.Offset, q.Limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(noHash)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var out []domain.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func ciRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
