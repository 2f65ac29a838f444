package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/internal/domain/repository"
)

const usersCollection = "users"

var (
	identityProjection = bson.M{
		"name": 1, "email": 1, "isAdmin": 1, "isBusiness": 1, "isUser": 1, "tempAdminExpiry": 1,
	}
	// passwordHash stays so listings can report hasPassword; the HTTP projection drops it
	listProjection = bson.M{
		"resetPasswordToken": 0, "resetPasswordExpires": 0,
	}
)

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index and the lookup indexes used by OAuth and
// password reset.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys: bson.D{{Key: "oauth.googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_google_id").
				SetPartialFilterExpression(bson.M{"oauth.googleId": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token"),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, models)
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := r.now().UTC()
	u.Email = entity.NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	doc := fromEntity(u)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetIdentityByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(identityProjection))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": entity.NormalizeEmail(email)})
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	if googleID == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"oauth.googleId": googleID})
}

func (r *UserRepository) List(ctx context.Context, offset, limit int64) ([]*entity.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetProjection(listProjection)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(patch, r.now().UTC()))
}

func (r *UserRepository) ExpireTempAdmin(ctx context.Context, id string, expiry time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	filter := bson.M{"_id": oid, "tempAdminExpiry": expiry}
	update := bson.M{
		"$set":   bson.M{"isAdmin": false, "updatedAt": r.now().UTC()},
		"$unset": bson.M{"tempAdminExpiry": ""},
	}
	// zero matches means another request already cleared it or a newer grant replaced it
	_, err = r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *UserRepository) LinkGoogle(ctx context.Context, id string, link entity.OAuthLink) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repository.ErrNotFound
	}
	filter := bson.M{"_id": oid, "oauth.googleId": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{
		"oauth":     oauthDocument{GoogleID: link.GoogleID, GoogleEmail: link.GoogleEmail},
		"updatedAt": r.now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	filter := bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"passwordHash": passwordHash, "updatedAt": r.now().UTC()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*entity.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
