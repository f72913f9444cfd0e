package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vidtube/backend/internal/model"
)

func (db *Mongo) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if user.WatchHistory == nil {
		user.WatchHistory = []bson.ObjectID{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.users.InsertOne(ctx, user)
	return err
}

func (db *Mongo) GetUserByID(ctx context.Context, userID bson.ObjectID) (*model.User, error) {
	var user model.User
	if err := db.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByLogin - email 또는 username 중 하나라도 일치하는 사용자 조회
// username은 소문자로 저장되어 있으므로 호출 측에서 소문자로 넘겨야 함
func (db *Mongo) FindUserByLogin(ctx context.Context, email, username string) (*model.User, error) {
	filter, ok := loginFilter(email, username)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	var user model.User
	if err := db.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Mongo) UserExists(ctx context.Context, email, username string) (bool, error) {
	filter, ok := loginFilter(email, username)
	if !ok {
		return false, nil
	}

	count, err := db.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetRefreshToken - refreshToken 필드만 교체 (다른 필드 검증 없이 단일 슬롯 덮어쓰기)
func (db *Mongo) SetRefreshToken(ctx context.Context, userID bson.ObjectID, token string) error {
	return db.updateOne(ctx, userID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: token},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
}

func (db *Mongo) ClearRefreshToken(ctx context.Context, userID bson.ObjectID) error {
	return db.updateOne(ctx, userID, bson.D{
		{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	})
}

// UpdatePassword - 비밀번호 해시 교체와 동시에 저장된 refresh token 폐기
func (db *Mongo) UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error {
	return db.updateOne(ctx, userID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
		{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}},
	})
}

func (db *Mongo) UpdateAccount(ctx context.Context, userID bson.ObjectID, fullName, email string) (*model.User, error) {
	return db.findAndSet(ctx, userID, bson.D{
		{Key: "fullName", Value: fullName},
		{Key: "email", Value: email},
	})
}

func (db *Mongo) UpdateAvatar(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error) {
	return db.findAndSet(ctx, userID, bson.D{{Key: "avatar", Value: url}})
}

func (db *Mongo) UpdateCoverImage(ctx context.Context, userID bson.ObjectID, url string) (*model.User, error) {
	return db.findAndSet(ctx, userID, bson.D{{Key: "coverImage", Value: url}})
}

func (db *Mongo) updateOne(ctx context.Context, userID bson.ObjectID, update bson.D) error {
	res, err := db.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (db *Mongo) findAndSet(ctx context.Context, userID bson.ObjectID, fields bson.D) (*model.User, error) {
	fields = append(fields, bson.E{Key: "updatedAt", Value: time.Now().UTC()})

	var user model.User
	err := db.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func loginFilter(email, username string) (bson.D, bool) {
	var or bson.A
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if username != "" {
		or = append(or, bson.D{{Key: "username", Value: username}})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.D{{Key: "$or", Value: or}}, true
}
