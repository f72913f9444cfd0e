package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Video - videos 컬렉션 문서 (이 서비스에서는 조회만 수행)
type Video struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	VideoFile   string        `bson:"videoFile"`
	Thumbnail   string        `bson:"thumbnail"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Duration    float64       `bson:"duration"`
	Views       int64         `bson:"views"`
	IsPublished bool          `bson:"isPublished"`
	Owner       bson.ObjectID `bson:"owner"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

// VideoOwner - 시청 기록의 owner 축약 프로젝션
type VideoOwner struct {
	ID       bson.ObjectID `bson:"_id" json:"_id" swaggertype:"string"`
	FullName string        `bson:"fullName" json:"fullName"`
	Username string        `bson:"username" json:"username"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}

// WatchedVideo - owner가 단일 객체로 풀린 시청 기록 항목
type WatchedVideo struct {
	ID          bson.ObjectID `bson:"_id" json:"_id" swaggertype:"string"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	IsPublished bool          `bson:"isPublished" json:"isPublished"`
	Owner       *VideoOwner   `bson:"owner,omitempty" json:"owner"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}
