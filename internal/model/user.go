package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User - users 컬렉션 문서
// Password, RefreshToken은 응답에 절대 포함하지 않음 (UserProfile 사용)
type User struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	Username     string          `bson:"username"`
	Email        string          `bson:"email"`
	FullName     string          `bson:"fullName"`
	Avatar       string          `bson:"avatar"`
	CoverImage   string          `bson:"coverImage"`
	WatchHistory []bson.ObjectID `bson:"watchHistory"`
	Password     string          `bson:"password"`
	RefreshToken string          `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

// UserProfile - password / refreshToken이 제거된 User 응답 구조체
type UserProfile struct {
	ID           string          `json:"_id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FullName     string          `json:"fullName"`
	Avatar       string          `json:"avatar"`
	CoverImage   string          `json:"coverImage"`
	WatchHistory []bson.ObjectID `json:"watchHistory" swaggertype:"array,string"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (u *User) Profile() UserProfile {
	history := u.WatchHistory
	if history == nil {
		history = []bson.ObjectID{}
	}
	return UserProfile{
		ID:           u.ID.Hex(),
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: history,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Subscription - subscriptions 컬렉션 문서 (subscriber -> channel)
type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Subscriber bson.ObjectID `bson:"subscriber"`
	Channel    bson.ObjectID `bson:"channel"`
	CreatedAt  time.Time     `bson:"createdAt"`
}

// ChannelProfile - 채널 프로필 aggregation 결과
type ChannelProfile struct {
	FullName                  string `bson:"fullName" json:"fullName"`
	Username                  string `bson:"username" json:"username"`
	Email                     string `bson:"email" json:"email"`
	Avatar                    string `bson:"avatar" json:"avatar"`
	CoverImage                string `bson:"coverImage" json:"coverImage"`
	SubscribersCount          int64  `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `bson:"isSubscribed" json:"isSubscribed"`
}
