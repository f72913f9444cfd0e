// 채널 프로필 / 시청 기록 aggregation
//
// 두 쿼리 모두 단일 aggregation으로 한 번에 조회 (N+1 조회 없음)

package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vidtube/backend/internal/model"
)

// ChannelProfilePipeline - username(소문자)로 채널을 찾고 구독자 수, 구독 채널 수, 구독 여부 계산
// viewerID가 nil이면 (비로그인) isSubscribed는 항상 false
func ChannelProfilePipeline(username string, viewerID *bson.ObjectID) mongo.Pipeline {
	var isSubscribed any = false
	if viewerID != nil {
		isSubscribed = bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{*viewerID, "$subscribers.subscriber"}}}},
			{Key: "then", Value: true},
			{Key: "else", Value: false},
		}}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "username", Value: username}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: subscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: subscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscribersCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channelsSubscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: isSubscribed},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
			{Key: "email", Value: 1},
		}}},
	}
}

// WatchHistoryPipeline - watchHistory의 video 문서와 owner 축약 정보를 조회
// $lookup은 localField 배열 순서를 보장하지 않으므로 저장된 id 순서대로 $map으로 다시 정렬
// 삭제된 video id는 $filter로 제거
func WatchHistoryPipeline(userID bson.ObjectID) mongo.Pipeline {
	ownerLookup := bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: usersCollection},
		{Key: "localField", Value: "owner"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owner"},
		{Key: "pipeline", Value: bson.A{
			bson.D{{Key: "$project", Value: bson.D{
				{Key: "fullName", Value: 1},
				{Key: "username", Value: 1},
				{Key: "avatar", Value: 1},
			}}},
		}},
	}}}
	flattenOwner := bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "owner", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$owner", 0}}}},
	}}}

	inStoredOrder := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: "$watchHistory"},
		{Key: "as", Value: "videoId"},
		{Key: "in", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: "$watchedVideos"},
				{Key: "as", Value: "video"},
				{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$video._id", "$$videoId"}}}},
			}}},
			0,
		}}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: videosCollection},
			{Key: "localField", Value: "watchHistory"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "watchedVideos"},
			{Key: "pipeline", Value: bson.A{ownerLookup, flattenOwner}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "watchHistory", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: inStoredOrder},
				{Key: "as", Value: "item"},
				{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$$item"}}, "object"}}}},
			}}}},
		}}},
	}
}

func (db *Mongo) GetChannelProfile(ctx context.Context, username string, viewerID *bson.ObjectID) (*model.ChannelProfile, error) {
	cursor, err := db.users.Aggregate(ctx, ChannelProfilePipeline(username, viewerID))
	if err != nil {
		return nil, fmt.Errorf("channel profile aggregate: %w", err)
	}

	var channels []model.ChannelProfile
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("channel profile decode: %w", err)
	}
	if len(channels) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &channels[0], nil
}

func (db *Mongo) GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.WatchedVideo, error) {
	cursor, err := db.users.Aggregate(ctx, WatchHistoryPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("watch history aggregate: %w", err)
	}

	var rows []struct {
		WatchHistory []model.WatchedVideo `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("watch history decode: %w", err)
	}
	if len(rows) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	if rows[0].WatchHistory == nil {
		return []model.WatchedVideo{}, nil
	}
	return rows[0].WatchHistory, nil
}
