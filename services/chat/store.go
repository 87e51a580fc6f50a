package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dokomiru/models"
)

const defaultRecentLimit = 10

type messageDoc struct {
	ID        string `bson:"_id"`
	MovieID   string `bson:"movieId"`
	Text      string `bson:"text"`
	CreatedAt int64  `bson:"createdAt"`
}

type summaryDoc struct {
	ID              string `bson:"_id"` // movie id
	MovieID         string `bson:"movieId"`
	Title           string `bson:"title"`
	LastMessageText string `bson:"lastMessageText"`
	LastMessageAt   int64  `bson:"lastMessageAt"`
}

// Store persists per-movie chat messages and a per-movie summary document in
// the hosted document database. The summary is upserted on every post so the
// home page can read a cheap "latest comments" projection.
type Store struct {
	messages  *mongo.Collection
	summaries *mongo.Collection
}

func NewStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		messages:  db.Collection("messages"),
		summaries: db.Collection("chatSummaries"),
	}
}

// AddMessage appends one comment and refreshes the movie's summary.
func (s *Store) AddMessage(ctx context.Context, movieID, movieTitle, text string) (models.ChatMessage, error) {
	now := time.Now()
	doc := messageDoc{
		ID:        uuid.NewString(),
		MovieID:   movieID,
		Text:      text,
		CreatedAt: now.Unix(),
	}

	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return models.ChatMessage{}, err
	}

	update := bson.M{
		"$set": bson.M{
			"movieId":         movieID,
			"title":           movieTitle,
			"lastMessageText": text,
			"lastMessageAt":   now.Unix(),
		},
	}
	if _, err := s.summaries.UpdateOne(
		ctx,
		bson.M{"_id": movieID},
		update,
		options.Update().SetUpsert(true),
	); err != nil {
		return models.ChatMessage{}, err
	}

	return messageDocToModel(doc), nil
}

// ListMessages returns a movie's comments, newest first.
func (s *Store) ListMessages(ctx context.Context, movieID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.messages.Find(ctx, bson.M{"movieId": movieID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, messageDocToModel(doc))
	}
	return messages, nil
}

// ListRecent returns the top-N movie summaries by recency of their latest
// comment.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.LatestComment, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "lastMessageAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.summaries.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []summaryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]models.LatestComment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, models.LatestComment{
			MovieID:    doc.MovieID,
			MovieTitle: doc.Title,
			Text:       doc.LastMessageText,
			Timestamp:  time.Unix(doc.LastMessageAt, 0).UTC(),
		})
	}
	return comments, nil
}

func messageDocToModel(doc messageDoc) models.ChatMessage {
	return models.ChatMessage{
		ID:        doc.ID,
		MovieID:   doc.MovieID,
		Text:      doc.Text,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
	}
}
