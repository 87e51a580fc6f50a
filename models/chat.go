package models

import "time"

// ChatMessage is one posted comment in a movie's chat room.
type ChatMessage struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// LatestComment is the home-page projection of a movie's most recent comment.
type LatestComment struct {
	MovieID    string    `json:"movieId"`
	MovieTitle string    `json:"movieTitle"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}
