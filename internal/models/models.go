package models

import "time"

// User represents a Scrolla account together with its profile document.
type User struct {
	ID                string
	Email             string
	Password          string
	Name              string
	IsProSubscription bool
	ProfilePicture    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Video represents one generated clip in a user's collection.
type Video struct {
	URL      string `json:"videoUrl"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Liked    bool   `json:"liked"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
