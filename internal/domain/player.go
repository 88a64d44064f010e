package domain

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsHost      bool      `json:"isHost"`
	Score       int       `json:"score"`
	IsConnected bool      `json:"isConnected"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func NewPlayer(name string, isHost bool) *Player {
	return &Player{
		ID:          uuid.NewString(),
		Name:        name,
		IsHost:      isHost,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
}
