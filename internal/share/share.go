// Package share keeps analysis results behind short-lived tokens so they can
// be opened by someone else without re-uploading the file.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinHours     = 1
	MaxHours     = 168
	DefaultHours = 24
)

var (
	// ErrNotFound is returned for unknown, malformed or expired tokens.
	ErrNotFound = errors.New("share link not found or expired")
	// ErrEmptyResult rejects shares with nothing to show.
	ErrEmptyResult = errors.New("share result is empty")
)

// Share is one stored result.
type Share struct {
	Token     string          `json:"token"`
	Filename  string          `json:"filename,omitempty"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the share is past its expiry at now.
func (s *Share) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists shares.
type Store interface {
	Put(ctx context.Context, s *Share) error
	Get(ctx context.Context, token string) (*Share, error)
	Delete(ctx context.Context, token string) error
	// Cleanup removes expired shares and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)
}

// ClampHours keeps an expiry inside [MinHours, MaxHours]; 0 means default.
func ClampHours(h int) int {
	switch {
	case h == 0:
		return DefaultHours
	case h < MinHours:
		return MinHours
	case h > MaxHours:
		return MaxHours
	}
	return h
}

// New builds a share with a fresh token.
func New(filename string, result json.RawMessage, hours int, now time.Time) (*Share, error) {
	if len(result) == 0 || string(result) == "null" {
		return nil, ErrEmptyResult
	}
	if !json.Valid(result) {
		return nil, fmt.Errorf("share result is not valid JSON")
	}
	return &Share{
		Token:     uuid.NewString(),
		Filename:  filename,
		Result:    result,
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(time.Duration(ClampHours(hours)) * time.Hour),
	}, nil
}

// validToken guards stores that turn tokens into paths.
func validToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

// Open returns a MemoryStore for an empty location and an FSStore otherwise.
func Open(location string) Store {
	if location == "" {
		return NewMemoryStore()
	}
	return NewFSStore(location)
}
