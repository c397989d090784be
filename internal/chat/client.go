// Package chat wraps the getstream.io Chat SDK. Direct messaging and
// video-call signaling live entirely in getstream.io; the backend only
// provisions users and mints client tokens.
package chat

import (
	"context"
	"fmt"
	"os"
	"time"

	chat "github.com/GetStream/stream-chat-go/v5"
)

// Client wraps the Stream Chat client with Commune-specific functionality
type Client struct {
	chatClient *chat.Client
}

// NewClient creates a new Stream Chat client from the environment
func NewClient() (*Client, error) {
	apiKey := os.Getenv("STREAM_API_KEY")
	apiSecret := os.Getenv("STREAM_API_SECRET")

	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET must be set")
	}

	chatClient, err := chat.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stream Chat client: %w", err)
	}

	return &Client{chatClient: chatClient}, nil
}

// UpsertUser creates or updates the chat-side user record
func (c *Client) UpsertUser(userID, displayName string) error {
	ctx := context.Background()

	user := &chat.User{
		ID:   userID,
		Name: displayName,
	}
	if _, err := c.chatClient.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert chat user: %w", err)
	}
	return nil
}

// CreateToken mints a client-side chat token for the user
func (c *Client) CreateToken(userID string) (string, error) {
	token, err := c.chatClient.CreateToken(userID, time.Time{})
	if err != nil {
		return "", fmt.Errorf("failed to create chat token: %w", err)
	}
	return token, nil
}
