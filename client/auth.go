package client

import (
	"context"
	"net/http"

	"pkt.systems/fotodrop/schema"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req schema.LoginRequest) (schema.AuthResponse, error) {
	var resp schema.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", req, &resp, false); err != nil {
		return schema.AuthResponse{}, err
	}
	return resp, nil
}

// Register creates a user and returns the issued token.
func (c *Client) Register(ctx context.Context, req schema.RegisterRequest) (schema.AuthResponse, error) {
	var resp schema.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/register", req, &resp, false); err != nil {
		return schema.AuthResponse{}, err
	}
	return resp, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (schema.User, error) {
	var user schema.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user, true); err != nil {
		return schema.User{}, err
	}
	return user, nil
}
