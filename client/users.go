package client

import (
	"context"
	"net/http"

	"pkt.systems/fotodrop/schema"
)

// Profile fetches the current user's profile.
func (c *Client) Profile(ctx context.Context) (schema.User, error) {
	var user schema.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/profile", nil, &user, true); err != nil {
		return schema.User{}, err
	}
	return user, nil
}

// UpdateProfile updates the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, req schema.UpdateProfileRequest) (schema.User, error) {
	var user schema.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", req, &user, true); err != nil {
		return schema.User{}, err
	}
	return user, nil
}

// SubscribedEvents lists the events the current user subscribes to.
func (c *Client) SubscribedEvents(ctx context.Context) ([]schema.Event, error) {
	var events []schema.Event
	if err := c.doJSON(ctx, http.MethodGet, "/users/events", nil, &events, true); err != nil {
		return nil, err
	}
	return events, nil
}
