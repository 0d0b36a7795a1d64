package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"pkt.systems/fotodrop/schema"
)

// Events lists all events visible to the current user.
func (c *Client) Events(ctx context.Context) ([]schema.Event, error) {
	var events []schema.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events", nil, &events, true); err != nil {
		return nil, err
	}
	return events, nil
}

// Event fetches a single event by id, subscriber set included.
func (c *Client) Event(ctx context.Context, id schema.EventID) (schema.Event, error) {
	if id == "" {
		return schema.Event{}, schema.ErrNoEventID
	}
	var event schema.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(string(id)), nil, &event, true); err != nil {
		return schema.Event{}, err
	}
	return event, nil
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, req schema.EventRequest) (schema.Event, error) {
	var event schema.Event
	if err := c.doJSON(ctx, http.MethodPost, "/events", req, &event, true); err != nil {
		return schema.Event{}, err
	}
	return event, nil
}

// UpdateEvent updates an event.
func (c *Client) UpdateEvent(ctx context.Context, id schema.EventID, req schema.EventRequest) (schema.Event, error) {
	if id == "" {
		return schema.Event{}, schema.ErrNoEventID
	}
	var event schema.Event
	if err := c.doJSON(ctx, http.MethodPut, "/events/"+url.PathEscape(string(id)), req, &event, true); err != nil {
		return schema.Event{}, err
	}
	return event, nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id schema.EventID) error {
	if id == "" {
		return schema.ErrNoEventID
	}
	return c.doJSON(ctx, http.MethodDelete, "/events/"+url.PathEscape(string(id)), nil, nil, true)
}

// Subscribe subscribes the current user to the event. A duplicate
// subscription surfaces as schema.ErrAlreadySubscribed.
func (c *Client) Subscribe(ctx context.Context, id schema.EventID) error {
	if id == "" {
		return schema.ErrNoEventID
	}
	return c.doJSON(ctx, http.MethodPost, "/events/"+url.PathEscape(string(id))+"/subscribe", nil, nil, true)
}

// Unsubscribe removes the current user from the event.
func (c *Client) Unsubscribe(ctx context.Context, id schema.EventID) error {
	if id == "" {
		return schema.ErrNoEventID
	}
	return c.doJSON(ctx, http.MethodPost, "/events/"+url.PathEscape(string(id))+"/unsubscribe", nil, nil, true)
}

// UploadPhotos streams a prepared multipart body to the event's photo
// endpoint and returns the backend's raw acknowledgement.
func (c *Client) UploadPhotos(ctx context.Context, id schema.EventID, contentType string, body io.Reader) (json.RawMessage, error) {
	if id == "" {
		return nil, schema.ErrNoEventID
	}
	resp, err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(string(id))+"/photos", contentType, body, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	return json.RawMessage(data), nil
}

// Photos fetches one page of the event's photo listing.
func (c *Client) Photos(ctx context.Context, id schema.EventID, page, limit int) (schema.PhotoPage, error) {
	if id == "" {
		return schema.PhotoPage{}, schema.ErrNoEventID
	}
	path := fmt.Sprintf("/events/%s/photos?page=%d&limit=%d", url.PathEscape(string(id)), page, limit)
	var result schema.PhotoPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, true); err != nil {
		return schema.PhotoPage{}, err
	}
	return result, nil
}

// PushReady asks the backend to distribute the event's photos to subscribers.
func (c *Client) PushReady(ctx context.Context, id schema.EventID) error {
	if id == "" {
		return schema.ErrNoEventID
	}
	return c.doJSON(ctx, http.MethodPost, "/events/"+url.PathEscape(string(id))+"/ready", nil, nil, true)
}

// Subscribers lists the event's subscribers.
func (c *Client) Subscribers(ctx context.Context, id schema.EventID) ([]schema.Subscriber, error) {
	if id == "" {
		return nil, schema.ErrNoEventID
	}
	var subs []schema.Subscriber
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(string(id))+"/subscribers", nil, &subs, true); err != nil {
		return nil, err
	}
	return subs, nil
}
