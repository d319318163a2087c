package clickup

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Client groups the resource services around one Connection.
type Client struct {
	conn *Connection

	Users    *UsersService
	Spaces   *SpacesService
	Tasks    *TasksService
	Webhooks *WebhooksService
}

// NewClient creates a Connection and the services that use it.
func NewClient(opts Options, options ...Option) (*Client, error) {
	conn, err := NewConnection(opts, options...)
	if err != nil {
		return nil, err
	}
	return NewClientWithConnection(conn), nil
}

// NewClientWithConnection wraps an existing Connection.
func NewClientWithConnection(conn *Connection) *Client {
	return &Client{
		conn:     conn,
		Users:    &UsersService{conn: conn},
		Spaces:   &SpacesService{conn: conn},
		Tasks:    &TasksService{conn: conn},
		Webhooks: &WebhooksService{conn: conn},
	}
}

// Connection returns the underlying connection.
func (c *Client) Connection() *Connection {
	return c.conn
}

// UsersService covers the authorized user.
type UsersService struct {
	conn *Connection
}

// GetAuthorizedUser returns the user the credential belongs to.
func (s *UsersService) GetAuthorizedUser(ctx context.Context) (*User, error) {
	resp, err := doFor[struct {
		User User `json:"user"`
	}](ctx, s.conn, &Request{Method: http.MethodGet, Path: "user", Operation: "user.get"})
	if err != nil || resp == nil {
		return nil, err
	}
	return &resp.User, nil
}

// SpacesService covers spaces.
type SpacesService struct {
	conn *Connection
}

// GetSpaces lists the spaces of a workspace.
func (s *SpacesService) GetSpaces(ctx context.Context, teamID string, archived bool) ([]Space, error) {
	resp, err := doFor[struct {
		Spaces []Space `json:"spaces"`
	}](ctx, s.conn, &Request{
		Method:    http.MethodGet,
		Path:      "team/" + url.PathEscape(teamID) + "/space",
		Query:     url.Values{"archived": {strconv.FormatBool(archived)}},
		Operation: "spaces.list",
	})
	if err != nil || resp == nil {
		return nil, err
	}
	return resp.Spaces, nil
}

// GetSpace returns one space.
func (s *SpacesService) GetSpace(ctx context.Context, spaceID string) (*Space, error) {
	return doFor[Space](ctx, s.conn, &Request{
		Method:    http.MethodGet,
		Path:      "space/" + url.PathEscape(spaceID),
		Operation: "spaces.get",
	})
}
