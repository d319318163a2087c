package clickup

import (
	"context"
	"net/http"
)

// doFor performs req and decodes the body into a new T. The result is nil
// when the body was empty.
func doFor[T any](ctx context.Context, c *Connection, req *Request) (*T, error) {
	var out T
	found, err := c.do(ctx, req, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// Get performs a GET and decodes the result. It returns nil, nil when the
// body was empty.
func Get[T any](ctx context.Context, c *Connection, path string, query any) (*T, error) {
	q, err := EncodeQuery(query)
	if err != nil {
		return nil, &Error{Kind: KindClient, Method: http.MethodGet, Path: path, Message: err.Error(), Err: err}
	}
	return doFor[T](ctx, c, &Request{Method: http.MethodGet, Path: path, Query: q})
}

// Post sends body as JSON and decodes the result.
func Post[T any](ctx context.Context, c *Connection, path string, body any) (*T, error) {
	return doFor[T](ctx, c, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// PostNoContent sends body as JSON and discards any response body.
func PostNoContent(ctx context.Context, c *Connection, path string, body any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, nil)
}

// Put sends body as JSON and decodes the result.
func Put[T any](ctx context.Context, c *Connection, path string, body any) (*T, error) {
	return doFor[T](ctx, c, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// PutNoContent sends body as JSON and discards any response body.
func PutNoContent(ctx context.Context, c *Connection, path string, body any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, nil)
}

// Delete performs a DELETE without a body.
func Delete(ctx context.Context, c *Connection, path string) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

// DeleteWithBody performs a DELETE carrying body as JSON.
func DeleteWithBody(ctx context.Context, c *Connection, path string, body any) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Body: body}, nil)
}

// DeleteFor performs a DELETE, optionally with a JSON body, and decodes
// the result.
func DeleteFor[T any](ctx context.Context, c *Connection, path string, body any) (*T, error) {
	return doFor[T](ctx, c, &Request{Method: http.MethodDelete, Path: path, Body: body})
}

// PostMultipart sends pre-built multipart content and decodes the result.
func PostMultipart[T any](ctx context.Context, c *Connection, path string, m *Multipart) (*T, error) {
	if m == nil {
		return nil, &Error{Kind: KindClient, Method: http.MethodPost, Path: path, Message: "multipart content is required"}
	}
	return doFor[T](ctx, c, &Request{Method: http.MethodPost, Path: path, Multipart: m})
}
