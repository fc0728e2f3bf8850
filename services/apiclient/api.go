package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/session"
)

type (
	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}
)

// Login exchanges credentials for a session token and, when the client's session
// is a session.Store, stores it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/users/login",
		Body:   loginRequest{Username: username, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if store, ok := c.session.(session.Store); ok {
		if err := store.SetToken(ctx, resp.Token); err != nil {
			return "", &Error{Kind: KindNetwork, Message: "could not store session token", Err: err}
		}
	}
	return resp.Token, nil
}

// Logout revokes the token on the server then clears the local session, even when revocation fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/users/logout"}, nil)
	if store, ok := c.session.(session.Store); ok {
		if cErr := store.Clear(ctx); cErr != nil && err == nil {
			err = &Error{Kind: KindNetwork, Message: "could not clear session token", Err: cErr}
		}
	}
	return err
}

// Values encodes q as the query string understood by the list endpoints.
func Values(q learning.Query) url.Values {
	v := make(url.Values)
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setBool := func(key string, b *bool) {
		if b != nil {
			v.Set(key, strconv.FormatBool(*b))
		}
	}

	set("search", q.Search)
	for _, kw := range q.Keywords {
		v.Add("q", kw)
	}
	set("category", q.Category)
	set("department", q.Department)
	set("status", q.Status)
	set("level", q.Level)
	set("file_type", q.FileType)
	set("tag", q.Tag)
	setBool("featured", q.Featured)
	setBool("archived", q.Archived)
	return v
}

func recordPath(kind, id string, action ...string) string {
	p := "/" + kind + "/" + url.PathEscape(id)
	if len(action) > 0 {
		p += "/" + action[0]
	}
	return p
}

// List returns the records of kind matching q.
func List[T learning.Record](ctx context.Context, c *Client, kind string, q learning.Query) ([]T, error) {
	path := "/" + kind
	if v := Values(q); len(v) > 0 {
		path += "?" + v.Encode()
	}
	items := make([]T, 0)
	if err := c.Do(ctx, Request{Path: path}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func Get[T learning.Record](ctx context.Context, c *Client, kind, id string) (T, error) {
	var item T
	err := c.Do(ctx, Request{Path: recordPath(kind, id)}, &item)
	return item, err
}

// Delete removes a record. The caller has already confirmed the deletion.
func (c *Client) Delete(ctx context.Context, kind, id string) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   recordPath(kind, id) + "?confirm=true",
	}, nil)
}

// Archive archives a program or a document, decoding the updated record into out.
func (c *Client) Archive(ctx context.Context, kind, id string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: recordPath(kind, id, "archive")}, out)
}

func (c *Client) Restore(ctx context.Context, kind, id string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: recordPath(kind, id, "restore")}, out)
}

func (c *Client) ToggleFeatured(ctx context.Context, courseID string) (learning.Course, error) {
	var course learning.Course
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   recordPath(learning.KindCourses, courseID, "featured"),
	}, &course)
	return course, err
}
