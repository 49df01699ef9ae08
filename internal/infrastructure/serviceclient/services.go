package serviceclient

import (
	"context"
	"net/url"

	domainevent "github.com/lllypuk/eventboard/internal/domain/event"
	domainpost "github.com/lllypuk/eventboard/internal/domain/post"
)

// EventsClient calls the events service.
type EventsClient struct{ *Client }

// ListEvents returns every event.
func (c EventsClient) ListEvents(ctx context.Context) ([]domainevent.Event, error) {
	var resp struct {
		Events []domainevent.Event `json:"events"`
	}
	if err := c.GetJSON(ctx, "/", &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// AddEvent forwards an event submission.
func (c EventsClient) AddEvent(ctx context.Context, form url.Values) (*Relay, error) {
	return c.PostForm(ctx, "/add", form)
}

// PostsClient calls the posts service.
type PostsClient struct{ *Client }

// ListPosts returns every post.
func (c PostsClient) ListPosts(ctx context.Context) ([]domainpost.Post, error) {
	var resp struct {
		Posts []domainpost.Post `json:"posts"`
	}
	if err := c.GetJSON(ctx, "/", &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// AddPost forwards a post submission with its files.
func (c PostsClient) AddPost(ctx context.Context, form url.Values, files []FilePart) (*Relay, error) {
	return c.PostMultipart(ctx, "/add", form, files)
}

// DeletePost asks the posts service to delete a post written by authorID.
func (c PostsClient) DeletePost(ctx context.Context, postID, authorID string) (*Relay, error) {
	return c.Delete(ctx, "/"+url.PathEscape(postID), url.Values{"author_id": {authorID}})
}

// UsersClient calls the users service.
type UsersClient struct{ *Client }

// Authenticate forwards an identity token.
func (c UsersClient) Authenticate(ctx context.Context, token string) (*Relay, error) {
	return c.PostForm(ctx, "/authenticate", url.Values{"gauth_token": {token}})
}

// HasEditAccess reports whether the user may create events.
func (c UsersClient) HasEditAccess(ctx context.Context, userID string) (bool, error) {
	var resp struct {
		EditAccess bool `json:"edit_access"`
	}
	if err := c.PostFormJSON(ctx, "/authorization", url.Values{"user_id": {userID}}, &resp); err != nil {
		return false, err
	}
	return resp.EditAccess, nil
}
