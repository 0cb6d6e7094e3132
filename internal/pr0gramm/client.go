// Package pr0gramm is a minimal client for the parts of the pr0gramm API the
// bot needs: inbox polling, item comments and posting replies.
package pr0gramm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/linkers/internal/models"
)

var (
	// ErrUnauthorized means the session cookies were rejected
	ErrUnauthorized = errors.New("pr0gramm: unauthorized")
	// ErrUnexpectedStatus is wrapped for any other non-2xx response
	ErrUnexpectedStatus = errors.New("pr0gramm: unexpected status")
)

// Message is an inbox entry
type Message struct {
	Type    string `json:"type"`
	ID      int    `json:"id"`
	ItemID  *int   `json:"itemId"`
	Created int64  `json:"created"`
	Message string `json:"message"`
	Read    int    `json:"read"`
}

// IsUnread reports whether the message has not been seen yet
func (m Message) IsUnread() bool {
	return m.Read == 0
}

// Comment is a comment on an item
type Comment struct {
	ID      int    `json:"id"`
	Parent  int    `json:"parent"`
	Content string `json:"content"`
	Created int64  `json:"created"`
}

// Item holds the comments of a post
type Item struct {
	Comments []Comment `json:"comments"`
}

// Comment returns the comment with the given id, if present
func (i *Item) Comment(id int) (Comment, bool) {
	for _, c := range i.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

type inboxResponse struct {
	Messages []Message `json:"messages"`
}

type syncResponse struct {
	Inbox struct {
		Comments int `json:"comments"`
	} `json:"inbox"`
}

type postCommentRequest struct {
	Comment  string `json:"comment"`
	ItemID   int    `json:"itemId"`
	ParentID int    `json:"parentId"`
}

// Client talks to the pr0gramm API with a logged-in session
type Client struct {
	base      string
	http      *http.Client
	cookies   string
	userAgent string
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Cookies    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a client. Missing options fall back to defaults.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = models.DefaultAPIBase
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "Linkers Nutzer-Bot"
	}

	return &Client{
		base:      strings.TrimSuffix(base, "/"),
		http:      hc,
		cookies:   opts.Cookies,
		userAgent: ua,
	}
}

// UnreadComments returns the number of unread comment notifications
func (c *Client) UnreadComments(ctx context.Context) (int, error) {
	var resp syncResponse
	if err := c.getJSON(ctx, "/user/sync?offset=9999999", &resp); err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	return resp.Inbox.Comments, nil
}

// Inbox returns the latest comment notifications
func (c *Client) Inbox(ctx context.Context) ([]Message, error) {
	var resp inboxResponse
	if err := c.getJSON(ctx, "/inbox/comments", &resp); err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	return resp.Messages, nil
}

// Item loads an item with its comments
func (c *Client) Item(ctx context.Context, itemID int) (*Item, error) {
	var item Item
	path := "/items/info?" + url.Values{"itemId": {strconv.Itoa(itemID)}}.Encode()
	if err := c.getJSON(ctx, path, &item); err != nil {
		return nil, fmt.Errorf("item %d: %w", itemID, err)
	}
	return &item, nil
}

// PostComment replies to parentID on itemID
func (c *Client) PostComment(ctx context.Context, itemID, parentID int, text string) error {
	body, err := json.Marshal(postCommentRequest{Comment: text, ItemID: itemID, ParentID: parentID})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/comments/post", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("post comment on %d: %w", itemID, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.cookies != "" {
		req.Header.Set("Cookie", c.cookies)
	}
	return req, nil
}

// do sends req and turns non-2xx responses into errors
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return resp, nil
}
