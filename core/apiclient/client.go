// Package apiclient is a typed client for the moodtune HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moodtune/model"
)

const defaultTimeout = 30 * time.Second

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error is a non-2xx reply. Message is the server's {"message"} when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("moodtune api: http %d", e.Status)
	}
	return fmt.Sprintf("moodtune api: http %d: %s", e.Status, e.Message)
}

// Client calls the API as one user.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sets the bearer token sent on protected calls.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the bearer token.
func (c *Client) Token() string { return c.token }

// Song is a catalog entry as returned by the API.
type Song struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Artist      string             `json:"artist"`
	Description string             `json:"description"`
	Labels      []model.Label      `json:"labels"`
	Duration    int                `json:"duration"`
	AudioFile   model.MediaInfo    `json:"audioFile"`
	ImageFile   *model.MediaInfo   `json:"imageFile"`
	UploadedBy  *model.UserSummary `json:"uploadedBy"`
	UploadDate  time.Time          `json:"uploadDate"`
	Plays       int64              `json:"plays"`
	Likes       int64              `json:"likes"`
}

// SongPage is one page of a label listing.
type SongPage struct {
	Songs       []Song `json:"songs"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalSongs  int64  `json:"totalSongs"`
}

// Session is the result of a login.
type Session struct {
	Token   string `json:"jwt_token"`
	IsAdmin bool   `json:"isAdmin"`
}

// File is a payload to upload.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Upload describes a new song.
type Upload struct {
	Title       string
	Artist      string
	Description string
	Labels      []model.Label
	Duration    int
	Audio       File
	Image       *File
}

// Media is a downloaded payload.
type Media struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Signup registers a user and reports whether it was made admin.
func (c *Client) Signup(ctx context.Context, name, email, password, adminKey string) (bool, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	if adminKey != "" {
		body["adminKey"] = adminKey
	}
	var out struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// PredictEmotion returns the prediction service's raw JSON reply.
func (c *Client) PredictEmotion(ctx context.Context, text string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/emotion/emotionprediction", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SongsByEmotion lists one page of songs tagged with label. Non-positive
// page or limit leave the server defaults.
func (c *Client) SongsByEmotion(ctx context.Context, label model.Label, page, limit int) (*SongPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/songs/by-emotion/" + url.PathEscape(string(label))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out SongPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllSongs lists the whole catalog (admin only).
func (c *Client) AllSongs(ctx context.Context) ([]Song, error) {
	var out []Song
	if err := c.doJSON(ctx, http.MethodGet, "/songs/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Song returns one song.
func (c *Client) Song(ctx context.Context, id string) (*Song, error) {
	var out Song
	if err := c.doJSON(ctx, http.MethodGet, "/songs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Audio downloads the audio payload.
func (c *Client) Audio(ctx context.Context, id string) (*Media, error) {
	return c.media(ctx, "/songs/audio/"+url.PathEscape(id))
}

// Image downloads the cover, following the placeholder redirect.
func (c *Client) Image(ctx context.Context, id string) (*Media, error) {
	return c.media(ctx, "/songs/image/"+url.PathEscape(id))
}

// Play posts a play and returns the new total.
func (c *Client) Play(ctx context.Context, id string) (int64, error) {
	var out struct {
		Plays int64 `json:"plays"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/songs/"+url.PathEscape(id)+"/play", nil, &out)
	return out.Plays, err
}

// Like posts a like and returns the new total.
func (c *Client) Like(ctx context.Context, id string) (int64, error) {
	var out struct {
		Likes int64 `json:"likes"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/songs/"+url.PathEscape(id)+"/like", nil, &out)
	return out.Likes, err
}

// Delete removes a song (admin only).
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/songs/"+url.PathEscape(id), nil, nil)
}

// UploadSong sends a multipart upload (admin only) and returns the new id.
func (c *Client) UploadSong(ctx context.Context, u Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	labels, err := json.Marshal(u.Labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	fields := map[string]string{
		"title":       u.Title,
		"artist":      u.Artist,
		"description": u.Description,
		"labels":      string(labels),
		"duration":    strconv.Itoa(u.Duration),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writeFile(mw, "audio", u.Audio); err != nil {
		return "", err
	}
	if u.Image != nil {
		if err := writeFile(mw, "image", *u.Image); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/songs/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		SongID string `json:"songId"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.SongID, nil
}

func writeFile(mw *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(f.Filename)))
	h.Set("Content-Type", f.ContentType)
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := w.Write(f.Data); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) media(ctx context.Context, path string) (*Media, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m := &Media{ContentType: resp.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		m.Filename = params["filename"]
	}
	return m, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
