package stash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ratchetapps/urlstash/internal/services"
)

// Catalog defines the scene operations a scan depends on.
type Catalog interface {
	MaxSceneID(ctx context.Context) (int, error)
	Scene(ctx context.Context, id int) (*Scene, error)
	UpdateScene(ctx context.Context, id int, urls []string, tagIDs []string) error
	EnsureTag(ctx context.Context, name string) (string, error)
}

// Client provides access to a Stash server's GraphQL endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Stash client for the given base URL. The API key is
// optional; servers without authentication accept unsigned requests.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("stash base url required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/graphql",
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

const maxSceneIDQuery = `query {
  findScenes(filter: {per_page: 1, sort: "id", direction: DESC}) {
    scenes { id }
  }
}`

// MaxSceneID returns the highest scene ID the catalog holds, or zero for
// an empty catalog.
func (c *Client) MaxSceneID(ctx context.Context) (int, error) {
	var payload struct {
		FindScenes struct {
			Scenes []struct {
				ID string `json:"id"`
			} `json:"scenes"`
		} `json:"findScenes"`
	}
	if err := c.execute(ctx, "max scene id", maxSceneIDQuery, nil, &payload); err != nil {
		return 0, err
	}
	if len(payload.FindScenes.Scenes) == 0 {
		return 0, nil
	}
	id, err := strconv.Atoi(payload.FindScenes.Scenes[0].ID)
	if err != nil {
		return 0, services.Wrap(services.ErrUnreachable, "stash", "max scene id",
			fmt.Sprintf("malformed scene id %q", payload.FindScenes.Scenes[0].ID), err)
	}
	return id, nil
}

const sceneQuery = `query FindScene($id: ID!) {
  findScene(id: $id) {
    id
    title
    organized
    urls
    files { basename }
    tags { id }
  }
}`

// Scene fetches one scene. A gap in the ID sequence returns ErrNotFound
// so callers can skip it and keep scanning.
func (c *Client) Scene(ctx context.Context, id int) (*Scene, error) {
	var payload struct {
		FindScene *scenePayload `json:"findScene"`
	}
	vars := map[string]any{"id": strconv.Itoa(id)}
	if err := c.execute(ctx, "find scene", sceneQuery, vars, &payload); err != nil {
		return nil, err
	}
	if payload.FindScene == nil {
		return nil, services.Wrap(services.ErrNotFound, "stash", "find scene",
			fmt.Sprintf("scene %d does not exist", id), nil)
	}

	scene := &Scene{
		ID:        id,
		Title:     payload.FindScene.Title,
		URLs:      payload.FindScene.URLs,
		Organized: payload.FindScene.Organized,
	}
	if len(payload.FindScene.Files) > 0 {
		scene.Filename = payload.FindScene.Files[0].Basename
	}
	for _, tag := range payload.FindScene.Tags {
		scene.TagIDs = append(scene.TagIDs, tag.ID)
	}
	return scene, nil
}

const sceneUpdateMutation = `mutation UpdateScene($input: SceneUpdateInput!) {
  sceneUpdate(input: $input) { id }
}`

// UpdateScene replaces a scene's URL list and tag set. Callers merge new
// values into the scene's existing ones first so nothing is dropped.
func (c *Client) UpdateScene(ctx context.Context, id int, urls []string, tagIDs []string) error {
	input := map[string]any{
		"id":   strconv.Itoa(id),
		"urls": urls,
	}
	if tagIDs != nil {
		input["tag_ids"] = tagIDs
	}
	var payload struct {
		SceneUpdate struct {
			ID string `json:"id"`
		} `json:"sceneUpdate"`
	}
	return c.execute(ctx, "update scene", sceneUpdateMutation, map[string]any{"input": input}, &payload)
}

const findTagQuery = `query FindTag($name: String!) {
  findTags(tag_filter: {name: {value: $name, modifier: EQUALS}}, filter: {per_page: 1}) {
    tags { id }
  }
}`

const tagCreateMutation = `mutation CreateTag($name: String!) {
  tagCreate(input: {name: $name}) { id }
}`

// EnsureTag resolves the tag's ID, creating the tag when it does not
// exist yet.
func (c *Client) EnsureTag(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "stash", "ensure tag", "tag name must not be empty", nil)
	}

	var findPayload struct {
		FindTags struct {
			Tags []struct {
				ID string `json:"id"`
			} `json:"tags"`
		} `json:"findTags"`
	}
	if err := c.execute(ctx, "find tag", findTagQuery, map[string]any{"name": name}, &findPayload); err != nil {
		return "", err
	}
	if len(findPayload.FindTags.Tags) > 0 {
		return findPayload.FindTags.Tags[0].ID, nil
	}

	var createPayload struct {
		TagCreate struct {
			ID string `json:"id"`
		} `json:"tagCreate"`
	}
	if err := c.execute(ctx, "create tag", tagCreateMutation, map[string]any{"name": name}, &createPayload); err != nil {
		return "", err
	}
	return createPayload.TagCreate.ID, nil
}

// execute posts one GraphQL operation and decodes the data payload into
// dest. Transport failures and non-200 responses classify as unreachable;
// GraphQL-level errors classify as transient since they are usually
// scoped to the one scene being touched.
func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any, dest any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("ApiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnreachable, "stash", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrUnreachable, "stash", operation,
			fmt.Sprintf("authentication rejected (%d)", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnreachable, "stash", operation,
			fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return services.Wrap(services.ErrUnreachable, "stash", operation, "decode response", err)
	}
	if len(envelope.Errors) > 0 {
		return services.Wrap(services.ErrTransient, "stash", operation, envelope.Errors[0].Message, nil)
	}
	if dest != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			return services.Wrap(services.ErrUnreachable, "stash", operation, "decode data payload", err)
		}
	}
	return nil
}
