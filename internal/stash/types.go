package stash

import "encoding/json"

// Scene is the subset of a catalog scene the scan cares about.
type Scene struct {
	ID        int
	Title     string
	Filename  string
	URLs      []string
	TagIDs    []string
	Organized bool
}

// HasURL reports whether the scene already carries the URL.
func (s *Scene) HasURL(url string) bool {
	for _, existing := range s.URLs {
		if existing == url {
			return true
		}
	}
	return false
}

// graphQLRequest is the wire shape of a GraphQL POST body.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type sceneFilePayload struct {
	Basename string `json:"basename"`
}

type sceneTagPayload struct {
	ID string `json:"id"`
}

type scenePayload struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Organized bool               `json:"organized"`
	URLs      []string           `json:"urls"`
	Files     []sceneFilePayload `json:"files"`
	Tags      []sceneTagPayload  `json:"tags"`
}
