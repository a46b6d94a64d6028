// Package store persists evaluated models.
//
// A [Model] is a scene together with the placement computed from it, saved
// under a random UUID so it can be fetched later by the CLI or the HTTP API.
//
// Two backends implement [Store]:
//
//   - [FileStore]: one JSON file per model under the user config directory
//   - [MongoStore]: a MongoDB collection, for the shared API server
//
// Get and Delete return a NOT_FOUND coded error for unknown ids.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Model is a saved evaluation.
type Model struct {
	ID        string              `json:"id" bson:"_id"`
	Name      string              `json:"name,omitempty" bson:"name,omitempty"`
	SceneHash string              `json:"scene_hash" bson:"scene_hash"`
	Scene     scene.Scene         `json:"scene" bson:"scene"`
	Placement transform.Placement `json:"placement" bson:"placement"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}

// NewModel assigns a fresh id and creation time. The name defaults to the
// scene name.
func NewModel(s scene.Scene, pl transform.Placement, sceneHash string) *Model {
	return &Model{
		ID:        uuid.NewString(),
		Name:      s.Name,
		SceneHash: sceneHash,
		Scene:     s,
		Placement: pl,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the id and name before a model is written.
func (m *Model) Validate() error {
	if err := errors.ValidateModelID(m.ID); err != nil {
		return err
	}
	return errors.ValidateName(m.Name)
}

// ListOptions controls List.
type ListOptions struct {
	// Limit caps the number of models returned; 0 means DefaultListLimit.
	Limit int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store saves and retrieves models.
type Store interface {
	// Save inserts or replaces m.
	Save(ctx context.Context, m *Model) error

	// Get returns the model with the given id.
	Get(ctx context.Context, id string) (*Model, error)

	// List returns models newest first.
	List(ctx context.Context, opts ListOptions) ([]*Model, error)

	// Delete removes the model with the given id.
	Delete(ctx context.Context, id string) error

	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "model %s not found", id)
}

// validateID rejects malformed ids before they reach a file name or query.
func validateID(id string) error {
	return errors.ValidateModelID(id)
}
