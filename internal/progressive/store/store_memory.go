// Package store provides an in-memory stand-in for the identity platform's
// user metadata API, used by the simulator CLI and by tests.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"profilegate/internal/progressive"
	dErrors "profilegate/pkg/domain-errors"
)

// InMemoryMetadataStore keeps user metadata as JSON-shaped namespace maps,
// the same shape the platform hands to the pipeline.
type InMemoryMetadataStore struct {
	mu    sync.RWMutex
	users map[string]map[string]map[string]any
}

func NewInMemoryMetadataStore() *InMemoryMetadataStore {
	return &InMemoryMetadataStore{users: make(map[string]map[string]map[string]any)}
}

// MergeProfile sets the patch's keys in the profile namespace, leaving every
// other key untouched.
func (s *InMemoryMetadataStore) MergeProfile(_ context.Context, userID string, patch progressive.ProfilePatch) error {
	return s.merge(userID, progressive.NamespaceProfile, patch)
}

// MergeConsents replaces the patch's sub-records in the consents namespace,
// leaving every other key untouched.
func (s *InMemoryMetadataStore) MergeConsents(_ context.Context, userID string, patch progressive.ConsentPatch) error {
	return s.merge(userID, progressive.NamespaceConsents, patch)
}

func (s *InMemoryMetadataStore) merge(userID, namespace string, patch any) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	values, err := toMap(patch)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode metadata patch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = make(map[string]map[string]any)
		s.users[userID] = user
	}
	ns, ok := user[namespace]
	if !ok {
		ns = make(map[string]any)
		user[namespace] = ns
	}
	maps.Copy(ns, values)
	return nil
}

// Set writes a raw key into a namespace, for seeding data owned by other
// processes.
func (s *InMemoryMetadataStore) Set(userID, namespace, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = make(map[string]map[string]any)
		s.users[userID] = user
	}
	if user[namespace] == nil {
		user[namespace] = make(map[string]any)
	}
	user[namespace][key] = value
}

// Namespace returns a copy of the user's namespace map, nil when absent.
func (s *InMemoryMetadataStore) Namespace(userID, namespace string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.users[userID][namespace]
	if !ok {
		return nil
	}
	return maps.Clone(ns)
}

// Load builds the identity context for userID logging into app.
func (s *InMemoryMetadataStore) Load(userID string, app progressive.AppConfig) progressive.IdentityContext {
	return progressive.IdentityContext{
		UserID:   userID,
		App:      app,
		Profile:  progressive.ProfileFromMetadata(s.Namespace(userID, progressive.NamespaceProfile)),
		Consents: progressive.ConsentsFromMetadata(s.Namespace(userID, progressive.NamespaceConsents)),
	}
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	return out, nil
}

var _ progressive.MetadataWriter = (*InMemoryMetadataStore)(nil)
