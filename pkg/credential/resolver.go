// Package credential decides which provider and key serve a request.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/secret"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// RequestKeys carries credentials supplied on the request itself, one per
// provider family. They are used for the single request and never persisted.
type RequestKeys struct {
	OpenAI string
	Gemini string
}

// Resolution is the outcome of credential resolution for one request.
type Resolution struct {
	Provider types.ProviderID
	APIKey   string
	BaseURL  string // OpenAI-family only
	OwnKey   bool   // true when the key belongs to the user (request or stored)
}

// Tier maps the resolution onto the usage-metering tier.
func (r Resolution) Tier() types.Tier {
	if r.OwnKey {
		return types.TierBYOK
	}
	return types.TierFree
}

// Resolver performs the per-request provider/key lookup. It is a pure
// selection step apart from unsealing stored credentials.
type Resolver struct {
	store    store.Store
	sealer   secret.Sealer
	platform config.PlatformKeys
	log      *slog.Logger
}

func NewResolver(st store.Store, sealer secret.Sealer, platform config.PlatformKeys, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:    st,
		sealer:   sealer,
		platform: platform,
		log:      log,
	}
}

// Resolve picks the provider and key for one request. Selection order: request
// key (OpenAI), stored key (OpenAI), request key (Gemini), stored key
// (Gemini), platform key (OpenAI), platform key (Gemini).
func (r *Resolver) Resolve(ctx context.Context, userID string, keys RequestKeys) (Resolution, error) {
	if keys.OpenAI != "" {
		return Resolution{Provider: types.ProviderOpenAI, APIKey: keys.OpenAI, BaseURL: r.platform.OpenAIBaseURL, OwnKey: true}, nil
	}
	if key, ok := r.storedKey(ctx, userID, types.ProviderOpenAI); ok {
		return Resolution{Provider: types.ProviderOpenAI, APIKey: key, BaseURL: r.platform.OpenAIBaseURL, OwnKey: true}, nil
	}
	if keys.Gemini != "" {
		return Resolution{Provider: types.ProviderGemini, APIKey: keys.Gemini, OwnKey: true}, nil
	}
	if key, ok := r.storedKey(ctx, userID, types.ProviderGemini); ok {
		return Resolution{Provider: types.ProviderGemini, APIKey: key, OwnKey: true}, nil
	}
	if r.platform.OpenAIKey != "" {
		return Resolution{Provider: types.ProviderOpenAI, APIKey: r.platform.OpenAIKey, BaseURL: r.platform.OpenAIBaseURL}, nil
	}
	if r.platform.GeminiKey != "" {
		return Resolution{Provider: types.ProviderGemini, APIKey: r.platform.GeminiKey}, nil
	}
	return Resolution{}, types.ErrNoProviderAvailable
}

func (r *Resolver) storedKey(ctx context.Context, userID string, provider types.ProviderID) (string, bool) {
	if r.sealer == nil {
		return "", false
	}
	rec, err := r.store.GetCredential(ctx, userID, provider)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Warn("stored credential lookup failed", "provider", provider, "error", err)
		}
		return "", false
	}
	key, err := r.sealer.Open(rec.KeyCiphertext)
	if err != nil {
		r.log.Warn("stored credential unseal failed", "provider", provider, "error", err)
		return "", false
	}
	return key, true
}

// HasStoredKey reports whether the user opted into storing a key for any
// provider. Used for the userStatus block on chat responses.
func (r *Resolver) HasStoredKey(ctx context.Context, userID string) bool {
	for _, p := range []types.ProviderID{types.ProviderOpenAI, types.ProviderGemini} {
		if _, err := r.store.GetCredential(ctx, userID, p); err == nil {
			return true
		}
	}
	return false
}

// Save seals and persists a user-supplied key. Explicit opt-in only.
func (r *Resolver) Save(ctx context.Context, userID string, provider types.ProviderID, key string) error {
	if r.sealer == nil {
		return fmt.Errorf("credential storage is not configured")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	sealed, err := r.sealer.Seal(key)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	now := time.Now().UTC()
	return r.store.UpsertCredential(ctx, store.CredentialRecord{
		ID:            types.GenerateCredentialID(),
		UserID:        userID,
		Provider:      provider,
		KeyCiphertext: sealed,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// Delete removes a stored key. No-op if absent.
func (r *Resolver) Delete(ctx context.Context, userID string, provider types.ProviderID) error {
	return r.store.DeleteCredential(ctx, userID, provider)
}
