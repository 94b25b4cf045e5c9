package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/walletlens/walletlens-sdk-go/pkg/storage"
	"go.uber.org/zap"
)

const (
	// IdentityKey is the fixed storage key the identity token is cached under.
	IdentityKey = "walletlens:identity"
	// anonymousKey stores the client-generated anonymous id sent with the
	// identify request, so reinstalls of the cache keep the same correlation id.
	anonymousKey = "walletlens:anonymous"
)

type identifyRequest struct {
	AppKey      string `json:"app_key"`
	AnonymousID string `json:"anonymous_id"`
}

type identifyResponse struct {
	Identity string `json:"identity"`
}

// BootstrapIdentity returns the opaque per-installation identity token. A
// cached token is returned without any network traffic; otherwise a single
// POST to {endpoint}/identify exchanges the anonymous id for a token, which is
// then cached under IdentityKey.
func BootstrapIdentity(ctx context.Context, endpoint, appKey string, store storage.Store, client *http.Client) (string, error) {
	if cached, err := store.Get(IdentityKey); err == nil && cached != "" {
		return cached, nil
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		zap.L().Warn("identity cache read failed", zap.Error(err))
	}

	anon, err := store.Get(anonymousKey)
	if err != nil || anon == "" {
		anon = uuid.NewString()
		if err := store.Set(anonymousKey, anon); err != nil {
			zap.L().Warn("anonymous id not persisted", zap.Error(err))
		}
	}

	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(identifyRequest{AppKey: appKey, AnonymousID: anon})
	if err != nil {
		return "", fmt.Errorf("encode identify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(endpoint, "/")+"/identify", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build identify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(appKeyHeader, appKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("identify returned status %d", resp.StatusCode)
	}

	var out identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode identify response: %w", err)
	}
	if out.Identity == "" {
		return "", errors.New("identify returned empty identity")
	}

	if err := store.Set(IdentityKey, out.Identity); err != nil {
		zap.L().Warn("identity not cached", zap.Error(err))
	}
	return out.Identity, nil
}
