package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"golang.org/x/oauth2"
)

// ErrNotAuthorized is returned when no token has been stored for a provider.
var ErrNotAuthorized = errors.New("provider not authorized")

// Backend persists one token per provider.
type Backend interface {
	// Load returns the stored token, or an error wrapping ErrNotAuthorized.
	Load(ctx context.Context, provider Provider) (*oauth2.Token, error)
	Save(ctx context.Context, provider Provider, token *oauth2.Token) error
}

// FileBackend stores each provider's token as JSON in its own file.
// Tokens survive restarts.
type FileBackend struct {
	dir string
}

// NewFileBackend stores tokens under dir. An empty dir selects DefaultTokenDir.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultTokenDir(); err != nil {
			return nil, err
		}
	}
	return &FileBackend{dir: dir}, nil
}

// DefaultTokenDir is <user cache dir>/donna.
func DefaultTokenDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(base, "donna"), nil
}

// Dir returns the directory tokens are written to.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(provider Provider) string {
	return filepath.Join(b.dir, string(provider)+".token.json")
}

func (b *FileBackend) Load(_ context.Context, provider Provider) (*oauth2.Token, error) {
	data, err := os.ReadFile(b.path(provider))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s token: %w", provider, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode %s token: %w", provider, err)
	}
	return &tok, nil
}

// Save writes the token atomically with owner-only permissions.
func (b *FileBackend) Save(_ context.Context, provider Provider, token *oauth2.Token) error {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode %s token: %w", provider, err)
	}

	tmp, err := os.CreateTemp(b.dir, string(provider)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s token: %w", provider, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s token: %w", provider, err)
	}
	if err := os.Rename(tmp.Name(), b.path(provider)); err != nil {
		return fmt.Errorf("failed to write %s token: %w", provider, err)
	}
	return nil
}

// MemoryBackend keeps tokens in an mcp-oauth token store. Tokens are lost on
// restart; it suits tests and short-lived deployments that re-authorize.
type MemoryBackend struct {
	store storage.TokenStore
	stop  func()
}

// NewMemoryBackend creates an in-memory backend. Call Close to stop its
// background cleanup.
func NewMemoryBackend() *MemoryBackend {
	st := memory.New()
	return &MemoryBackend{store: st, stop: st.Stop}
}

func (b *MemoryBackend) Load(ctx context.Context, provider Provider) (*oauth2.Token, error) {
	tok, err := b.store.GetToken(ctx, string(provider))
	if err != nil || tok == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, provider)
	}
	return tok, nil
}

func (b *MemoryBackend) Save(ctx context.Context, provider Provider, token *oauth2.Token) error {
	return b.store.SaveToken(ctx, string(provider), token)
}

// Close stops the underlying store.
func (b *MemoryBackend) Close() error {
	if b.stop != nil {
		b.stop()
	}
	return nil
}
