// Package verify abstracts the secondary approval credential required by
// privileged withdrawal transitions. The capability is "verify a
// one-time credential"; implementations can be swapped for a TOTP or
// hardware-key scheme without touching withdrawal business logic.
package verify

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault-client-go"
)

var ErrCodeMismatch = errors.New("verification code mismatch")

// CodeVerifier checks the out-of-band verification code presented with a
// privileged operation.
type CodeVerifier interface {
	Verify(ctx context.Context, code string) error
}

// StaticVerifier compares against a fixed secret, in constant time. Used
// in development and as the fallback when no secret store is configured.
type StaticVerifier struct {
	secret string
}

func NewStaticVerifier(secret string) *StaticVerifier {
	return &StaticVerifier{secret: secret}
}

func (v *StaticVerifier) Verify(_ context.Context, code string) error {
	if v.secret == "" || code == "" {
		return ErrCodeMismatch
	}
	if subtle.ConstantTimeCompare([]byte(v.secret), []byte(code)) != 1 {
		return ErrCodeMismatch
	}
	return nil
}

// VaultVerifier reads the expected code from a Vault KV v2 secret on
// every check, so rotating the secret takes effect immediately.
type VaultVerifier struct {
	client *vault.Client
	mount  string
	path   string
	field  string
}

func NewVaultVerifier(addr, token, mount, path, field string) (*VaultVerifier, error) {
	client, err := vault.New(
		vault.WithAddress(addr),
		vault.WithRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if err := client.SetToken(token); err != nil {
		return nil, err
	}
	return &VaultVerifier{client: client, mount: mount, path: path, field: field}, nil
}

func (v *VaultVerifier) Verify(ctx context.Context, code string) error {
	if code == "" {
		return ErrCodeMismatch
	}
	resp, err := v.client.Secrets.KvV2Read(ctx, v.path, vault.WithMountPath(v.mount))
	if err != nil {
		return fmt.Errorf("read verification secret: %w", err)
	}
	expected, _ := resp.Data.Data[v.field].(string)
	if expected == "" {
		return fmt.Errorf("verification secret missing field %q", v.field)
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		return ErrCodeMismatch
	}
	return nil
}
