package server

import (
	"errors"
	"testing"
	"time"

	"coverdraft/internal/config"
)

type stubVaultClient struct {
	secret *config.VaultSecret
	err    error
}

func (c *stubVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	return c.secret, c.err
}

func (c *stubVaultClient) GetStringSecret(path, key string) (string, error) {
	if c.secret != nil {
		if v, ok := c.secret.Data[key].(string); ok {
			return v, nil
		}
	}
	return "", c.err
}

func (c *stubVaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	if c.secret != nil {
		if v, ok := c.secret.Data[key].([]string); ok {
			return v, nil
		}
	}
	return nil, c.err
}

func TestVaultWatcherDeliversNewCertData(t *testing.T) {
	client := &stubVaultClient{
		secret: &config.VaultSecret{
			Data: map[string]any{
				"cert": "pem-cert",
				"key":  "pem-key",
				"ca":   "pem-ca",
			},
			Version: 3,
		},
	}

	var got *CertificateData
	vw := NewVaultWatcher(client, "secret/data/tls", time.Minute,
		func(data *CertificateData, err error) {
			if err != nil {
				t.Fatalf("unexpected callback error: %v", err)
			}
			got = data
		}, nil)

	vw.checkOnce()

	if got == nil {
		t.Fatal("callback was not invoked for a new secret version")
	}
	if got.CertContent != "pem-cert" || got.KeyContent != "pem-key" || got.CAContent != "pem-ca" {
		t.Errorf("unexpected certificate data: %+v", got)
	}
	if vw.lastVersion != 3 {
		t.Errorf("lastVersion = %d, want 3", vw.lastVersion)
	}
}

func TestVaultWatcherIgnoresUnchangedVersion(t *testing.T) {
	client := &stubVaultClient{
		secret: &config.VaultSecret{Data: map[string]any{}, Version: 2},
	}

	calls := 0
	vw := NewVaultWatcher(client, "secret/data/tls", time.Minute,
		func(data *CertificateData, err error) { calls++ }, nil)

	vw.checkOnce()
	vw.checkOnce()

	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1 (only on version change)", calls)
	}
}

func TestVaultWatcherSwallowsReadErrors(t *testing.T) {
	client := &stubVaultClient{err: errors.New("vault sealed")}

	vw := NewVaultWatcher(client, "secret/data/tls", time.Minute,
		func(data *CertificateData, err error) {
			t.Fatal("callback must not fire on read errors")
		}, nil)

	vw.checkOnce()

	if vw.lastVersion != 0 {
		t.Errorf("lastVersion moved to %d on a failed read", vw.lastVersion)
	}
}

func TestVaultWatcherStartStop(t *testing.T) {
	client := &stubVaultClient{
		secret: &config.VaultSecret{Data: map[string]any{}, Version: 1},
	}
	vw := NewVaultWatcher(client, "secret/data/tls", time.Hour,
		func(*CertificateData, error) {}, nil)

	if err := vw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := vw.Start(); err == nil {
		t.Error("second Start should fail while running")
	}
	if !vw.Status()["running"].(bool) {
		t.Error("Status should report running")
	}
	if err := vw.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := vw.Stop(); err != nil {
		t.Errorf("Stop on a stopped watcher should be a no-op, got %v", err)
	}
}
