package server

import (
	"fmt"
	"sync"
	"time"

	"coverdraft/internal/config"
	"coverdraft/internal/errors"
)

// VaultClientInterface is the subset of the Vault client the server needs.
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// CertificateData is the PEM material read from a Vault TLS secret.
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback receives fresh certificate data, or the error that
// prevented fetching it.
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls a KVv2 secret and fires the callback whenever the
// secret version advances.
type VaultWatcher struct {
	mu sync.RWMutex

	client   VaultClientInterface
	path     string
	interval time.Duration
	callback VaultReloadCallback
	logger   *errors.Logger

	stop        chan struct{}
	running     bool
	lastVersion int64
}

// NewVaultWatcher creates a watcher over the given secret path.
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, callback VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:   client,
		path:     secretPath,
		interval: pollInterval,
		callback: callback,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the poll loop.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.poll()

	if vw.logger != nil {
		vw.logger.Info("Vault watcher started",
			"secret_path", vw.path, "poll_interval", vw.interval)
	}
	return nil
}

// Stop halts polling. Safe to call when not running.
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if !vw.running {
		return nil
	}
	close(vw.stop)
	vw.running = false

	if vw.logger != nil {
		vw.logger.Info("Vault watcher stopped")
	}
	return nil
}

// Status reports watcher state for the health endpoint.
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()

	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.interval.String(),
		"secret_path":   vw.path,
		"last_version":  vw.lastVersion,
	}
}

func (vw *VaultWatcher) poll() {
	ticker := time.NewTicker(vw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			vw.checkOnce()
		case <-vw.stop:
			return
		}
	}
}

// checkOnce reads the secret and fires the callback if its version moved.
// The single read serves both the version check and the payload, so a
// version bump between check and fetch cannot hand out stale data.
func (vw *VaultWatcher) checkOnce() {
	secret, err := vw.client.GetSecretV2(vw.path)
	if err != nil || secret == nil {
		if err != nil && vw.logger != nil {
			vw.logger.LogError(err, "Failed to check Vault for updates")
		}
		return
	}

	vw.mu.Lock()
	advanced := secret.Version > vw.lastVersion
	if advanced {
		vw.lastVersion = secret.Version
	}
	vw.mu.Unlock()

	if !advanced {
		return
	}

	if vw.logger != nil {
		vw.logger.Info("Vault TLS secret changed, delivering new certificate data",
			"version", secret.Version)
	}
	vw.callback(certDataFromSecret(secret), nil)
}

func certDataFromSecret(secret *config.VaultSecret) *CertificateData {
	data := &CertificateData{}
	if v, ok := secret.Data["cert"].(string); ok {
		data.CertContent = v
	}
	if v, ok := secret.Data["key"].(string); ok {
		data.KeyContent = v
	}
	if v, ok := secret.Data["ca"].(string); ok {
		data.CAContent = v
	}
	return data
}
