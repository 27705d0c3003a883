package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"coverdraft/internal/config"
	"coverdraft/internal/errors"
	"coverdraft/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// expiryGaugeInterval is how often the expiry gauge is refreshed.
const expiryGaugeInterval = time.Minute

// ReloadCallback is notified after every reload attempt.
type ReloadCallback func(success bool, err error)

// CertificateMetrics is a snapshot of reload activity for health reporting.
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// CertificateManager owns the server's TLS material. It serves the
// current certificate to handshakes, reloads on file or Vault changes,
// and tracks expiry.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert   *tls.Certificate
	serverExpiry time.Time
	clientCert   *tls.Certificate
	clientExpiry time.Time
	caPool       *x509.CertPool

	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	cfg    *config.TLSConfig
	reload *config.AutoReloadConfig
	vault  VaultClientInterface
	logger *errors.Logger
	obs    *observability.ObservabilityManager

	callbacks []ReloadCallback
	stats     CertificateMetrics
}

// NewCertificateManager wires a manager to its TLS and auto-reload config.
func NewCertificateManager(tlsConfig *config.TLSConfig, autoReload *config.AutoReloadConfig, vaultClient VaultClientInterface, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		cfg:    tlsConfig,
		reload: autoReload,
		vault:  vaultClient,
		logger: logger,
		obs:    om,
	}
}

// Start loads the initial certificates and launches whichever watchers
// the auto-reload configuration enables.
func (cm *CertificateManager) Start() error {
	if err := cm.load(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	cm.startExpiryGauge()

	if cm.fileWatchEnabled() {
		fw, err := NewCertWatcher(cm.cfg.CertFile, cm.cfg.KeyFile, cm.cfg.CAFile,
			cm.reload.FileWatcher.DebounceDelay, cm.onWatcherChange, cm.logger)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := fw.Start(); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		cm.fileWatcher = fw
	}

	if cm.vaultWatchEnabled() {
		if cm.vault == nil {
			if cm.logger != nil {
				cm.logger.Warn("Vault watcher enabled but Vault client is nil")
			}
			return nil
		}
		vw := NewVaultWatcher(cm.vault, cm.reload.VaultWatcher.SecretPath,
			cm.reload.VaultWatcher.PollInterval, cm.onVaultData, cm.logger)
		if err := vw.Start(); err != nil {
			return fmt.Errorf("failed to start Vault watcher: %w", err)
		}
		cm.vaultWatcher = vw
	}

	return nil
}

func (cm *CertificateManager) fileWatchEnabled() bool {
	if cm.reload == nil || !cm.reload.FileWatcher.Enabled {
		return false
	}
	return cm.cfg.CertFile != "" || cm.cfg.KeyFile != "" || cm.cfg.CAFile != ""
}

func (cm *CertificateManager) vaultWatchEnabled() bool {
	if cm.reload == nil || !cm.reload.VaultWatcher.Enabled {
		return false
	}
	return cm.cfg.CertContent != "" || cm.cfg.KeyContent != "" || cm.cfg.CAContent != ""
}

// Stop halts both watchers.
func (cm *CertificateManager) Stop() error {
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			return err
		}
	}
	if cm.vaultWatcher != nil {
		if err := cm.vaultWatcher.Stop(); err != nil {
			return err
		}
	}
	if cm.logger != nil {
		cm.logger.Info("Certificate manager stopped")
	}
	return nil
}

// GetServerCertificate is plugged into tls.Config.GetCertificate.
// Expired material is refused outright; inside the preemptive-renewal
// window a background reload is kicked off while the current cert is
// still served.
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	cert, expiry := cm.serverCert, cm.serverExpiry
	cm.mu.RUnlock()

	if cert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(expiry) {
		if cm.logger != nil {
			cm.logger.LogError(fmt.Errorf("server certificate expired"),
				"Server certificate expired",
				"expiry", expiry, "server_name", hello.ServerName)
		}
		return nil, fmt.Errorf("server certificate expired")
	}

	if cm.reload != nil && cm.reload.PreemptiveRenewal > 0 &&
		time.Now().After(expiry.Add(-cm.reload.PreemptiveRenewal)) {
		go cm.onWatcherChange()
	}

	return cert, nil
}

// GetClientCertificate returns the client certificate for mutual TLS.
func (cm *CertificateManager) GetClientCertificate() (*tls.Certificate, error) {
	cm.mu.RLock()
	cert, expiry := cm.clientCert, cm.clientExpiry
	cm.mu.RUnlock()

	if cert == nil {
		return nil, fmt.Errorf("no client certificate available")
	}
	if time.Now().After(expiry) {
		return nil, fmt.Errorf("client certificate expired")
	}
	return cert, nil
}

// VerifyPeerCertificate checks a peer leaf against the current CA pool.
func (cm *CertificateManager) VerifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("no peer certificates provided")
	}

	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("failed to parse peer certificate: %w", err)
	}

	cm.mu.RLock()
	pool := cm.caPool
	cm.mu.RUnlock()
	if pool == nil {
		return fmt.Errorf("no CA certificate pool available")
	}

	if _, err := leaf.Verify(x509.VerifyOptions{Roots: pool}); err != nil {
		return fmt.Errorf("peer certificate verification failed: %w", err)
	}
	return nil
}

// ReloadCertificates forces a reload outside the watcher paths.
func (cm *CertificateManager) ReloadCertificates() error {
	return cm.load()
}

// AddReloadCallback registers a callback for reload outcomes.
func (cm *CertificateManager) AddReloadCallback(cb ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, cb)
}

// CheckExpiry returns the time until the earliest loaded certificate
// expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	earliest := cm.serverExpiry
	if !cm.clientExpiry.IsZero() && (earliest.IsZero() || cm.clientExpiry.Before(earliest)) {
		earliest = cm.clientExpiry
	}
	if earliest.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(earliest), nil
}

// GetMetrics returns a copy of the reload counters.
func (cm *CertificateManager) GetMetrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	snapshot := cm.stats
	return &snapshot
}

// load reads certificate material from config (inline PEM content wins
// over file paths, since Vault delivers content) and swaps it in under
// the lock.
func (cm *CertificateManager) load() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var serverCert *tls.Certificate
	haveContent := cm.cfg.CertContent != "" && cm.cfg.KeyContent != ""
	haveFiles := cm.cfg.CertFile != "" && cm.cfg.KeyFile != ""

	if haveContent || haveFiles {
		var pair tls.Certificate
		var err error
		if haveContent {
			pair, err = tls.X509KeyPair([]byte(cm.cfg.CertContent), []byte(cm.cfg.KeyContent))
		} else {
			pair, err = tls.LoadX509KeyPair(cm.cfg.CertFile, cm.cfg.KeyFile)
		}
		if err != nil {
			return err
		}
		if len(pair.Certificate) > 0 {
			leaf, err := x509.ParseCertificate(pair.Certificate[0])
			if err != nil {
				return fmt.Errorf("failed to parse server certificate: %w", err)
			}
			cm.serverExpiry = leaf.NotAfter
		}
		serverCert = &pair
	}

	caPool, err := cm.loadCAPool()
	if err != nil {
		return err
	}

	cm.serverCert = serverCert
	cm.caPool = caPool
	cm.stats.LastReloadTime = time.Now()

	cm.noteReload(true, nil)
	cm.notify(true, nil)

	if cm.logger != nil {
		cm.logger.Info("Certificates reloaded",
			"server_cert_expiry", cm.serverExpiry,
			"reload_time", cm.stats.LastReloadTime)
	}
	return nil
}

// loadCAPool builds the client-CA pool for mutual TLS. Returns nil when
// the mode does not require one.
func (cm *CertificateManager) loadCAPool() (*x509.CertPool, error) {
	if cm.cfg.Mode != "mutual" {
		return nil, nil
	}

	var pem []byte
	switch {
	case cm.cfg.CAContent != "":
		pem = []byte(cm.cfg.CAContent)
	case cm.cfg.CAFile != "":
		data, err := os.ReadFile(cm.cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pem = data
	default:
		return nil, nil
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// onWatcherChange is the file watcher's change callback.
func (cm *CertificateManager) onWatcherChange() {
	if cm.logger != nil {
		cm.logger.Info("Certificate reload triggered")
	}
	if err := cm.load(); err != nil {
		cm.mu.Lock()
		cm.noteReload(false, err)
		cm.mu.Unlock()
		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to reload certificates")
		}
		cm.notify(false, err)
	}
}

// onVaultData folds fresh Vault PEM material into the config, then
// reloads from it.
func (cm *CertificateManager) onVaultData(data *CertificateData, err error) {
	if err != nil {
		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to fetch new certificate data from Vault")
		}
		return
	}

	cm.mu.Lock()
	if data.CertContent != "" {
		cm.cfg.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cm.cfg.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cm.cfg.CAContent = data.CAContent
	}
	cm.mu.Unlock()

	cm.onWatcherChange()
}

// noteReload updates the counters; caller holds the lock.
func (cm *CertificateManager) noteReload(success bool, err error) {
	cm.stats.ReloadCount++
	if success {
		cm.stats.ReloadSuccessCount++
		cm.stats.LastReloadSuccess = true
		cm.stats.LastReloadError = ""
	} else {
		cm.stats.ReloadFailureCount++
		cm.stats.LastReloadSuccess = false
		if err != nil {
			cm.stats.LastReloadError = err.Error()
		}
	}
	cm.recordReloadMetric(success, err)
}

// notify fans out reload outcomes to the registered callbacks.
func (cm *CertificateManager) notify(success bool, err error) {
	for _, cb := range cm.callbacks {
		go cb(success, err)
	}
}

func (cm *CertificateManager) recordReloadMetric(success bool, err error) {
	metrics := cm.telemetry()
	if metrics == nil {
		return
	}

	status := "success"
	attrs := []attribute.KeyValue{attribute.String("cert_type", "server")}
	if !success {
		status = "failure"
		if err != nil {
			attrs = append(attrs, attribute.String("error", err.Error()))
		}
	}
	attrs = append(attrs, attribute.String("status", status))

	metrics.CertReloadCount.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	cm.recordExpiryGauge()
}

// recordExpiryGauge pushes seconds-to-expiry for each loaded cert.
func (cm *CertificateManager) recordExpiryGauge() {
	metrics := cm.telemetry()
	if metrics == nil {
		return
	}

	ctx := context.Background()
	now := time.Now()
	if !cm.serverExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, cm.serverExpiry.Sub(now).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "server")))
	}
	if !cm.clientExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, cm.clientExpiry.Sub(now).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "client")))
	}
}

func (cm *CertificateManager) telemetry() *observability.Metrics {
	if cm.obs == nil {
		return nil
	}
	return cm.obs.GetMetrics()
}

// startExpiryGauge refreshes the expiry gauge once a minute so the metric
// decays between reloads.
func (cm *CertificateManager) startExpiryGauge() {
	if cm.obs == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(expiryGaugeInterval)
		defer ticker.Stop()
		for range ticker.C {
			cm.mu.RLock()
			cm.recordExpiryGauge()
			cm.mu.RUnlock()
		}
	}()
}
