package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"coverdraft/internal/ai"
)

// Certificate expiry thresholds for health reporting.
const (
	certExpiryCritical = 24 * time.Hour
	certExpiryWarning  = 7 * 24 * time.Hour
)

// healthHandler reports service, AI model, circuit breaker, and
// certificate health. Any unavailable model or unhealthy certificate
// degrades the overall status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	modelStatus, breakerStatus, aiHealthy := s.aiHealth()
	response := map[string]any{
		"status":           "healthy",
		"service":          "coverdraft",
		"version":          s.Version,
		"ai_models":        modelStatus,
		"circuit_breakers": breakerStatus,
	}

	healthy := aiHealthy
	if certStatus := s.certificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, exists := certStatus["healthy"].(bool); exists && !ok {
			healthy = false
		}
	}

	if !healthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// aiHealth probes the generate model once and reports both model
// availability and circuit breaker integration from the same service.
func (s *Server) aiHealth() (map[string]any, map[string]any, bool) {
	timeout := s.AppConfig.Observability.HealthCheck.Timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	generateConfig := s.AppConfig.GetGenerateConfig()
	service, err := ai.NewService(&generateConfig, s.AppConfig.Content, s.Logger)
	if err != nil {
		failure := map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create generate service: %v", err),
		}
		return map[string]any{"generate": failure}, map[string]any{"generate": failure}, false
	}

	info := service.Provider.GetModelInfo(ctx)
	models := map[string]any{"generate": info}
	breakers := map[string]any{
		"generate": map[string]any{
			"available": true,
			"message":   "Circuit breaker integrated with generate service",
		},
	}
	return models, breakers, info.Available
}

// certificateHealth returns nil when no certificate manager is active.
func (s *Server) certificateHealth() map[string]any {
	cm := s.CertificateManager
	if cm == nil {
		return nil
	}

	timeToExpiry, err := cm.CheckExpiry()
	if err != nil {
		return map[string]any{
			"healthy": false,
			"error":   fmt.Sprintf("Failed to check certificate expiry: %v", err),
		}
	}

	status := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"time_to_expiry":       timeToExpiry.String(),
	}
	switch {
	case timeToExpiry <= 0:
		status["healthy"] = false
		status["status"] = "expired"
		status["message"] = "Certificate has expired"
	case timeToExpiry <= certExpiryCritical:
		status["healthy"] = false
		status["status"] = "critical"
		status["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certExpiryWarning:
		status["healthy"] = true
		status["status"] = "warning"
		status["message"] = "Certificate expires within 7 days"
	default:
		status["healthy"] = true
		status["status"] = "ok"
		status["message"] = "Certificate is valid"
	}

	status["auto_reload"] = s.autoReloadStatus(cm)

	if metrics := cm.GetMetrics(); metrics != nil {
		status["metrics"] = map[string]any{
			"reload_count":         metrics.ReloadCount,
			"reload_success_count": metrics.ReloadSuccessCount,
			"reload_failure_count": metrics.ReloadFailureCount,
			"last_reload_time":     metrics.LastReloadTime,
			"last_reload_success":  metrics.LastReloadSuccess,
			"last_reload_error":    metrics.LastReloadError,
		}
	}
	return status
}

func (s *Server) autoReloadStatus(cm *CertificateManager) map[string]any {
	reload := s.TLSConfig.AutoReload
	if !reload.Enabled {
		return map[string]any{"enabled": false}
	}

	status := map[string]any{
		"enabled":               true,
		"file_watcher_enabled":  reload.FileWatcher.Enabled,
		"vault_watcher_enabled": reload.VaultWatcher.Enabled,
	}
	if cm.fileWatcher != nil {
		status["file_watcher_running"] = cm.fileWatcher.IsRunning()
		status["watched_files"] = cm.fileWatcher.GetWatchedFiles()
	}
	if cm.vaultWatcher != nil {
		status["vault_watcher_status"] = cm.vaultWatcher.Status()
	}
	return status
}

// statsHandler reports request size limits and rate limiting state.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "coverdraft",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest decodes a JSON body, translating the server's size
// cap into a readable error.
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// writeErrorResponse writes the standard error envelope.
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
