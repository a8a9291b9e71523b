package api

import (
	"net/http"

	"github.com/ENACT/enact/internal/auth"
	"github.com/ENACT/enact/internal/emissions"
	"github.com/ENACT/enact/internal/sysinfo"
	"log/slog"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, manager *emissions.Manager, reader *sysinfo.Reader, authConfig auth.Config, logger *slog.Logger) error {
	handler := NewHandler(manager, reader, logger)
	thresholdHandler := NewThresholdHandlers(manager.Monitor(), logger)
	authHandler, err := NewAuthHandler(authConfig, logger)
	if err != nil {
		return err
	}

	authMiddleware := auth.AuthMiddleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
	})

	// Tracking and query routes (public)
	mux.HandleFunc("/api/track-emission", handler.TrackEmission)
	mux.HandleFunc("/api/emissions/", handler.GetEmissionsByDate)
	mux.HandleFunc("/api/emissions-summary", handler.GetEmissionsSummary)
	mux.HandleFunc("/api/system-metrics", handler.GetSystemMetrics)
	mux.HandleFunc("/api/info", handler.Info)

	// Threshold configuration routes (admin only)
	mux.HandleFunc("/api/thresholds", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusOK)
			return
		}

		authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				thresholdHandler.GetThresholds(w, r)
			case http.MethodPut:
				thresholdHandler.UpdateThresholds(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})).ServeHTTP(w, r)
	})

	mux.HandleFunc("/healthz", handler.Health)

	// CORS preflight
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	})

	return nil
}
