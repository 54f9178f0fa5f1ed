package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"issuegrid/internal/api"
	"issuegrid/internal/config"
	"issuegrid/internal/logging"
	"issuegrid/internal/services"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/profiles", s.handleProfiles)
	mux.HandleFunc("GET /api/profiles/{name}/issues", s.handleIssues)
	mux.HandleFunc("GET /api/profiles/{name}/bins", s.handleBins)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	return s.withRequestID(authMiddleware(token, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("latency", time.Since(started)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.StatusResponse(r.Context()))
}

func (s *apiServer) handleProfiles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ProfileListResponse{Profiles: api.FromSnapshot(s.daemon.Snapshot())})
}

func (s *apiServer) handleIssues(w http.ResponseWriter, r *http.Request) {
	snap := s.daemon.Snapshot()
	view, err := snap.Profile(r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.IssuesResponseFor(view))
}

func (s *apiServer) handleBins(w http.ResponseWriter, r *http.Request) {
	snap := s.daemon.Snapshot()
	view, err := snap.Profile(r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BinsResponseFor(snap, view))
}

func (s *apiServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.daemon.Refresh(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RefreshResponse{
		RefreshID:   snap.RefreshID,
		Profiles:    len(snap.Names),
		CompletedAt: api.FormatTime(snap.CompletedAt),
	})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Warn("api request failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldEventType, "api_request_failed"),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// StatusResponse renders Status as the wire DTO shared by the HTTP API and IPC.
func (d *Daemon) StatusResponse(ctx context.Context) api.StatusResponse {
	status := d.Status(ctx)
	payload := api.StatusResponse{
		Running:       status.Running,
		PID:           status.PID,
		StartedAt:     api.FormatTime(status.StartedAt),
		LastRefresh:   api.FormatTime(status.LastRefresh),
		NextRefresh:   api.FormatTime(status.NextRefresh),
		LastError:     status.LastError,
		LockFilePath:  status.LockFilePath,
		Authenticated: d.Authenticated(),
		Cache: api.CacheHealth{
			Path:   status.Cache.Path,
			Repos:  status.Cache.Repos,
			Issues: status.Cache.Issues,
			Error:  status.CacheError,
		},
		Profiles: api.FromSnapshot(status.Snapshot),
	}
	if status.Snapshot != nil {
		payload.RefreshID = status.Snapshot.RefreshID
	}
	return payload
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
