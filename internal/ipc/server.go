package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"issuegrid/internal/api"
	"issuegrid/internal/daemon"
	"issuegrid/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. onStop runs
// after a Stop request has stopped the daemon; the process usually exits
// from there.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, onStop func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx, onStop: onStop}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Go(func() {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Go(func() {
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
			})
		}
	})
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
	onStop func()
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.StatusResponse(s.ctx)
	return nil
}

func (s *service) Profiles(_ ProfilesRequest, resp *ProfilesResponse) error {
	resp.Profiles = api.FromSnapshot(s.daemon.Snapshot())
	return nil
}

func (s *service) Bins(req BinsRequest, resp *BinsResponse) error {
	snap := s.daemon.Snapshot()
	view, err := snap.Profile(req.Profile)
	if err != nil {
		return err
	}
	*resp = api.BinsResponseFor(snap, view)
	return nil
}

func (s *service) Issues(req IssuesRequest, resp *IssuesResponse) error {
	view, err := s.daemon.Snapshot().Profile(req.Profile)
	if err != nil {
		return err
	}
	*resp = api.IssuesResponseFor(view)
	return nil
}

func (s *service) Refresh(req RefreshRequest, resp *RefreshResponse) error {
	if req.Async {
		s.daemon.TriggerRefresh()
		resp.Queued = true
		return nil
	}
	snap, err := s.daemon.Refresh(s.ctx)
	if err != nil {
		return err
	}
	resp.RefreshResponse = api.RefreshResponse{
		RefreshID:   snap.RefreshID,
		Profiles:    len(snap.Names),
		CompletedAt: api.FormatTime(snap.CompletedAt),
	}
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	if err := s.daemon.ReloadConfig(s.ctx); err != nil {
		return err
	}
	if snap := s.daemon.Snapshot(); snap != nil {
		resp.RefreshID = snap.RefreshID
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.onStop != nil {
		s.onStop()
	}
	return nil
}
