package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/logs"
	"scribe/internal/transcription"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Scribe", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
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
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun scribe stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockFilePath
	resp.DatabasePath = status.DatabasePath
	resp.SocketPath = status.SocketPath
	resp.LogPath = status.LogPath
	resp.Pipeline = Pipeline{
		QueuedJobs:    status.Pipeline.QueuedJobs,
		TotalJobs:     status.Pipeline.TotalJobs,
		ActiveJobID:   status.Pipeline.ActiveJobID,
		WorkerAlive:   status.Pipeline.WorkerAlive,
		Busy:          status.Pipeline.Busy,
		Paused:        status.Pipeline.Paused,
		Degraded:      status.Pipeline.Degraded,
		Failures:      status.Pipeline.Failures,
		RecreateArmed: status.Pipeline.RecreateArmed,
	}
	resp.StagingFiles = status.StagingFiles
	resp.StagingBytes = status.StagingBytes
	resp.LastEventSeq = status.LastEventSeq
	for _, check := range s.daemon.LocalChecks() {
		resp.Checks = append(resp.Checks, Check{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	s.log().Debug("job submission requested",
		logging.String(logging.FieldEventID, req.EventID))
	job, err := s.daemon.Submit(req.EventID, req.SystemAudioPath, req.MicAudioPath, req.ModelName)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job)
	return nil
}

func (s *service) Jobs(req JobsRequest, resp *JobsResponse) error {
	var filter map[transcription.Status]struct{}
	if len(req.Statuses) > 0 {
		filter = make(map[transcription.Status]struct{}, len(req.Statuses))
		for _, raw := range req.Statuses {
			parsed, ok := transcription.ParseStatus(raw)
			if !ok {
				continue
			}
			filter[parsed] = struct{}{}
		}
	}
	jobs := s.daemon.Jobs()
	resp.Jobs = make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if filter != nil {
			if _, ok := filter[job.Status]; !ok {
				continue
			}
		}
		resp.Jobs = append(resp.Jobs, FromJob(job))
	}
	return nil
}

func (s *service) Job(req JobRequest, resp *JobResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errors.New("job id is required")
	}
	job, ok := s.daemon.Job(id)
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	resp.Job = FromJob(job)
	return nil
}

func (s *service) JobsForEvent(req JobsForEventRequest, resp *JobsForEventResponse) error {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return errors.New("event id is required")
	}
	jobs := s.daemon.JobsForEvent(eventID)
	resp.Jobs = make([]Job, 0, len(jobs))
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, FromJob(job))
	}
	return nil
}

func (s *service) Retry(req RetryRequest, resp *RetryResponse) error {
	s.log().Debug("job retry requested",
		logging.String(logging.FieldEventID, req.EventID),
		logging.String(logging.FieldJobID, req.JobID))
	job, err := s.daemon.Retry(req.EventID, req.JobID)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job)
	s.log().Info("job retried via IPC",
		logging.String(logging.FieldEventType, "job_retry"),
		logging.String(logging.FieldJobID, job.ID))
	return nil
}

func (s *service) Pause(req PauseRequest, resp *PauseResponse) error {
	s.daemon.Pause(req.Terminate)
	resp.Paused = true
	s.log().Info("pipeline paused via IPC",
		logging.String(logging.FieldEventType, "pipeline_pause"),
		logging.Bool("terminate", req.Terminate))
	return nil
}

func (s *service) Resume(_ ResumeRequest, resp *ResumeResponse) error {
	s.daemon.Resume()
	resp.Resumed = true
	s.log().Info("pipeline resumed via IPC",
		logging.String(logging.FieldEventType, "pipeline_resume"))
	return nil
}

func (s *service) Purge(_ PurgeRequest, resp *PurgeResponse) error {
	removed := s.daemon.PurgeTerminal()
	resp.Removed = removed
	s.log().Info("terminal jobs purged",
		logging.String(logging.FieldEventType, "jobs_purge"),
		logging.Int("removed_count", removed))
	return nil
}

func (s *service) Result(req ResultRequest, resp *ResultResponse) error {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return errors.New("event id is required")
	}
	result, err := s.daemon.ResultForEvent(s.ctx, eventID)
	if err != nil {
		return err
	}
	if result == nil {
		resp.Found = false
		return nil
	}
	resp.Found = true
	resp.Result = FromResult(*result)
	return nil
}

func (s *service) Results(req ResultsRequest, resp *ResultsResponse) error {
	results, err := s.daemon.Results(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Results = make([]Result, 0, len(results))
	for _, result := range results {
		resp.Results = append(resp.Results, FromResult(result))
	}
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	events, next := s.daemon.EventsSince(req.AfterSeq, req.Max)
	resp.Events = make([]Event, 0, len(events))
	for _, ev := range events {
		resp.Events = append(resp.Events, FromEvent(ev))
	}
	resp.NextSeq = next
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	tailReq := logs.TailRequest{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, tailReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
