package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ning0612/Filegraph/internal/config"
	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/metrics"
	"github.com/Ning0612/Filegraph/internal/protocol"
	"github.com/Ning0612/Filegraph/internal/scanner"
	"github.com/Ning0612/Filegraph/internal/state"
)

// StartTimeout bounds the wait for the start message
const StartTimeout = 30 * time.Second

// stream is one websocket connection serving one root
type stream struct {
	srv    *Server
	ws     *websocket.Conn
	log    logger.Logger
	record state.ScanRecord
}

// handleStream upgrades the connection, waits for the start message, then
// streams one record per message and closes with a code that tells how the
// scan ended.
func (s *Server) handleStream(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer ws.Close()

	sessionID := uuid.New().String()
	st := &stream{
		srv: s,
		ws:  ws,
		log: s.log.With("session", sessionID),
		record: state.ScanRecord{
			SessionID: sessionID,
			StartTime: time.Now(),
			Status:    state.StatusAborted,
		},
	}
	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()
	defer st.finish()

	st.log.Info("stream connected", "remote", c.Request.RemoteAddr)

	_ = ws.SetReadDeadline(time.Now().Add(StartTimeout))
	_, data, err := ws.ReadMessage()
	_ = ws.SetReadDeadline(time.Time{})
	if err != nil {
		st.log.Info("client left before start", "error", err)
		return
	}
	start, err := protocol.ParseStart(data)
	if err != nil {
		st.log.Warn("bad start message", "error", err)
		st.reject(protocol.BadStartMessage, err)
		return
	}

	root, err := s.resolveRoot(start.Root)
	st.record.Root = root
	st.log = st.log.With("root", root)
	if err != nil {
		st.log.Warn("root rejected", "error", err)
		st.reject(protocol.InvalidDirectoryMessage(root), err)
		return
	}

	sc, err := scanner.New(root,
		scanner.WithWorkers(s.opts.Workers),
		scanner.WithHidden(s.opts.IncludeHidden),
		scanner.WithLogger(st.log))
	if err != nil {
		st.log.Warn("invalid root", "error", err)
		st.reject(protocol.InvalidDirectoryMessage(root), err)
		return
	}

	ctx, cancel := context.WithCancel(s.base)
	defer cancel()
	go st.watchPeer(cancel)

	res, err := sc.Scan(ctx, st.emitter("scan"))
	st.record.Skipped = res.Skipped
	metrics.StatSkipped.Add(float64(res.Skipped))
	if err != nil {
		st.interrupted(ctx, err)
		return
	}
	metrics.ScanDuration.Observe(res.Duration.Seconds())

	if start.Watch {
		st.log.Info("initial scan done, watching", "files", res.Files)
		if err := sc.Watch(ctx, st.emitter("watch")); err != nil {
			st.interrupted(ctx, err)
			return
		}
		if s.base.Err() != nil {
			st.close(protocol.CloseGoingAway, "")
		}
		// watch streams end when the client leaves
		st.record.Status = state.StatusComplete
		return
	}

	st.close(protocol.CloseDone, "")
	st.record.Status = state.StatusComplete
}

// resolveRoot expands root and checks it against the folder list
func (s *Server) resolveRoot(root string) (string, error) {
	expanded := config.ExpandPath(root)
	if s.opts.AllowAnyRoot {
		return expanded, nil
	}
	folders, err := s.opts.Folders()
	if err != nil {
		return expanded, err
	}
	for _, f := range folders {
		if f == expanded || f == root {
			return expanded, nil
		}
	}
	return expanded, fmt.Errorf("%w: %s", domain.ErrRootNotAllowed, root)
}

// interrupted classifies a scan or watch error: the client leaving, the server
// shutting down, or a real scan failure
func (st *stream) interrupted(ctx context.Context, err error) {
	switch {
	case st.srv.base.Err() != nil:
		st.log.Info("server shutting down, stream closed", "files", st.record.Files)
		st.close(protocol.CloseGoingAway, "")
	case errors.Is(err, domain.ErrTransport) || ctx.Err() != nil:
		st.log.Info("client left", "files", st.record.Files, "error", err)
	default:
		st.fail(err)
	}
}

// emitter writes records and keeps the running totals
func (st *stream) emitter(phase string) scanner.EmitFunc {
	return func(rec domain.FileRecord) error {
		if err := st.write(rec); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
		st.record.Files++
		st.record.Bytes += rec.Size
		metrics.RecordsSent.WithLabelValues(phase).Inc()
		metrics.BytesScanned.Add(float64(rec.Size))
		return nil
	}
}

// watchPeer drains client frames; any read error means the client is gone
func (st *stream) watchPeer(cancel context.CancelFunc) {
	for {
		if _, _, err := st.ws.NextReader(); err != nil {
			cancel()
			return
		}
	}
}

func (st *stream) write(v any) error {
	if err := st.ws.SetWriteDeadline(time.Now().Add(st.srv.opts.WriteTimeout)); err != nil {
		return err
	}
	return st.ws.WriteJSON(v)
}

// reject sends an error frame and closes with 1003
func (st *stream) reject(msg string, err error) {
	st.record.Status = state.StatusRejected
	st.record.Error = err.Error()
	if werr := st.write(protocol.ErrorFrame{Error: msg}); werr != nil {
		st.log.Debug("write error frame failed", "error", werr)
	}
	st.close(protocol.CloseBadStart, "")
}

// fail sends an error frame and closes with 1011
func (st *stream) fail(err error) {
	st.log.Error("scan failed", "error", err)
	st.record.Status = state.StatusFailed
	st.record.Error = err.Error()
	if werr := st.write(protocol.ErrorFrame{Error: err.Error()}); werr != nil {
		st.log.Debug("write error frame failed", "error", werr)
	}
	st.close(protocol.CloseScanFailure, "")
}

func (st *stream) close(code int, text string) {
	st.record.CloseCode = code
	msg := websocket.FormatCloseMessage(code, text)
	if err := st.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		st.log.Debug("write close failed", "error", err)
	}
}

// finish logs and persists the stream outcome
func (st *stream) finish() {
	st.record.EndTime = time.Now()
	metrics.StreamsTotal.WithLabelValues(st.record.Status).Inc()
	st.log.Info("stream finished",
		"status", st.record.Status,
		"files", st.record.Files,
		"bytes", st.record.Bytes,
		"duration", st.record.Duration())

	if st.srv.opts.History == nil || st.record.Root == "" {
		return
	}
	if _, err := st.srv.opts.History.SaveScan(st.record); err != nil {
		st.log.Warn("save scan history failed", "error", err)
	}
}
