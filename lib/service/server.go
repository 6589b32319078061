// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the structure protocol server: a unix socket
// speaking one JSON object per line. Each request carries a "command"
// tag; every response is {"ok":bool,"data":string}. Connections are
// persistent, a malformed request produces an ok:false response and
// leaves the connection open.
package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HandlerFunc executes one command. The payload is the raw request
// object; handlers decode the fields they need. The returned string
// goes into the response's data field.
type HandlerFunc func(ctx context.Context, payload []byte) (string, error)

// Response is the wire response. The two-field shape and field order
// are the compatibility surface every client depends on; they never
// change.
type Response struct {
	OK   bool   `json:"ok"`
	Data string `json:"data"`
}

// maxRequestSize bounds one request line. Layout trees and part
// catalogs are small; 1 MB is far beyond any legitimate request.
const maxRequestSize = 1024 * 1024

// writeTimeout is how long a response write may take before the
// connection is abandoned.
const writeTimeout = 10 * time.Second

// Server accepts connections on a unix socket and dispatches requests
// to registered handlers. Handlers run on the connection's goroutine;
// serialization of mutations is the executor's job, not the server's,
// so independent connections proceed in parallel.
type Server struct {
	socketPath        string
	handlers          map[string]HandlerFunc
	logger            *slog.Logger
	activeConnections sync.WaitGroup
}

// NewServer creates a protocol server listening at socketPath once
// Serve is called.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handlers:   map[string]HandlerFunc{},
		logger:     logger,
	}
}

// Handle registers a command handler. Registering the same command
// twice is a programming error and panics.
func (s *Server) Handle(command string, handler HandlerFunc) {
	if _, exists := s.handlers[command]; exists {
		panic(fmt.Sprintf("service: duplicate handler for command %q", command))
	}
	s.handlers[command] = handler
}

// Serve listens on the unix socket and dispatches until ctx is
// cancelled, then drains in-flight connections before returning. The
// socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	// A stale socket file from an unclean shutdown would make Listen
	// fail with "address already in use".
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	defer os.Remove(s.socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("protocol server listening", "socket", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("protocol server stopped")
	return nil
}

// handleConnection serves requests from one client until it
// disconnects or the server shuts down.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Shutdown must not wait on an idle client holding its
	// connection open.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-connDone:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.dispatch(ctx, conn, line)
		if ctx.Err() != nil {
			return
		}
	}
}

// dispatch routes one request line and writes the response.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, line []byte) {
	var header struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(line, &header); err != nil {
		s.write(conn, Response{OK: false, Data: fmt.Sprintf("malformed request: %v", err)})
		return
	}
	if header.Command == "" {
		s.write(conn, Response{OK: false, Data: "missing required field: command"})
		return
	}

	handler, exists := s.handlers[header.Command]
	if !exists {
		s.write(conn, Response{OK: false, Data: fmt.Sprintf("unknown command %q", header.Command)})
		return
	}

	data, err := handler(ctx, line)
	if err != nil {
		s.logger.Debug("command failed", "command", header.Command, "error", err)
		s.write(conn, Response{OK: false, Data: err.Error()})
		return
	}
	s.write(conn, Response{OK: true, Data: data})
}

// write sends one newline-terminated response object.
func (s *Server) write(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	encoded, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		return
	}
	if _, err := conn.Write(append(encoded, '\n')); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}
