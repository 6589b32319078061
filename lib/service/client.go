// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// RemoteError is a command the server rejected, as opposed to a
// transport failure. The message is the response's data field
// verbatim.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Client is one connection to the protocol server. Calls are
// serialized on the connection; open a second client for parallel
// requests.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the daemon's unix socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", socketPath, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxRequestSize),
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends one command with the given argument fields and returns
// the response's data. A server-side rejection comes back as a
// *RemoteError.
func (c *Client) Call(command string, args map[string]any) (string, error) {
	request := map[string]any{"command": command}
	for key, value := range args {
		request[key] = value
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write(append(encoded, '\n')); err != nil {
		return "", fmt.Errorf("send %s: %w", command, err)
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", command, err)
	}

	var response Response
	if err := json.Unmarshal(line, &response); err != nil {
		return "", fmt.Errorf("decode %s response: %w", command, err)
	}
	if !response.OK {
		return "", &RemoteError{Command: command, Message: response.Data}
	}
	return response.Data, nil
}
