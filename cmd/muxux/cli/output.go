// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/muxux-dev/muxux/lib/config"
	"github.com/muxux-dev/muxux/lib/service"
)

// DialDaemon connects to the protocol socket. An explicit socket
// override wins; otherwise the socket comes from the settings file.
func DialDaemon(socketOverride, configPath string) (*service.Client, error) {
	socket := socketOverride
	if socket == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		socket = cfg.SocketPath
	}
	return service.Dial(socket)
}

// PrintData writes a command's data payload to stdout. JSON payloads
// are re-indented when stdout is a terminal; piped output stays
// compact for machine consumption.
func PrintData(data string) {
	if data == "" {
		return
	}
	fmt.Println(RenderData(data, term.IsTerminal(int(os.Stdout.Fd()))))
}

// RenderData formats a payload. Non-JSON payloads pass through
// untouched either way.
func RenderData(data string, pretty bool) string {
	if !pretty || !json.Valid([]byte(data)) {
		return data
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(data), "", "  "); err != nil {
		return data
	}
	return indented.String()
}
