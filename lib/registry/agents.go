// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"sync"
)

// Agent is a named worker the engine can seat in a pane. Creation
// only records the agent; placement binds it to a pane later.
type Agent struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Path string `json:"path,omitempty"`

	// Session and PaneID are set once the agent has been placed.
	Session string `json:"session,omitempty"`
	PaneID  string `json:"pane_id,omitempty"`
}

// ErrAgentExists marks a create for a name already registered.
var ErrAgentExists = errors.New("agent already exists")

// ErrAgentNotFound marks a lookup for an unregistered agent.
var ErrAgentNotFound = errors.New("agent not found")

// AgentSet tracks registered agents. It is independent of the pane
// registry: an agent can outlive the pane it sat in.
type AgentSet struct {
	mu     sync.Mutex
	agents map[string]*Agent
	order  []string
}

// NewAgentSet returns an empty agent set.
func NewAgentSet() *AgentSet {
	return &AgentSet{agents: map[string]*Agent{}}
}

// Create registers an agent. The name must be unused.
func (s *AgentSet) Create(name, role, path string) error {
	if name == "" {
		return fmt.Errorf("agent name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.agents[name]; taken {
		return fmt.Errorf("%w: %q", ErrAgentExists, name)
	}
	s.agents[name] = &Agent{Name: name, Role: role, Path: path}
	s.order = append(s.order, name)
	return nil
}

// Kill removes an agent from the set.
func (s *AgentSet) Kill(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[name]; !ok {
		return fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}
	delete(s.agents, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Assign records where an agent now sits. Placing an agent that was
// never created registers it implicitly, so panes observed with an
// occupant after an engine restart reappear in the set.
func (s *AgentSet) Assign(name, session, paneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[name]
	if !ok {
		agent = &Agent{Name: name}
		s.agents[name] = agent
		s.order = append(s.order, name)
	}
	agent.Session = session
	agent.PaneID = paneID
}

// Get looks an agent up by name.
func (s *AgentSet) Get(name string) (Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[name]
	if !ok {
		return Agent{}, false
	}
	return *agent, true
}

// List returns all agents in creation order.
func (s *AgentSet) List() []Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	agents := make([]Agent, 0, len(s.order))
	for _, name := range s.order {
		agents = append(agents, *s.agents[name])
	}
	return agents
}
