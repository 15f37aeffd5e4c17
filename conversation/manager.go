// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/poiesic/corpus/core"
)

const (
	// DefaultTokenBudget caps a session's total estimated tokens.
	DefaultTokenBudget = 8000

	// protectedRecent is how many trailing messages compression never touches.
	protectedRecent = 6

	// summaryTopics is the maximum number of user-turn prefixes quoted in a
	// synthetic summary.
	summaryTopics = 3

	// summaryTopicLen truncates each quoted prefix.
	summaryTopicLen = 50
)

var (
	// ErrEmptySession indicates an operation on a session ID that is blank.
	ErrEmptySession = errors.New("session id is required")

	// ErrUnknownSession indicates the session does not exist.
	ErrUnknownSession = errors.New("unknown session")
)

type session struct {
	messages     []core.Message
	compressions int
}

// Manager holds per-session conversation histories and enforces the token
// budget on every append. Thread-safe.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*session
	budget    int
	estimator TokenEstimator
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithTokenBudget sets the per-session token budget.
// Default is DefaultTokenBudget.
func WithTokenBudget(budget int) Option {
	return func(m *Manager) error {
		if budget <= 0 {
			return errors.New("token budget must be positive")
		}
		m.budget = budget
		return nil
	}
}

// WithEstimator replaces the default CharEstimator.
func WithEstimator(estimator TokenEstimator) Option {
	return func(m *Manager) error {
		if estimator == nil {
			return errors.New("estimator must not be nil")
		}
		m.estimator = estimator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a conversation manager.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		sessions:  make(map[string]*session),
		budget:    DefaultTokenBudget,
		estimator: CharEstimator{},
		logger:    slog.Default().With("component", "conversation"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddMessage appends a turn to the session, creating the session on first
// use. If the append would exceed the budget, older history is compressed
// first; the budget holds when AddMessage returns.
func (m *Manager) AddMessage(sessionID string, role core.Role, content string) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	if role.String() == "unknown" {
		return fmt.Errorf("invalid role %d", role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[sessionID]
	if s == nil {
		s = &session{}
		m.sessions[sessionID] = s
	}

	msg := core.Message{Role: role, Content: content, CreatedAt: time.Now().UTC()}
	needed := m.estimator.EstimateTokens(content)

	if m.totalTokens(s.messages)+needed > m.budget {
		m.compress(sessionID, s, needed)
	}

	s.messages = append(s.messages, msg)
	return nil
}

// Context returns a copy of the session's messages in order. When
// includeSystem is false the system message is omitted. An unknown session
// yields an empty context.
func (m *Manager) Context(sessionID string, includeSystem bool) []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[sessionID]
	if s == nil {
		return nil
	}

	out := make([]core.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.Role == core.RoleSystem && !includeSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Info is a summary of one session's state.
type Info struct {
	MessageCount int
	TokenCount   int
	Compressions int
}

// SessionInfo reports the session's message count, estimated token usage,
// and how often its history has been compressed.
func (m *Manager) SessionInfo(sessionID string) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[sessionID]
	if s == nil {
		return nil, ErrUnknownSession
	}
	return &Info{
		MessageCount: len(s.messages),
		TokenCount:   m.totalTokens(s.messages),
		Compressions: s.compressions,
	}, nil
}

// Clear removes a session and its history. Clearing an unknown session is
// not an error.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// compress shrinks the session until the budget fits needed more tokens.
//
// Pass one folds everything between the system message and the last
// protectedRecent messages into one synthetic summary. Pass two keeps only
// the system message and the last exchange. Pass three keeps nothing but
// the system message; a single oversized incoming message can still bust
// the budget, which is the caller's to avoid.
func (m *Manager) compress(sessionID string, s *session, needed int) {
	system, rest := splitSystem(s.messages)

	if len(rest) > protectedRecent {
		recent := rest[len(rest)-protectedRecent:]
		summary := summarize(rest[:len(rest)-protectedRecent])
		candidate := rebuild(system, summary, recent)
		if m.totalTokens(candidate)+needed <= m.budget {
			s.messages = candidate
			s.compressions++
			m.logger.Debug("conversation compressed", "session", sessionID, "messages", len(candidate))
			return
		}
	}

	// Escalation: system plus the last exchange only.
	keep := 2
	if len(rest) < keep {
		keep = len(rest)
	}
	candidate := rebuild(system, nil, rest[len(rest)-keep:])
	if m.totalTokens(candidate)+needed <= m.budget {
		s.messages = candidate
		s.compressions++
		m.logger.Debug("conversation escalated", "session", sessionID, "messages", len(candidate))
		return
	}

	s.messages = rebuild(system, nil, nil)
	s.compressions++
	m.logger.Warn("conversation history dropped to fit budget", "session", sessionID)
}

func (m *Manager) totalTokens(messages []core.Message) int {
	total := 0
	for _, msg := range messages {
		total += m.estimator.EstimateTokens(msg.Content)
	}
	return total
}

// splitSystem separates the leading system message, if any, from the rest.
func splitSystem(messages []core.Message) (*core.Message, []core.Message) {
	if len(messages) > 0 && messages[0].Role == core.RoleSystem {
		return &messages[0], messages[1:]
	}
	return nil, messages
}

func rebuild(system *core.Message, summary *core.Message, recent []core.Message) []core.Message {
	out := make([]core.Message, 0, len(recent)+2)
	if system != nil {
		out = append(out, *system)
	}
	if summary != nil {
		out = append(out, *summary)
	}
	return append(out, recent...)
}

// summarize folds dropped messages into one synthetic assistant message
// quoting up to summaryTopics user-turn prefixes.
func summarize(dropped []core.Message) *core.Message {
	var topics []string
	for _, msg := range dropped {
		if msg.Role != core.RoleUser {
			continue
		}
		topic := truncateTopic(strings.TrimSpace(msg.Content))
		if topic != "" {
			topics = append(topics, topic)
		}
		if len(topics) == summaryTopics {
			break
		}
	}

	content := "[Previous conversation summary]"
	if len(topics) > 0 {
		content = fmt.Sprintf("[Previous conversation summary: Discussed: %s]", strings.Join(topics, ", "))
	}
	return &core.Message{
		Role:      core.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// truncateTopic caps a topic at summaryTopicLen bytes without splitting a
// multi-byte rune.
func truncateTopic(topic string) string {
	if len(topic) <= summaryTopicLen {
		return topic
	}
	cut := summaryTopicLen
	for cut > 0 && !utf8.RuneStart(topic[cut]) {
		cut--
	}
	return topic[:cut]
}
