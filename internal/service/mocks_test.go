package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/koushikch7/chatGPT/internal/adapter/provider"
	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/project"
	"github.com/koushikch7/chatGPT/internal/domain/user"
)

// mockStore is an in-memory database.Store for service tests. Messages are
// kept in insertion order, which matches the creation-time ordering the real
// store produces.
type mockStore struct {
	mu            sync.Mutex
	conversations map[string]conversation.Conversation
	messages      map[string][]conversation.Message
	projects      map[string]project.Project
	memories      []memory.UserMemory
	users         map[string]user.User
	prefs         map[string]user.Preferences
	apiKeys       map[string]user.APIKey

	failCreateMessage error
}

func newMockStore() *mockStore {
	return &mockStore{
		conversations: make(map[string]conversation.Conversation),
		messages:      make(map[string][]conversation.Message),
		projects:      make(map[string]project.Project),
		users:         make(map[string]user.User),
		prefs:         make(map[string]user.Preferences),
		apiKeys:       make(map[string]user.APIKey),
	}
}

func apiKeyID(userID string, p model.Provider) string {
	return userID + "/" + string(p)
}

func (s *mockStore) ListConversations(_ context.Context, userID string) ([]conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *mockStore) GetConversation(_ context.Context, id string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *mockStore) CreateConversation(_ context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = *c
	return nil
}

func (s *mockStore) UpdateConversation(_ context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[c.ID]; !ok {
		return fmt.Errorf("conversation %s: %w", c.ID, domain.ErrNotFound)
	}
	s.conversations[c.ID] = *c
	return nil
}

func (s *mockStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *mockStore) ListMessages(_ context.Context, conversationID string) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversation.Message, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *mockStore) GetMessage(_ context.Context, id string) (*conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msgs := range s.messages {
		for _, m := range msgs {
			if m.ID == id {
				return &m, nil
			}
		}
	}
	return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) CreateMessage(_ context.Context, m *conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateMessage != nil {
		return s.failCreateMessage
	}
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	return nil
}

func (s *mockStore) UpdateMessage(_ context.Context, m *conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[m.ConversationID]
	for i := range msgs {
		if msgs[i].ID == m.ID {
			msgs[i] = *m
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", m.ID, domain.ErrNotFound)
}

func (s *mockStore) DeleteMessagesFrom(_ context.Context, conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			s.messages[conversationID] = msgs[:i]
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
}

func (s *mockStore) TruncateMessagesAfter(_ context.Context, conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			s.messages[conversationID] = msgs[:i+1]
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
}

func (s *mockStore) ListProjects(_ context.Context, userID string) ([]project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []project.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *mockStore) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = *p
	return nil
}

func (s *mockStore) UpdateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, domain.ErrNotFound)
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *mockStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(s.projects, id)
	return nil
}

func (s *mockStore) ListMemories(_ context.Context, userID string) ([]memory.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []memory.UserMemory
	for _, m := range s.memories {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mockStore) ListActiveMemories(_ context.Context, userID string) ([]memory.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []memory.UserMemory
	for _, m := range s.memories {
		if m.UserID == userID && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mockStore) CreateMemory(_ context.Context, m *memory.UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = append(s.memories, *m)
	return nil
}

func (s *mockStore) UpdateMemory(_ context.Context, m *memory.UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.memories {
		if s.memories[i].ID == m.ID {
			s.memories[i] = *m
			return nil
		}
	}
	return fmt.Errorf("memory %s: %w", m.ID, domain.ErrNotFound)
}

func (s *mockStore) DeleteMemory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.memories {
		if s.memories[i].ID == id {
			s.memories = append(s.memories[:i], s.memories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("memory %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (s *mockStore) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *mockStore) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
	}
	s.users[u.ID] = *u
	return nil
}

func (s *mockStore) GetPreferences(_ context.Context, userID string) (*user.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.prefs[userID]; ok {
		return &p, nil
	}
	p := user.DefaultPreferences(userID)
	return &p, nil
}

func (s *mockStore) UpsertPreferences(_ context.Context, p *user.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = *p
	return nil
}

func (s *mockStore) ListAPIKeys(_ context.Context, userID string) ([]user.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []user.APIKey
	for _, k := range s.apiKeys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *mockStore) GetAPIKey(_ context.Context, userID string, p model.Provider) (*user.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.apiKeys[apiKeyID(userID, p)]
	if !ok {
		return nil, fmt.Errorf("api key %s/%s: %w", userID, p, domain.ErrNotFound)
	}
	return &k, nil
}

func (s *mockStore) UpsertAPIKey(_ context.Context, k *user.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeys[apiKeyID(k.UserID, k.Provider)] = *k
	return nil
}

func (s *mockStore) DeleteAPIKey(_ context.Context, userID string, p model.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := apiKeyID(userID, p)
	if _, ok := s.apiKeys[id]; !ok {
		return fmt.Errorf("api key %s: %w", id, domain.ErrNotFound)
	}
	delete(s.apiKeys, id)
	return nil
}

// mockBroadcaster records broadcast events for assertions.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastCall
}

type broadcastCall struct {
	eventType string
	payload   any
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastCall{eventType: eventType, payload: payload})
}

func (b *mockBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.eventType
	}
	return out
}

// fakeDispatcher returns a canned result or error, recording each call.
type fakeDispatcher struct {
	mu     sync.Mutex
	result *provider.Result
	err    error
	// block, when set, is closed by the test to release a pending dispatch;
	// dispatch also honors ctx cancellation while waiting.
	block   chan struct{}
	started chan struct{}

	calls []dispatchCall
}

type dispatchCall struct {
	modelID  string
	msgs     []provider.ChatMessage
	settings conversation.Settings
	apiKey   string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, modelID string, msgs []provider.ChatMessage, settings conversation.Settings, apiKey string) (*provider.Result, error) {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{modelID: modelID, msgs: msgs, settings: settings, apiKey: apiKey})
	block := d.block
	started := d.started
	d.mu.Unlock()

	if started != nil {
		close(started)
		d.mu.Lock()
		d.started = nil
		d.mu.Unlock()
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, domain.ErrCancelled
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.result != nil {
		r := *d.result
		return &r, nil
	}
	return &provider.Result{
		Content:      "canned reply",
		Usage:        model.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
		FinishReason: "stop",
	}, nil
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func (d *fakeDispatcher) lastCall() dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[len(d.calls)-1]
}

func storedPrefs(userID string) user.Preferences {
	return user.DefaultPreferences(userID)
}

func projectWithPrompt(id, prompt string) project.Project {
	return project.Project{ID: id, UserID: testUserID, Name: "Project " + id, SystemPrompt: prompt}
}

// staticCredentials resolves a fixed key per provider.
type staticCredentials struct {
	keys map[model.Provider]string
}

func (c *staticCredentials) Resolve(_ context.Context, _ string, p model.Provider) (string, bool, error) {
	if c == nil || c.keys == nil {
		return "", false, nil
	}
	k, ok := c.keys[p]
	return k, ok, nil
}
