package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/dom/postboard/internal/client/api"
	"github.com/dom/postboard/internal/client/storage"
)

var (
	// ErrStale is returned when a call completes after the session it was
	// started in has ended. Its result is discarded.
	ErrStale = errors.New("session changed while request was in flight")

	ErrNotAuthenticated = errors.New("not logged in")
)

// API is the subset of the server API the session drives.
type API interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	ListAll(ctx context.Context, token string) ([]api.Post, error)
	ListMine(ctx context.Context, token string) ([]api.Post, error)
	Create(ctx context.Context, token string, input api.PostInput) (*api.Post, error)
	Update(ctx context.Context, token, id string, patch api.PostPatch) (*api.Post, error)
	Delete(ctx context.Context, token, id string) error
}

// Session is the process-wide session container. Triggers run one at a
// time; Logout and Snapshot never wait for a trigger in flight.
type Session struct {
	api    API
	store  storage.Store
	logger *slog.Logger

	trigger sync.Mutex

	mu    sync.RWMutex
	state State
	epoch uint64
}

func New(client API, store storage.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		api:    client,
		store:  store,
		logger: logger,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// begin clears the last error, marks the session busy and returns the epoch
// and token the call runs under.
func (s *Session) begin() (uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, ActionStarted{})
	return s.epoch, s.state.Token
}

// complete applies action if the session is still in epoch. It reports
// whether the session went from unauthenticated to authenticated.
func (s *Session) complete(epoch uint64, action Action) (bool, error) {
	_, transitioned, err := s.commit(epoch, action, nil)
	return transitioned, err
}

// commit is complete with a side effect that runs under the state lock
// once the epoch has been checked. It also returns the epoch the session is
// in afterwards, which follow-up calls must run under.
func (s *Session) commit(epoch uint64, action Action, effect func()) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug("discarding stale completion", "action", actionName(action))
		return 0, false, ErrStale
	}

	if effect != nil {
		effect()
	}

	was := s.state.Authenticated()
	s.state = Reduce(s.state, action)
	if _, ok := action.(ActionAuthenticated); ok {
		s.epoch++
	}
	return s.epoch, !was && s.state.Authenticated(), nil
}

// resume marks a follow-up call started, provided nothing ended the
// session since epoch.
func (s *Session) resume(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return ErrStale
	}
	s.state = Reduce(s.state, ActionStarted{})
	return nil
}

// fail records err as the last error and returns it, unless the call is
// stale.
func (s *Session) fail(epoch uint64, err error) error {
	if _, staleErr := s.complete(epoch, ActionFailed{Message: describe(err)}); staleErr != nil {
		return staleErr
	}
	return err
}

func (s *Session) requireToken(epoch uint64, token string) error {
	if token == "" {
		return s.fail(epoch, ErrNotAuthenticated)
	}
	return nil
}

func (s *Session) Signup(ctx context.Context, req api.SignupRequest) error {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	epoch, _ := s.begin()
	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		return s.fail(epoch, err)
	}
	return s.authenticate(ctx, epoch, resp)
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	epoch, _ := s.begin()
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.fail(epoch, err)
	}
	return s.authenticate(ctx, epoch, resp)
}

func (s *Session) authenticate(ctx context.Context, epoch uint64, resp *api.AuthResponse) error {
	action := ActionAuthenticated{Token: resp.AccessToken, User: resp.User}
	next, transitioned, err := s.commit(epoch, action, func() {
		s.persist(ctx, resp.AccessToken, resp.User)
	})
	if err != nil {
		return err
	}
	if transitioned {
		s.onAuthenticated(ctx, next, resp.AccessToken)
	}
	return nil
}

// onAuthenticated is the effect of becoming authenticated: one refresh of
// the global list, under the epoch the authentication produced. Its failure
// is recorded in LastError only; the authentication itself succeeded.
func (s *Session) onAuthenticated(ctx context.Context, epoch uint64, token string) {
	if err := s.load(ctx, epoch, token, s.api.ListAll); err != nil && !errors.Is(err, ErrStale) {
		s.logger.Warn("initial refresh failed", "error", err)
	}
}

func (s *Session) persist(ctx context.Context, token string, user api.User) {
	userJSON, err := json.Marshal(user)
	if err == nil {
		err = s.store.SaveCredentials(ctx, storage.Credentials{Token: []byte(token), User: userJSON})
	}
	if err != nil {
		s.logger.Warn("failed to persist credentials", "error", err)
	}
}

func (s *Session) purge(ctx context.Context) {
	if err := s.store.ClearCredentials(ctx); err != nil {
		s.logger.Warn("failed to clear persisted credentials", "error", err)
	}
}

// Logout clears persisted credentials and local state. Calls still in
// flight complete as ErrStale.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge(ctx)
	s.epoch++
	s.state = Reduce(s.state, ActionLoggedOut{})
}

// Restore loads persisted credentials. Anything missing or unreadable is
// purged and the session stays logged out. Becoming authenticated refreshes
// the global list as a login does. It returns whether the session is
// authenticated afterwards.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	return s.restore(ctx, true)
}

// Resume is Restore without the refresh: the post list stays empty until a
// trigger loads it. For one-shot callers that never show the feed or load
// it themselves.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	return s.restore(ctx, false)
}

func (s *Session) restore(ctx context.Context, refresh bool) (bool, error) {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return false, err
	}

	var user api.User
	if len(creds.Token) == 0 || len(creds.User) == 0 || json.Unmarshal(creds.User, &user) != nil || user.ID == "" {
		if len(creds.Token) > 0 || len(creds.User) > 0 {
			s.logger.Info("discarding incomplete persisted session")
		}
		s.purge(ctx)
		return false, nil
	}

	token := string(creds.Token)
	next, transitioned, err := s.commit(epoch, ActionAuthenticated{Token: token, User: user}, nil)
	if err != nil {
		return false, err
	}
	if transitioned && refresh {
		s.onAuthenticated(ctx, next, token)
	}
	return true, nil
}

func (s *Session) RefreshAll(ctx context.Context) error {
	s.trigger.Lock()
	defer s.trigger.Unlock()
	return s.refresh(ctx, s.api.ListAll)
}

func (s *Session) RefreshMine(ctx context.Context) error {
	s.trigger.Lock()
	defer s.trigger.Unlock()
	return s.refresh(ctx, s.api.ListMine)
}

type listFunc func(ctx context.Context, token string) ([]api.Post, error)

// refresh runs a list call and replaces the local posts. Callers hold the
// trigger lock.
func (s *Session) refresh(ctx context.Context, list listFunc) error {
	epoch, token := s.begin()
	if err := s.requireToken(epoch, token); err != nil {
		return err
	}
	return s.fetch(ctx, epoch, token, list)
}

// load is refresh as the follow-up of another call: it runs under that
// call's epoch and token, and is stale if the session ended in between.
func (s *Session) load(ctx context.Context, epoch uint64, token string, list listFunc) error {
	if err := s.resume(epoch); err != nil {
		return err
	}
	return s.fetch(ctx, epoch, token, list)
}

func (s *Session) fetch(ctx context.Context, epoch uint64, token string, list listFunc) error {
	posts, err := list(ctx, token)
	if err != nil {
		return s.fail(epoch, err)
	}
	_, err = s.complete(epoch, ActionPostsReplaced{Posts: posts})
	return err
}

// CreatePost stores a post and then reloads the global list. A failed reload
// is recorded in LastError but does not fail the call, since the post was
// stored.
func (s *Session) CreatePost(ctx context.Context, input api.PostInput) (*api.Post, error) {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	epoch, token := s.begin()
	if err := s.requireToken(epoch, token); err != nil {
		return nil, err
	}

	post, err := s.api.Create(ctx, token, input)
	if err != nil {
		return nil, s.fail(epoch, err)
	}

	if err := s.load(ctx, epoch, token, s.api.ListAll); err != nil {
		if errors.Is(err, ErrStale) {
			return nil, err
		}
		s.logger.Warn("refresh after create failed", "error", err)
	}
	return post, nil
}

func (s *Session) UpdatePost(ctx context.Context, id string, patch api.PostPatch) (*api.Post, error) {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	epoch, token := s.begin()
	if err := s.requireToken(epoch, token); err != nil {
		return nil, err
	}

	post, err := s.api.Update(ctx, token, id, patch)
	if err != nil {
		return nil, s.fail(epoch, err)
	}
	if _, err := s.complete(epoch, ActionPostUpdated{Post: *post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Session) DeletePost(ctx context.Context, id string) error {
	s.trigger.Lock()
	defer s.trigger.Unlock()

	epoch, token := s.begin()
	if err := s.requireToken(epoch, token); err != nil {
		return err
	}

	if err := s.api.Delete(ctx, token, id); err != nil {
		return s.fail(epoch, err)
	}
	_, err := s.complete(epoch, ActionPostRemoved{ID: id})
	return err
}

// describe turns err into a message fit for display. Server errors carry
// their own message; anything else gets a generic one.
func describe(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNotAuthenticated):
		return "You must be logged in"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request was cancelled"
	default:
		return "Could not reach the server"
	}
}

func actionName(a Action) string {
	switch a.(type) {
	case ActionStarted:
		return "started"
	case ActionFailed:
		return "failed"
	case ActionAuthenticated:
		return "authenticated"
	case ActionLoggedOut:
		return "logged_out"
	case ActionPostsReplaced:
		return "posts_replaced"
	case ActionPostUpdated:
		return "post_updated"
	case ActionPostRemoved:
		return "post_removed"
	default:
		return "unknown"
	}
}
