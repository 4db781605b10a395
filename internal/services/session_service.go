package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pos_tables_backend/internal/cache"
	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Session DTOs ---
type OpenSessionRequest struct {
	Branch     string `json:"branch"`
	POSProfile string `json:"pos_profile" binding:"required"`
}

// Session is one POS table screen: its profile, synchronizer and cache namespace.
type Session struct {
	ID      string
	Branch  string
	Profile *models.PrintProfile
	Sync    TableSyncService

	cache    *cache.SessionCache
	lastSeen time.Time
}

// --- SessionService Interface ---
type SessionService interface {
	Open(ctx context.Context, req OpenSessionRequest) (*Session, string, error)
	Get(id string) (*Session, error)
	Close(ctx context.Context, id string) error
	// Sweep closes sessions idle longer than the TTL and returns how many were closed.
	Sweep(ctx context.Context) int
}

// --- sessionService Implementation ---
type sessionService struct {
	gateway repositories.Gateway
	store   cache.KVStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(gw repositories.Gateway, store cache.KVStore, secret []byte, ttl time.Duration) SessionService {
	return &sessionService{
		gateway:  gw,
		store:    store,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *sessionService) Open(ctx context.Context, req OpenSessionRequest) (*Session, string, error) {
	profileName := strings.TrimSpace(req.POSProfile)
	if profileName == "" {
		return nil, "", fmt.Errorf("%w: pos_profile is required", ErrSessionValidation)
	}

	profile, err := s.gateway.GetPrintProfile(ctx, profileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load POS profile %s: %w", profileName, err)
	}

	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = profile.Branch
	}
	if branch == "" {
		return nil, "", fmt.Errorf("%w: no branch given and profile %s has none", ErrSessionValidation, profileName)
	}

	id := uuid.NewString()
	sc := cache.NewSessionCache(s.store, "sess:"+id)
	session := &Session{
		ID:       id,
		Branch:   branch,
		Profile:  profile,
		Sync:     NewTableSyncService(s.gateway, sc, branch),
		cache:    sc,
		lastSeen: s.now(),
	}

	token, err := utils.GenerateSessionToken(s.secret, id, branch, profile.Name, s.ttl)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	utils.LogInfo("Session opened", map[string]interface{}{"session_id": id, "branch": branch, "pos_profile": profile.Name})
	return session, token, nil
}

func (s *sessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = s.now()
	return session, nil
}

func (s *sessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if err := session.cache.Reset(ctx); err != nil {
		return err
	}
	utils.LogInfo("Session closed", map[string]interface{}{"session_id": id})
	return nil
}

func (s *sessionService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*Session
	for id, session := range s.sessions {
		if session.lastSeen.Before(cutoff) {
			stale = append(stale, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		if err := session.cache.Reset(ctx); err != nil {
			utils.LogError(err, "Sweep: failed to reset session cache", map[string]interface{}{"session_id": session.ID})
		}
	}
	if len(stale) > 0 {
		utils.LogInfo("Expired sessions swept", map[string]interface{}{"count": len(stale)})
	}
	return len(stale)
}
