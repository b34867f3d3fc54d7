package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dlathrop/geoscout/internal/core/domain"
	"github.com/dlathrop/geoscout/internal/core/ports"
	"github.com/dlathrop/geoscout/internal/pkg/geomath"
)

// SessionSnapshot is a read-only copy of a session's current screen state.
type SessionSnapshot struct {
	ID       string             `json:"id"`
	Viewport domain.Viewport    `json:"viewport"`
	Category domain.Category    `json:"category"`
	User     *domain.Coordinate `json:"user,omitempty"`
	Places   []domain.Place     `json:"places"`
	Route    *domain.Route      `json:"route,omitempty"`
}

// session is the explicit "current screen" context: viewport, category, the
// active place set and the active route. Every write replaces a field
// wholesale; generation counters let a result that was superseded while in
// flight be discarded instead of clobbering newer state.
type session struct {
	mu sync.Mutex

	id       string
	viewport domain.Viewport
	category domain.Category
	user     *domain.Coordinate
	places   []domain.Place
	route    *domain.Route

	placesIssued  uint64
	placesApplied uint64
	routeIssued   uint64
	routeApplied  uint64
}

func (s *session) snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:       s.id,
		Viewport: s.viewport,
		Category: s.category,
		Places:   append([]domain.Place(nil), s.places...),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.route != nil {
		r := *s.route
		snap.Route = &r
	}
	return snap
}

// SessionService owns the live sessions and drives the place/route pipeline
// against them. Place and route lookups may run concurrently; each applies as
// a full replace, and a completion belonging to a superseded request is
// dropped.
type SessionService struct {
	locator   *LocatorService
	planner   *PlannerService
	publisher ports.EventPublisher

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a new SessionService. The publisher may be nil;
// events are best effort.
func NewSessionService(locator *LocatorService, planner *PlannerService, publisher ports.EventPublisher) *SessionService {
	return &SessionService{
		locator:   locator,
		planner:   planner,
		publisher: publisher,
		sessions:  make(map[string]*session),
	}
}

// Create opens a session centered on the user's position and loads the
// initial place set for the category.
func (s *SessionService) Create(ctx context.Context, center domain.Coordinate, category domain.Category, pixelWidth, pixelHeight int) (SessionSnapshot, error) {
	if !category.Valid() {
		return SessionSnapshot{}, fmt.Errorf("unknown category %q", category)
	}
	if pixelWidth <= 0 {
		pixelWidth = 400
	}
	if pixelHeight <= 0 {
		pixelHeight = 300
	}

	user := center
	sess := &session{
		id:       uuid.NewString(),
		category: category,
		user:     &user,
		viewport: domain.Viewport{
			Center:      center,
			SpanDegrees: domain.DefaultSpanDegrees,
			PixelWidth:  pixelWidth,
			PixelHeight: pixelHeight,
		},
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.loadPlaces(ctx, sess, center)

	if s.publisher != nil {
		if data, err := json.Marshal(map[string]string{"event": "session_created", "session": sess.id}); err == nil {
			_ = s.publisher.PublishBroadcast(ctx, data)
		}
	}

	return sess.snapshot(), nil
}

// Get returns the current snapshot of a session.
func (s *SessionService) Get(id string) (SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return sess.snapshot(), nil
}

// Refresh recenters the session on a new position and replaces its place set.
func (s *SessionService) Refresh(ctx context.Context, id string, center domain.Coordinate) (SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionSnapshot{}, err
	}

	sess.mu.Lock()
	sess.viewport.Center = center
	user := center
	sess.user = &user
	sess.mu.Unlock()

	s.loadPlaces(ctx, sess, center)
	return sess.snapshot(), nil
}

// Click resolves a pixel click against the session's rendered markers. When a
// marker is hit, a route from the user position to it is computed and becomes
// the session's active route. A miss returns (nil, nil, nil).
func (s *SessionService) Click(ctx context.Context, id string, x, y float64) (*domain.Place, *domain.Route, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	vp := sess.viewport
	places := append([]domain.Place(nil), sess.places...)
	var origin *domain.Coordinate
	if sess.user != nil {
		u := *sess.user
		origin = &u
	}
	sess.routeIssued++
	gen := sess.routeIssued
	sess.mu.Unlock()

	selected := geomath.ResolveClick(x, y, vp, places)
	if selected == nil {
		return nil, nil, nil
	}
	if origin == nil {
		// The collaborator is responsible for establishing a user position
		// before asking for a route.
		return selected, nil, fmt.Errorf("session %s has no user coordinate", id)
	}

	route := s.planner.PlanRoute(ctx, *origin, selected.Location)

	sess.mu.Lock()
	applied := false
	if gen > sess.routeApplied {
		sess.route = &route
		sess.routeApplied = gen
		applied = true
	}
	sess.mu.Unlock()

	if applied && s.publisher != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.publisher.PublishRouteUpdated(ctx, id, data)
		}
	}

	return selected, &route, nil
}

// Close removes a session.
func (s *SessionService) Close(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionService) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// loadPlaces runs a locator lookup and applies the result as a full replace,
// unless a newer lookup finished first.
func (s *SessionService) loadPlaces(ctx context.Context, sess *session, center domain.Coordinate) {
	sess.mu.Lock()
	sess.placesIssued++
	gen := sess.placesIssued
	category := sess.category
	sess.mu.Unlock()

	places := s.locator.FindNearby(ctx, center, category, DefaultRadiusKm)

	sess.mu.Lock()
	applied := false
	if gen > sess.placesApplied {
		sess.places = places
		sess.placesApplied = gen
		applied = true
	}
	sess.mu.Unlock()

	if applied && s.publisher != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.publisher.PublishPlacesUpdated(ctx, sess.id, data)
		}
	}
}
