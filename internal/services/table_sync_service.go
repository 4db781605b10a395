package services

import (
	"context"
	"sync"

	"pos_tables_backend/internal/cache"
	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const (
	msgRoomsFailed  = "Failed to load rooms"
	msgTablesFailed = "Failed to load tables"
)

// --- TableSyncService Interface ---

// TableSyncService keeps one session's rooms, tables and room counts in step
// with the gateway, reusing the session cache where it can. Fetch failures
// are recorded in the slice state rather than returned.
type TableSyncService interface {
	Bootstrap(ctx context.Context)
	LoadRooms(ctx context.Context, branch string)
	LoadRoomCounts(ctx context.Context, branch string, rooms []models.Room)
	RefreshRoomCount(ctx context.Context, room string)
	LoadTables(ctx context.Context, room string, useCache bool)
	SwitchRoom(ctx context.Context, room string)
	InvalidateTables(ctx context.Context, room string)

	Rooms() []models.Room
	SelectedRoom() string
	FindTable(name string) (models.Table, bool)
	BeginPrinting(table string) bool
	EndPrinting(table string)
	Snapshot() models.TableView
}

// --- tableSyncService Implementation ---
type tableSyncService struct {
	gateway repositories.Gateway
	cache   *cache.SessionCache

	mu           sync.Mutex
	branch       string
	rooms        models.Slice[[]models.Room]
	selectedRoom string
	tables       models.Slice[[]models.Table]
	counts       models.Slice[models.RoomCounts]
	printing     map[string]struct{}
}

// NewTableSyncService creates the synchronizer for one session and branch.
func NewTableSyncService(gw repositories.Gateway, sc *cache.SessionCache, branch string) TableSyncService {
	return &tableSyncService{
		gateway:  gw,
		cache:    sc,
		branch:   branch,
		rooms:    models.Idle[[]models.Room](),
		tables:   models.Idle[[]models.Table](),
		counts:   models.Idle[models.RoomCounts](),
		printing: make(map[string]struct{}),
	}
}

// Bootstrap runs the initial load: rooms, their counts, then the selected room's tables.
func (s *tableSyncService) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	branch := s.branch
	s.mu.Unlock()

	s.LoadRooms(ctx, branch)
	s.LoadRoomCounts(ctx, branch, s.Rooms())
	if room := s.SelectedRoom(); room != "" {
		s.LoadTables(ctx, room, true)
	}
}

// selectIfNone must be called with s.mu held.
func (s *tableSyncService) selectIfNone(rooms []models.Room) {
	if s.selectedRoom == "" && len(rooms) > 0 {
		s.selectedRoom = rooms[0].Name
	}
}

func (s *tableSyncService) LoadRooms(ctx context.Context, branch string) {
	if branch == "" {
		return
	}

	var cached []models.Room
	if s.cache.Get(ctx, cache.ScopeRooms, branch, &cached) {
		s.mu.Lock()
		s.branch = branch
		s.rooms = models.Ready(cached)
		s.selectIfNone(cached)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.branch = branch
	s.rooms = models.Loading[[]models.Room]()
	s.mu.Unlock()

	fetched, err := s.gateway.ListRooms(ctx, branch)
	if err != nil {
		utils.LogError(err, "LoadRooms: failed to fetch rooms", map[string]interface{}{"branch": branch})
		s.mu.Lock()
		s.rooms = models.Failed[[]models.Room](msgRoomsFailed)
		s.mu.Unlock()
		return
	}
	if fetched == nil {
		fetched = []models.Room{}
	}

	if err := s.cache.Put(ctx, cache.ScopeRooms, branch, fetched); err != nil {
		utils.LogError(err, "LoadRooms: failed to cache rooms", map[string]interface{}{"branch": branch})
	}

	s.mu.Lock()
	s.rooms = models.Ready(fetched)
	s.selectIfNone(fetched)
	s.mu.Unlock()
}

func (s *tableSyncService) LoadRoomCounts(ctx context.Context, branch string, rooms []models.Room) {
	if branch == "" || len(rooms) == 0 {
		return
	}

	var cached models.RoomCounts
	hasCached := s.cache.Get(ctx, cache.ScopeRoomCounts, branch, &cached)
	if hasCached && cached.Covers(rooms) {
		s.mu.Lock()
		s.counts = models.Ready(cached)
		s.mu.Unlock()
		return
	}

	// Partially cached counts stay visible while the batch runs.
	s.mu.Lock()
	if hasCached {
		s.counts = models.Ready(cached)
	} else if s.counts.Status != models.SliceReady {
		s.counts = models.Loading[models.RoomCounts]()
	}
	s.mu.Unlock()

	var (
		g       errgroup.Group
		joinMu  sync.Mutex
		fetched = make(models.RoomCounts, len(rooms))
	)
	for _, room := range rooms {
		room := room
		g.Go(func() error {
			count, err := s.gateway.CountTables(ctx, room.Name, room.Branch)
			if err != nil {
				utils.LogError(err, "LoadRoomCounts: failed to count tables", map[string]interface{}{"room": room.Name})
				return err
			}
			joinMu.Lock()
			fetched[room.Name] = count
			joinMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		utils.LogWarn("Room counts not refreshed", map[string]interface{}{"branch": branch, "error": err.Error()})
		s.mu.Lock()
		if s.counts.Status == models.SliceLoading {
			s.counts = models.Idle[models.RoomCounts]()
		}
		s.mu.Unlock()
		return
	}

	if err := s.cache.Put(ctx, cache.ScopeRoomCounts, branch, fetched); err != nil {
		utils.LogError(err, "LoadRoomCounts: failed to cache counts", map[string]interface{}{"branch": branch})
	}
	s.mu.Lock()
	s.counts = models.Ready(fetched)
	s.mu.Unlock()
}

func (s *tableSyncService) RefreshRoomCount(ctx context.Context, room string) {
	s.mu.Lock()
	branch := s.branch
	roomBranch := branch
	for _, r := range s.rooms.Data {
		if r.Name == room && r.Branch != "" {
			roomBranch = r.Branch
			break
		}
	}
	s.mu.Unlock()

	if room == "" || roomBranch == "" {
		return
	}

	count, err := s.gateway.CountTables(ctx, room, roomBranch)
	if err != nil {
		utils.LogError(err, "RefreshRoomCount: failed to count tables", map[string]interface{}{"room": room})
		return
	}

	cacheKey := branch
	if cacheKey == "" {
		cacheKey = roomBranch
	}

	var current models.RoomCounts
	if !s.cache.Get(ctx, cache.ScopeRoomCounts, cacheKey, &current) {
		s.mu.Lock()
		current = s.counts.Data
		s.mu.Unlock()
	}
	next := current.Clone()
	next[room] = count

	if err := s.cache.Put(ctx, cache.ScopeRoomCounts, cacheKey, next); err != nil {
		utils.LogError(err, "RefreshRoomCount: failed to cache counts", map[string]interface{}{"room": room})
	}
	s.mu.Lock()
	s.counts = models.Ready(next)
	s.mu.Unlock()
}

func (s *tableSyncService) LoadTables(ctx context.Context, room string, useCache bool) {
	if room == "" {
		return
	}

	if useCache {
		var cached []models.Table
		if s.cache.Get(ctx, cache.ScopeTables, room, &cached) {
			s.mu.Lock()
			s.tables = models.Ready(models.SortTables(cached))
			s.mu.Unlock()
			return
		}
	}

	s.mu.Lock()
	s.tables = models.Loading[[]models.Table]()
	s.mu.Unlock()

	fetched, err := s.gateway.ListTables(ctx, room)
	if err != nil {
		utils.LogError(err, "LoadTables: failed to fetch tables", map[string]interface{}{"room": room})
		s.mu.Lock()
		s.tables = models.Failed[[]models.Table](msgTablesFailed)
		s.mu.Unlock()
		return
	}

	sorted := models.SortTables(fetched)
	if err := s.cache.Put(ctx, cache.ScopeTables, room, sorted); err != nil {
		utils.LogError(err, "LoadTables: failed to cache tables", map[string]interface{}{"room": room})
	}

	// A fetch superseded by a newer room switch still lands here; its cache
	// entry is keyed by its own room, only the display may briefly lag.
	s.mu.Lock()
	s.tables = models.Ready(sorted)
	s.mu.Unlock()
}

func (s *tableSyncService) SwitchRoom(ctx context.Context, room string) {
	if room == "" {
		return
	}

	s.mu.Lock()
	same := room == s.selectedRoom
	s.mu.Unlock()
	if same {
		// Tapping the active tab is a manual refresh.
		s.LoadTables(ctx, room, false)
		return
	}

	var cached []models.Table
	hit := s.cache.Get(ctx, cache.ScopeTables, room, &cached)

	s.mu.Lock()
	s.selectedRoom = room
	if hit {
		s.tables = models.Ready(models.SortTables(cached))
		s.mu.Unlock()
		return
	}
	s.tables = models.Loading[[]models.Table]()
	s.mu.Unlock()

	s.LoadTables(ctx, room, true)
}

func (s *tableSyncService) InvalidateTables(ctx context.Context, room string) {
	if err := s.cache.Invalidate(ctx, cache.ScopeTables, room); err != nil {
		utils.LogError(err, "InvalidateTables: failed to drop cached tables", map[string]interface{}{"room": room})
	}
}

func (s *tableSyncService) Rooms() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Room, len(s.rooms.Data))
	copy(out, s.rooms.Data)
	return out
}

func (s *tableSyncService) SelectedRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedRoom
}

func (s *tableSyncService) FindTable(name string) (models.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables.Data {
		if t.Name == name {
			return t, true
		}
	}
	return models.Table{}, false
}

// BeginPrinting marks a table as printing; false means a print is already running on it.
func (s *tableSyncService) BeginPrinting(table string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.printing[table]; busy {
		return false
	}
	s.printing[table] = struct{}{}
	return true
}

func (s *tableSyncService) EndPrinting(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.printing, table)
}

func (s *tableSyncService) Snapshot() models.TableView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := models.TableView{
		Branch:       s.branch,
		SelectedRoom: s.selectedRoom,
		Rooms:        s.rooms,
		RoomCounts:   s.counts,
	}
	if view.Rooms.Status == models.SliceReady && view.Rooms.Data == nil {
		view.Rooms.Data = []models.Room{}
	}
	if view.RoomCounts.Status == models.SliceReady {
		view.RoomCounts.Data = s.counts.Data.Clone()
	}

	view.Tables = models.Slice[[]models.TableCard]{Status: s.tables.Status, Reason: s.tables.Reason}
	if s.tables.Status == models.SliceReady {
		cards := make([]models.TableCard, 0, len(s.tables.Data))
		for _, t := range models.SortTables(s.tables.Data) {
			card := models.TableCard{Table: t}
			if t.Occupied {
				card.StartedAtLabel = models.FormatInvoiceTime(t.LatestInvoiceTime)
			}
			_, card.Printing = s.printing[t.Name]
			cards = append(cards, card)
		}
		view.Tables.Data = cards
	}
	return view
}
