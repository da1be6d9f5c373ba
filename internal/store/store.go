package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"signage-player/internal/snapshot"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const memoryEventLimit = 200

// Event is a recorded play event.
type Event struct {
	Token   string
	Type    string
	Payload map[string]any
	At      time.Time
}

type cachedSnapshot struct {
	payload []byte
	at      time.Time
}

// Store keeps player state in Postgres when conn is set and in memory
// otherwise.
type Store struct {
	db  *gorm.DB
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]string
	snapshots map[string]map[int]cachedSnapshot
	events    []Event
}

func New(conn *gorm.DB) *Store {
	return &Store{
		db:        conn,
		now:       time.Now,
		sessions:  make(map[string]string),
		snapshots: make(map[string]map[int]cachedSnapshot),
	}
}

// Persistent reports whether the store is backed by a database.
func (s *Store) Persistent() bool { return s.db != nil }

func (s *Store) LoadSessionID(ctx context.Context, token string) (string, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.sessions[token], nil
	}
	var record ViewerSession
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.SessionID, nil
}

func (s *Store) SaveSessionID(ctx context.Context, token, sessionID string) error {
	if s.db == nil {
		s.mu.Lock()
		s.sessions[token] = sessionID
		s.mu.Unlock()
		return nil
	}
	now := s.now().UTC()
	record := ViewerSession{Token: token, SessionID: sessionID, CreatedAt: now, UpdatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "updated_at"}),
	}).Create(&record).Error
}

// SaveSnapshot stores snap as the last good payload for (token, index).
func (s *Store) SaveSnapshot(ctx context.Context, token string, index int, snap *snapshot.Snapshot) error {
	if !snap.Valid() {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.snapshots[token] == nil {
			s.snapshots[token] = make(map[int]cachedSnapshot)
		}
		s.snapshots[token][index] = cachedSnapshot{payload: payload, at: now}
		return nil
	}
	record := SnapshotCache{
		Token:         token,
		RotationIndex: index,
		Payload:       datatypes.JSON(payload),
		UpdatedAt:     now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "rotation_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
}

// LatestSnapshot returns the most recently saved snapshot for token, or nil
// when none is stored.
func (s *Store) LatestSnapshot(ctx context.Context, token string) (*snapshot.Snapshot, error) {
	var (
		payload []byte
		index   int
		at      time.Time
	)
	if s.db == nil {
		s.mu.Lock()
		found := false
		for i, entry := range s.snapshots[token] {
			if !found || entry.at.After(at) || (entry.at.Equal(at) && i < index) {
				payload, index, at, found = entry.payload, i, entry.at, true
			}
		}
		s.mu.Unlock()
		if !found {
			return nil, nil
		}
	} else {
		var record SnapshotCache
		err := s.db.WithContext(ctx).
			Where("token = ?", token).
			Order("updated_at desc").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		payload, index, at = record.Payload, record.RotationIndex, record.UpdatedAt
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, err
	}
	snap.RotationIndex = index
	snap.FetchedAt = at
	return &snap, nil
}

// DeleteSnapshots forgets every cached slot of token.
func (s *Store) DeleteSnapshots(ctx context.Context, token string) error {
	if s.db == nil {
		s.mu.Lock()
		delete(s.snapshots, token)
		s.mu.Unlock()
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&SnapshotCache{}).Error
}

func (s *Store) RecordEvent(ctx context.Context, token, kind string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	now := s.now().UTC()
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, Event{Token: token, Type: kind, Payload: payload, At: now})
		if len(s.events) > memoryEventLimit {
			s.events = s.events[len(s.events)-memoryEventLimit:]
		}
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&PlayEvent{
		Token:     token,
		Type:      kind,
		Payload:   datatypes.JSON(raw),
		CreatedAt: now,
	}).Error
}

// RecentEvents returns up to limit events, newest first. An empty token
// matches every token.
func (s *Store) RecentEvents(ctx context.Context, token string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]Event, 0, limit)
		for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
			if token == "" || s.events[i].Token == token {
				out = append(out, s.events[i])
			}
		}
		return out, nil
	}
	query := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if token != "" {
		query = query.Where("token = ?", token)
	}
	var records []PlayEvent
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(records))
	for _, record := range records {
		payload := map[string]any{}
		_ = json.Unmarshal(record.Payload, &payload)
		out = append(out, Event{Token: record.Token, Type: record.Type, Payload: payload, At: record.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, nil
}
