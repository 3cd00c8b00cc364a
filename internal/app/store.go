package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Persisted key-value slots. The bearer credential lives alongside the state
// snapshot but is stored and cleared independently of it.
const (
	stateKey = "state"
	tokenKey = "token"
)

// Store owns the canonical envelope and is the only writer to it. Every
// mutating command persists the full envelope before returning; there are no
// partial reads or writes.
type Store struct {
	kv       KV
	env      Envelope
	idGen    IDGenerator
	clock    Clock
	log      Logger
	onChange func()
}

// StoreOption configures optional store collaborators.
type StoreOption func(*Store)

// WithIDGenerator overrides the id generator, used by tests to pin ids.
func WithIDGenerator(gen IDGenerator) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.idGen = gen
		}
	}
}

// WithClock overrides the clock, used by tests to pin time.
func WithClock(clock Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a runtime logger.
func WithLogger(log Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore constructs a store over the backing key-value snapshot. Call Load
// before issuing commands.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:    kv,
		env:   DefaultEnvelope(),
		idGen: uuid.NewString,
		clock: time.Now,
		log:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load reads the persisted snapshot through the migrator. Corrupt or absent
// snapshots silently fall back to the default dataset.
func (s *Store) Load() error {
	raw, ok, err := s.kv.Get(stateKey)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		raw = nil
	}
	s.env = Migrate(raw)
	s.log.Debug("state loaded", "tasks", len(s.env.Tasks), "projects", len(s.env.Projects))
	return nil
}

// Save serializes the full envelope and replaces the backing snapshot in one
// write. Transient UI selection is stripped first; it is not meaningful
// across restarts.
func (s *Store) Save() error {
	toSave := s.env
	toSave.OpenTaskID = ""
	raw, err := json.Marshal(toSave)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.kv.Set(stateKey, raw); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Reset discards the persisted snapshot and reinstalls the default dataset.
func (s *Store) Reset() error {
	if err := s.kv.Delete(stateKey); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	s.env = DefaultEnvelope()
	s.notify()
	return nil
}

// Envelope exposes the canonical state for reads. Mutations go through the
// typed commands only.
func (s *Store) Envelope() *Envelope {
	return &s.env
}

// ReplaceEnvelope installs an externally built envelope (snapshot import,
// sync apply) and persists it.
func (s *Store) ReplaceEnvelope(env Envelope) error {
	s.env = env
	if s.env.OrderMap == nil {
		s.env.OrderMap = map[string][]string{}
	}
	return s.persist()
}

// Token returns the stored bearer credential, empty when none.
func (s *Store) Token() (string, error) {
	raw, ok, err := s.kv.Get(tokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(raw), nil
}

// SetToken stores the bearer credential.
func (s *Store) SetToken(token string) error {
	if err := s.kv.Set(tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// ClearToken removes the stored bearer credential.
func (s *Store) ClearToken() error {
	if err := s.kv.Delete(tokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// OnChange registers a callback fired after every persisted mutation so
// downstream views re-read derived state.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

// persist saves and signals the change to views.
func (s *Store) persist() error {
	if err := s.Save(); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
