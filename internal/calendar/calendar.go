// Package calendar owns the user's events, the read-only subscription
// layers and the index answering queries over both.
package calendar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"nofusscal/internal/ics"
	"nofusscal/internal/lookup"
	appLog "nofusscal/internal/log"
	"nofusscal/internal/model"
)

var (
	ErrEventNotFound = errors.New("event not found")
	// ErrReadOnly is returned when a mutation targets a subscription event.
	ErrReadOnly  = errors.New("event belongs to a read-only subscription")
	ErrDuplicate = errors.New("event UID already exists")
	// ErrNotSaved is returned when a mutation could not be written to the
	// calendar file. The calendar is left unchanged.
	ErrNotSaved = errors.New("calendar not saved")
)

// Calendar is safe for concurrent use. Every mutation rebuilds the index
// under the write lock, so queries never see a half-built index. With a
// file path set, a mutation is written to disk under the same lock and only
// takes effect once the write succeeded.
type Calendar struct {
	productID string

	mu    sync.RWMutex
	path  string
	local []model.Event
	subs  map[string][]model.Event
	index *lookup.Index
}

// New returns an empty calendar whose serialized text carries productID.
func New(productID string) *Calendar {
	if productID == "" {
		productID = ics.DefaultProductID
	}
	return &Calendar{
		productID: productID,
		subs:      map[string][]model.Event{},
		index:     lookup.Build(nil),
	}
}

// Load replaces the local events with those parsed from text. Events that
// cannot be built are skipped and reported.
func (c *Calendar) Load(text string) []error {
	events, errs := model.Build(ics.Parse(text))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = dedupe(events)
	c.rebuildLocked()
	return errs
}

// LoadFile reads path into the calendar and saves later mutations to it. A
// missing file leaves an empty calendar, the state of a first run.
func (c *Calendar) LoadFile(path string) ([]error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read calendar %s: %w", path, err)
		}
		appLog.Info("calendar: no calendar file yet", "path", path)
	}
	skipped := c.Load(string(data))
	c.SetPath(path)
	appLog.Info("calendar: loaded", "path", path, "events", c.Len(), "skipped", len(skipped))
	return skipped, nil
}

// SetPath makes Add, Update and Delete save to path. An empty path keeps
// mutations in memory only.
func (c *Calendar) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
}

// SaveFile writes the local events to path atomically with 0600 perms.
// Mutations wait until the write is done.
func (c *Calendar) SaveFile(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return writeFile(path, c.serialize(c.local))
}

func writeFile(path, text string) error {
	if path == "" {
		return errors.New("calendar path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".nofusscal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Text serializes the local events. Subscription events are never written.
func (c *Calendar) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serialize(c.local)
}

func (c *Calendar) serialize(events []model.Event) string {
	components := make([]ics.Component, len(events))
	for i, e := range events {
		components[i] = e.ToComponent()
	}
	return ics.Serialize(components, c.productID)
}

// commitLocked saves next, when a path is set, and swaps it in.
func (c *Calendar) commitLocked(next []model.Event) error {
	if c.path != "" {
		if err := writeFile(c.path, c.serialize(next)); err != nil {
			appLog.Error("calendar: save failed", err, "path", c.path)
			return fmt.Errorf("%w: %w", ErrNotSaved, err)
		}
		appLog.Debug("calendar: saved", "path", c.path, "events", len(next))
	}
	c.local = next
	c.rebuildLocked()
	return nil
}

// Add creates a local event from f.
func (c *Calendar) Add(f model.Fields) (model.Event, error) {
	e, err := model.New(f)
	if err != nil {
		return model.Event{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, found := c.findLocked(e.UID); found {
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicate, e.UID)
	}
	next := append(slices.Clip(c.local), e)
	if err := c.commitLocked(next); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// Update replaces the local event uid with one built from f.
func (c *Calendar) Update(uid string, f model.Fields) (model.Event, error) {
	f.UID = uid
	e, err := model.New(f)
	if err != nil {
		return model.Event{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i, sub, found := c.findLocked(uid)
	switch {
	case !found:
		return model.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, uid)
	case sub != "":
		return model.Event{}, fmt.Errorf("%w: %s in %s", ErrReadOnly, uid, sub)
	}
	next := slices.Clone(c.local)
	next[i] = e
	if err := c.commitLocked(next); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// Delete removes the local event uid.
func (c *Calendar) Delete(uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, sub, found := c.findLocked(uid)
	switch {
	case !found:
		return fmt.Errorf("%w: %s", ErrEventNotFound, uid)
	case sub != "":
		return fmt.Errorf("%w: %s in %s", ErrReadOnly, uid, sub)
	}
	return c.commitLocked(append(c.local[:i:i], c.local[i+1:]...))
}

// SetSubscription replaces the read-only layer id. Nil or empty events
// remove the layer.
func (c *Calendar) SetSubscription(id string, events []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(events) == 0 {
		delete(c.subs, id)
	} else {
		c.subs[id] = dedupe(events)
	}
	c.rebuildLocked()
}

// Subscriptions returns the ids of the loaded layers, sorted.
func (c *Calendar) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Month returns the events occurring in year-month with their days.
func (c *Calendar) Month(year, month int) ([]lookup.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Lookup(year, month)
}

// Day returns the events occurring on year-month-day.
func (c *Calendar) Day(year, month, day int) ([]model.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.ByDay(year, month, day)
}

// Event looks uid up in the local events, then the subscriptions. readOnly
// is set for subscription events.
func (c *Calendar) Event(uid string) (e model.Event, readOnly bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, sub, found := c.findLocked(uid)
	switch {
	case !found:
		return model.Event{}, false, fmt.Errorf("%w: %s", ErrEventNotFound, uid)
	case sub != "":
		return c.subs[sub][i], true, nil
	default:
		return c.local[i], false, nil
	}
}

// Len counts local and subscription events together.
func (c *Calendar) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Len()
}

// findLocked returns the position of uid and, for subscription events, the
// layer holding it.
func (c *Calendar) findLocked(uid string) (int, string, bool) {
	for i, e := range c.local {
		if e.UID == uid {
			return i, "", true
		}
	}
	for id, events := range c.subs {
		for i, e := range events {
			if e.UID == uid {
				return i, id, true
			}
		}
	}
	return 0, "", false
}

func (c *Calendar) rebuildLocked() {
	all := make([]model.Event, 0, len(c.local))
	all = append(all, c.local...)
	for _, id := range sortedKeys(c.subs) {
		all = append(all, c.subs[id]...)
	}
	c.index = lookup.Build(all)
}

// dedupe keeps the first event of each UID; later duplicates are logged and
// dropped so that edits and deletes stay unambiguous.
func dedupe(events []model.Event) []model.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if _, dup := seen[e.UID]; dup {
			appLog.Error("calendar: dropping duplicate UID", ErrDuplicate, "uid", e.UID)
			continue
		}
		seen[e.UID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func sortedKeys(m map[string][]model.Event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
