package notifier

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/storage"
)

// ErrQueueFull is returned when scheduling would exceed the pending notification limit.
var ErrQueueFull = errors.New("pending notification limit reached")

// QueueNotifier keeps pending notifications in the store until a dispatcher delivers them.
type QueueNotifier struct {
	kv         storage.KeyValueStore
	mu         sync.Mutex
	categories map[string]ActionCategory
}

func NewQueueNotifier(kv storage.KeyValueStore) *QueueNotifier {
	return &QueueNotifier{
		kv:         kv,
		categories: make(map[string]ActionCategory),
	}
}

// DispatchResult summarizes one dispatch pass.
type DispatchResult struct {
	Sent    []string
	Failed  []string
	Dropped []string
}

func (q *QueueNotifier) load() ([]Notification, error) {
	var pending []Notification
	if _, err := q.kv.Load(constants.KeyPending, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (q *QueueNotifier) save(pending []Notification) error {
	if len(pending) == 0 {
		return q.kv.Delete(constants.KeyPending)
	}
	slices.SortStableFunc(pending, func(a, b Notification) int {
		return a.At.Compare(b.At)
	})
	return q.kv.Save(constants.KeyPending, pending)
}

// Pending returns the queued notifications ordered by fire time.
func (q *QueueNotifier) Pending() ([]Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *QueueNotifier) ScheduleOneOff(id, title string, at time.Time, userInfo map[string]string, category string) error {
	if id == "" {
		return fmt.Errorf("notification id cannot be empty")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.load()
	if err != nil {
		return err
	}

	n := Notification{ID: id, Title: title, At: at, UserInfo: userInfo, Category: category}
	if i := slices.IndexFunc(pending, func(p Notification) bool { return p.ID == id }); i >= 0 {
		pending[i] = n
	} else {
		if len(pending) >= constants.MaxPendingNotifications {
			return fmt.Errorf("%w (%d)", ErrQueueFull, constants.MaxPendingNotifications)
		}
		pending = append(pending, n)
	}

	if err := q.save(pending); err != nil {
		return err
	}
	logger.Debug("Scheduled notification", "id", id, "at", at)
	return nil
}

func (q *QueueNotifier) CancelPending(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.load()
	if err != nil {
		return err
	}

	before := len(pending)
	pending = slices.DeleteFunc(pending, func(n Notification) bool {
		return slices.Contains(ids, n.ID)
	})
	if len(pending) == before {
		return nil
	}

	logger.Debug("Cancelled pending notifications", "count", before-len(pending))
	return q.save(pending)
}

func (q *QueueNotifier) RegisterActionCategories(categories []ActionCategory) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range categories {
		if c.Identifier == "" {
			return fmt.Errorf("action category identifier cannot be empty")
		}
		q.categories[c.Identifier] = c
	}
	return nil
}

// DispatchDue delivers every notification whose fire time has passed. Entries more than
// grace late are dropped without delivery. Failed deliveries stay queued for the next pass.
func (q *QueueNotifier) DispatchDue(now time.Time, grace time.Duration, sender Sender) (DispatchResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var result DispatchResult
	pending, err := q.load()
	if err != nil {
		return result, err
	}

	remaining := pending[:0:0]
	for _, n := range pending {
		if n.At.After(now) {
			remaining = append(remaining, n)
			continue
		}
		if now.Sub(n.At) > grace {
			logger.Warn("Dropping stale notification", "id", n.ID, "at", n.At)
			result.Dropped = append(result.Dropped, n.ID)
			continue
		}
		if err := sender.Send(n, q.categories[n.Category].Actions); err != nil {
			logger.Error("Failed to deliver notification", "id", n.ID, "error", err)
			result.Failed = append(result.Failed, n.ID)
			remaining = append(remaining, n)
			continue
		}
		result.Sent = append(result.Sent, n.ID)
	}

	if len(remaining) == len(pending) {
		return result, nil
	}
	return result, q.save(remaining)
}

// Due returns the notifications a dispatch pass at now would deliver, without changing the queue.
func (q *QueueNotifier) Due(now time.Time, grace time.Duration) ([]Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.load()
	if err != nil {
		return nil, err
	}
	var due []Notification
	for _, n := range pending {
		if !n.At.After(now) && now.Sub(n.At) <= grace {
			due = append(due, n)
		}
	}
	return due, nil
}

// Actions returns the registered actions for a category.
func (q *QueueNotifier) Actions(category string) []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.categories[category].Actions
}
