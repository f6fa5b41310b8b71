// Package notify хранит всплывающие уведомления формы, которые сами
// исчезают через заданное время или закрываются пользователем.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL время жизни уведомления по умолчанию
const DefaultTTL = 5 * time.Second

// Level уровень (цвет) уведомления
type Level string

const (
	Success Level = "success"
	Danger  Level = "danger"
	Warning Level = "warning"
	Info    Level = "info"
)

// Notification одно показанное уведомление
type Notification struct {
	ID        uint64
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Class CSS-классы контейнера уведомления
func (n Notification) Class() string {
	return "alert alert-" + string(n.Level) + " alert-dismissible fade show"
}

type entry struct {
	n     Notification
	timer *time.Timer
}

// Center управляет набором активных уведомлений. Для каждого уведомления
// заводится отменяемый таймер истечения.
type Center struct {
	ttl time.Duration

	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*entry
	order  []uint64
	closed bool
}

// NewCenter создаёт Center; ttl <= 0 заменяется на DefaultTTL
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, items: make(map[uint64]*entry)}
}

// Show добавляет уведомление и планирует его автоматическое удаление
func (c *Center) Show(level Level, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	n := Notification{ID: c.nextID, Level: level, Message: message, CreatedAt: time.Now()}
	if c.closed {
		return n
	}

	id := n.ID
	e := &entry{n: n}
	e.timer = time.AfterFunc(c.ttl, func() { c.expire(id) })
	c.items[id] = e
	c.order = append(c.order, id)
	return n
}

// Dismiss закрывает уведомление вручную и отменяет его таймер.
// Возвращает false, если уведомление уже исчезло.
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	c.remove(id)
	return true
}

// Active возвращает активные уведомления в порядке показа
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id].n)
	}
	return out
}

// Close отменяет все таймеры и очищает список
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.items {
		e.timer.Stop()
		delete(c.items, id)
	}
	c.order = nil
	c.closed = true
}

func (c *Center) expire(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; ok {
		c.remove(id)
	}
}

// remove вызывается под c.mu
func (c *Center) remove(id uint64) {
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
