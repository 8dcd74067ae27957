package events

import (
	"sync"
)

// Kind names a notification raised to application code.
type Kind string

const (
	RoleCreate                 Kind = "roleCreate"
	RoleUpdate                 Kind = "roleUpdate"
	RoleDelete                 Kind = "roleDelete"
	RolePositionsUpdate        Kind = "rolePositionsUpdate"
	StickerCreate              Kind = "stickerCreate"
	StickerUpdate              Kind = "stickerUpdate"
	StickerDelete              Kind = "stickerDelete"
	EmojiCreate                Kind = "emojiCreate"
	EmojiUpdate                Kind = "emojiUpdate"
	EmojiDelete                Kind = "emojiDelete"
	GuildCreate                Kind = "guildCreate"
	GuildDelete                Kind = "guildDelete"
	MessageCreate              Kind = "messageCreate"
	MessageDelete              Kind = "messageDelete"
	MessageReactionAdd         Kind = "messageReactionAdd"
	MessageReactionRemove      Kind = "messageReactionRemove"
	MessageReactionRemoveAll   Kind = "messageReactionRemoveAll"
	MessageReactionRemoveEmoji Kind = "messageReactionRemoveEmoji"
	UserUpdate                 Kind = "userUpdate"
)

// Event is one notification. Created and deleted notifications carry the
// record in New and Old respectively; updates carry both. Batch
// notifications list their records in Records. User is the acting user for
// reaction notifications.
type Event struct {
	Kind    Kind
	Old     any
	New     any
	Records []any
	User    any
}

// Handler receives notifications synchronously on the emitting goroutine.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is a synchronous subscriber registry.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// On subscribes fn to kind and returns a function that removes it.
func (b *Bus) On(kind Kind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.off(kind, id) })
	}
}

func (b *Bus) off(kind Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit calls every subscriber of e.Kind in subscription order.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Kind]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(e)
	}
}

// Listeners returns how many subscribers kind has.
func (b *Bus) Listeners(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
