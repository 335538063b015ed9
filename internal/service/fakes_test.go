package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/events"
	"github.com/helpme/helpdesk-service/internal/repository"
	"github.com/helpme/helpdesk-service/internal/storage"
)

// In-memory collaborators. Each fake mirrors the contract of its real
// counterpart, including the pgx.ErrNoRows convention for misses.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	clock   time.Time
	tickets map[string]domain.Ticket

	createErr error
	updateErr error
	deleteErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		clock:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		tickets: make(map[string]domain.Ticket),
	}
}

func (f *fakeTicketRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = f.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = f.tick()
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type fakeReplyRepo struct {
	mu      sync.Mutex
	seq     int
	clock   time.Time
	replies map[string]domain.Reply
	authors map[string]domain.AuthorRef

	deleteByTicketErr error
}

func newFakeReplyRepo() *fakeReplyRepo {
	return &fakeReplyRepo{
		clock:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		replies: make(map[string]domain.Reply),
		authors: make(map[string]domain.AuthorRef),
	}
}

func (f *fakeReplyRepo) setAuthor(ref domain.AuthorRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authors[ref.ID] = ref
}

func (f *fakeReplyRepo) Create(_ context.Context, reply *domain.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	reply.ID = fmt.Sprintf("reply-%d", f.seq)
	f.clock = f.clock.Add(time.Minute)
	reply.CreatedAt = f.clock
	reply.UpdatedAt = reply.CreatedAt
	f.replies[reply.ID] = *reply
	return nil
}

func (f *fakeReplyRepo) Update(_ context.Context, reply *domain.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.replies[reply.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.clock = f.clock.Add(time.Minute)
	reply.UpdatedAt = f.clock
	f.replies[reply.ID] = *reply
	return nil
}

func (f *fakeReplyRepo) GetByID(_ context.Context, id string) (*domain.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply, ok := f.replies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := reply
	return &copied, nil
}

func (f *fakeReplyRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.replies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.replies, id)
	return nil
}

func (f *fakeReplyRepo) DeleteByTicket(_ context.Context, ticketID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteByTicketErr != nil {
		return 0, f.deleteByTicketErr
	}
	var removed int64
	for id, reply := range f.replies {
		if reply.TicketID == ticketID {
			delete(f.replies, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeReplyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ReplyWithAuthor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ReplyWithAuthor
	for _, reply := range f.replies {
		if reply.TicketID != ticketID {
			continue
		}
		result = append(result, domain.ReplyWithAuthor{
			Reply:  reply,
			Author: f.authors[reply.AuthorID],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (f *fakeUserRepo) seed(user domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		f.seq++
		user.ID = fmt.Sprintf("user-%d", f.seq)
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeStorage struct {
	mu       sync.Mutex
	seq      int
	stored   []string
	released []string

	storeErr   error
	releaseErr error
}

func (f *fakeStorage) Store(_ context.Context, upload storage.Upload) (*storage.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	f.seq++
	key := fmt.Sprintf("blob-%d", f.seq)
	f.stored = append(f.stored, key)
	return &storage.StoredObject{URL: "https://media.test/" + key, StorageKey: key}, nil
}

func (f *fakeStorage) Release(_ context.Context, storageKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.released = append(f.released, storageKey)
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
