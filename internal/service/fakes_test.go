package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/repository/contract"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/events"
	"pdf-chat-be/pkg/llm"
	"pdf-chat-be/pkg/rag/response"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeDB is an in-memory stand-in for the gorm unit of work. It understands
// the specifications the services use.
type fakeDB struct {
	mu            sync.Mutex
	clock         time.Time
	users         map[uuid.UUID]entity.User
	documents     map[uuid.UUID]entity.Document
	conversations map[uuid.UUID]entity.Conversation
	messages      []entity.Message
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         map[uuid.UUID]entity.User{},
		documents:     map[uuid.UUID]entity.Document{},
		conversations: map[uuid.UUID]entity.Conversation{},
	}
}

func (db *fakeDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *fakeDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{db: db}
}

func (db *fakeDB) document(id uuid.UUID) entity.Document {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.documents[id]
}

func (db *fakeDB) putDocument(doc entity.Document) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = db.tick()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.UploadedAt
	}
	db.documents[doc.Id] = doc
}

type fakeUoW struct {
	db *fakeDB
}

func (u *fakeUoW) Begin(ctx context.Context) error {
	return nil
}

func (u *fakeUoW) Commit() error {
	return nil
}

func (u *fakeUoW) Rollback() error {
	return nil
}

func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{db: u.db}
}

func (u *fakeUoW) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{db: u.db}
}

func (u *fakeUoW) ConversationRepository() contract.ConversationRepository {
	return &fakeConversationRepo{db: u.db}
}

func (u *fakeUoW) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{db: u.db}
}

type fakeUserRepo struct {
	db *fakeDB
}

func matchUser(u entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		case specification.ByGoogleID:
			if u.GoogleId == nil || *u.GoogleId != s.GoogleID {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	user.CreatedAt = r.db.tick()
	user.UpdatedAt = user.CreatedAt
	r.db.users[user.Id] = *user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user.UpdatedAt = r.db.tick()
	r.db.users[user.Id] = *user
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if matchUser(u, specs) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, u := range r.db.users {
		if matchUser(u, specs) {
			n++
		}
	}
	return n, nil
}

type fakeDocumentRepo struct {
	db *fakeDB
}

func matchDocument(d entity.Document, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if d.Id != s.ID {
				return false
			}
		case specification.ByOwner:
			if d.OwnerId != s.OwnerID {
				return false
			}
		case specification.ByOwnerEmail:
			if d.OwnerEmail != s.Email {
				return false
			}
		case specification.ByStatus:
			if string(d.Status) != s.Status {
				return false
			}
		case specification.ProcessingBefore:
			if d.Status != entity.DocumentStatusProcessing || !d.UpdatedAt.Before(s.Cutoff) {
				return false
			}
		}
	}
	return true
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	document.UploadedAt = r.db.tick()
	document.UpdatedAt = document.UploadedAt
	r.db.documents[document.Id] = *document
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.documents, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	docs, _ := r.FindAll(ctx, specs...)
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var docs []*entity.Document
	for _, d := range r.db.documents {
		if matchDocument(d, specs) {
			found := d
			docs = append(docs, &found)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.Before(docs[j].UploadedAt) })
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Desc {
			sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.After(docs[j].UploadedAt) })
		}
	}
	return docs, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, _ := r.FindAll(ctx, specs...)
	return int64(len(docs)), nil
}

func (r *fakeDocumentRepo) UpdateProcessingResult(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, pageCount *int, chunks []string, processErr *string, processedAt *time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.documents[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doc.Status = status
	doc.ProcessingError = processErr
	doc.ProcessedAt = processedAt
	if pageCount != nil {
		doc.PageCount = *pageCount
	}
	if chunks != nil {
		doc.Chunks = chunks
	}
	doc.UpdatedAt = r.db.tick()
	r.db.documents[id] = doc
	return nil
}

func (r *fakeDocumentRepo) TransferOwnership(ctx context.Context, ids []uuid.UUID, ownerId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range ids {
		doc := r.db.documents[id]
		doc.OwnerId = ownerId
		r.db.documents[id] = doc
	}
	return nil
}

type fakeConversationRepo struct {
	db *fakeDB
}

func matchConversation(c entity.Conversation, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if c.UserId != s.UserID {
				return false
			}
		case specification.ByDocumentID:
			if c.DocumentId != s.DocumentID {
				return false
			}
		}
	}
	return true
}

func (r *fakeConversationRepo) FirstOrCreate(ctx context.Context, conversation *entity.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.conversations {
		if c.UserId == conversation.UserId && c.DocumentId == conversation.DocumentId {
			*conversation = c
			return nil
		}
	}
	conversation.Id = uuid.New()
	conversation.CreatedAt = r.db.tick()
	conversation.UpdatedAt = conversation.CreatedAt
	r.db.conversations[conversation.Id] = *conversation
	return nil
}

func (r *fakeConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.conversations {
		if matchConversation(c, specs) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, c := range r.db.conversations {
		if c.DocumentId == documentId {
			delete(r.db.conversations, id)
		}
	}
	return nil
}

type fakeMessageRepo struct {
	db *fakeDB
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	message.CreatedAt = r.db.tick()
	r.db.messages = append(r.db.messages, *message)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var res []*entity.Message
	for _, m := range r.db.messages {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByConversationID); ok && m.ConversationId != s.ConversationID {
				keep = false
			}
		}
		if keep {
			found := m
			res = append(res, &found)
		}
	}
	return res, nil
}

func (r *fakeMessageRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	conversations := map[uuid.UUID]bool{}
	for id, c := range r.db.conversations {
		if c.DocumentId == documentId {
			conversations[id] = true
		}
	}
	kept := r.db.messages[:0]
	for _, m := range r.db.messages {
		if !conversations[m.ConversationId] {
			kept = append(kept, m)
		}
	}
	r.db.messages = kept
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.EventType()
	}
	return types
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type fakeGenerator struct {
	mu        sync.Mutex
	reply     response.ChatResponse
	histories [][]llm.Message
	connected bool
}

func (g *fakeGenerator) Generate(ctx context.Context, history []llm.Message, documentID uuid.UUID) response.ChatResponse {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.histories = append(g.histories, append([]llm.Message(nil), history...))
	return g.reply
}

func (g *fakeGenerator) TestConnection(ctx context.Context) bool {
	return g.connected
}
