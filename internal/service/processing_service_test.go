package service

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/events"
	"pdf-chat-be/pkg/lock"
	"pdf-chat-be/pkg/objectstore"
	"pdf-chat-be/pkg/pdf"
	"pdf-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	result *pdf.Result
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (f *fakeExtractor) ExtractText(ctx context.Context, data []byte) (*pdf.Result, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type processingFixture struct {
	db        *fakeDB
	objects   *objectstore.LocalStore
	extractor *fakeExtractor
	locker    *lock.MemoryLocker
	events    *recordingEvents
	svc       IProcessingService
}

func newProcessingFixture(t *testing.T) *processingFixture {
	t.Helper()
	objects, err := objectstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f := &processingFixture{
		db:        newFakeDB(),
		objects:   objects,
		extractor: &fakeExtractor{result: &pdf.Result{Text: "The threshold is 5 volts. Bananas are yellow.", PageCount: 2}},
		locker:    lock.NewMemoryLocker(),
		events:    &recordingEvents{},
	}
	f.svc = NewProcessingService(
		unitofwork.NewDocumentStore(f.db),
		f.objects,
		f.extractor,
		f.locker,
		time.Minute,
		1000,
		f.events,
		logger.NewNopLogger(),
	)
	return f
}

func (f *processingFixture) storedDocument(t *testing.T) entity.Document {
	t.Helper()
	key := "pdfs/test/doc.pdf"
	require.NoError(t, f.objects.Put(context.Background(), key, bytes.NewReader([]byte("%PDF")), "application/pdf"))
	doc := entity.Document{Id: uuid.New(), OwnerId: uuid.New(), Status: entity.DocumentStatusProcessing, StorageKey: key}
	f.db.putDocument(doc)
	return doc
}

func TestProcessingServiceProcess(t *testing.T) {
	f := newProcessingFixture(t)
	doc := f.storedDocument(t)

	require.NoError(t, f.svc.Process(context.Background(), doc.Id))

	stored := f.db.document(doc.Id)
	assert.Equal(t, entity.DocumentStatusReady, stored.Status)
	assert.Equal(t, 2, stored.PageCount)
	assert.Equal(t, []string{"The threshold is 5 volts. Bananas are yellow."}, stored.Chunks)
	assert.Nil(t, stored.ProcessingError)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, []string{events.DocumentProcessed}, f.events.types())
}

func TestProcessingServiceProcessFailure(t *testing.T) {
	f := newProcessingFixture(t)
	f.extractor.err = errors.New("malformed xref table")
	doc := f.storedDocument(t)

	err := f.svc.Process(context.Background(), doc.Id)
	require.Error(t, err)

	stored := f.db.document(doc.Id)
	assert.Equal(t, entity.DocumentStatusError, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "malformed xref table")
	assert.Equal(t, []string{events.DocumentFailed}, f.events.types())
}

func TestProcessingServiceMissingObject(t *testing.T) {
	f := newProcessingFixture(t)
	doc := entity.Document{Id: uuid.New(), Status: entity.DocumentStatusProcessing, StorageKey: "pdfs/missing.pdf"}
	f.db.putDocument(doc)

	err := f.svc.Process(context.Background(), doc.Id)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	stored := f.db.document(doc.Id)
	assert.Equal(t, entity.DocumentStatusError, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "stored file pdfs/missing.pdf is missing")
	assert.Zero(t, f.extractor.calls.Load())
}

func TestProcessingServiceUnknownDocument(t *testing.T) {
	f := newProcessingFixture(t)

	err := f.svc.Process(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestProcessingServiceSingleFlight(t *testing.T) {
	f := newProcessingFixture(t)
	doc := f.storedDocument(t)

	unlock, err := f.locker.TryLock(context.Background(), lockKey(doc.Id), time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Process(context.Background(), doc.Id), ErrAlreadyProcessing)
	assert.ErrorIs(t, f.svc.Start(context.Background(), doc.Id), ErrAlreadyProcessing)
	assert.Zero(t, f.extractor.calls.Load())

	require.NoError(t, unlock(context.Background()))
	assert.NoError(t, f.svc.Process(context.Background(), doc.Id))
}

func TestProcessingServiceStartHoldsLockUntilDone(t *testing.T) {
	f := newProcessingFixture(t)
	f.extractor.block = make(chan struct{})
	doc := f.storedDocument(t)

	require.NoError(t, f.svc.Start(context.Background(), doc.Id))
	assert.ErrorIs(t, f.svc.Start(context.Background(), doc.Id), ErrAlreadyProcessing)

	close(f.extractor.block)
	require.Eventually(t, func() bool {
		return f.db.document(doc.Id).Status == entity.DocumentStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		unlock, err := f.locker.TryLock(context.Background(), lockKey(doc.Id), time.Minute)
		if err != nil {
			return false
		}
		_ = unlock(context.Background())
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessingServiceExtract(t *testing.T) {
	f := newProcessingFixture(t)
	doc := f.storedDocument(t)

	extraction, err := f.svc.Extract(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, extraction.Pages)
	assert.Contains(t, extraction.Text, "threshold")
	assert.Equal(t, entity.DocumentStatusProcessing, f.db.document(doc.Id).Status)
}
