package context

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pdf-chat-be/pkg/chunker"
	"pdf-chat-be/pkg/relevance"
	"pdf-chat-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ContextUnavailable is returned in place of a context block whenever the
// document cannot be loaded or read.
const ContextUnavailable = "PDF context not available."

const chunkSeparator = "\n\n"

// extractTimeout bounds a shared on-demand extraction, which no single caller can cancel.
const extractTimeout = 2 * time.Minute

// Assembler turns a document and a question into the context block handed to the model.
type Assembler struct {
	documents store.DocumentStore
	extractor store.Extractor
	scorer    *relevance.Scorer
	chunkSize int
	timeout   time.Duration
	group     singleflight.Group
	logger    *log.Logger
}

func NewAssembler(
	documents store.DocumentStore,
	extractor store.Extractor,
	scorer *relevance.Scorer,
	chunkSize int,
	logger *log.Logger,
) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{
		documents: documents,
		extractor: extractor,
		scorer:    scorer,
		chunkSize: chunkSize,
		timeout:   extractTimeout,
		logger:    logger,
	}
}

// BuildContext never fails: any error collapses into ContextUnavailable.
func (a *Assembler) BuildContext(ctx context.Context, documentID uuid.UUID, question string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("[ERROR] Context assembly panicked for document %s: %v", documentID, r)
			result = ContextUnavailable
		}
	}()

	doc, err := a.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			a.logger.Printf("[WARN] Context requested for unknown document %s", documentID)
		} else {
			a.logger.Printf("[ERROR] Failed to load document %s: %v", documentID, err)
		}
		return ContextUnavailable
	}

	chunks := doc.Chunks
	if len(chunks) == 0 {
		a.logger.Printf("[INFO] No stored chunks for document %s, extracting on demand", documentID)
		chunks, err = a.extractChunks(ctx, documentID)
		if err != nil {
			a.logger.Printf("[ERROR] On-demand extraction failed for document %s: %v", documentID, err)
			return ContextUnavailable
		}
	}

	relevant := a.scorer.Rank(chunks, question)
	a.logger.Printf("[INFO] Found %d relevant chunks out of %d for document %s", len(relevant), len(chunks), documentID)

	if len(relevant) == 0 {
		return generalContext(doc.DisplayName(), a.scorer.Fallback(chunks))
	}
	return specificContext(doc.DisplayName(), relevant)
}

// extractChunks collapses concurrent on-demand extractions of one document.
// A caller that gives up stops waiting; the shared extraction keeps going
// for everyone else.
func (a *Assembler) extractChunks(ctx context.Context, documentID uuid.UUID) ([]string, error) {
	results := a.group.DoChan(documentID.String(), func() (interface{}, error) {
		extractCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		extraction, err := a.extractor.Extract(extractCtx, documentID)
		if err != nil {
			return nil, err
		}
		return chunker.Split(extraction.Text, a.chunkSize), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

func specificContext(name string, chunks []string) string {
	return fmt.Sprintf("📚 **Relevant Content from: %s** 📚\n\n"+
		"Here's the specific information I found that relates to your question:\n\n"+
		"%s\n\n"+
		"🎯 **My task:** I'll use this information to give you a comprehensive, easy-to-understand answer! ✨",
		name, strings.Join(chunks, chunkSeparator))
}

func generalContext(name string, chunks []string) string {
	return fmt.Sprintf("📚 **PDF Context for: %s** 📚\n\n"+
		"While I couldn't find specific content that directly answers your question, here's some general content from the PDF that might be relevant:\n\n"+
		"%s\n\n"+
		"🔍 **What I'll do:** I'll analyze this content thoroughly to try to answer your question as best as I can! 💪",
		name, strings.Join(chunks, chunkSeparator))
}
