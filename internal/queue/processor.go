package queue

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/embedding"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/ocr"
	"github.com/haqnow/archive/internal/summariser"
	"github.com/haqnow/archive/internal/tagger"
	"github.com/haqnow/archive/internal/telemetry"
	"github.com/haqnow/archive/internal/vectorstore"
)

// Processor runs the per-document pipeline: OCR/translate, tag,
// summarise, embed, chunk, finalise. It is driven by asynq deliveries and by
// the poller fallback; both funnel through the same transactional claim.
type Processor struct {
	queue      *Queue
	store      *catalog.Store
	vectors    *vectorstore.Store
	objects    *objectstore.Store
	engine     *ocr.Engine
	summariser *summariser.Summariser
	embedder   *embedding.Client
	metrics    *telemetry.Metrics
}

func NewProcessor(q *Queue, store *catalog.Store, vectors *vectorstore.Store, objects *objectstore.Store,
	engine *ocr.Engine, summ *summariser.Summariser, embedder *embedding.Client, metrics *telemetry.Metrics) *Processor {
	return &Processor{
		queue:      q,
		store:      store,
		vectors:    vectors,
		objects:    objects,
		engine:     engine,
		summariser: summ,
		embedder:   embedder,
		metrics:    metrics,
	}
}

// HandleTask is the asynq handler for TaskProcessDocument. The payload
// only names a job row; the claim re-reads it under a row lock, so a
// duplicate delivery simply finds the job already taken and drops out.
func (p *Processor) HandleTask(ctx context.Context, t *asynq.Task) error {
	jobID, err := DecodeJobID(t.Payload())
	if err != nil {
		logger.Error("dropping malformed task payload", "error", err)
		return nil
	}

	job, err := p.queue.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	p.Run(ctx, job)
	return nil
}

// Poll claims and runs pending jobs until the queue is drained, the
// fallback path for deliveries lost to a Redis outage.
func (p *Processor) Poll(ctx context.Context) {
	for {
		job, err := p.queue.Next(ctx)
		if err != nil {
			logger.Warn("job poll failed", "error", err)
			return
		}
		if job == nil {
			return
		}
		p.Run(ctx, job)
	}
}

// Run executes the pipeline for a claimed job. Errors never escape to
// the caller: they are recorded on the job row, and the retry policy
// decides continuation.
func (p *Processor) Run(ctx context.Context, job *catalog.Job) {
	logger.Info("pipeline started", "job_id", job.ID, "document_id", job.DocumentID)

	doc, err := p.store.GetDocument(ctx, job.DocumentID)
	if err != nil {
		p.fail(ctx, job, fmt.Sprintf("document lookup failed: %v", err), false)
		return
	}
	if doc.Status != catalog.StatusApproved {
		// Rejected (or deleted-and-recreated) between enqueue and claim;
		// jobs are non-cancellable, so close this one out without work.
		logger.Info("document no longer approved, skipping pipeline", "job_id", job.ID, "status", doc.Status)
		_ = p.queue.Complete(ctx, job.ID)
		return
	}

	p.progress(ctx, job, "fetch_document", 5)
	pdfBytes, err := p.fetchBlob(ctx, doc.ObjectKey)
	if err != nil {
		p.fail(ctx, job, fmt.Sprintf("object store fetch failed: %v", err), true)
		return
	}

	p.progress(ctx, job, "ocr_extraction", 20)
	origin := ocr.OriginScan
	if doc.SourceKind == catalog.SourceKindText {
		origin = ocr.OriginText
	}
	ocrResult := p.stageOCR(ctx, pdfBytes, origin, doc.DocumentLanguage)

	// English-first preferred text drives tagging, summarisation, and
	// search downstream.
	preferred := ocrResult.EnglishText
	if strings.TrimSpace(preferred) == "" {
		preferred = ocrResult.OriginalText
	}
	searchText := buildSearchText(doc.Title, doc.Description, preferred)

	p.progress(ctx, job, "tagging", 50)
	tags := p.stageTags(ctx, preferred)

	p.progress(ctx, job, "summarisation", 65)
	summary := p.stageSummary(ctx, doc.Title, preferred)

	p.progress(ctx, job, "embedding", 80)
	docEmbedding := p.stageEmbedding(ctx, searchText)

	p.progress(ctx, job, "chunking", 90)
	if err := p.stageChunks(ctx, doc, preferred); err != nil {
		p.fail(ctx, job, fmt.Sprintf("chunk upsert failed: %v", err), true)
		return
	}

	p.progress(ctx, job, "finalising", 95)
	err = p.store.CompleteProcessing(ctx, doc.ID, ocrResult.OriginalText, ocrResult.EnglishText,
		preferred, searchText, summary, tags, docEmbedding)
	if err != nil {
		if ae, ok := apierr.As(err); ok && ae.Kind == apierr.Conflict {
			// The finaliser notices the document is no longer approved
			// and discards its artefacts.
			logger.Info("document left approved state mid-pipeline, purging artefacts", "document_id", doc.ID)
			if purgeErr := p.vectors.DeleteDocumentChunks(ctx, doc.ID); purgeErr != nil {
				logger.Warn("artefact purge failed, reconciler will retry", "document_id", doc.ID, "error", purgeErr)
			}
			_ = p.queue.Complete(ctx, job.ID)
			return
		}
		p.fail(ctx, job, fmt.Sprintf("finalise failed: %v", err), true)
		return
	}

	if err := p.queue.Complete(ctx, job.ID); err != nil {
		logger.Warn("job completion update failed", "job_id", job.ID, "error", err)
		return
	}
	logger.Info("pipeline completed", "job_id", job.ID, "document_id", doc.ID)
}

func (p *Processor) fetchBlob(ctx context.Context, key string) ([]byte, error) {
	obj, err := p.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// stageOCR runs the OCR/translate engine. All of its internal fallbacks
// (translator degradation, HTTP fallback) are handled inside the engine;
// a hard error here degrades to empty text rather than aborting, since
// the document must still reach processed.
func (p *Processor) stageOCR(ctx context.Context, pdfBytes []byte, origin ocr.Origin, language string) *ocr.Result {
	start := time.Now()
	result, err := p.engine.Process(ctx, pdfBytes, origin, language)
	p.recordStage("ocr", start, err == nil)
	if err != nil {
		logger.Warn("ocr stage degraded to empty text", "error", err)
		return &ocr.Result{}
	}
	return result
}

func (p *Processor) stageTags(ctx context.Context, text string) []string {
	start := time.Now()
	bannedWords, err := p.store.ListBannedWords(ctx)
	if err != nil {
		logger.Warn("banned word load failed, tagging without filter", "error", err)
	}
	banned := make(map[string]bool, len(bannedWords))
	for _, w := range bannedWords {
		banned[strings.ToLower(w)] = true
	}
	tags := tagger.Extract(text, banned, tagger.DefaultLimit)
	p.recordStage("tag", start, true)
	return tags
}

func (p *Processor) stageSummary(ctx context.Context, title, text string) *string {
	if p.summariser == nil {
		return nil
	}
	start := time.Now()
	summary := p.summariser.Summarise(ctx, title, text)
	p.recordStage("summarise", start, summary != nil)
	return summary
}

func (p *Processor) stageEmbedding(ctx context.Context, text string) []float32 {
	if p.embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	start := time.Now()
	vec := p.embedder.EmbedPassage(ctx, text)
	p.recordStage("embed", start, vec != nil)
	return vec
}

// stageChunks rebuilds a document's chunk rows from scratch so a retried
// job converges to the same contiguous 0..n-1 index range instead of
// appending. A chunk whose embedding fails ends the run early: the
// stored prefix stays contiguous, and the document remains keyword
// searchable regardless.
func (p *Processor) stageChunks(ctx context.Context, doc *catalog.Document, text string) error {
	if p.embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	start := time.Now()

	if err := p.vectors.DeleteDocumentChunks(ctx, doc.ID); err != nil {
		p.recordStage("chunk", start, false)
		return err
	}

	blob := vectorstore.BuildDocument(doc.Title, doc.Description, text)
	for _, chunk := range vectorstore.ChunkText(blob) {
		vec := p.embedder.EmbedPassage(ctx, chunk.Text)
		if vec == nil {
			logger.Warn("chunk embedding unavailable, stopping at contiguous prefix",
				"document_id", doc.ID, "chunk_index", chunk.Index)
			break
		}
		if err := p.vectors.UpsertChunk(ctx, doc.ID, chunk, vec, doc.Title, doc.Country); err != nil {
			p.recordStage("chunk", start, false)
			return err
		}
	}
	p.recordStage("chunk", start, true)
	return nil
}

func (p *Processor) progress(ctx context.Context, job *catalog.Job, step string, percent int) {
	if err := p.queue.UpdateProgress(ctx, job.ID, step, percent); err != nil {
		logger.Warn("progress update failed", "job_id", job.ID, "step", step, "error", err)
	}
}

const logMessageCap = 200

func (p *Processor) fail(ctx context.Context, job *catalog.Job, message string, retry bool) {
	logMsg := message
	if len(logMsg) > logMessageCap {
		logMsg = logMsg[:logMessageCap]
	}
	logger.Error("pipeline stage failed", "job_id", job.ID, "document_id", job.DocumentID,
		"retry", retry, "error", logMsg)
	if err := p.queue.Fail(ctx, job.ID, message, retry); err != nil {
		logger.Error("job failure update failed", "job_id", job.ID, "error", err)
	}
}

func (p *Processor) recordStage(stage string, start time.Time, ok bool) {
	if p.metrics != nil {
		p.metrics.RecordPipelineStage(stage, time.Since(start).Seconds(), ok)
	}
}

// buildSearchText assembles the search_text concatenation used by the
// full-text index.
func buildSearchText(title, description, text string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{title, description, text} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
