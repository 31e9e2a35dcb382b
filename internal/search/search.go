// Package search implements the hybrid full-text/keyword/semantic
// retrieval engine, fusing internal/catalog's lexical query
// with internal/vectorstore's cosine-similarity results.
package search

import (
	"context"
	"sort"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/embedding"
	"github.com/haqnow/archive/internal/tagger"
)

const (
	minPerPage           = 1
	maxPerPage           = 100
	defaultPerPage       = 20
	semanticCandidateCap = 1000
	semanticThreshold    = 0.3
)

const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"
	ModeHybrid   = "hybrid"
)

type Params struct {
	Query   string
	Country string
	State   string
	Page    int
	PerPage int
	Mode    string
}

// Result wraps a Document with the derived, request-scoped
// post-processing fields.
type Result struct {
	*catalog.Document
	Similarity            float64
	HasEnglishTranslation bool
	HasArabicText         bool
}

type Engine struct {
	catalogStore    *catalog.Store
	embeddingClient *embedding.Client
}

func New(catalogStore *catalog.Store, embeddingClient *embedding.Client) *Engine {
	return &Engine{catalogStore: catalogStore, embeddingClient: embeddingClient}
}

func clampParams(p Params) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < minPerPage {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	if p.Mode == "" {
		p.Mode = ModeHybrid
	}
	return p
}

// Search implements search(q, {country?, state?, page, per_page, mode}).
// Only approved/processed documents are ever considered (enforced by the
// catalog queries it delegates to).
func (e *Engine) Search(ctx context.Context, params Params, bannedWords, bannedTags []string) ([]Result, error) {
	params = clampParams(params)
	offset := (params.Page - 1) * params.PerPage

	var docs []*catalog.Document
	var similarities map[int64]float64

	switch {
	case params.Query == "":
		d, err := e.catalogStore.RecentApproved(ctx, params.Country, params.State, params.PerPage, offset)
		if err != nil {
			return nil, err
		}
		docs = d

	case params.Mode == ModeKeyword:
		d, err := e.catalogStore.KeywordSearch(ctx, params.Query, params.Country, params.State, params.PerPage, offset)
		if err != nil {
			d, err = e.catalogStore.SubstringSearch(ctx, params.Query, params.Country, params.State, params.PerPage, offset)
			if err != nil {
				return nil, err
			}
		}
		docs = d

	case params.Mode == ModeSemantic:
		d, sims, err := e.semanticSearch(ctx, params.Query, params.Country, params.State)
		if err != nil {
			return nil, err
		}
		docs, similarities = paginate(d, params.Page, params.PerPage), sims

	default: // hybrid
		semDocs, sims, err := e.semanticSearch(ctx, params.Query, params.Country, params.State)
		if err != nil {
			return nil, err
		}
		keywordDocs, err := e.catalogStore.KeywordSearch(ctx, params.Query, params.Country, params.State, semanticCandidateCap, 0)
		if err != nil {
			keywordDocs, err = e.catalogStore.SubstringSearch(ctx, params.Query, params.Country, params.State, semanticCandidateCap, 0)
			if err != nil {
				return nil, err
			}
		}
		merged := mergeHybrid(semDocs, keywordDocs)
		docs = paginate(merged, params.Page, params.PerPage)
		similarities = sims
	}

	bannedTagSet := make(map[string]bool, len(bannedTags))
	for _, t := range bannedTags {
		bannedTagSet[t] = true
	}

	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = postProcess(d, similarities[d.ID], bannedWords, bannedTagSet)
	}
	return results, nil
}

// semanticSearch embeds q as a query and scores every approved document
// carrying a stored embedding.
func (e *Engine) semanticSearch(ctx context.Context, q, country, state string) ([]*catalog.Document, map[int64]float64, error) {
	if e.embeddingClient == nil {
		return nil, nil, nil
	}
	qv := e.embeddingClient.EmbedQuery(ctx, q)
	if qv == nil {
		return nil, nil, nil
	}

	candidates, err := e.catalogStore.ApprovedWithEmbedding(ctx, semanticCandidateCap)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		doc   *catalog.Document
		score float64
	}
	var hits []scored
	for _, d := range candidates {
		if country != "" && d.Country != country {
			continue
		}
		if state != "" && d.State != state {
			continue
		}
		sim := embedding.CosineSimilarity(qv, d.Embedding)
		if sim >= semanticThreshold {
			hits = append(hits, scored{doc: d, score: sim})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	docs := make([]*catalog.Document, len(hits))
	sims := make(map[int64]float64, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
		sims[h.doc.ID] = h.score
	}
	return docs, sims, nil
}

// mergeHybrid unions semantic results (assumed already score-filtered and
// sorted) with keyword results, de-duplicating by id and preferring the
// semantic entry, then ordering by similarity (keyword-only entries treat
// as 0) then created_at desc.
func mergeHybrid(semantic, keyword []*catalog.Document) []*catalog.Document {
	seen := make(map[int64]bool, len(semantic)+len(keyword))
	merged := make([]*catalog.Document, 0, len(semantic)+len(keyword))

	for _, d := range semantic {
		if !seen[d.ID] {
			seen[d.ID] = true
			merged = append(merged, d)
		}
	}
	for _, d := range keyword {
		if !seen[d.ID] {
			seen[d.ID] = true
			merged = append(merged, d)
		}
	}
	return merged
}

func paginate(docs []*catalog.Document, page, perPage int) []*catalog.Document {
	offset := (page - 1) * perPage
	if offset >= len(docs) {
		return nil
	}
	end := offset + perPage
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

// PostProcess applies the same redaction/tag-filtering/translation
// post-processing a paginated search result gets to a single
// document fetched outside of Search, used by the single-document read
// endpoint.
func PostProcess(d *catalog.Document, bannedWords, bannedTags []string) Result {
	tagSet := make(map[string]bool, len(bannedTags))
	for _, t := range bannedTags {
		tagSet[t] = true
	}
	return postProcess(d, 0, bannedWords, tagSet)
}

func postProcess(d *catalog.Document, similarity float64, bannedWords []string, bannedTags map[string]bool) Result {
	ocrText := d.OCRText
	hasEnglish := d.HasEnglishTranslation()
	if hasEnglish {
		ocrText = d.OCRTextEnglish
	}
	ocrText = Redact(ocrText, bannedWords)

	tags := tagger.FilterBanned(d.GeneratedTags, bannedTags)

	out := *d
	out.OCRText = ocrText
	out.GeneratedTags = tags

	return Result{
		Document:              &out,
		Similarity:            similarity,
		HasEnglishTranslation: hasEnglish,
		HasArabicText:         d.DocumentLanguage == "arabic",
	}
}
