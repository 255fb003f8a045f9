package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/completeness"
	"github.com/conceptrag/conceptrag/internal/concepts"
	"github.com/conceptrag/conceptrag/internal/loader"
	"github.com/conceptrag/conceptrag/internal/progress"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// defaultSummaryMaxChars bounds the catalog row's summary text (C4), well
// above what any sane document summary needs but short enough to keep
// catalog-collection embeddings cheap.
const defaultSummaryMaxChars = 4000

// Pipeline drives a single document through load → completeness check →
// repair (C8) → summarize/extract (C4/C9) → chunk (C6) → enrich (C11) →
// write, reporting progress events for each stage transition.
type Pipeline struct {
	App          *app.App
	Loader       *loader.Loader
	Checker      *completeness.Checker
	Extractor    *concepts.Extractor
	Reporter     progress.Reporter
	ChunkSize    int
	ChunkOverlap int
	// Resume gates the fast checkpoint.IsProcessed skip per spec.md §6:
	// without --resume, every discovered file runs the full completeness
	// check, which still no-ops on already-complete documents via
	// completeness.ActionNone — just at the cost of the lookup.
	Resume bool
}

// NewPipeline builds a Pipeline from an already-wired App.
func NewPipeline(a *app.App, ld *loader.Loader, extractor *concepts.Extractor, reporter progress.Reporter, chunkSize, chunkOverlap int, resume bool) *Pipeline {
	return &Pipeline{
		App:          a,
		Loader:       ld,
		Checker:      completeness.New(a.Store),
		Extractor:    extractor,
		Resume:       resume,
		Reporter:     reporter,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// ProcessFile runs one document through the pipeline. It is safe to call
// concurrently from multiple workers: all shared state lives behind the
// vectorstore.Store and checkpoint.Store, both of which serialize their own
// writes.
func (p *Pipeline) ProcessFile(ctx context.Context, workerID int, path string) error {
	p.report(workerID, path, progress.StageLoading, nil)

	doc, err := p.Loader.Load(ctx, path)
	if err != nil {
		return p.fail(workerID, path, fmt.Errorf("loading %s: %w", path, err))
	}

	if p.Resume && p.App.Checkpoint.IsProcessed(doc.Hash) {
		p.report(workerID, path, progress.StageDone, nil)
		return nil
	}

	p.report(workerID, path, progress.StageChecking, nil)
	rec, err := p.Checker.Check(ctx, doc.Hash)
	if err != nil {
		return p.fail(workerID, path, fmt.Errorf("checking completeness of %s: %w", path, err))
	}

	action := completeness.RepairFor(rec)
	if action == completeness.ActionNone {
		if err := p.App.Checkpoint.MarkProcessed(doc.Hash); err != nil {
			return p.fail(workerID, path, fmt.Errorf("marking %s processed: %w", path, err))
		}
		p.report(workerID, path, progress.StageDone, nil)
		return nil
	}

	catalog, docConcepts, err := p.resolveCatalog(ctx, workerID, path, doc, action, rec)
	if err != nil {
		return p.fail(workerID, path, err)
	}

	if needsChunks(action) {
		if err := p.writeChunks(ctx, workerID, path, doc, catalog.ID, docConcepts); err != nil {
			return p.fail(workerID, path, fmt.Errorf("chunking %s: %w", path, err))
		}
	} else if action == completeness.ActionReenrich {
		if err := p.reenrichChunks(ctx, workerID, path, doc.Hash, docConcepts); err != nil {
			return p.fail(workerID, path, fmt.Errorf("re-enriching %s: %w", path, err))
		}
	}

	if err := p.App.Checkpoint.MarkProcessed(doc.Hash); err != nil {
		return p.fail(workerID, path, fmt.Errorf("marking %s processed: %w", path, err))
	}
	p.report(workerID, path, progress.StageDone, nil)
	return nil
}

// resolveCatalog produces the catalog row and document concepts that the
// rest of the pipeline needs: either by summarizing and extracting fresh
// (full ingest / resummarize), or by loading the existing row (rechunk /
// reenrich, neither of which touches the catalog collection).
func (p *Pipeline) resolveCatalog(ctx context.Context, workerID int, path string, doc *loader.Document, action completeness.Action, rec completeness.Record) (app.CatalogRow, app.Concepts, error) {
	if action != completeness.ActionFullIngest && action != completeness.ActionResummarize {
		existing, ok, err := app.FindOne(ctx, p.App.Store, app.CollectionCatalog, map[string]interface{}{"hash": doc.Hash})
		if err != nil {
			return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("looking up catalog row for %s: %w", path, err)
		}
		if !ok {
			return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("catalog row for %s missing despite repair action %s", path, action)
		}
		catalog, err := app.FromCatalogDocument(existing)
		if err != nil {
			return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("decoding catalog row for %s: %w", path, err)
		}
		return catalog, catalog.Concepts, nil
	}

	if p.App.LLM == nil {
		return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("no LLM configured: cannot summarize/extract concepts for %s", path)
	}

	text := doc.Text()

	p.report(workerID, path, progress.StageSummarizing, nil)
	summary, err := p.App.LLM.Summarize(ctx, text, defaultSummaryMaxChars)
	if err != nil {
		return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("summarizing %s: %w", path, err)
	}

	p.report(workerID, path, progress.StageExtracting, nil)
	docConcepts, err := p.Extractor.Extract(ctx, text)
	if err != nil {
		return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("extracting concepts from %s: %w", path, err)
	}

	catalogID := app.HashID(path)
	startPage, endPage := pageRange(doc)
	catalog := app.CatalogRow{
		ID:                catalogID,
		Source:            path,
		Hash:              doc.Hash,
		Text:              summary,
		Concepts:          docConcepts,
		ConceptCategories: docConcepts.Categories,
		Loc:               app.Loc{StartPage: startPage, EndPage: endPage},
	}

	if _, err := p.App.Store.AddDocuments(ctx, []vectorstore.Document{catalog.ToDocument()}); err != nil {
		return app.CatalogRow{}, app.Concepts{}, fmt.Errorf("writing catalog row for %s: %w", path, err)
	}

	return catalog, docConcepts, nil
}

// writeChunks splits the document, tags each chunk with C11 enrichment, and
// writes the whole set. It overwrites any chunk rows rechunking replaces,
// since chunk ids are derived from (catalogID, index) and AddDocuments
// upserts by id.
func (p *Pipeline) writeChunks(ctx context.Context, workerID int, path string, doc *loader.Document, catalogID string, docConcepts app.Concepts) error {
	p.report(workerID, path, progress.StageChunking, nil)
	chunks := doc.Chunk(p.ChunkSize, p.ChunkOverlap)

	p.report(workerID, path, progress.StageIndexing, nil)
	rows := make([]vectorstore.Document, 0, len(chunks))
	for i, c := range chunks {
		enrich := concepts.Enrich(c.Text, docConcepts.PrimaryConcepts)
		row := app.ChunkRow{
			ID:                app.HashID(fmt.Sprintf("%s:%d", catalogID, i)),
			CatalogID:         catalogID,
			Text:              c.Text,
			Hash:              doc.Hash,
			Loc:               app.Loc{StartPage: c.PageNumber, EndPage: c.PageNumber},
			ConceptIDs:        enrich.ConceptIDs,
			ConceptCategories: docConcepts.Categories,
			ConceptDensity:    enrich.Density,
		}
		rows = append(rows, row.ToDocument())
	}

	if len(rows) == 0 {
		return nil
	}
	_, err := p.App.Store.AddDocuments(ctx, rows)
	return err
}

// reenrichChunks re-runs C11 in place over a document's existing chunks
// without deleting or re-splitting them.
func (p *Pipeline) reenrichChunks(ctx context.Context, workerID int, path, hash string, docConcepts app.Concepts) error {
	p.report(workerID, path, progress.StageIndexing, nil)

	existing, err := app.ScanCollection(ctx, p.App.Store, app.CollectionChunks, map[string]interface{}{"hash": hash})
	if err != nil {
		return fmt.Errorf("scanning chunks for %s: %w", path, err)
	}

	rows := make([]vectorstore.Document, 0, len(existing))
	for _, d := range existing {
		chunk, err := app.FromChunkDocument(d)
		if err != nil {
			return fmt.Errorf("decoding chunk row for %s: %w", path, err)
		}
		enrich := concepts.Enrich(chunk.Text, docConcepts.PrimaryConcepts)
		chunk.ConceptIDs = enrich.ConceptIDs
		chunk.ConceptCategories = docConcepts.Categories
		chunk.ConceptDensity = enrich.Density
		rows = append(rows, chunk.ToDocument())
	}

	if len(rows) == 0 {
		return nil
	}
	_, err = p.App.Store.AddDocuments(ctx, rows)
	return err
}

func needsChunks(action completeness.Action) bool {
	return action == completeness.ActionFullIngest || action == completeness.ActionResummarize || action == completeness.ActionRechunk
}

func pageRange(doc *loader.Document) (int, int) {
	if len(doc.Pages) == 0 {
		return 0, 0
	}
	start, end := doc.Pages[0].PageNumber, doc.Pages[0].PageNumber
	for _, p := range doc.Pages {
		if p.PageNumber < start {
			start = p.PageNumber
		}
		if p.PageNumber > end {
			end = p.PageNumber
		}
	}
	return start, end
}

func (p *Pipeline) report(workerID int, path string, stage progress.Stage, err error) {
	if p.Reporter == nil {
		return
	}
	p.Reporter.Report(progress.Event{WorkerID: workerID, File: path, Stage: stage, Err: err, At: time.Now()})
}

func (p *Pipeline) fail(workerID int, path string, err error) error {
	if markErr := p.App.Checkpoint.MarkFailed(path); markErr != nil {
		err = fmt.Errorf("%w (also failed to record checkpoint failure: %v)", err, markErr)
	}
	p.report(workerID, path, progress.StageFailed, err)
	return err
}
