package ingest

import (
	"context"
	"fmt"
)

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	// Checked is the number of documents inspected.
	Checked int

	// Repaired lists documents that had no chunks and were re-chunked.
	Repaired []string

	// Failed maps documents that could not be repaired to the error.
	Failed map[string]error
}

// Reconcile finds the documents of a wiki that have no chunks, which is the
// state a *PartialIngestError leaves behind, and re-chunks and re-embeds their
// stored text. Per-document failures are collected in the report; only a
// failure to list the wiki's documents is returned as an error.
func (in *Ingester) Reconcile(ctx context.Context, wikiID string) (*ReconcileReport, error) {
	docs, err := in.store.ListDocuments(ctx, wikiID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	report := &ReconcileReport{
		Repaired: []string{},
		Failed:   map[string]error{},
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		n, err := in.vectors.CountDocument(ctx, doc.ID)
		if err != nil {
			report.Failed[doc.ID] = fmt.Errorf("counting chunks: %w", err)
			continue
		}
		if n > 0 {
			continue
		}

		in.logger.Info("repairing document without chunks", "document_id", doc.ID)

		emb, err := in.embed(ctx, doc.Text)
		if err != nil {
			report.Failed[doc.ID] = err
			continue
		}

		doc.Embedding = emb.document
		if err := in.store.UpdateDocument(ctx, doc); err != nil {
			report.Failed[doc.ID] = fmt.Errorf("updating document: %w", err)
			continue
		}
		if err := in.vectors.Add(ctx, chunks(doc, emb.batch)); err != nil {
			report.Failed[doc.ID] = fmt.Errorf("storing chunks: %w", err)
			continue
		}

		report.Repaired = append(report.Repaired, doc.ID)
	}

	in.logger.Info("reconciliation finished",
		"wiki_id", wikiID,
		"checked", report.Checked,
		"repaired", len(report.Repaired),
		"failed", len(report.Failed),
	)

	return report, nil
}
