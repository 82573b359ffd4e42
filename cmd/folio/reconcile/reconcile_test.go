package reconcilecmder_test

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	reconcilecmder "github.com/papercomputeco/folio/cmd/folio/reconcile"
	"github.com/papercomputeco/folio/pkg/ingest"
)

type fakeReconciler struct {
	report *ingest.ReconcileReport
	err    error
}

func (f *fakeReconciler) Reconcile(context.Context, string) (*ingest.ReconcileReport, error) {
	return f.report, f.err
}

var _ = Describe("Run", func() {
	It("prints the repaired pages", func() {
		var out bytes.Buffer
		r := &fakeReconciler{report: &ingest.ReconcileReport{
			Checked:  4,
			Repaired: []string{"doc-1", "doc-2"},
			Failed:   map[string]error{},
		}}

		Expect(reconcilecmder.Run(context.Background(), r, &out, "w1")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("doc-1"))
		Expect(out.String()).To(ContainSubstring("doc-2"))
	})

	It("fails when pages could not be repaired", func() {
		var out bytes.Buffer
		r := &fakeReconciler{report: &ingest.ReconcileReport{
			Checked:  1,
			Repaired: []string{},
			Failed:   map[string]error{"doc-9": errors.New("embedder down")},
		}}

		err := reconcilecmder.Run(context.Background(), r, &out, "w1")
		Expect(err).To(MatchError("1 pages could not be repaired"))
		Expect(out.String()).To(ContainSubstring("embedder down"))
	})

	It("returns listing errors", func() {
		var out bytes.Buffer
		r := &fakeReconciler{err: errors.New("store down")}
		Expect(reconcilecmder.Run(context.Background(), r, &out, "w1")).To(MatchError("store down"))
	})
})
