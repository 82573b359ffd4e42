package wikicmder_test

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	wikicmder "github.com/papercomputeco/folio/cmd/folio/wiki"
	"github.com/papercomputeco/folio/pkg/storage"
)

type creatorFunc func(ctx context.Context, title string) (*storage.Wiki, error)

func (f creatorFunc) CreateWiki(ctx context.Context, title string) (*storage.Wiki, error) {
	return f(ctx, title)
}

var _ = Describe("Create", func() {
	It("prints the new wiki ID", func() {
		var out bytes.Buffer
		err := wikicmder.Create(context.Background(), creatorFunc(func(_ context.Context, title string) (*storage.Wiki, error) {
			return &storage.Wiki{ID: "w-123", Title: title}, nil
		}), &out, "Runbooks")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Runbooks"))
		Expect(out.String()).To(HaveSuffix("w-123\n"))
	})

	It("returns client errors", func() {
		var out bytes.Buffer
		err := wikicmder.Create(context.Background(), creatorFunc(func(context.Context, string) (*storage.Wiki, error) {
			return nil, errors.New("boom")
		}), &out, "Runbooks")
		Expect(err).To(MatchError("boom"))
		Expect(out.String()).To(BeEmpty())
	})
})
