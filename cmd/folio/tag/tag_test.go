package tagcmder_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	tagcmder "github.com/papercomputeco/folio/cmd/folio/tag"
	"github.com/papercomputeco/folio/pkg/storage"
)

type fakeTags struct {
	tags []*storage.Tag
}

func (f *fakeTags) CreateTag(_ context.Context, name string, color *storage.Color) (*storage.Tag, error) {
	t := &storage.Tag{ID: "t-" + name, Name: name, Color: storage.DefaultTagColor}
	if color != nil {
		t.Color = *color
	}
	f.tags = append(f.tags, t)
	return t, nil
}

func (f *fakeTags) ListTags(context.Context) ([]*storage.Tag, error) {
	return f.tags, nil
}

var _ = Describe("tag commands", func() {
	It("creates a tag and prints its ID", func() {
		var out bytes.Buffer
		client := &fakeTags{}
		Expect(tagcmder.Create(context.Background(), client, &out, "ops", &storage.Color{FG: "#000", BG: "#ff0"})).To(Succeed())
		Expect(out.String()).To(ContainSubstring("ops"))
		Expect(out.String()).To(ContainSubstring("t-ops"))
		Expect(client.tags[0].Color.BG).To(Equal("#ff0"))
	})

	It("lists tags", func() {
		var out bytes.Buffer
		client := &fakeTags{}
		Expect(tagcmder.List(context.Background(), client, &out)).To(Succeed())
		Expect(out.String()).To(Equal("No tags.\n"))

		out.Reset()
		_, _ = client.CreateTag(context.Background(), "archive", nil)
		Expect(tagcmder.List(context.Background(), client, &out)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("archive"))
		Expect(out.String()).To(ContainSubstring("t-archive"))
	})
})
