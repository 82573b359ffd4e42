package permission_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/permission"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/storage/inmemory"
)

var _ = Describe("MembershipChecker", func() {
	var (
		ctx     context.Context
		store   *inmemory.Driver
		checker *permission.MembershipChecker
		wiki    *storage.Wiki
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewDriver()
		checker = permission.NewMembershipChecker(store)

		wiki = &storage.Wiki{Title: "Team", Members: []string{"alice", "bob"}}
		Expect(store.CreateWiki(ctx, wiki)).To(Succeed())
	})

	It("allows members", func() {
		Expect(checker.CanAccess(ctx, wiki.ID, "bob")).To(Succeed())
	})

	It("forbids non-members", func() {
		err := checker.CanAccess(ctx, wiki.ID, "mallory")
		Expect(errors.Is(err, permission.ErrForbidden)).To(BeTrue())
	})

	It("forbids anonymous callers", func() {
		err := checker.CanAccess(ctx, wiki.ID, "")
		Expect(errors.Is(err, permission.ErrForbidden)).To(BeTrue())
	})

	It("reports missing wikis as not found", func() {
		err := checker.CanAccess(ctx, "nope", "alice")
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})
})

var _ = Describe("AllowAll", func() {
	It("allows everyone", func() {
		Expect(permission.AllowAll{}.CanAccess(context.Background(), "w", "")).To(Succeed())
	})
})
