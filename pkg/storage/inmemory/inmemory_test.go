package inmemory_test

import (
	. "github.com/onsi/ginkgo/v2"

	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/storage/inmemory"
	"github.com/papercomputeco/folio/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})
})
