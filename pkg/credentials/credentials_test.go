package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("targets credentials.toml in the override directory", func() {
		Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := "version = 0\n\n[providers.openai]\napi_key = \"sk-test-key\"\n"
			Expect(os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["openai"].APIKey).To(Equal("sk-test-key"))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(mgr.GetTarget(), []byte("not valid [[["), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	It("saves with restricted permissions", func() {
		Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

		info, err := os.Stat(mgr.GetTarget())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

		Expect(mgr.Save(nil)).To(HaveOccurred())
	})

	It("leaves only credentials.toml behind after saving", func() {
		Expect(mgr.SetKey("openai", "sk-1")).To(Succeed())
		Expect(mgr.SetKey("qdrant", "qd-1")).To(Succeed())

		entries, err := os.ReadDir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("credentials.toml"))
	})

	It("sets, overwrites and removes keys per provider", func() {
		Expect(mgr.SetKey("openai", "sk-old")).To(Succeed())
		Expect(mgr.SetKey("openai", "sk-new")).To(Succeed())
		Expect(mgr.SetKey("qdrant", "qd-1")).To(Succeed())

		key, err := mgr.GetKey("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("sk-new"))

		providers, err := mgr.ListProviders()
		Expect(err).NotTo(HaveOccurred())
		Expect(providers).To(Equal([]string{"openai", "qdrant"}))

		Expect(mgr.RemoveKey("openai")).To(Succeed())
		Expect(mgr.RemoveKey("nonexistent")).To(Succeed())

		key, err = mgr.GetKey("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(BeEmpty())

		key, err = mgr.GetKey("qdrant")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("qd-1"))
	})

	Describe("Resolve", func() {
		BeforeEach(func() {
			Expect(mgr.SetKey("openai", "sk-stored")).To(Succeed())
		})

		It("prefers the environment variable", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "sk-env")

			key, err := mgr.Resolve("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-env"))
		})

		It("falls back to the stored key", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "")

			key, err := mgr.Resolve("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-stored"))
		})
	})
})

var _ = Describe("providers", func() {
	It("maps providers to their environment variables", func() {
		Expect(credentials.EnvVarForProvider("openai")).To(Equal("OPENAI_API_KEY"))
		Expect(credentials.EnvVarForProvider("qdrant")).To(Equal("QDRANT_API_KEY"))
		Expect(credentials.EnvVarForProvider("ollama")).To(BeEmpty())
	})

	It("supports openai and qdrant", func() {
		Expect(credentials.SupportedProviders()).To(ConsistOf("openai", "qdrant"))
		Expect(credentials.IsSupportedProvider("openai")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("anthropic")).To(BeFalse())
	})
})
