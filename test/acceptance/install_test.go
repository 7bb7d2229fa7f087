package acceptance_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("umshook install", func() {
	var tmpDir, repoDir string

	BeforeEach(func() {
		tmpDir, repoDir = setupTestRepo("install-*")
	})

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	It("exits 0 and reports the hooks directory", func() {
		out, err := umshook(repoDir, "install")
		Expect(err).NotTo(HaveOccurred(), "output: %s", out)
		Expect(out).To(ContainSubstring(".git/hooks"))
	})

	DescribeTable("each installed hook is executable and self-describing",
		func(hookName, triggerSubstring string) {
			_, err := umshook(repoDir, "install")
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(repoDir, ".git", "hooks", hookName)
			info, statErr := os.Stat(path)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.Mode().Perm() & 0o111).NotTo(BeZero(), "hook should be executable")

			content, readErr := os.ReadFile(path)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring(triggerSubstring))
		},
		Entry("pre-commit", "pre-commit", "validate-trigger"),
		Entry("post-checkout", "post-checkout", "reload-trigger"),
		Entry("post-commit", "post-commit", "post-commit-trigger"),
		Entry("post-merge", "post-merge", "merge-trigger"),
	)

	It("is idempotent: installing twice leaves a single sentinel block per hook", func() {
		_, err := umshook(repoDir, "install")
		Expect(err).NotTo(HaveOccurred())
		_, err = umshook(repoDir, "install")
		Expect(err).NotTo(HaveOccurred())

		content, readErr := os.ReadFile(filepath.Join(repoDir, ".git", "hooks", "pre-commit"))
		Expect(readErr).NotTo(HaveOccurred())
		Expect(strings.Count(string(content), "BEGIN ums-hooks pre-commit")).To(Equal(1))
	})

	It("chains an existing non-UMS hook rather than overwriting it", func() {
		hookPath := filepath.Join(repoDir, ".git", "hooks", "pre-commit")
		writeFile(hookPath, "#!/bin/sh\necho existing-hook-ran >> \"$(git rev-parse --show-toplevel)/existing.log\"\nexit 0\n")
		Expect(os.Chmod(hookPath, 0o755)).To(Succeed())

		_, err := umshook(repoDir, "install")
		Expect(err).NotTo(HaveOccurred())

		content, readErr := os.ReadFile(hookPath)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("ums-original"))

		chained, chainErr := os.ReadFile(hookPath + ".ums-original")
		Expect(chainErr).NotTo(HaveOccurred())
		Expect(string(chained)).To(ContainSubstring("existing-hook-ran"))
	})
})
