package acceptance_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("git commit against an installed pre-commit hook", func() {
	var tmpDir, repoDir string

	BeforeEach(func() {
		tmpDir, repoDir = setupTestRepo("commit-*")
		installHooks(repoDir)
	})

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	Context("with a valid model tree", func() {
		It("lets the commit through", func() {
			writeFile(filepath.Join(repoDir, "models", "second.model"), "second system\n")
			runGit(repoDir, "add", ".")
			out, err := runGitExpectFailure(repoDir, "commit", "-m", "add second model")
			Expect(err).NotTo(HaveOccurred(), "commit output: %s", out)
		})

		It("writes a provisional changelog keyed by the pre-commit parent SHA", func() {
			parentSHA := strings.TrimSpace(runGitOutput(repoDir, "rev-parse", "HEAD"))

			writeFile(filepath.Join(repoDir, "models", "second.model"), "second system\n")
			runGit(repoDir, "add", ".")
			out, err := runGitExpectFailure(repoDir, "commit", "-m", "add second model")
			Expect(err).NotTo(HaveOccurred(), "commit output: %s", out)

			path := filepath.Join(repoDir, ".ums", "changelogs", parentSHA[:7]+".txt")
			Eventually(func() error {
				_, statErr := os.Stat(path)
				return statErr
			}, "2s", "25ms").Should(Succeed())

			content, readErr := os.ReadFile(path)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring(parentSHA))
			Expect(string(content)).To(ContainSubstring("Branch:     main"))
		})

		It("writes the real changelog keyed by the new commit SHA once post-commit fires", func() {
			writeFile(filepath.Join(repoDir, "models", "second.model"), "second system\n")
			runGit(repoDir, "add", ".")
			out, err := runGitExpectFailure(repoDir, "commit", "-m", "add second model")
			Expect(err).NotTo(HaveOccurred(), "commit output: %s", out)

			newSHA := strings.TrimSpace(runGitOutput(repoDir, "rev-parse", "HEAD"))
			path := filepath.Join(repoDir, ".ums", "changelogs", newSHA[:7]+".txt")
			Eventually(func() error {
				_, statErr := os.Stat(path)
				return statErr
			}, "2s", "25ms").Should(Succeed())

			content, readErr := os.ReadFile(path)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring(newSHA))
		})

		It("surfaces validation warnings without blocking the commit", func() {
			writeFile(filepath.Join(repoDir, "models", "notes.unsupported"), "not a recognized extension\n")
			runGit(repoDir, "add", ".")
			out, err := runGitExpectFailure(repoDir, "commit", "-m", "add unrecognized model file")
			Expect(err).NotTo(HaveOccurred(), "commit output: %s", out)
		})
	})

	Context("with an invalid model tree", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(repoDir, "models", "broken.model"), "")
			runGit(repoDir, "add", ".")
		})

		It("blocks the commit and reports FAILED", func() {
			out, err := runGitExpectFailure(repoDir, "commit", "-m", "add empty model file")
			Expect(err).To(HaveOccurred(), "commit should have been rejected")
			Expect(out).To(ContainSubstring("FAILED"))
			Expect(out).To(ContainSubstring("empty model file"))
		})

		It("leaves HEAD unchanged", func() {
			before := strings.TrimSpace(runGitOutput(repoDir, "rev-parse", "HEAD"))
			_, _ = runGitExpectFailure(repoDir, "commit", "-m", "add empty model file")
			after := strings.TrimSpace(runGitOutput(repoDir, "rev-parse", "HEAD"))
			Expect(after).To(Equal(before))
		})
	})
})

var _ = Describe("independent sequential validation requests", func() {
	var tmpDir, repoDir string

	BeforeEach(func() {
		tmpDir, repoDir = setupTestRepo("sequential-*")
	})

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	It("assigns distinct ids and produces two independently valid results", func() {
		out1, err := umshook(repoDir, "internal-trigger", "pre-commit")
		Expect(err).NotTo(HaveOccurred(), "first internal-trigger: %s", out1)
		id1 := strings.TrimSpace(out1)
		Expect(id1).NotTo(BeEmpty())

		resultTxt1 := filepath.Join(repoDir, ".ums", "results", id1+".txt")
		resultJSON1 := filepath.Join(repoDir, ".ums", "results", id1+".json")
		Eventually(func() bool {
			_, e1 := os.Stat(resultTxt1)
			_, e2 := os.Stat(resultJSON1)
			return e1 == nil && e2 == nil
		}, "2s", "25ms").Should(BeTrue())

		text1, readErr := os.ReadFile(resultTxt1)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(string(text1)).To(ContainSubstring("PASSED"))

		out2, err := umshook(repoDir, "internal-trigger", "pre-commit")
		Expect(err).NotTo(HaveOccurred(), "second internal-trigger: %s", out2)
		id2 := strings.TrimSpace(out2)
		Expect(id2).NotTo(BeEmpty())
		Expect(id2).NotTo(Equal(id1))

		resultTxt2 := filepath.Join(repoDir, ".ums", "results", id2+".txt")
		Eventually(func() error {
			_, statErr := os.Stat(resultTxt2)
			return statErr
		}, "2s", "25ms").Should(Succeed())

		text2, readErr := os.ReadFile(resultTxt2)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(string(text2)).To(ContainSubstring("PASSED"))
	})
})
