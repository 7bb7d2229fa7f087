package acceptance_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// These specs drive internal-trigger/internal-await directly (the same
// hidden commands the generated hook scripts invoke) to exercise the
// blocking exit-code and timeout paths precisely, including edges a real
// git commit can't reliably force (an unresolvable request id, a UMS
// process that never gets to answer).
var _ = Describe("internal-await blocking exit-code and timeout behavior", func() {
	var tmpDir, repoDir string

	BeforeEach(func() {
		tmpDir, repoDir = setupTestRepo("await-*")
	})

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	It("exits 0 once the watcher reports a valid outcome", func() {
		triggerOut, err := umshook(repoDir, "internal-trigger", "pre-commit")
		Expect(err).NotTo(HaveOccurred(), "internal-trigger: %s", triggerOut)
		id := strings.TrimSpace(triggerOut)

		awaitOut, err := umshook(repoDir, "internal-await", "pre-commit", id, "5")
		Expect(err).NotTo(HaveOccurred(), "internal-await: %s", awaitOut)
	})

	It("exits non-zero and prints FAILED when the outcome is invalid", func() {
		writeFile(filepath.Join(repoDir, "models", "broken.model"), "")

		triggerOut, err := umshook(repoDir, "internal-trigger", "pre-commit")
		Expect(err).NotTo(HaveOccurred(), "internal-trigger: %s", triggerOut)
		id := strings.TrimSpace(triggerOut)

		awaitOut, err := umshook(repoDir, "internal-await", "pre-commit", id, "5")
		Expect(err).To(HaveOccurred())
		Expect(awaitOut).To(ContainSubstring("FAILED"))
		Expect(awaitOut).To(ContainSubstring("empty model file"))
	})

	It("fails closed on a timeout by default: exits non-zero, no result ever arrives", func() {
		awaitOut, err := umshook(repoDir, "internal-await", "pre-commit", "request-that-never-resolves", "1")
		Expect(err).To(HaveOccurred())
		Expect(awaitOut).To(ContainSubstring("timed out"))
	})

	It("fails open on a timeout when fail_open is configured", func() {
		writeFile(filepath.Join(repoDir, "ums-hooks.yaml"), `settings:
  poll_interval: "50ms"
  blocking_timeout: "5s"
  fail_open: true
  model_dir: "models"
`)
		awaitOut, err := umshook(repoDir, "internal-await", "pre-commit", "request-that-never-resolves", "1")
		Expect(err).NotTo(HaveOccurred(), "output: %s", awaitOut)
		Expect(awaitOut).To(ContainSubstring("timed out"))
	})
})

// internal-trigger itself always reports a write failure as an error,
// regardless of fail_open: that policy lives in the generated pre-commit
// script, which branches on internal-trigger's exit code (internal/hooks).
// These specs drive the installed script directly rather than `git
// commit`, since forcing a trigger-creation failure mid-commit would
// require corrupting .git state in a way no real commit ever would.
var _ = Describe("installed pre-commit script's fail-open/fail-closed branch on trigger-creation failure", func() {
	var tmpDir, repoDir string

	runInstalledPreCommit := func(repoDir string) (string, error) {
		cmd := exec.Command("sh", filepath.Join(repoDir, ".git", "hooks", "pre-commit"))
		cmd.Dir = repoDir
		cmd.Env = testEnv()
		out, err := cmd.CombinedOutput()
		return string(out), err
	}

	breakUMSDir := func(repoDir string) {
		umsDir := filepath.Join(repoDir, ".ums")
		Expect(os.MkdirAll(umsDir, 0o755)).To(Succeed())
		Expect(os.Chmod(umsDir, 0o555)).To(Succeed())
		DeferCleanup(func() { os.Chmod(umsDir, 0o755) })
	}

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	Context("fail_open: false (the default)", func() {
		BeforeEach(func() {
			tmpDir, repoDir = setupTestRepo("trigger-fail-closed-*")
			installHooks(repoDir)
			breakUMSDir(repoDir)
		})

		It("exits non-zero rather than letting the commit through", func() {
			out, err := runInstalledPreCommit(repoDir)
			Expect(err).To(HaveOccurred(), "output: %s", out)
			Expect(out).To(ContainSubstring("failed to create"))
		})
	})

	Context("fail_open: true", func() {
		BeforeEach(func() {
			tmpDir, repoDir = setupTestRepo("trigger-fail-open-*")
			writeFile(filepath.Join(repoDir, "ums-hooks.yaml"), `settings:
  poll_interval: "50ms"
  blocking_timeout: "5s"
  fail_open: true
  model_dir: "models"
`)
			installHooks(repoDir)
			breakUMSDir(repoDir)
		})

		It("exits 0, letting the commit through", func() {
			out, err := runInstalledPreCommit(repoDir)
			Expect(err).NotTo(HaveOccurred(), "output: %s", out)
		})
	})
})
