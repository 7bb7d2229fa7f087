package acceptance_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/re-cinq/ums-hooks/internal/trigger"
	"github.com/re-cinq/ums-hooks/internal/watch"
)

var _ = Describe("git checkout against an installed post-checkout hook", func() {
	var tmpDir, repoDir string

	BeforeEach(func() {
		tmpDir, repoDir = setupTestRepo("checkout-*")
		installHooks(repoDir)

		runGit(repoDir, "checkout", "-b", "feature")
		writeFile(filepath.Join(repoDir, "models", "feature.model"), "feature system\n")
		runGit(repoDir, "add", ".")
		runGit(repoDir, "commit", "-m", "feature model")
		runGit(repoDir, "checkout", "main")
	})

	AfterEach(func() {
		cleanupTestRepo(repoDir, tmpDir)
	})

	It("fires the reload watcher and consumes the trigger within a couple of poll intervals", func() {
		runGit(repoDir, "checkout", "feature")

		triggerPath := filepath.Join(repoDir, ".ums", "reload-trigger")
		Eventually(func() bool {
			_, err := os.Stat(triggerPath)
			return os.IsNotExist(err)
		}, "2s", "25ms").Should(BeTrue(), "reload trigger should be consumed")

		Eventually(func() string {
			st, err := watch.ReadStatus(repoDir, trigger.KindReload)
			if err != nil || st == nil {
				return ""
			}
			return st.State
		}, "2s", "25ms").Should(Equal(watch.StateIdle))
	})

	It("reflects the post-checkout branch's own model tree after reload", func() {
		runGit(repoDir, "checkout", "feature")

		Eventually(func() string {
			st, err := watch.ReadStatus(repoDir, trigger.KindReload)
			if err != nil || st == nil {
				return ""
			}
			return st.LastResultAt
		}, "2s", "25ms").ShouldNot(BeEmpty())

		out, err := umshook(repoDir, "internal-trigger", "pre-commit")
		Expect(err).NotTo(HaveOccurred())
		id := trimmed(out)

		resultPath := filepath.Join(repoDir, ".ums", "results", id+".json")
		Eventually(func() error {
			_, statErr := os.Stat(resultPath)
			return statErr
		}, "2s", "25ms").Should(Succeed())

		data, readErr := os.ReadFile(resultPath)
		Expect(readErr).NotTo(HaveOccurred())
		var decoded struct {
			Valid bool `json:"valid"`
		}
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.Valid).To(BeTrue(), "feature branch's model tree should validate cleanly after reload")
	})
})

func trimmed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
