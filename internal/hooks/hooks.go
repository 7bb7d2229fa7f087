// Package hooks installs the four POSIX shell hook scripts: pre-commit
// (blocking), and post-checkout, post-commit, and post-merge (all
// fire-and-forget). Installation is idempotent sentinel-block injection,
// with existing-hook detection that renames a pre-existing non-UMS hook
// aside and calls it first.
package hooks

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/re-cinq/ums-hooks/internal/fileutil"
	"github.com/re-cinq/ums-hooks/internal/trigger"
)

const sentinelPrefix = "# BEGIN ums-hooks "
const sentinelSuffix = "# END ums-hooks "

// scriptData feeds the hook templates.
type scriptData struct {
	HookName     string
	TriggerName  string
	Blocking     bool
	BlockingSecs int
	FailOpen     bool
	ChainPath    string
}

// blockingTemplate's trigger-creation step fails closed by default, matching
// the fail-closed default the await step falls back to on timeout: a trigger
// the hook could not even write is the same situation as an absent UMS
// process, not a reason to let the commit through.
const blockingTemplate = `{{.SentinelBegin}}
# trigger: {{.TriggerName}}
UMSHOOK_BIN="$(command -v umshook || echo umshook)"
UMSHOOK_REQUEST_ID="$("$UMSHOOK_BIN" internal-trigger {{.HookName}})"
if [ $? -ne 0 ]; then
    {{if .FailOpen}}exit 0{{else}}echo "umshook: failed to create {{.HookName}} trigger" >&2
    exit 1{{end}}
fi
"$UMSHOOK_BIN" internal-await {{.HookName}} "$UMSHOOK_REQUEST_ID" {{.BlockingSecs}}
exit $?
{{.SentinelEnd}}
`

const fireAndForgetTemplate = `{{.SentinelBegin}}
# trigger: {{.TriggerName}}
UMSHOOK_BIN="$(command -v umshook || echo umshook)"
"$UMSHOOK_BIN" internal-trigger {{.HookName}} >/dev/null 2>&1 || true
{{.SentinelEnd}}
`

const chainTemplate = `if [ -x "{{.ChainPath}}" ]; then
    "{{.ChainPath}}" "$@"
    UMSHOOK_CHAIN_STATUS=$?
    if [ "$UMSHOOK_CHAIN_STATUS" -ne 0 ]; then
        exit $UMSHOOK_CHAIN_STATUS
    fi
fi

`

// Installer writes the four hook scripts into a repository's .git/hooks.
type Installer struct {
	RepoDir         string
	BlockingTimeout int // seconds
	FailOpen        bool
}

// NewInstaller builds an Installer for repoDir. failOpen is baked into the
// generated pre-commit script's trigger-creation step at install time.
func NewInstaller(repoDir string, blockingTimeoutSecs int, failOpen bool) *Installer {
	if blockingTimeoutSecs <= 0 {
		blockingTimeoutSecs = 5
	}
	return &Installer{RepoDir: repoDir, BlockingTimeout: blockingTimeoutSecs, FailOpen: failOpen}
}

// hookSpec maps a git hook name to the trigger kind it writes and whether
// the hook blocks the git operation.
type hookSpec struct {
	hookName string
	kind     trigger.Kind
	blocking bool
}

var hookSpecs = []hookSpec{
	{"pre-commit", trigger.KindValidation, true},
	{"post-checkout", trigger.KindReload, false},
	{"post-commit", trigger.KindPostCommit, false},
	{"post-merge", trigger.KindMerge, false},
}

func (i *Installer) hooksDir() string {
	return filepath.Join(i.RepoDir, ".git", "hooks")
}

// InstallAll installs every hook kind, chaining with an existing non-UMS
// hook script of the same name when one is present.
func (i *Installer) InstallAll() error {
	for _, spec := range hookSpecs {
		if err := i.install(spec); err != nil {
			return fmt.Errorf("installing %s hook: %w", spec.hookName, err)
		}
	}
	return nil
}

func (i *Installer) install(spec hookSpec) error {
	hooksDir := i.hooksDir()
	if err := fileutil.EnsureDir(hooksDir); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	hookPath := filepath.Join(hooksDir, spec.hookName)

	beginMarker := sentinelPrefix + spec.hookName
	existing, readErr := os.ReadFile(hookPath)
	hadExisting := readErr == nil && len(existing) > 0
	if hadExisting && strings.Contains(string(existing), beginMarker) {
		return nil // already installed, idempotent no-op
	}

	body, err := renderBody(spec, i.BlockingTimeout, i.FailOpen)
	if err != nil {
		return err
	}

	var chainPath string
	if hadExisting {
		chainPath = hookPath + ".ums-original"
		if err := os.Rename(hookPath, chainPath); err != nil {
			return fmt.Errorf("renaming existing %s hook aside: %w", spec.hookName, err)
		}
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	if chainPath != "" {
		chain, err := renderChain(chainPath)
		if err != nil {
			return err
		}
		sb.WriteString(chain)
	}
	sb.WriteString(body)

	if err := os.WriteFile(hookPath, []byte(sb.String()), 0o755); err != nil {
		return fmt.Errorf("writing %s hook: %w", spec.hookName, err)
	}
	return nil
}

func renderBody(spec hookSpec, blockingSecs int, failOpen bool) (string, error) {
	tmplSrc := fireAndForgetTemplate
	if spec.blocking {
		tmplSrc = blockingTemplate
	}
	tmpl, err := template.New(spec.hookName).Parse(tmplSrc)
	if err != nil {
		return "", fmt.Errorf("parsing %s hook template: %w", spec.hookName, err)
	}
	var buf bytes.Buffer
	data := struct {
		scriptData
		SentinelBegin string
		SentinelEnd   string
	}{
		scriptData: scriptData{
			HookName:     spec.hookName,
			TriggerName:  trigger.TriggerFilename(spec.kind),
			Blocking:     spec.blocking,
			BlockingSecs: blockingSecs,
			FailOpen:     failOpen,
		},
		SentinelBegin: sentinelPrefix + spec.hookName,
		SentinelEnd:   sentinelSuffix + spec.hookName,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s hook: %w", spec.hookName, err)
	}
	return buf.String(), nil
}

func renderChain(chainPath string) (string, error) {
	tmpl, err := template.New("chain").Parse(chainTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing chain template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scriptData{ChainPath: chainPath}); err != nil {
		return "", fmt.Errorf("rendering chain block: %w", err)
	}
	return buf.String(), nil
}

// IsInstalled reports whether a hook's self-test passes: the file exists,
// is executable, and contains the canonical trigger-file basename for that
// kind.
func (i *Installer) IsInstalled(hookName string) bool {
	var kind trigger.Kind
	found := false
	for _, spec := range hookSpecs {
		if spec.hookName == hookName {
			kind = spec.kind
			found = true
			break
		}
	}
	if !found {
		return false
	}

	path := filepath.Join(i.hooksDir(), hookName)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Mode()&0o111 == 0 {
		return false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(content), trigger.TriggerFilename(kind))
}
