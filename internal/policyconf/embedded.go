package policyconf

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// rulesFS embeds the built-in default rule set, mirroring the original
// tool's include_str!() embedding of its manifest plus per-concern topic
// files: one manifest (rules.yaml) that names a set of included files, each
// scoped to one concern (secrets, filesystem, network, git, ...).
//
//go:embed rules/*.yaml
var rulesFS embed.FS

const embeddedManifestPath = "rules/rules.yaml"

// loadEmbeddedDefaults parses the built-in manifest and every file it
// includes, merging their contents into one layerContent tagged
// SourceBuiltin. A cyclic or missing include is a hard error: the built-in
// defaults are expected to always be internally consistent.
func loadEmbeddedDefaults() (*layerContent, error) {
	return loadManifestFS(rulesFS, embeddedManifestPath, "rules/", SourceBuiltin)
}

// loadManifestFS resolves a manifest file (and everything it transitively
// includes) from an fs.FS-like embed.FS, rooted at dir, accumulating into a
// single merged layerContent. Used for the embedded defaults only; file-based
// overlays use loadManifestDir in loader.go, which supports includes relative
// to a directory on disk.
func loadManifestFS(fsys embed.FS, entryPath, dir string, source Source) (*layerContent, error) {
	visited := make(map[string]bool)
	merged := &layerContent{}

	var visit func(path string) error
	visit = func(path string) error {
		if visited[path] {
			return fmt.Errorf("policyconf: cyclic include detected at %q", path)
		}
		visited[path] = true

		data, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("policyconf: reading embedded %q: %w", path, err)
		}
		doc, err := decodeStrict(data)
		if err != nil {
			return fmt.Errorf("policyconf: parsing embedded %q: %w", path, err)
		}
		lc, err := convertDoc(doc, source)
		if err != nil {
			return fmt.Errorf("policyconf: %q: %w", path, err)
		}
		mergeLayerInto(merged, lc)

		for _, inc := range doc.Include {
			if err := visit(dir + inc); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(entryPath); err != nil {
		return nil, err
	}
	return merged, nil
}

// ExtractDefaults copies every embedded rule file from rules/ directly into
// destDir under its own file name, for the `init` CLI subcommand (spec
// §6.2: "extract embedded defaults to user-overlay directory"). An existing
// file at a target path is left untouched rather than overwritten, so
// `init` is safe to re-run after the user has started editing the overlay.
func ExtractDefaults(destDir string) error {
	entries, err := rulesFS.ReadDir("rules")
	if err != nil {
		return fmt.Errorf("policyconf: reading embedded rules dir: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("policyconf: creating %q: %w", destDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := rulesFS.ReadFile(filepath.Join("rules", entry.Name()))
		if err != nil {
			return fmt.Errorf("policyconf: reading embedded %q: %w", entry.Name(), err)
		}
		dest := filepath.Join(destDir, entry.Name())
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("policyconf: writing %q: %w", dest, err)
		}
	}
	return nil
}

// mergeLayerInto accumulates src into dst, used when a manifest's own
// top-level fields and its included files all contribute to the same layer
// (spec §4.3: "a manifest may also carry its own rules/allowlist entries
// alongside include"). Scalar overrides keep the last value seen across the
// whole include tree; callers merging across layers (not within one) use
// mergeLayers in merge.go instead.
func mergeLayerInto(dst, src *layerContent) {
	if src.HasDefaultDecision {
		dst.HasDefaultDecision, dst.DefaultDecision = true, src.DefaultDecision
	}
	if src.HasSafetyLevel {
		dst.HasSafetyLevel, dst.SafetyLevel = true, src.SafetyLevel
	}
	if src.HasTrustLevel {
		dst.HasTrustLevel, dst.TrustLevel = true, src.TrustLevel
	}
	dst.Rules = append(dst.Rules, src.Rules...)
	dst.Allowlists = append(dst.Allowlists, src.Allowlists...)
	dst.DisabledRuleIDs = append(dst.DisabledRuleIDs, src.DisabledRuleIDs...)
}
