package policyconf

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadOptions captures the process-runtime inputs that influence which
// files are consulted and which scalar overrides apply on top of them
// (spec §3.2's fourth layer; spec §6.2's global flags).
type LoadOptions struct {
	// ConfigPath, if set, names an explicit user-overlay file in place of
	// the default ${XDG_CONFIG_HOME}/longline/longline.yaml lookup.
	ConfigPath string

	// Dir is the directory evaluation starts from (the hook's cwd, or
	// --dir). The project overlay is discovered by walking up from here.
	Dir string

	RuntimeSafetyLevel     *SafetyLevel
	RuntimeTrustLevel      *TrustLevel
	RuntimeDefaultDecision *Decision
	RuntimeAskOnDeny       *bool
}

// projectMarkers name the files whose presence identifies a directory as a
// project root, walked up from Dir looking for the first match.
var projectMarkers = []string{".git", "go.mod", "package.json", "pyproject.toml"}

// findProjectRoot walks up from dir looking for a directory containing one
// of projectMarkers, mirroring the parent-walking idiom used to locate a
// repo/workspace root from an arbitrary working directory. Returns "" if no
// marker is found before reaching the filesystem root.
func findProjectRoot(dir string) string {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}

func userConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "longline", "longline.yaml")
}

func projectConfigPath(dir string) string {
	root := findProjectRoot(dir)
	if root == "" {
		return ""
	}
	return filepath.Join(root, ".claude", "longline.yaml")
}

// loadManifestDir resolves a manifest file (and everything it transitively
// includes) from the real filesystem, relative to the directory the entry
// file lives in. Returns (nil, nil) if path does not exist: a missing user
// or project overlay is not an error (spec §3.4), unlike a missing embedded
// default or a missing *included* file, which is.
func loadManifestDir(path string, source Source) (*layerContent, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("policyconf: stat %q: %w", path, err)
	}

	visited := make(map[string]bool)
	merged := &layerContent{}

	var visit func(p string) error
	visit = func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if visited[abs] {
			return fmt.Errorf("policyconf: cyclic include detected at %q", p)
		}
		visited[abs] = true

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("policyconf: reading %q: %w", p, err)
		}
		doc, err := decodeStrict(data)
		if err != nil {
			return fmt.Errorf("policyconf: parsing %q: %w", p, err)
		}
		lc, err := convertDoc(doc, source)
		if err != nil {
			return fmt.Errorf("policyconf: %q: %w", p, err)
		}
		mergeLayerInto(merged, lc)

		for _, inc := range doc.Include {
			incPath := inc
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(filepath.Dir(p), inc)
			}
			if err := visit(incPath); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(path); err != nil {
		return nil, err
	}
	return merged, nil
}

// Load resolves all four configuration layers and merges them into one
// immutable *Config (spec §3.2, §3.4, §4.3). Layer precedence, lowest to
// highest: embedded defaults, user overlay, project overlay, process-runtime
// overrides.
func Load(opts LoadOptions) (*Config, error) {
	var layers []*layerContent
	var layerInfo []LayerInfo

	embedded, err := loadEmbeddedDefaults()
	if err != nil {
		return nil, err
	}
	layers = append(layers, embedded)
	layerInfo = append(layerInfo, LayerInfo{Source: SourceBuiltin, Path: embeddedManifestPath, Loaded: true})

	userPath := userConfigPath(opts.ConfigPath)
	if userPath != "" {
		lc, err := loadManifestDir(userPath, SourceGlobal)
		if err != nil {
			return nil, err
		}
		layerInfo = append(layerInfo, LayerInfo{Source: SourceGlobal, Path: userPath, Loaded: lc != nil})
		if lc != nil {
			layers = append(layers, lc)
		}
	}

	projPath := projectConfigPath(opts.Dir)
	if projPath != "" {
		lc, err := loadManifestDir(projPath, SourceProject)
		if err != nil {
			return nil, err
		}
		layerInfo = append(layerInfo, LayerInfo{Source: SourceProject, Path: projPath, Loaded: lc != nil})
		if lc != nil {
			layers = append(layers, lc)
		}
	}

	runtime := &layerContent{}
	if opts.RuntimeSafetyLevel != nil {
		runtime.HasSafetyLevel, runtime.SafetyLevel = true, *opts.RuntimeSafetyLevel
	}
	if opts.RuntimeTrustLevel != nil {
		runtime.HasTrustLevel, runtime.TrustLevel = true, *opts.RuntimeTrustLevel
	}
	if opts.RuntimeDefaultDecision != nil {
		runtime.HasDefaultDecision, runtime.DefaultDecision = true, *opts.RuntimeDefaultDecision
	}
	hasRuntimeContent := opts.RuntimeSafetyLevel != nil || opts.RuntimeTrustLevel != nil || opts.RuntimeDefaultDecision != nil
	if hasRuntimeContent {
		layers = append(layers, runtime)
	}
	layerInfo = append(layerInfo, LayerInfo{Source: SourceRuntime, Path: "(flags)", Loaded: hasRuntimeContent})

	cfg, err := mergeLayers(layers)
	if err != nil {
		return nil, err
	}
	cfg.Layers = layerInfo
	if opts.RuntimeAskOnDeny != nil {
		cfg.AskOnDeny = *opts.RuntimeAskOnDeny
	}
	return cfg, nil
}
