package integration

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsmith/internal/config"
)

// fixedClock keeps generated timestamps stable so rebuilds of identical input
// produce identical bytes.
func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
}

const lumacheModule = `"""Lumache - Python library for cooks and food lovers."""


class InvalidKindError(Exception):
    """Raised if the kind is invalid."""


def get_random_ingredients(kind: str = None) -> list:
    """Return a list of random ingredients.

    Parameters
    ----------
    kind : str
        Optional kind of ingredient.

    Returns
    -------
    list
        The ingredients as strings.
    """
    return ["shells", "gorgonzola", "parsley"]
`

const pantryModule = `"""Pantry storage helpers."""


class Pantry:
    """Storage for ingredients.

    Args:
        capacity (int): Number of slots.
    """

    def __init__(self, capacity: int = 10):
        self.capacity = capacity

    def add(self, ingredient: str, quantity: int = 1) -> bool:
        """Add an ingredient to the pantry."""
        return True
`

const projectIndex = `Lumache Documentation
=====================

See the [usage](usage.md) guide.

.. toctree::
   :caption: Guides

   usage

.. toctree::
   :caption: Reference

   lumache
   pantry
`

const usagePage = `---
title: Usage
---

# Usage

Start with [lumache](lumache.md), store results in [pantry](pantry.md).
`

// writeProject lays out a two-module documentation project under dir and
// returns its configuration.
func writeProject(t *testing.T, dir string) *config.Config {
	t.Helper()

	files := map[string]string{
		"src/lumache.py": lumacheModule,
		"src/pantry.py":  pantryModule,
		"docs/index.txt": projectIndex,
		"docs/usage.md":  usagePage,
	}
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	return &config.Config{
		Project: config.ProjectConfig{Name: "Lumache", Author: "Graziella", Release: "0.1.0"},
		Source: config.SourceConfig{
			Paths:    []string{filepath.Join(dir, "src")},
			Modules:  []string{"lumache", "pantry"},
			Dialects: []string{config.DialectNumpy, config.DialectGoogle},
		},
		Content: config.ContentConfig{
			Root:  filepath.Join(dir, "docs", "index.txt"),
			Pages: filepath.Join(dir, "docs"),
		},
		Site:   config.SiteConfig{Theme: "slate"},
		Output: config.OutputConfig{Directory: filepath.Join(dir, "public")},
	}
}

// snapshotSite hashes every rendered file so byte-level comparisons between
// builds stay cheap. Build reports carry timestamps and ids and are skipped.
func snapshotSite(t *testing.T, root string) map[string]string {
	t.Helper()

	hashes := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.HasPrefix(d.Name(), "build-report") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		hashes[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, hashes, "no rendered output found under %s", root)
	return hashes
}

// initSourceRepo creates a local git repository holding the given files.
// Local paths work as clone URLs, so fetch tests never touch the network.
// go-git leaves HEAD on master after PlainInit.
func initSourceRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

// commitFile writes name into an existing repository and commits it.
func commitFile(t *testing.T, repoDir, name, content string) {
	t.Helper()

	repo, err := git.PlainOpen(repoDir)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	p := filepath.Join(repoDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}
