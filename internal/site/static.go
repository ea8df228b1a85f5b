package site

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsmith/internal/site/theme"
)

// copyStaticAssets populates _static in the staging directory: the theme's
// embedded assets first, then user-configured static dirs, which may override
// theme files of the same name.
func (g *Generator) copyStaticAssets() error {
	th := theme.Get(g.cfg.Site.Theme)
	if th == nil {
		return fmt.Errorf("%w: unknown theme %q", ErrTheme, g.cfg.Site.Theme)
	}

	target := filepath.Join(g.stageDir, "_static")
	if err := copyFS(th.Static(), target); err != nil {
		return fmt.Errorf("%w: theme assets: %w", ErrAssets, err)
	}

	for _, dir := range g.cfg.Site.Static {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue // optional user dirs may be absent
		}
		if err := copyFS(os.DirFS(dir), target); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAssets, dir, err)
		}
	}
	return nil
}

// copyFS copies every regular file of src into dst, preserving structure.
func copyFS(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		out := filepath.Join(dst, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		in, err := src.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, in); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}
