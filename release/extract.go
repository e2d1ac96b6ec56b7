package release

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExtractZip extracts every entry of archivePath below destDir. Entries whose
// path or link target leaves destDir, or that would be written through a
// symlink extracted earlier, are rejected.
func ExtractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "open zip archive")
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errors.Wrap(err, "create dest dir")
	}
	root := filepath.Clean(destDir)

	for _, f := range r.File {
		target := filepath.Join(root, f.Name)
		if target == root {
			continue
		}
		if !within(root, target) {
			return errors.Errorf("illegal file path: %s", f.Name)
		}
		if err := checkParents(root, target); err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "create directory %s", target)
			}
		case mode&os.ModeSymlink != 0:
			if err := extractSymlink(f, root, target); err != nil {
				return err
			}
		default:
			if err := extractFile(f, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// checkParents refuses targets whose existing ancestors below root, or the
// target itself, are symlinks.
func checkParents(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return err
	}
	cur := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return errors.Errorf("illegal file path: %s passes through symlink %s", rel, cur)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "create parent dir for %s", target)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "create file %s", target)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Wrapf(err, "write file %s", target)
	}
	return out.Close()
}

func extractSymlink(f *zip.File, root, target string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	link := string(data)
	if filepath.IsAbs(link) || !within(root, filepath.Join(filepath.Dir(target), link)) {
		return errors.Errorf("illegal symlink: %s -> %s", f.Name, link)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := os.Symlink(link, target); err != nil {
		return errors.Wrapf(err, "create symlink %s", target)
	}
	return nil
}
