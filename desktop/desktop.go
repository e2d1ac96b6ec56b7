package desktop

import (
	"io"
	"os"
	"path/filepath"
	"text/template"
)

// https://specifications.freedesktop.org/desktop-entry-spec/latest/

const entryTpl = `[Desktop Entry]
Type=Application
Name={{ .Name }}
Comment={{ .Comment }}
Exec={{ .Exec }}
Terminal=false
Icon={{ .Icon }}
Categories={{ range .Categories }}{{ . }};{{ end }}
`

// Entry is a launcher for an installed application.
type Entry struct {
	Name       string
	Comment    string
	Exec       string
	Icon       string
	Categories []string
}

// ForInstall returns the launcher for a tree installed under installDir.
func ForInstall(installDir string) Entry {
	return Entry{
		Name:       "Aseprite",
		Comment:    "Animated sprite editor & pixel art tool",
		Exec:       filepath.Join(installDir, "build", "bin", "aseprite"),
		Icon:       filepath.Join(installDir, "data", "icons", "ase256.png"),
		Categories: []string{"Graphics"},
	}
}

var tpl = template.Must(template.New("desktop").Parse(entryTpl))

func (e Entry) Serialize(w io.Writer) error {
	return tpl.Execute(w, e)
}

// WriteFile writes the entry to path, creating the parent directory.
func (e Entry) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.Serialize(f); err != nil {
		return err
	}
	return f.Close()
}
