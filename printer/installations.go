package printer

import (
	"io"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/aseprite-builder/aseprite-builder/models"
)

const (
	StatusMissing     = "Missing"
	StatusNeedsUpdate = "Needs update"
	StatusUpToDate    = "Up to date"
)

// State compares an installed version with the latest one. Versions that
// are not semver fall back to string equality.
func State(current, latest string) string {
	if current == "" {
		return StatusMissing
	}
	cv, cerr := semver.ParseTolerant(current)
	lv, lerr := semver.ParseTolerant(latest)
	if cerr != nil || lerr != nil {
		if current == latest {
			return StatusUpToDate
		}
		return StatusNeedsUpdate
	}
	if lv.GT(cv) {
		return StatusNeedsUpdate
	}
	return StatusUpToDate
}

func Table(installations []*models.Installation) {
	Fprint(os.Stdout, installations)
}

func Fprint(w io.Writer, installations []*models.Installation) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Repo", "Installed", "Latest", "Status", "Target")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithWriter(w)

	for _, in := range installations {
		tbl.AddRow(in.Repo, in.CurrentVersion, in.Version, State(in.CurrentVersion, in.Version), in.Target)
	}

	tbl.Print()
}

// Release prints the assets of a fetched release.
func Release(repo string, rel *models.Release, dir string) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Repo", "Release", "Assets", "Dir")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	names := make([]string, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		names = append(names, a.Name)
	}
	tbl.AddRow(repo, rel.TagName, strings.Join(names, ", "), dir)
	tbl.Print()
}
