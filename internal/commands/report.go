package commands

import (
	"io"
	"time"

	"github.com/bugmine/bugmine/internal/fs"
	"github.com/bugmine/bugmine/internal/report"
	"github.com/bugmine/bugmine/internal/store"
)

// ReportOpts holds options for the report command.
type ReportOpts struct {
	// Project is the registered project id (required).
	Project string
}

// Report prints the project's mining progress summary.
func Report(fsys fs.FS, opts ReportOpts, stdout io.Writer) error {
	env, err := loadProject(fsys, opts.Project)
	if err != nil {
		return err
	}

	st := store.NewStore(fsys, env.Paths, time.Now)
	rep, err := report.Build(env.Project.ID, env.DB, st)
	if err != nil {
		return err
	}
	rep.Render(stdout)
	return nil
}
