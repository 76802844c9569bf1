package commands

import (
	"fmt"
	"io"

	"github.com/bugmine/bugmine/internal/config"
	"github.com/bugmine/bugmine/internal/fs"
)

// Projects lists every project registered in the data directory.
func Projects(fsys fs.FS, stdout io.Writer) error {
	dataDir, err := config.ResolveDataDir()
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(fsys, config.RegistryPath(dataDir))
	if err != nil {
		return err
	}

	if len(reg.Projects) == 0 {
		fmt.Fprintln(stdout, "no projects registered")
		return nil
	}
	for _, p := range reg.Projects {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		fmt.Fprintf(stdout, "%-12s %s (%s)\n", p.ID, name, p.RepoDir)
	}
	return nil
}
