package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sofmeright/asg-builder/src/imagedef"
	"github.com/sofmeright/asg-builder/src/output"
	"github.com/sofmeright/asg-builder/src/payload"
	"github.com/sofmeright/asg-builder/src/workdir"
)

var stagedRoot string

var stagedCmd = &cobra.Command{
	Use:   "staged <imagename>",
	Short: "List packages staged in an image's working directory",
	Long: `List the iControl LX packages cached under <root>/<imagename>/rpms.

Staged packages are reused by name, so an upgrade leaves the old file in
place. Packages with more than one staged version are flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(strings.TrimSpace(args[0]))
		return listStaged(cmd.OutOrStdout(), workdir.New(stagedRoot, name))
	},
}

func init() {
	stagedCmd.Flags().StringVar(&stagedRoot, "root", ".", "directory working directories are created in")
	rootCmd.AddCommand(stagedCmd)
}

func listStaged(w io.Writer, dir *workdir.Dir) error {
	pkgs, err := payload.Inventory(dir)
	if err != nil {
		return fmt.Errorf("reading staged packages: %w", err)
	}

	// Without a definition every file is reported as not installed.
	def, err := imagedef.ReadDefinition(dir.Join(workdir.Document))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", workdir.Document, err)
		}
		def = &imagedef.Definition{}
	}

	color := output.UseColor()
	printer := &output.Printer{Writer: w, Color: color}
	if len(pkgs) == 0 {
		printer.Notice("no packages staged in %s", dir.Join(workdir.PayloadDir))
		return nil
	}

	printer.Heading("%s", dir.Join(workdir.PayloadDir))
	sec := output.NewSection(w, "Staged", 0, color)
	dupes := 0
	for _, p := range pkgs {
		status := output.StatusSuccess
		if len(p.Versions) > 1 {
			status = output.StatusWarning
			dupes++
		}
		sec.Status(p.Name, versionList(p), status)
		for _, v := range p.Versions {
			state := "not installed"
			if def.Installs(path.Join(workdir.PayloadDir, v.Filename)) {
				state = "installed"
			}
			sec.Row("  %s", output.Dimmed(fmt.Sprintf("%-44s %8d  %s", v.Filename, v.Size, state), color))
		}
	}
	sec.Close()

	if dupes > 0 {
		printer.Warn("%d package(s) have more than one staged version; older files stay cached until removed", dupes)
	}
	return nil
}

func versionList(p payload.Package) string {
	vs := make([]string, 0, len(p.Versions))
	for _, v := range p.Versions {
		if v.Version == "" {
			vs = append(vs, "-")
			continue
		}
		vs = append(vs, v.Version)
	}
	return strings.Join(vs, ", ")
}
