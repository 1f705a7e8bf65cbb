// Package cli implements the dossier command line
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dori/dossier/internal/app"
	"github.com/dori/dossier/internal/config"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dossier",
		Short: "Tasks with a project folder for their attachments",
		Long: `dossier keeps a list of tasks. Every task gets its own project folder,
and images, videos and documents attached to it are copied there.

Tasks are addressed by their number in "dossier list".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $"+config.EnvConfig+" or the data directory)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newDoneCmd(opts),
		newRenameCmd(opts),
		newNoteCmd(opts),
		newAttachCmd(opts),
		newDetachCmd(opts),
		newRemoveCmd(opts),
		newMigrateCmd(opts),
		newHideCmd(opts),
		newUnhideCmd(opts),
		newThumbCmd(opts),
		newFindCmd(opts),
		newVersionCmd(version),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *options) logger(cmd *cobra.Command) *log.Logger {
	if !o.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "dossier: ", log.LstdFlags)
}

func (o *options) loadConfig() (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	return config.LoadOrCreate(path)
}

// open loads the config and starts the app. Callers must Close it.
func (o *options) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, o.logger(cmd))
}

// parseIndex converts a 1-based task number to a 0-based index
func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task number %q", arg)
	}
	return n - 1, nil
}

func parsePositions(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid position %q", a)
		}
		out = append(out, n-1)
	}
	return out, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dossier v%s\n", version)
		},
	}
}
