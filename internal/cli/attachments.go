package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dori/dossier/internal/app"
	"github.com/dori/dossier/internal/intake"
	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/preview"
	"github.com/dori/dossier/internal/tasks"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	var thumbs, all bool

	cmd := &cobra.Command{
		Use:   "show <n>",
		Short: "Show a task with its note and attachments",
		Long: `Show prints a task in detail. It creates the project folder if it is
missing and forgets attachments whose files no longer exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Tasks.Detail(index)
			if err != nil {
				return err
			}
			if all {
				d.Flags = model.Flags{}
			}
			renderDetail(cmd, a, d, thumbs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&thumbs, "thumbs", false, "Print a cached thumbnail path for each video")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show hidden sections too")
	return cmd
}

func renderDetail(cmd *cobra.Command, a *app.App, d tasks.Detail, thumbs bool) {
	out := cmd.OutOrStdout()
	t := d.Task

	fmt.Fprintf(out, "%s %s\n", headerStyle.Render(fmt.Sprintf("#%d", d.Index+1)), headerStyle.Render(t.DisplayTitle()))
	fmt.Fprintf(out, "  status: %s\n", map[bool]string{true: "completed", false: "pending"}[t.Completed])
	if t.HasFolder() {
		fmt.Fprintf(out, "  folder: %s\n", t.ProjectFolder)
	}
	if d.FolderErr != nil {
		fmt.Fprintln(out, warnStyle.Render("  warning: project folder unavailable: "+d.FolderErr.Error()))
	}
	for _, p := range d.Dropped {
		fmt.Fprintln(out, warnStyle.Render("  removed missing file: "+p))
	}

	for _, s := range model.Sections {
		fmt.Fprintln(out)
		title := strings.ToUpper(string(s)[:1]) + string(s)[1:]
		if d.Flags.Hidden(s) {
			fmt.Fprintf(out, "%s %s\n", headerStyle.Render(title), mutedStyle.Render("(hidden)"))
			continue
		}
		if s == model.SectionNote {
			fmt.Fprintln(out, headerStyle.Render(title))
			if t.Note == "" {
				fmt.Fprintln(out, mutedStyle.Render("  (none)"))
				continue
			}
			for _, line := range strings.Split(t.Note, "\n") {
				fmt.Fprintln(out, "  "+line)
			}
			continue
		}

		paths := t.Paths(s)
		fmt.Fprintf(out, "%s %s\n", headerStyle.Render(title), mutedStyle.Render(fmt.Sprintf("(%d)", len(paths))))
		for i, att := range preview.DescribeAll(paths) {
			fmt.Fprintf(out, "  %d. %s\n", i+1, attachmentLine(att))
			if thumbs && s == model.SectionVideos && att.Exists {
				if thumb, ok := a.Thumbnailer.Thumbnail(cmd.Context(), att.Path); ok {
					fmt.Fprintln(out, mutedStyle.Render("     thumbnail: "+thumb))
				} else if thumb != "" {
					fmt.Fprintln(out, mutedStyle.Render("     thumbnail: "+thumb+" (placeholder)"))
				}
			}
		}
	}
}

func attachmentLine(att preview.Attachment) string {
	if !att.Exists {
		return warnStyle.Render(att.Name + " (missing)")
	}
	line := fmt.Sprintf("%s  %s  %s", att.Name, mutedStyle.Render(att.Label), att.SizeText)
	if att.TakenAt != nil {
		line += mutedStyle.Render("  taken " + att.TakenAt.Format("2006-01-02 15:04"))
	}
	return line + "\n     " + mutedStyle.Render(att.Path)
}

func newAttachCmd(opts *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "attach <n> <file>...",
		Short: "Copy files into a task's project folder",
		Long: `Attach copies each file into the task's project folder and records it.
With --kind files (the default) each file goes to the subdirectory that
matches its type. A file that cannot be copied is recorded at its original
location.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			section, err := model.ParseSection(kind)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Tasks.Attach(index, section, args[1:])
			printResults(cmd.OutOrStdout(), results)
			return err
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(model.SectionFiles), "List to attach to: images, videos or files")
	return cmd
}

func printResults(out io.Writer, results []intake.Result) {
	for _, r := range results {
		switch {
		case r.Copied():
			fmt.Fprintf(out, "  %s %s\n", okStyle.Render("copied"), r.Path)
		case errors.Is(r.Err, intake.ErrUnstorablePath):
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("  skipped %s: %v", r.Source, r.Err)))
		case r.Err != nil:
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("  kept original %s: %v", r.Path, r.Err)))
		default:
			fmt.Fprintf(out, "  kept %s\n", r.Path)
		}
	}
}

func newDetachCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <n> <images|videos|files> <position>...",
		Short: "Remove attachments from a task's list",
		Long:  `Detach forgets the entries at the given positions. The files stay on disk.`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			section, err := model.ParseSection(args[1])
			if err != nil {
				return err
			}
			positions, err := parsePositions(args[2:])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.Tasks.Detach(index, section, positions)
			if err != nil {
				return err
			}
			for _, p := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "  detached %s\n", p)
			}
			return nil
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "migrate [n]",
		Short: "Copy attachments stored elsewhere into the project folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("give a task number or --all")
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			indexes := make([]int, 0, a.Tasks.Len())
			if all {
				for i := 0; i < a.Tasks.Len(); i++ {
					indexes = append(indexes, i)
				}
			} else {
				index, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				indexes = append(indexes, index)
			}

			out := cmd.OutOrStdout()
			for _, i := range indexes {
				res, err := a.Tasks.Migrate(i)
				if err != nil {
					if !all {
						return err
					}
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("#%d: %v", i+1, err)))
					continue
				}
				fmt.Fprintf(out, "#%d\n", i+1)
				printResults(out, res.Images)
				printResults(out, res.Videos)
				printResults(out, res.Files)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Migrate every task")
	return cmd
}

func newHideCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hide <n> <section>...",
		Short: "Hide sections (note, images, videos, files) in show",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setHidden(cmd, opts, args[0], args[1:], true)
		},
	}
}

func newUnhideCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unhide <n> [section]...",
		Short: "Show hidden sections again; all of them if none is named",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setHidden(cmd, opts, args[0], args[1:], false)
		},
	}
}

func setHidden(cmd *cobra.Command, opts *options, arg string, names []string, hidden bool) error {
	index, err := parseIndex(arg)
	if err != nil {
		return err
	}
	sections := make([]model.Section, 0, len(names))
	for _, n := range names {
		s, err := model.ParseSection(n)
		if err != nil {
			return err
		}
		sections = append(sections, s)
	}

	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(sections) == 0 && !hidden {
		if err := a.Tasks.RestoreAll(index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "All sections of #%d shown\n", index+1)
		return nil
	}
	var flags model.Flags
	for _, s := range sections {
		if flags, err = a.Tasks.SetHidden(index, s, hidden); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "#%d hidden: %s\n", index+1, describeFlags(flags))
	return nil
}

func describeFlags(f model.Flags) string {
	var hidden []string
	for _, s := range model.Sections {
		if f.Hidden(s) {
			hidden = append(hidden, string(s))
		}
	}
	if len(hidden) == 0 {
		return "none"
	}
	return strings.Join(hidden, ", ")
}

func newThumbCmd(opts *options) *cobra.Command {
	var noExtract bool

	cmd := &cobra.Command{
		Use:   "thumb <video>",
		Short: "Print the cached thumbnail for a video, extracting it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Thumbnailer.SetEnabled(!noExtract)
			path, ok := a.Thumbnailer.Thumbnail(cmd.Context(), args[0])
			if !ok {
				if path == "" {
					return fmt.Errorf("no thumbnail available for %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), path+" (placeholder)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Only use the cache; never run ffmpeg")
	return cmd
}
