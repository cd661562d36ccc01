// cmd/mvcs/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mvcs/internal/archive"
	"mvcs/internal/config"
	"mvcs/internal/content"
	"mvcs/internal/diff"
	"mvcs/internal/logging"
	"mvcs/internal/project"
	"mvcs/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "mvcs",
	Short: "mvcs is a minimal content-addressed version control system",
	Long: `mvcs manages a working directory as a series of content-addressed
snapshots: record commits, organize them into branches, and restore the
tree from any point in history.`,
}

// session bundles everything an open repository needs and tears it down
// afterwards.
type session struct {
	Project *project.Project
	Config  *config.Config
	sp      storage.Provider
	index   *content.Index
	logger  *zap.Logger
}

func (s *session) Close() {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Warn("closing hash index", zap.Error(err))
		}
	}
	s.logger.Sync()
}

func openSession() (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	root, err := project.FindRoot(cwd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(root, project.DirName, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	sp := storage.NewLocal(logger)

	index, err := content.OpenIndex(filepath.Join(root, project.DirName, project.CacheDirName))
	if err != nil {
		// The index is a cache; fall back to rehashing.
		logger.Warn("opening hash index failed", zap.Error(err))
		index = nil
	}

	p, err := project.Load(sp, root, project.Options{Index: index, Ignore: cfg.Ignore, Logger: logger})
	if err != nil {
		if index != nil {
			index.Close()
		}
		return nil, err
	}

	return &session{Project: p, Config: cfg, sp: sp, index: index, logger: logger}, nil
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mvcs project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			author, _ := cmd.Flags().GetString("author")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			logger := logging.NewDevelopment()
			sp := storage.NewLocal(logger)

			p, err := project.Create(sp, cwd, author, title, description, project.Options{Logger: logger})
			if err != nil {
				return fmt.Errorf("initializing project: %w", err)
			}

			fmt.Printf("Initialized empty mvcs project %s in %s\n", p.ID[:8], cwd)
			return nil
		},
	}
	initCmd.Flags().StringP("author", "a", "", "Author identifier")
	initCmd.Flags().StringP("title", "t", "", "Project title")
	initCmd.Flags().StringP("description", "d", "", "Project description")
	initCmd.MarkFlagRequired("author")
	initCmd.MarkFlagRequired("title")

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Project.Status()
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			printStatus(s.Project, st)
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit [files...]",
		Short: "Record the current tree as a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("message")
			description, _ := cmd.Flags().GetString("description")
			author, _ := cmd.Flags().GetString("author")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if author == "" {
				author = s.Config.AuthorID
			}
			if author == "" {
				author = s.Project.AuthorID
			}

			c, err := s.Project.Commit(author, title, description, args...)
			if err != nil {
				return fmt.Errorf("committing: %w", err)
			}
			if err := s.Project.Save(); err != nil {
				return fmt.Errorf("saving project: %w", err)
			}

			fmt.Printf("[%s %s] %s (%d changes)\n",
				s.Project.CurrentBranch, c.ID[:8], c.Title, len(c.Changes))
			return nil
		},
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit title")
	commitCmd.Flags().StringP("description", "d", "", "Commit description")
	commitCmd.Flags().StringP("author", "a", "", "Author identifier")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history from the current commit back to the root",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			current, err := s.Project.CurrentCommit()
			if err != nil {
				return err
			}
			if current == nil {
				fmt.Println("No commits yet")
				return nil
			}

			chain, err := s.Project.Ancestry(current.ID)
			if err != nil {
				return err
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for _, c := range chain {
				fmt.Printf("%s  %s  %s\n", yellow(c.ID[:8]), c.Date, c.Title)
				if c.Description != "" {
					fmt.Printf("          %s\n", c.Description)
				}
			}
			return nil
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <commit>",
		Short: "Restore the working tree from a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Project.Checkout(args[0]); err != nil {
				return fmt.Errorf("checking out %s: %w", args[0], err)
			}
			if err := s.Project.Save(); err != nil {
				return fmt.Errorf("saving project: %w", err)
			}

			fmt.Printf("Checked out %s\n", s.Project.CurrentCommitID[:8])
			return nil
		},
	}

	var switchCmd = &cobra.Command{
		Use:   "switch <branch>",
		Short: "Check out a branch tip and make the branch current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Project.CheckoutBranch(args[0]); err != nil {
				return fmt.Errorf("switching to %s: %w", args[0], err)
			}
			if err := s.Project.Save(); err != nil {
				return fmt.Errorf("saving project: %w", err)
			}

			fmt.Printf("Switched to branch %q\n", args[0])
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch",
		Short: "Manage branches",
	}

	var branchListCmd = &cobra.Command{
		Use:   "list",
		Short: "List branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			green := color.New(color.FgGreen).SprintFunc()
			for name, tip := range s.Project.Branches {
				marker := " "
				if name == s.Project.CurrentBranch {
					marker = green("*")
				}
				suffix := ""
				if name == s.Project.DefaultBranch {
					suffix = " (default)"
				}
				fmt.Printf("%s %s -> %s%s\n", marker, name, tip[:8], suffix)
			}
			return nil
		},
	}

	var branchCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Create a branch at the current commit",
		Args:  cobra.ExactArgs(1),
		RunE:  branchMutation(func(p *project.Project, args []string) error { return p.CreateBranch(args[0]) }),
	}

	var branchDeleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch",
		Args:  cobra.ExactArgs(1),
		RunE:  branchMutation(func(p *project.Project, args []string) error { return p.DeleteBranch(args[0]) }),
	}

	var branchRenameCmd = &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a branch",
		Args:  cobra.ExactArgs(2),
		RunE:  branchMutation(func(p *project.Project, args []string) error { return p.RenameBranch(args[0], args[1]) }),
	}

	var branchDefaultCmd = &cobra.Command{
		Use:   "default <name>",
		Short: "Set the default branch",
		Args:  cobra.ExactArgs(1),
		RunE:  branchMutation(func(p *project.Project, args []string) error { return p.SetDefaultBranch(args[0]) }),
	}

	var diffCmd = &cobra.Command{
		Use:   "diff [paths...]",
		Short: "Show line changes between the working tree and the current commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Project.Status(args...)
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			engine := diff.NewEngine(3)
			for _, change := range st.Changes {
				if change.From == "" || change.To == "" {
					continue
				}
				newItem := st.NewItems[change.To]
				oldItem := st.LastItems[change.From]

				oldData, err := readBlob(s.Project, oldItem.Content)
				if err != nil {
					return err
				}
				newData, err := os.ReadFile(filepath.Join(s.Project.WorkingDir, newItem.Path))
				if err != nil {
					return fmt.Errorf("reading %s: %w", newItem.Path, err)
				}

				fmt.Printf("\ndiff --mvcs a/%s b/%s\n", oldItem.Path, newItem.Path)
				printColoredDiff(engine.Diff(oldData, newData).Format())
			}
			return nil
		},
	}

	var exportCmd = &cobra.Command{
		Use:   "export <commit>",
		Short: "Export a commit's tree as a zstd-compressed tarball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("output")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.Project.MatchCommitID(args[0])
			if err != nil {
				return err
			}
			items, err := s.Project.GetCommitItems(id)
			if err != nil {
				return err
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer out.Close()

			commit := s.Project.Commits[id]
			if err := archive.Export(s.sp, s.Project.Pool(), commit, items, out); err != nil {
				return fmt.Errorf("exporting %s: %w", id, err)
			}

			fmt.Printf("Exported %s (%d files) to %s\n", id[:8], len(items), outPath)
			return nil
		},
	}
	exportCmd.Flags().StringP("output", "o", "snapshot.tar.zst", "Output file")

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the working tree and report changes as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			return watchTree(s)
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchDeleteCmd)
	branchCmd.AddCommand(branchRenameCmd)
	branchCmd.AddCommand(branchDefaultCmd)
}

// branchMutation wraps a branch operation with the open/save cycle.
func branchMutation(op func(*project.Project, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := op(s.Project, args); err != nil {
			return err
		}
		return s.Project.Save()
	}
}

func printStatus(p *project.Project, st *project.Status) {
	var added, modified, deleted []string
	for _, change := range st.Changes {
		switch {
		case change.From != "" && change.To != "":
			modified = append(modified, st.NewItems[change.To].Path)
		case change.To != "":
			added = append(added, st.NewItems[change.To].Path)
		default:
			deleted = append(deleted, st.LastItems[change.From].Path)
		}
	}

	if len(added)+len(modified)+len(deleted) == 0 {
		fmt.Println("No changes detected (working tree clean)")
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\nChanges on branch %s:\n\n", p.CurrentBranch)
	for _, path := range added {
		fmt.Printf("\t%s %s\n", green("A"), path)
	}
	for _, path := range modified {
		fmt.Printf("\t%s %s\n", yellow("M"), path)
	}
	for _, path := range deleted {
		fmt.Printf("\t%s %s\n", red("D"), path)
	}
	fmt.Println()
}

func printColoredDiff(diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if len(line) == 0 {
			fmt.Println()
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func readBlob(p *project.Project, blobID string) ([]byte, error) {
	data, err := os.ReadFile(p.Pool().BlobPath(blobID))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", blobID, err)
	}
	return data, nil
}

// watchTree re-runs status whenever the tree settles after a change.
func watchTree(s *session) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(s.Project.WorkingDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == project.DirName {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching tree: %w", err)
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", s.Project.WorkingDir)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.Contains(event.Name, string(filepath.Separator)+project.DirName+string(filepath.Separator)) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
				}
			}
			debounce.Reset(500 * time.Millisecond)

		case <-debounce.C:
			st, err := s.Project.Status()
			if err != nil {
				s.logger.Warn("status failed", zap.Error(err))
				continue
			}
			printStatus(s.Project, st)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
