package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"smellfix/internal/checkpoint"
	"smellfix/internal/forge"
	"smellfix/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a repository and run the pipeline on every new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			repo, err := forge.ParseRepo(cfg.Watch.Repo)
			if err != nil {
				return err
			}
			gh, err := forge.NewClient(forge.Options{Token: cfg.GitHub.Token, BaseURL: cfg.GitHub.BaseURL})
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(cfg.Checkpoint.Store, cfg.Checkpoint.Path, cfg.Checkpoint.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			argv := cfg.Watch.Command
			if len(argv) == 0 {
				self, err := os.Executable()
				if err != nil {
					return err
				}
				argv = driverArgv(cmd, self)
			}
			w := &watcher.Watcher{
				Repo:     repo.String(),
				Source:   gh.Commits(repo),
				Trigger:  &watcher.CommandTrigger{Argv: argv, Dir: cfg.Watch.Dir, Exec: execCommand},
				Store:    store,
				Interval: cfg.Watch.Interval,
			}
			return runWatcher(cmd.Context(), w)
		},
	}
	f := cmd.Flags()
	f.String(flag("watch.repo"), defaultString("watch.repo"), "owner/repo to poll")
	f.Duration(flag("watch.interval"), watcher.DefaultInterval, "Wait between polls")
	f.StringSlice(flag("watch.command"), nil, "Command run on a new commit (default: this binary with 'run')")
	f.String(flag("watch.dir"), "", "Working directory for the command")
	f.String(flag("checkpoint.store"), defaultString("checkpoint.store"), "Checkpoint store: memory, file, sqlite or postgres")
	f.String(flag("checkpoint.path"), defaultString("checkpoint.path"), "Checkpoint file for the file store")
	f.String(flag("checkpoint.dsn"), "", "Postgres DSN, or database file for the sqlite store")
	return cmd
}

var runWatcher = func(ctx context.Context, w *watcher.Watcher) error { return w.Run(ctx) }

// driverArgv is "<self> [root flags] run", carrying the config file and every
// root-level flag set on the watch command line.
func driverArgv(cmd *cobra.Command, self string) []string {
	argv := []string{self}
	persistent := cmd.Root().PersistentFlags()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if persistent.Lookup(f.Name) == nil {
			return
		}
		val := f.Value.String()
		if f.Name == "config" {
			if abs, err := filepath.Abs(val); err == nil {
				val = abs
			}
		}
		argv = append(argv, "--"+f.Name+"="+val)
	})
	return append(argv, "run")
}
