package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"smellfix/internal/analyzer"
	"smellfix/internal/archive"
	"smellfix/internal/config"
	"smellfix/internal/forge"
	"smellfix/internal/llm"
	"smellfix/internal/pipeline/smell"
	"smellfix/internal/publish"
	"smellfix/internal/safeio"
	"smellfix/internal/scan"
	"smellfix/internal/verify"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the checkout, refactor every file, then commit, push and open a pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.String(flag("source.root"), defaultString("source.root"), "Directory to scan for source files")
	f.String(flag("source.ext"), defaultString("source.ext"), "Source file extension")
	f.String(flag("analyzer.tool"), defaultString("analyzer.tool"), "Static analyzer: pmd, checkstyle or none")
	f.String(flag("llm.prompt_dir"), "", "Save prompts and raw replies under this directory")
	f.Int(flag("llm.retry_attempts"), 1, "Model call attempts (1 = no retry)")
	f.String(flag("llm.cache_dir"), defaultString("llm.cache_dir"), "Reuse model replies across runs from this directory (empty disables)")
	f.Bool(flag("publish.enabled"), true, "Commit, push and open a pull request after refactoring")
	f.String(flag("publish.repo"), defaultString("publish.repo"), "owner/repo receiving the pull request")
	f.String(flag("publish.repo_dir"), defaultString("publish.repo_dir"), "Local checkout the git commands run in")
	f.Bool(flag("verify"), false, "Run the project's tests after refactoring")
	return cmd
}

func runPipeline(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if err := cfg.RequireModel(); err != nil {
		return err
	}
	var pubAPI *forge.Client
	var pubRepo forge.Repo
	if cfg.Publish.Enabled {
		if err := cfg.RequireGitHub(); err != nil {
			return err
		}
		var err error
		if pubRepo, err = forge.ParseRepo(cfg.Publish.Repo); err != nil {
			return err
		}
		if pubAPI, err = forge.NewClient(forge.Options{Token: cfg.GitHub.Token, BaseURL: cfg.GitHub.BaseURL}); err != nil {
			return err
		}
	}

	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	if cfg.LLM.PromptDir != "" {
		ctx = llm.ContextWithHook(ctx, &llm.PromptSaver{Dir: cfg.LLM.PromptDir})
	}

	an, err := analyzer.New(cfg.Analyzer.Tool, analyzer.Config{
		Bin:        cfg.Analyzer.Bin,
		Ruleset:    cfg.Analyzer.Ruleset,
		ReportPath: cfg.Analyzer.Report,
		Exec:       execCommand,
	})
	if err != nil {
		return err
	}

	snap, err := scan.Collect(cfg.Source.Root, cfg.Source.Ext)
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.Source.Root, err)
	}
	fs, err := safeio.NewSafeFS(cfg.Source.Root)
	if err != nil {
		return err
	}
	log.Printf("[run] %d %s file(s) under %s", snap.Len(), cfg.Source.Ext, cfg.Source.Root)

	wf := smell.NewWorkflow(
		&smell.Detector{LLM: client, Analyzer: an, Ext: cfg.Source.Ext},
		&smell.Refactorer{LLM: client},
		&smell.Saver{FS: fs},
	)
	sum := wf.RunAll(ctx, snap)
	log.Printf("[run] done: %d file(s), %d changed, %d failed", len(sum.Files), sum.Changed(), sum.Failed())
	printSummary(out, sum)
	if err := ctx.Err(); err != nil {
		return err
	}

	if cfg.Verify && snap.Len() > 0 {
		v := &verify.Verifier{Exec: execCommand}
		v.Run(ctx, cfg.Publish.RepoDir, snap.Files[0].Path)
	}

	archiveSummary(ctx, cfg, sum)

	if !cfg.Publish.Enabled {
		log.Printf("[run] publishing disabled")
		return nil
	}
	pub := publish.New(publish.Config{
		RepoDir:   cfg.Publish.RepoDir,
		Remote:    cfg.Publish.Remote,
		Branch:    cfg.Publish.Branch,
		Repo:      pubRepo,
		GuardHead: cfg.Publish.GuardHead,
		Head:      cfg.Publish.Head,
		Base:      cfg.Publish.Base,
	}, pubAPI, execCommand)
	res, err := pub.Publish(ctx)
	if len(res.GitErrors) > 0 {
		log.Printf("[run] warn: %d git step(s) failed", len(res.GitErrors))
	}
	if err != nil {
		log.Printf("[run] warn: pull request: %v", err)
	}
	return nil
}

func archiveSummary(ctx context.Context, cfg *config.Config, sum smell.Summary) {
	store := openArchive(cfg)
	if store == nil {
		return
	}
	b, err := sum.JSON()
	if err != nil {
		log.Printf("[archive] warn: %v", err)
		return
	}
	runID := archive.NewRunID(sum.StartedAt)
	if sum.StartedAt.IsZero() {
		runID = archive.NewRunID(time.Now())
	}
	if err := store.Put(ctx, runID, "summary.json", b); err != nil {
		log.Printf("[archive] warn: upload summary: %v", err)
		return
	}
	log.Printf("[archive] uploaded %s/summary.json", runID)
}

func printSummary(w io.Writer, sum smell.Summary) {
	if len(sum.Files) == 0 {
		return
	}
	data := pterm.TableData{{"File", "Issues", "Changed", "Fallback", "Saved", "Error"}}
	for _, f := range sum.Files {
		path := f.Path
		if rel, err := filepath.Rel(sum.Root, f.Path); err == nil {
			path = rel
		}
		data = append(data, []string{path, strconv.Itoa(f.Issues), yesNo(f.Changed), yesNo(f.Fallback), yesNo(f.Saved), f.Error})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		log.Printf("[run] warn: render summary: %v", err)
		return
	}
	fmt.Fprintln(w, table)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
