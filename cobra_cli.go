package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	cobradoc "github.com/spf13/cobra/doc"

	"github.com/agentflare-ai/gendoc/internal/config"
	"github.com/agentflare-ai/gendoc/internal/generate"
	"github.com/agentflare-ai/gendoc/internal/render"
	"github.com/agentflare-ai/gendoc/internal/server"
	"github.com/agentflare-ai/gendoc/internal/sources"
)

const rootLongDesc = `
gendoc renders Markdown reference documentation from Python docstrings written
in the Args/Returns convention.

  • A single file prints to stdout, or to a file with -o FILE
  • A directory with -o DIR mirrors the tree and writes a README.md index
  • --inplace writes a <module>.md next to every source
  • --watch keeps regenerating while sources change

Settings come from .gendoc.yaml, GENDOC_* environment variables and flags,
in increasing order of precedence.
`

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	app := &cliApp{
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
		log:    log,
	}
	cmd := &cobra.Command{
		Use:           "gendoc [flags] [path...]",
		Short:         "Render Python docstrings as Markdown",
		Long:          strings.TrimSpace(rootLongDesc),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.DisableAutoGenTag = true
	cmd.Version = Version
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	cmd.CompletionOptions.DisableDefaultCmd = true

	persistent := cmd.PersistentFlags()
	persistent.BoolVar(&app.opts.private, "private", false, "include functions whose names start with an underscore")
	persistent.StringVar(&app.opts.format, "format", "markdown", "output format: markdown or html")
	persistent.StringArrayVar(&app.opts.excludes, "exclude", nil, "gitignore-style pattern to skip (repeatable)")
	persistent.StringVar(&app.opts.ignoreFile, "ignore-file", "", "read ignore patterns from this file instead of .gitignore")
	persistent.StringVar(&app.opts.configPath, "config", "", "configuration file (default: .gendoc.yaml in the source directory)")
	persistent.BoolVar(&app.opts.dropTrailingBlock, "drop-trailing-block", false, "discard the last docstring block, matching older output")
	persistent.IntVar(&app.opts.workers, "workers", config.DefaultWorkers, "files generated in parallel")
	persistent.BoolVarP(&app.opts.verbose, "verbose", "v", false, "log every generated file")

	flags := cmd.Flags()
	flags.StringVarP(&app.opts.outputPath, "output", "o", "", "write output to a file, or mirror the tree into a directory")
	flags.BoolVar(&app.opts.inplace, "inplace", false, "write <module>.md next to each source file")
	flags.BoolVarP(&app.opts.force, "force", "f", false, "overwrite existing files without asking")
	flags.BoolVar(&app.opts.watch, "watch", false, "regenerate when sources change (tree modes only)")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if app.opts.verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := app.loadConfig(cmd, args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return app.execute(ctx, cfg, args)
	}

	cmd.AddCommand(newCompletionCmd(cmd))
	cmd.AddCommand(newDocsCmd(cmd))
	cmd.AddCommand(newServeCmd(app))
	return cmd
}

// loadConfig layers the config file, the environment and explicitly set flags.
func (app *cliApp) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if app.opts.configPath != "" {
		path = app.opts.configPath
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadFromDir(configDir(args))
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		app.log.WithField("config", path).Debug("loaded configuration")
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("private") {
		cfg.Private = app.opts.private
	}
	if flags.Changed("format") {
		cfg.Format = app.opts.format
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = app.opts.ignoreFile
	}
	if flags.Changed("workers") {
		cfg.Workers = app.opts.workers
	}
	if flags.Changed("drop-trailing-block") {
		cfg.DropTrailingBlock = app.opts.dropTrailingBlock
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Serve.Addr = app.opts.addr
	}
	cfg.Exclude = append(cfg.Exclude, app.opts.excludes...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configDir is the directory searched for a config file: the first path
// argument, or its parent when it names a file.
func configDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
		return filepath.Dir(args[0])
	}
	return args[0]
}

func newServeCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Serve generated documentation over HTTP",
		Long: strings.TrimSpace(`
Serve documentation for a source tree, regenerated on every request.

Routes:

  GET /health           liveness check
  GET /api/files        JSON list of sources with summaries and signatures
  GET /docs/<path>.py   one document; add ?format=html for HTML
`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&app.opts.addr, "addr", ":8090", "listen address")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := app.loadConfig(cmd, args)
		if err != nil {
			return err
		}
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		m, err := sources.LoadMatcher(root, cfg.IgnoreFile, cfg.Exclude)
		if err != nil {
			return err
		}
		srv := server.New(root, generate.Options{
			IncludePrivate:    cfg.Private,
			DropTrailingBlock: cfg.DropTrailingBlock,
			Format:            format,
		}, m, app.log)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return srv.ListenAndServe(ctx, cfg.Serve.Addr)
	}
	return cmd
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// newCompletionCmd also registers the dynamic completions used by the
// generated scripts: --format values and Python sources for positionals.
func newCompletionCmd(root *cobra.Command) *cobra.Command {
	root.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{strings.TrimPrefix(sources.Extension, ".")}, cobra.ShellCompDirectiveFilterFileExt
	}
	_ = root.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(render.FormatMarkdown), string(render.FormatHTML)},
		cobra.ShellCompDirectiveNoFileComp,
	))

	cmd := &cobra.Command{
		Use:   "completion [" + strings.Join(completionShells, "|") + "]",
		Short: "Generate shell completion scripts",
		Long: strings.TrimSpace(`
Print a completion script for gendoc. Completed paths are limited to .py
files and directories, and --format offers markdown and html.

  gendoc completion bash > /usr/local/etc/bash_completion.d/gendoc
  gendoc completion zsh > "${fpath[1]}/_gendoc"
  gendoc completion fish | source
  gendoc completion powershell | Out-String | Invoke-Expression
`),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             completionShells,
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		default:
			return root.GenPowerShellCompletionWithDesc(out)
		}
	}
	return cmd
}

func newDocsCmd(root *cobra.Command) *cobra.Command {
	var man bool
	cmd := &cobra.Command{
		Use:   "gen-docs DIR",
		Short: "Generate reference docs for the gendoc CLI",
		Long: strings.TrimSpace(`
Write one page per gendoc command into DIR: Markdown by default, or
section 1 man pages with --man.

  gendoc gen-docs ./docs/cli
  gendoc gen-docs --man /usr/local/share/man/man1
`),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVar(&man, "man", false, "write man pages instead of Markdown")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if err := os.MkdirAll(target, 0o755); err != nil {
			return err
		}
		if man {
			return cobradoc.GenManTree(root, &cobradoc.GenManHeader{
				Title:   "GENDOC",
				Section: "1",
				Source:  "gendoc " + Version,
			}, target)
		}
		return cobradoc.GenMarkdownTree(root, target)
	}
	return cmd
}
