package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agentflare-ai/gendoc/internal/config"
	"github.com/agentflare-ai/gendoc/internal/generate"
	"github.com/agentflare-ai/gendoc/internal/render"
	"github.com/agentflare-ai/gendoc/internal/sources"
)

var errOverwriteDeclined = errors.New("not overwriting existing files")

type options struct {
	private           bool
	format            string
	outputPath        string
	inplace           bool
	force             bool
	excludes          []string
	ignoreFile        string
	workers           int
	configPath        string
	dropTrailingBlock bool
	watch             bool
	verbose           bool
	addr              string
}

type cliApp struct {
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
	opts   options
	log    *logrus.Logger
	// confirmed is set once overwriting has been approved for this run.
	confirmed bool
}

func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(normalizeLegacyArgs(argv))
	return cmd.ExecuteContext(ctx)
}

// job is one resolved invocation.
type job struct {
	cfg    *config.Config
	gen    *generate.Generator
	format render.Format
	root   string
}

func (app *cliApp) execute(ctx context.Context, cfg *config.Config, positionals []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := app.opts
	if opts.inplace && opts.outputPath != "" {
		return errors.New("--output cannot be combined with --inplace")
	}
	treeMode := opts.inplace || wantsDirectoryOutput(opts.outputPath)
	if opts.watch && !treeMode {
		return errors.New("--watch requires --inplace or a directory --output")
	}
	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	gen := generate.New(generate.Options{
		IncludePrivate:    cfg.Private,
		DropTrailingBlock: cfg.DropTrailingBlock,
		Format:            format,
		Workers:           cfg.Workers,
	}, app.log)

	if len(positionals) == 0 {
		positionals = []string{"."}
	}
	if !treeMode {
		return app.documentFiles(gen, positionals)
	}
	if len(positionals) > 1 {
		return errors.New("directory and in-place output accept at most one path argument")
	}
	j := &job{cfg: cfg, gen: gen, format: format, root: positionals[0]}
	if err := app.documentTree(ctx, j); err != nil {
		return err
	}
	if opts.watch {
		return app.watch(ctx, j)
	}
	return nil
}

// documentFiles renders each named source and writes the concatenation to
// stdout or the single output file.
func (app *cliApp) documentFiles(gen *generate.Generator, paths []string) error {
	var buf bytes.Buffer
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory; use --output DIR or --inplace", p)
		}
		res, err := gen.File(p)
		if err != nil {
			return err
		}
		app.log.WithFields(logrus.Fields{"file": p, "declarations": res.Declarations}).Debug("generated")
		buf.Write(res.Output)
	}
	if target := app.opts.outputPath; target != "" && target != "-" {
		if err := app.confirmOverwrite([]string{target}); err != nil {
			return err
		}
	}
	return writeOutput(app.opts.outputPath, app.stdout, buf.Bytes())
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var legacyLongFlagSet = map[string]struct{}{
	"private":             {},
	"inplace":             {},
	"output":              {},
	"force":               {},
	"format":              {},
	"exclude":             {},
	"ignore-file":         {},
	"workers":             {},
	"config":              {},
	"drop-trailing-block": {},
	"watch":               {},
	"verbose":             {},
	"addr":                {},
}

// normalizeLegacyArgs rewrites single-dash long flags such as -inplace into
// their double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	modified := false
	converted := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			converted = append(converted, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") || len(arg) <= 2 {
			converted = append(converted, arg)
			continue
		}
		name, value, hasValue := strings.Cut(arg[1:], "=")
		if _, ok := legacyLongFlagSet[name]; ok {
			if hasValue {
				converted = append(converted, "--"+name+"="+value)
			} else {
				converted = append(converted, "--"+name)
			}
			modified = true
			continue
		}
		converted = append(converted, arg)
	}
	if !modified {
		return args
	}
	return converted
}

func wantsDirectoryOutput(path string) bool {
	if path == "" || path == "-" {
		return false
	}
	info, err := os.Stat(path)
	if err == nil {
		return info.IsDir()
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		return true
	}
	return filepath.Ext(path) == ""
}

// plannedWrite is a file the current run is about to produce.
type plannedWrite struct {
	path string
	data []byte
}

func (app *cliApp) documentTree(ctx context.Context, j *job) error {
	results, baseDir, err := app.collectDocs(ctx, j)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no Python sources found under %q", j.root)
	}
	var writes []plannedWrite
	if app.opts.inplace {
		writes = planInPlace(baseDir, results, j.format)
	} else {
		writes, err = planDirectory(app.opts.outputPath, filepath.Base(absolutePath(baseDir)), results, j.format)
		if err != nil {
			return err
		}
	}
	var paths []string
	for _, w := range writes {
		paths = append(paths, w.path)
	}
	if err := app.confirmOverwrite(paths); err != nil {
		return err
	}
	for _, w := range writes {
		if err := writeOutput(w.path, nil, w.data); err != nil {
			return err
		}
		app.log.WithField("output", w.path).Debug("wrote")
	}
	// Later regenerations in this run replace only what was just written.
	app.confirmed = true
	app.log.WithFields(logrus.Fields{"files": len(results), "root": j.root}).Info("documentation generated")
	return nil
}

// collectDocs generates every source under j.root, or the single file it
// names, and returns the directory result paths are relative to.
func (app *cliApp) collectDocs(ctx context.Context, j *job) ([]*generate.Result, string, error) {
	info, err := os.Stat(j.root)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		res, err := j.gen.File(j.root)
		if err != nil {
			return nil, "", err
		}
		return []*generate.Result{res}, filepath.Dir(j.root), nil
	}
	m, err := sources.LoadMatcher(j.root, j.cfg.IgnoreFile, j.cfg.Exclude)
	if err != nil {
		return nil, "", err
	}
	results, err := j.gen.Tree(ctx, j.root, m)
	if err != nil {
		return nil, "", err
	}
	return results, j.root, nil
}

func absolutePath(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

// docName maps a source path to its document path with the format's
// extension.
func docName(rel string, format render.Format) string {
	return strings.TrimSuffix(rel, sources.Extension) + format.Extension()
}

func indexName(format render.Format) string {
	if format == render.FormatHTML {
		return "index.html"
	}
	return "README.md"
}

type tocEntry struct {
	title   string
	link    string
	summary string
}

func planInPlace(baseDir string, results []*generate.Result, format render.Format) []plannedWrite {
	writes := make([]plannedWrite, 0, len(results))
	for _, res := range results {
		writes = append(writes, plannedWrite{
			path: filepath.Join(baseDir, filepath.FromSlash(docName(res.RelPath, format))),
			data: res.Output,
		})
	}
	return writes
}

// planDirectory mirrors the source tree under outDir and adds an index
// linking every document.
func planDirectory(outDir, title string, results []*generate.Result, format render.Format) ([]plannedWrite, error) {
	if outDir == "" {
		return nil, errors.New("missing output directory")
	}
	sorted := append([]*generate.Result(nil), results...)
	sort.Slice(sorted, func(i, k int) bool {
		return sorted[i].RelPath < sorted[k].RelPath
	})
	writes := make([]plannedWrite, 0, len(sorted)+1)
	entries := make([]tocEntry, 0, len(sorted))
	var intro string
	for _, res := range sorted {
		link := docName(res.RelPath, format)
		writes = append(writes, plannedWrite{
			path: filepath.Join(outDir, filepath.FromSlash(link)),
			data: res.Output,
		})
		entries = append(entries, tocEntry{
			title:   res.RelPath,
			link:    link,
			summary: strings.TrimSpace(res.Summary),
		})
		if res.RelPath == "__init__.py" {
			intro = res.Summary
		}
	}
	head := fmt.Sprintf("# %s\n", title)
	if intro != "" {
		head += "\n" + intro + "\n"
	}
	index, err := format.Encode(appendTOCAfterDoc([]byte(head), buildTOC(entries)))
	if err != nil {
		return nil, err
	}
	writes = append(writes, plannedWrite{path: filepath.Join(outDir, indexName(format)), data: index})
	return writes, nil
}

func appendTOCAfterDoc(doc []byte, toc []byte) []byte {
	if len(toc) == 0 {
		return append([]byte{}, doc...)
	}
	if len(doc) == 0 {
		return append([]byte{}, toc...)
	}
	content := append([]byte{}, doc...)
	if !bytes.HasSuffix(content, []byte("\n\n")) {
		if bytes.HasSuffix(content, []byte("\n")) {
			content = append(content, '\n')
		} else {
			content = append(content, '\n', '\n')
		}
	}
	content = append(content, toc...)
	return content
}

func buildTOC(entries []tocEntry) []byte {
	if len(entries) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteString("## Modules\n\n")
	for _, entry := range entries {
		if entry.summary != "" {
			fmt.Fprintf(&buf, "- [%s](%s): %s\n", entry.title, entry.link, entry.summary)
		} else {
			fmt.Fprintf(&buf, "- [%s](%s)\n", entry.title, entry.link)
		}
	}
	buf.WriteString("\n")
	return buf.Bytes()
}

// confirmOverwrite asks once per run before replacing existing files.
// Answers other than y or yes decline.
func (app *cliApp) confirmOverwrite(paths []string) error {
	if app.opts.force || app.confirmed {
		return nil
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if len(existing) == 1 {
		fmt.Fprintf(app.stderr, "%s already exists. Overwrite? [y/N] ", existing[0])
	} else {
		fmt.Fprintf(app.stderr, "%d files already exist, including %s. Overwrite? [y/N] ", len(existing), existing[0])
	}
	line, err := app.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		app.confirmed = true
		return nil
	default:
		return errOverwriteDeclined
	}
}
