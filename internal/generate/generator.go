// Package generate runs the extract, parse and render pipeline over single
// sources and whole directory trees.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agentflare-ai/gendoc/internal/docstring"
	"github.com/agentflare-ai/gendoc/internal/pysource"
	"github.com/agentflare-ai/gendoc/internal/render"
	"github.com/agentflare-ai/gendoc/internal/sources"
)

type Options struct {
	IncludePrivate    bool
	DropTrailingBlock bool
	Format            render.Format
	// Workers bounds concurrent files in Tree. Values below one mean one.
	Workers int
}

// Result is the generated document for one source file.
type Result struct {
	// RelPath is slash-separated and relative to the tree root, or the base
	// name for a single file.
	RelPath string
	// Summary is the summary block of the module docstring, on one line.
	Summary      string
	Output       []byte
	Declarations int
}

type Generator struct {
	opts     Options
	seg      docstring.Segmenter
	renderer *render.Renderer
	log      logrus.FieldLogger
}

func New(opts Options, log logrus.FieldLogger) *Generator {
	if opts.Format == "" {
		opts.Format = render.FormatMarkdown
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	seg := docstring.Segment
	if opts.DropTrailingBlock {
		seg = docstring.SegmentLegacy
	}
	return &Generator{
		opts:     opts,
		seg:      seg,
		renderer: render.New(render.Options{IncludePrivate: opts.IncludePrivate, Segmenter: seg}),
		log:      log,
	}
}

// Format reports the output format documents are encoded in.
func (g *Generator) Format() render.Format {
	return g.opts.Format
}

// Source generates the document for src. Syntax errors wrap
// pysource.ErrSyntax and carry name.
func (g *Generator) Source(name string, src []byte) (*Result, error) {
	mod, err := pysource.Extract(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var buf bytes.Buffer
	n := g.renderer.Document(&buf, mod.Declarations)
	out, err := g.opts.Format.Encode(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Result{
		RelPath:      name,
		Summary:      g.summary(mod),
		Output:       out,
		Declarations: n,
	}, nil
}

func (g *Generator) summary(mod *pysource.Module) string {
	if mod.Doc == nil {
		return ""
	}
	return strings.Join(strings.Fields(docstring.ParseWith(g.seg, *mod.Doc).Summary), " ")
}

// File reads and generates one source file.
func (g *Generator) File(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return g.Source(filepath.Base(path), src)
}

// Tree generates every source under root that m does not exclude. Files are
// processed concurrently and results come back in path order. A file that
// fails to parse is logged and skipped; any other error stops the run.
func (g *Generator) Tree(ctx context.Context, root string, m *sources.Matcher) ([]*Result, error) {
	files, err := sources.Find(root, m)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, rel := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.File(filepath.Join(root, filepath.FromSlash(rel)))
			if errors.Is(err, pysource.ErrSyntax) {
				g.log.WithError(err).WithField("file", rel).Warn("skipping unparseable source")
				return nil
			}
			if err != nil {
				return err
			}
			res.RelPath = rel
			results[i] = res
			g.log.WithFields(logrus.Fields{
				"file":         rel,
				"declarations": res.Declarations,
			}).Debug("generated")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
