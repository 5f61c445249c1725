// # gendoc
//
// `gendoc` renders Markdown reference documentation from Python source files
// whose docstrings follow the Args/Returns convention:
//
//	def add(a, b):
//	    """Adds two numbers.
//
//	    Args:
//	        a: first operand
//	        b: second operand
//
//	    Returns:
//	        int: the sum
//	    """
//
// becomes
//
//	**add**(_a_, _b_)
//	Adds two numbers.
//	Parameters:
//
//	`a`: first operand
//
//	`b`: second operand
//	Return:
//
//	`int`: the sum
//
//	---
//
// Public functions and methods are rendered in declaration order; public
// classes with a docstring get a heading followed by the raw docstring.
// Nothing is cached: every run regenerates every document from source.
//
// ## Usage
//
//	gendoc [flags] [path...]
//
// Examples:
//
//   - Render one module to stdout:
//
//     gendoc ./pkg/geometry.py
//
//   - Mirror a package tree into a docs folder with a README.md index:
//
//     gendoc -o ./docs ./pkg
//
//   - Write a `<module>.md` next to every source and keep it current:
//
//     gendoc --inplace --watch ./pkg
//
//   - Preview documentation in a browser:
//
//     gendoc serve ./pkg --addr :8090
//
// ## Flags
//
//   - `--private`: include functions whose names start with `_`.
//   - `--format markdown|html`: HTML output is converted with goldmark.
//   - `-o PATH`: a file path writes one document; a directory (or a path
//     without an extension) selects directory mode.
//   - `--inplace`: write next to each source.
//   - `--exclude PATTERN`: gitignore-style, repeatable. `.gitignore` and
//     `.gendocignore` in the source root are always honored; `--ignore-file`
//     replaces `.gitignore`.
//   - `-f`, `--force`: overwrite existing files without the y/N prompt.
//   - `--workers N`: files generated in parallel in tree modes.
//   - `--drop-trailing-block`: discard the last docstring block, reproducing
//     the output of older releases.
//   - `--config FILE`: defaults to `.gendoc.yaml`, `.gendoc.yml` or
//     `gendoc.yaml` next to the sources.
//
// Single-dash long flags such as `-inplace` are accepted too.
//
// ## Configuration
//
//	private: false
//	format: markdown
//	workers: 4
//	exclude:
//	  - tests/
//	drop_trailing_block: false
//	serve:
//	  addr: ":8090"
//
// Every key can be overridden with a `GENDOC_` variable (`GENDOC_FORMAT`,
// `GENDOC_WORKERS`, `GENDOC_EXCLUDE=a/,b.py`, ...) and then by flags.
//
// ## Shell Completion and CLI Docs
//
//	gendoc completion bash > /usr/local/etc/bash_completion.d/gendoc
//	gendoc gen-docs ./docs/cli
package main
