package remote

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LintFunc はソースをスキャンする関数の型
type LintFunc func(path string, content []byte) (hasErrors bool, err error)

// Scanner はリモートのソースを取得してスキャンする
type Scanner struct {
	fetcher     *Fetcher
	parallelism int
	recursive   bool
	maxDepth    int
	verbose     bool
	output      io.Writer
	lintFunc    LintFunc
}

// ScanResult はスキャン結果を表す
type ScanResult struct {
	URL       string
	HasErrors bool  // findingがあったかどうか
	Error     error // 取得またはlintのエラー
}

// ScannerOptions はスキャナーのオプションを表す
type ScannerOptions struct {
	Parallelism int
	// Recursive は相対パスでimport/requireされたファイルも取得する
	Recursive bool
	MaxDepth  int
	Verbose   bool
	Output    io.Writer
	LintFunc  LintFunc
}

// NewScanner は新しいScannerを作成する
func NewScanner(opts *ScannerOptions) (*Scanner, error) {
	if opts.LintFunc == nil {
		return nil, fmt.Errorf("LintFunc is not set")
	}
	output := opts.Output
	if output == nil {
		output = io.Discard
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scanner{
		fetcher:     NewFetcher(),
		parallelism: parallelism,
		recursive:   opts.Recursive,
		maxDepth:    opts.MaxDepth,
		verbose:     opts.Verbose,
		output:      output,
		lintFunc:    opts.LintFunc,
	}, nil
}

// Scan はURLのソースを取得してスキャンする。取得は並行に行い、lintは取得順に行う
func (s *Scanner) Scan(ctx context.Context, input string) ([]*ScanResult, error) {
	parsedInput, err := ParseInput(input)
	if err != nil {
		return nil, err
	}
	if parsedInput.Type != InputTypeURL {
		return nil, fmt.Errorf("not a URL: %s", input)
	}

	files, err := s.fetcher.Fetch(ctx, parsedInput.URL)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JavaScript files found at %s", input)
	}
	if s.verbose {
		fmt.Fprintf(s.output, "Found %d files to scan at %s\n", len(files), input)
	}

	if s.recursive {
		files = s.fetchDependencies(ctx, files)
	}

	results := make([]*ScanResult, 0, len(files))
	for _, f := range files {
		hasErrors, err := s.lintFunc(f.URL, f.Content)
		if err != nil && s.verbose {
			fmt.Fprintf(s.output, "Error scanning %s: %v\n", f.URL, err)
		}
		results = append(results, &ScanResult{URL: f.URL, HasErrors: hasErrors, Error: err})
	}
	return results, nil
}

// fetchDependencies は相対importを幅優先にmaxDepthまでたどって取得する
func (s *Scanner) fetchDependencies(ctx context.Context, roots []*SourceFile) []*SourceFile {
	scanned := make(map[string]bool) // 無限ループ防止用
	for _, f := range roots {
		scanned[f.URL] = true
	}
	all := append([]*SourceFile{}, roots...)
	level := roots
	for depth := 0; depth < s.maxDepth && len(level) > 0; depth++ {
		var next []string
		for _, f := range level {
			for _, dep := range extractRelativeImports(f.URL, f.Content) {
				if !scanned[dep] {
					scanned[dep] = true
					next = append(next, dep)
				}
			}
		}
		if s.verbose && len(next) > 0 {
			indent := strings.Repeat("  ", depth+1)
			fmt.Fprintf(s.output, "%sFound %d imported files\n", indent, len(next))
		}
		level = s.fetchAll(ctx, next)
		all = append(all, level...)
	}
	return all
}

// fetchAll は並行にファイルを取得する。取得に失敗したファイルは飛ばす
func (s *Scanner) fetchAll(ctx context.Context, urls []string) []*SourceFile {
	files := make([]*SourceFile, len(urls))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)
	var mu sync.Mutex
	for i, u := range urls {
		eg.Go(func() error {
			f, err := s.fetcher.FetchFile(ctx, u)
			if err != nil {
				if s.verbose {
					mu.Lock()
					fmt.Fprintf(s.output, "Failed to fetch imported file %s: %v\n", u, err)
					mu.Unlock()
				}
				return nil
			}
			files[i] = f
			return nil
		})
	}
	_ = eg.Wait()

	out := files[:0]
	for _, f := range files {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

var relativeImport = regexp.MustCompile(`(?:\brequire\s*\(\s*|\bfrom\s+|\bimport\s*\(?\s*)["'](\.{1,2}/[^"'\s]+)["']`)

// extractRelativeImports は相対パスのrequire/importを解決したURLを返す
// 拡張子が無い場合は.jsを補う
func extractRelativeImports(base string, content []byte) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}
	var deps []string
	seen := map[string]bool{}
	for _, m := range relativeImport.FindAllSubmatch(content, -1) {
		specifier := string(m[1])
		if path.Ext(specifier) == "" {
			specifier += ".js"
		}
		ref, err := url.Parse(specifier)
		if err != nil {
			continue
		}
		resolved := baseURL.ResolveReference(ref).String()
		if !seen[resolved] {
			seen[resolved] = true
			deps = append(deps, resolved)
		}
	}
	return deps
}
