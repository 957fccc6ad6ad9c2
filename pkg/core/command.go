package core

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/remote"
	"github.com/xyproto/env/v2"
)

// バージョンとインストール情報を保持する変数
var (
	versionInfo = ""
)

const (
	// ExitStatusSuccessNoProblem はコマンドが成功し、fail level以上のfindingが無かった場合の終了ステータス
	ExitStatusSuccessNoProblem = 0
	// ExitStatusSuccessProblemFound はコマンドが成功し、fail level以上のfindingが見つかった場合の終了ステータス
	ExitStatusSuccessProblemFound = 1
	// ExitStatusInvalidCommandOption はコマンドラインオプションの解析に失敗した場合の終了ステータス
	ExitStatusInvalidCommandOption = 2
	// ExitStatusFailure はlint中に何らかの致命的なエラーが発生してコマンドが停止した場合の終了ステータス
	ExitStatusFailure = 3
)

func printingUsageHeader(out io.Writer) {
	fmt.Fprintf(out, `Usage: scanalyzer [FLAGS] [FILES|DIRS|URLS...]

scanalyzer is a rule-based static analyzer for JavaScript sources.
It reports unsafe eval, shell injection, inefficient loops, unreachable code
and unused bindings, among others.

To check every JavaScript file of the current project, run it without arguments.
It walks up to the nearest directory holding .scanalyzer.yaml, package.json or .git.

$ scanalyzer

# Read the source from stdin:

$ cat app.js | scanalyzer -stdin-filename app.js -

# Lint remote sources (http, https, file, s3, gs and mem URLs):

$ scanalyzer https://example.com/static/app.js

# SARIF output for code scanning, or a standalone HTML page:

$ scanalyzer -output sarif
$ scanalyzer -output html > report.html

# Only security findings of warning severity or above:

$ scanalyzer -category security -min-severity warning

Environment:
  SCANALYZER_CONFIG  default for -config-file
  SCANALYZER_FORMAT  default for -format
  NO_COLOR           disables colored output unless -color is given

Flags:
`)
}

func getCommandVersion() string {
	var buildInfos []byte
	toolVersion := "unknown"
	if versionInfo != "" {
		toolVersion = "v" + versionInfo
	}
	buildInfos = fmt.Appendf(buildInfos, "Tool version: %s\n", toolVersion)
	buildInfos = fmt.Appendf(buildInfos, "Go version: %s\n", runtime.Version())
	buildInfos = fmt.Appendf(buildInfos, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	info, ok := debug.ReadBuildInfo()
	if ok {
		buildInfos = fmt.Appendf(buildInfos, "Build info:\n")
		for _, setting := range info.Settings {
			if setting.Key == "-buildmode" || setting.Key == "-compiler" ||
				strings.HasPrefix(setting.Key, "GO") ||
				strings.HasPrefix(setting.Key, "vcs") {
				buildInfos = fmt.Appendf(buildInfos, "%s=%s\n", setting.Key, setting.Value)
			}
		}
	}

	return string(buildInfos)
}

// Commandは全体のscanalyzerコマンドを表します。与えられたstdin/stdout/stderrは入出力に使用
type Command struct {
	// Stdinはstdinから入力を読み込むためのリーダーです
	Stdin io.Reader
	// Stdoutはstdoutに出力を書き込むためのライターです
	Stdout io.Writer
	// Stderrはstderrに出力を書き込むためのライターです
	Stderr io.Writer
}

// linterを実行して結果を返すメソッド
func (cmd *Command) runLint(ctx context.Context, args []string, linterOpts *LinterOptions, initConfig bool, remoteDepth int) ([]*Report, error) {
	l, err := NewLinter(cmd.Stdout, linterOpts)
	if err != nil {
		return nil, err
	}

	if initConfig {
		return nil, l.GenerateDefaultConfig(".")
	}

	reports, err := cmd.collectReports(ctx, l, args, linterOpts, remoteDepth)
	if err != nil {
		return nil, err
	}
	if err := l.FormatReports(reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// collectReportsは、引数の種類ごとにlintしてすべてのreportを返す
func (cmd *Command) collectReports(ctx context.Context, l *Linter, args []string, linterOpts *LinterOptions, remoteDepth int) ([]*Report, error) {
	if len(args) == 0 {
		return l.LintRepository(ctx, ".")
	}

	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return nil, fmt.Errorf("could not read stdin: %w", err)
		}
		n := "<stdin>"
		if linterOpts.StdinInputFileName != "" {
			n = linterOpts.StdinInputFileName
		}
		report, err := l.Lint(ctx, n, b, nil)
		if err != nil {
			return nil, err
		}
		return []*Report{report}, nil
	}

	var files, dirs, urls []string
	for _, arg := range args {
		input, err := remote.ParseInput(arg)
		if err != nil {
			return nil, err
		}
		if input.Type == remote.InputTypeURL {
			urls = append(urls, input.URL)
			continue
		}
		if s, err := os.Stat(input.Path); err == nil && s.IsDir() {
			dirs = append(dirs, input.Path)
		} else {
			files = append(files, input.Path)
		}
	}

	var reports []*Report
	if len(files) > 0 {
		rs, err := l.LintFiles(ctx, files, nil)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rs...)
	}
	for _, dir := range dirs {
		rs, err := l.LintDir(ctx, dir, nil)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rs...)
	}
	if len(urls) > 0 {
		rs, err := cmd.lintRemote(ctx, l, urls, linterOpts, remoteDepth)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rs...)
	}
	return reports, nil
}

func (cmd *Command) lintRemote(ctx context.Context, l *Linter, urls []string, linterOpts *LinterOptions, depth int) ([]*Report, error) {
	var reports []*Report
	scanner, err := remote.NewScanner(&remote.ScannerOptions{
		Parallelism: runtime.NumCPU(),
		Recursive:   depth > 0,
		MaxDepth:    depth,
		Verbose:     linterOpts.IsVerboseOutputEnabled || linterOpts.IsDebugOutputEnabled,
		Output:      cmd.Stderr,
		LintFunc: func(path string, content []byte) (bool, error) {
			report, err := l.Lint(ctx, path, content, nil)
			if err != nil {
				return false, err
			}
			reports = append(reports, report)
			return len(report.Findings) > 0, nil
		},
	})
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		results, err := scanner.Scan(ctx, u)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Error != nil {
				return nil, r.Error
			}
		}
	}
	return reports, nil
}

type ignorePatternFlags []string

func (i *ignorePatternFlags) String() string {
	return "option for ignore patterns"
}
func (i *ignorePatternFlags) Set(v string) error {
	*i = append(*i, v)
	return nil
}

type categoryFlags []string

func (c *categoryFlags) String() string {
	return "option for categories"
}
func (c *categoryFlags) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if _, err := ParseCategory(strings.TrimSpace(name)); err != nil {
			return err
		}
		*c = append(*c, strings.TrimSpace(name))
	}
	return nil
}

// outputFormatsは、-outputの値と対応する-formatのテンプレート
var outputFormats = map[string]string{
	"text":  "",
	"json":  "{{json .}}",
	"sarif": "{{sarif .}}",
	"html":  "{{htmlReport .}}",
}

func parseColorOption(s string) (OutputColorBehavior, error) {
	switch s {
	case "auto":
		return AutoColor, nil
	case "always":
		return AlwaysColor, nil
	case "never":
		return NeverColor, nil
	}
	return AutoColor, fmt.Errorf("invalid value for -color: %q, must be one of auto, always, never", s)
}

// scanalyzerのmain関数
func (cmd *Command) Main(args []string) int {
	var showVersion bool
	var linterOpts LinterOptions
	var ignorePats ignorePatternFlags
	var initConfig bool
	var failLevel string
	var colorOption string
	var remoteDepth int
	var categories categoryFlags
	var output string

	defaultColor := "auto"
	if env.Str("NO_COLOR") != "" {
		defaultColor = "never"
	}

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(cmd.Stderr)
	flags.Var(&ignorePats, "ignore", "Regular expression matching to rule ids of findings you want to ignore. This flag is repeatable")
	flags.StringVar(&linterOpts.CustomErrorMessageFormat, "format", env.Str("SCANALYZER_FORMAT"), "Custom template to format findings in Go template syntax.")
	flags.StringVar(&linterOpts.ConfigurationFilePath, "config-file", env.Str("SCANALYZER_CONFIG"), "File path to config file")
	flags.StringVar(&failLevel, "fail-level", "error", "Minimum severity that makes the command exit with 1: error, warning or info")
	flags.StringVar(&linterOpts.MinimumSeverity, "min-severity", "info", "Minimum severity of reported findings: error, warning or info")
	flags.Var(&categories, "category", "Category of findings to report: security, performance, style or logic. This flag is repeatable and accepts comma separated values")
	flags.StringVar(&output, "output", "text", "Output format: text, json, sarif or html. Cannot be combined with -format")
	flags.BoolVar(&initConfig, "init", false, "Generate default config file at .scanalyzer.yaml in current project")
	flags.BoolVar(&linterOpts.IsVerboseOutputEnabled, "verbose", false, "Enable verbose output")
	flags.BoolVar(&linterOpts.IsDebugOutputEnabled, "debug", false, "Enable debug output (for development)")
	flags.StringVar(&colorOption, "color", defaultColor, "Colorize output: auto, always or never")
	flags.BoolVar(&showVersion, "version", false, "Show version and how this binary was installed")
	flags.StringVar(&linterOpts.StdinInputFileName, "stdin-filename", "", "File name when reading input from stdin")
	flags.IntVar(&linterOpts.Parallelism, "parallel", 0, "Number of rules evaluated at once per file. 0 means the number of CPUs")
	flags.DurationVar(&linterOpts.RuleTimeout, "rule-timeout", 0, "Time budget of one rule on one file, e.g. 5s. 0 means no limit")
	flags.IntVar(&remoteDepth, "remote-depth", 0, "Follow relative imports of remote files up to this depth")

	flags.Usage = func() {
		printingUsageHeader(cmd.Stderr)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			// -h or -help
			return ExitStatusSuccessNoProblem
		}
		return ExitStatusInvalidCommandOption
	}

	if showVersion {
		fmt.Fprintf(
			cmd.Stdout,
			"%s",
			getCommandVersion(),
		)
		return ExitStatusSuccessNoProblem
	}

	level, err := ParseSeverity(failLevel)
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "invalid value for -fail-level: %v\n", err)
		return ExitStatusInvalidCommandOption
	}
	linterOpts.OutputColorOption, err = parseColorOption(colorOption)
	if err != nil {
		fmt.Fprintln(cmd.Stderr, err.Error())
		return ExitStatusInvalidCommandOption
	}
	if _, err := ParseSeverity(linterOpts.MinimumSeverity); err != nil {
		fmt.Fprintf(cmd.Stderr, "invalid value for -min-severity: %v\n", err)
		return ExitStatusInvalidCommandOption
	}
	preset, ok := outputFormats[output]
	if !ok {
		fmt.Fprintf(cmd.Stderr, "invalid value for -output: %q, must be one of text, json, sarif, html\n", output)
		return ExitStatusInvalidCommandOption
	}
	if preset != "" {
		// SCANALYZER_FORMAT is only a default, -output replaces it
		formatGiven := false
		flags.Visit(func(f *flag.Flag) {
			if f.Name == "format" {
				formatGiven = true
			}
		})
		if formatGiven {
			fmt.Fprintln(cmd.Stderr, "-output and -format cannot be used together")
			return ExitStatusInvalidCommandOption
		}
		linterOpts.CustomErrorMessageFormat = preset
	}
	if remoteDepth < 0 {
		fmt.Fprintln(cmd.Stderr, "invalid value for -remote-depth: must not be negative")
		return ExitStatusInvalidCommandOption
	}

	linterOpts.ErrorIgnorePatterns = ignorePats
	linterOpts.Categories = categories
	linterOpts.LogOutputDestination = cmd.Stderr

	reports, err := cmd.runLint(context.Background(), flags.Args(), &linterOpts, initConfig, remoteDepth)
	if err != nil {
		fmt.Fprintln(cmd.Stderr, err.Error())
		return ExitStatusFailure
	}
	for _, r := range reports {
		if r.AtOrAbove(level) > 0 {
			return ExitStatusSuccessProblemFound
		}
	}

	return ExitStatusSuccessNoProblem
}
