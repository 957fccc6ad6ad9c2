package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
	"golang.org/x/sync/errgroup"
)

// SyntaxCheckRuleID is the rule id of findings made from parse errors when
// linting files.
const SyntaxCheckRuleID = "syntax-check"

// LogLevel は Linter インスタンスで使用されるログレベルを表す型
type LogLevel int

const (
	// LogLevelNoOutputは、ログ出力が無いことを示す。
	LogLevelNoOutput LogLevel = 0
	// LogLevelDetailedOutputは、詳細なログ出力が有効であることを示す。
	LogLevelDetailedOutput = 1
	// LogLevelAllOutputIncludingDebugは、デバッグ情報を含むすべてのログ出力が有効であることを示す。
	LogLevelAllOutputIncludingDebug = 2
)

// OutputColorBehaviorは、出力の色付けの挙動を表す
type OutputColorBehavior int

const (
	// AutoColorは、出力の色付けを自動的に決定
	AutoColor OutputColorBehavior = iota
	// AlwaysColorは、常に出力を色付け
	AlwaysColor
	// NeverColorは、出力を色付けしない
	NeverColor
)

// sourceExtensions are the file extensions linted when walking directories.
var sourceExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// この構造体は、NewLinter factory関数の呼び出しで使用
// 0値LinterOptions{}は、デフォルトの挙動
type LinterOptions struct {
	// IsVerboseOutputEnabledは、詳細なログ出力が有効であるかどうかを示すflag
	IsVerboseOutputEnabled bool
	// IsDebugOutputEnabledは、Debuglogの出力が有効であるかどうかを示すflag
	IsDebugOutputEnabled bool
	// LogOutputDestinationは、ログ出力を出力するためのio.Writerオブジェクト
	LogOutputDestination io.Writer
	// OutputColorOptionは、エラー出力の色付けのオプション
	OutputColorOption OutputColorBehavior
	// ErrorIgnorePatternsは、rule idに対してマッチさせ、findingを除外する正規表現のリスト
	ErrorIgnorePatterns []string
	// ConfigurationFilePathは、設定ファイルのパス
	ConfigurationFilePath string
	// CustomErrorMessageFormatは、findingをフォーマットするためのカスタムテンプレート
	// 設定した場合、Lint系のメソッドは何も出力せず、FormatReportsでまとめて出力する
	CustomErrorMessageFormat string
	// Categoriesは、報告するfindingのcategory。空の場合はすべて
	Categories []string
	// MinimumSeverityは、報告するfindingの最低severity。空の場合はinfo
	MinimumSeverity string
	// StdinInputFileNameは、標準入力から読み込む際のファイル名
	StdinInputFileName string
	// CurrentWorkingDirectoryPathは、現在の作業ディレクトリのパス
	CurrentWorkingDirectoryPath string
	// Parallelismは、1ファイルあたり同時に実行するruleの数。0の場合はCPU数
	Parallelism int
	// RuleTimeoutは、1つのruleに許される実行時間。0の場合は無制限
	RuleTimeout time.Duration
	// OnCheckRulesModifiedは、ruleの追加や削除を行うフック
	OnCheckRulesModified func([]Rule) []Rule
}

// Linterは、JavaScriptのソースをlintするための構造体
type Linter struct {
	projectInformation      *Projects
	errorOutput             io.Writer
	logOutput               io.Writer
	loggingLevel            LogLevel
	errorIgnorePatterns     []*regexp.Regexp
	defaultConfiguration    *Config
	errorFormatter          *ErrorFormatter
	currentWorkingDirectory string
	modifyCheckRules        func([]Rule) []Rule
	categories              map[Category]bool
	minimumSeverity         Severity
	parallelism             int
	ruleTimeout             time.Duration

	policiesMu sync.Mutex
	policies   map[*Config]*PolicySet
}

// NewLinterは新しいLinterインスタンスを作成する
// errorOutputパラメータは、findingの出力に使用される。出力を望まない場合は、io.Discardを設定してください。
// optionsパラメータは、lintの動作を設定するLinterOptionsインスタンス
func NewLinter(errorOutput io.Writer, options *LinterOptions) (*Linter, error) {
	var logLevel = LogLevelNoOutput
	if options.IsDebugOutputEnabled {
		logLevel = LogLevelAllOutputIncludingDebug
	} else if options.IsVerboseOutputEnabled {
		logLevel = LogLevelDetailedOutput
	}
	switch options.OutputColorOption {
	case NeverColor:
		color.NoColor = true
	case AlwaysColor:
		color.NoColor = false
	}
	//カラフル出力
	if file, ok := errorOutput.(*os.File); ok {
		errorOutput = colorable.NewColorable(file)
	}

	logOutput := io.Discard
	if options.LogOutputDestination != nil {
		logOutput = options.LogOutputDestination
	}

	//設定ファイルの読み込み
	var config *Config
	if options.ConfigurationFilePath != "" {
		con, err := ReadConfigFile(options.ConfigurationFilePath)
		if err != nil {
			return nil, err
		}
		config = con
	}

	ignorePatterns := make([]*regexp.Regexp, len(options.ErrorIgnorePatterns))
	for i, pattern := range options.ErrorIgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid error ignore pattern : %q : %w", pattern, err)
		}
		ignorePatterns[i] = re
	}

	var categories map[Category]bool
	for _, name := range options.Categories {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if categories == nil {
			categories = map[Category]bool{}
		}
		categories[c] = true
	}

	minimumSeverity := SeverityInfo
	if options.MinimumSeverity != "" {
		sev, err := ParseSeverity(options.MinimumSeverity)
		if err != nil {
			return nil, err
		}
		minimumSeverity = sev
	}

	var errorFormatter *ErrorFormatter
	if options.CustomErrorMessageFormat != "" {
		formatter, err := NewErrorFormatter(options.CustomErrorMessageFormat)
		if err != nil {
			return nil, err
		}
		errorFormatter = formatter
	}

	workDir := options.CurrentWorkingDirectoryPath
	if workDir == "" {
		if dir, err := os.Getwd(); err == nil {
			workDir = dir
		}
	}

	parallelism := options.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	l := &Linter{
		projectInformation:      NewProjects(),
		errorOutput:             errorOutput,
		logOutput:               logOutput,
		loggingLevel:            logLevel,
		errorIgnorePatterns:     ignorePatterns,
		defaultConfiguration:    config,
		errorFormatter:          errorFormatter,
		currentWorkingDirectory: workDir,
		modifyCheckRules:        options.OnCheckRulesModified,
		categories:              categories,
		minimumSeverity:         minimumSeverity,
		parallelism:             parallelism,
		ruleTimeout:             options.RuleTimeout,
		policies:                map[*Config]*PolicySet{},
	}
	// policyのコンパイルエラーはここで返す
	if _, err := l.policySetFor(context.Background(), config); err != nil {
		return nil, err
	}
	return l, nil
}

// logはlog levelがDetailedOutput以上の場合にログを出力する
func (l *Linter) log(args ...interface{}) {
	if l.loggingLevel < LogLevelDetailedOutput {
		return
	}
	fmt.Fprint(l.logOutput, "[scanalyzer] ")
	fmt.Fprintln(l.logOutput, args...)
}

// debugはlog levelがAllOutputIncludingDebug以上の場合にログを出力する
func (l *Linter) debug(format string, args ...interface{}) {
	if l.loggingLevel < LogLevelAllOutputIncludingDebug {
		return
	}
	message := fmt.Sprintf("[linter mode] %s\n", format)
	fmt.Fprintf(l.logOutput, message, args...)
}

// debugWriterはlog levelがAllOutputIncludingDebugの場合にのみログ出力先を返す
func (l *Linter) debugWriter() io.Writer {
	if l.loggingLevel < LogLevelAllOutputIncludingDebug {
		return nil
	}
	return l.logOutput
}

// GenerateDefaultConfigは、-init指定の時に、projectのrootにデフォルトの configファイルを生成する
func (l *Linter) GenerateDefaultConfig(dir string) error {
	l.log("generating default config file...", dir)

	root := getAbsolutePath(dir)
	project, err := l.projectInformation.GetProjectForPath(dir)
	if err != nil {
		return err
	}
	if project != nil {
		root = project.RootDirectory()
	}

	for _, name := range ConfigFileNames {
		if p := filepath.Join(root, name); fileExists(p) {
			return fmt.Errorf("config file already exists: %q", p)
		}
	}
	configPath := filepath.Join(root, ConfigFileNames[0])
	if err := writeDefaultConfigFile(configPath); err != nil {
		return err
	}

	fmt.Fprintf(l.errorOutput, "generated default config file: %q\n", configPath)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// policySetFor returns the compiled policies of a config. A nil config uses
// only the builtin policy.
func (l *Linter) policySetFor(ctx context.Context, cfg *Config) (*PolicySet, error) {
	l.policiesMu.Lock()
	defer l.policiesMu.Unlock()
	if p, ok := l.policies[cfg]; ok {
		return p, nil
	}
	p, err := NewPolicySet(ctx, cfg.PolicyFiles())
	if err != nil {
		return nil, err
	}
	l.policies[cfg] = p
	return p, nil
}

// configForは、-config-fileで指定された設定、もしくはprojectの設定を返す
func (l *Linter) configFor(project *Project) *Config {
	if l.defaultConfiguration != nil {
		return l.defaultConfiguration
	}
	if project != nil {
		return project.ProjectConfig()
	}
	return nil
}

// LintRepositoryは、指定されたディレクトリを含むprojectをlintする
func (l *Linter) LintRepository(ctx context.Context, dir string) ([]*Report, error) {
	l.log("linting repository...", dir)

	project, err := l.projectInformation.GetProjectForPath(dir)
	if err != nil {
		return nil, err
	}
	if project == nil {
		l.log("no project found, linting", dir)
		return l.LintDir(ctx, dir, nil)
	}
	l.log("Detected project:", project.RootDirectory())
	return l.LintDir(ctx, project.RootDirectory(), project)
}

// LintDirは、指定されたディレクトリ以下のJavaScriptファイルをLint
func (l *Linter) LintDir(ctx context.Context, dir string, project *Project) ([]*Report, error) {
	if project == nil {
		p, err := l.projectInformation.GetProjectForPath(dir)
		if err != nil {
			return nil, err
		}
		project = p
	}
	cfg := l.configFor(project)

	files := make([]string, 0, 10)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		if info.IsDir() {
			if path != dir && cfg.IsExcluded(filepath.ToSlash(rel)+"/") {
				l.debug("skipping excluded directory %s", path)
				return filepath.SkipDir
			}
			return nil
		}
		if isSourceFile(path) && !cfg.IsExcluded(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("it could not read %q , failed to walk directory: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no JavaScript files found in %q", dir)
	}
	l.log("the number of collected JavaScript files:", len(files))

	sort.Strings(files)

	return l.LintFiles(ctx, files, project)
}

func isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LintFilesは、指定されたファイルを並行してlintし、reportを返す
// projectパラメタはnilにできる。その場合、ファイルパスからプロジェクトが検出される
func (l *Linter) LintFiles(ctx context.Context, filepaths []string, project *Project) ([]*Report, error) {
	fileCount := len(filepaths)
	switch fileCount {
	case 0:
		return nil, nil
	case 1:
		report, err := l.LintFile(ctx, filepaths[0], project)
		if err != nil {
			return nil, err
		}
		return []*Report{report}, nil
	}

	l.log("linting", fileCount, "files...")

	currentDir := l.currentWorkingDirectory

	type workspace struct {
		path    string
		project *Project
		report  *Report
	}

	workspaces := make([]workspace, len(filepaths))
	for i, pa := range filepaths {
		localProject := project
		if localProject == nil {
			// このメソッドはl.projectInformationの状態を変更するため、並行して呼び出せない。
			projectForPath, err := l.projectInformation.GetProjectForPath(pa)
			if err != nil {
				return nil, err
			}
			localProject = projectForPath
		}
		workspaces[i] = workspace{path: pa, project: localProject}
	}

	errorGroups, groupCtx := errgroup.WithContext(ctx)
	errorGroups.SetLimit(l.parallelism)
	for i := range workspaces {
		ws := &workspaces[i]
		errorGroups.Go(func() error {
			source, err := os.ReadFile(ws.path)
			if err != nil {
				return fmt.Errorf("%q could not read source file: %w", ws.path, err)
			}
			if currentDir != "" {
				if relPath, err := filepath.Rel(currentDir, ws.path); err == nil {
					ws.path = relPath //相対パスの活用
				}
			}
			report, err := l.lintSource(groupCtx, ws.path, source, ws.project)
			if err != nil {
				return fmt.Errorf("occur error when check %s: %w", ws.path, err)
			}
			ws.report = report
			return nil
		})
	}

	if err := errorGroups.Wait(); err != nil {
		return nil, err
	}

	totalFindings := 0
	reports := make([]*Report, 0, len(workspaces))
	for i := range workspaces {
		totalFindings += len(workspaces[i].report.Findings)
		reports = append(reports, workspaces[i].report)
	}

	l.printReports(reports)
	l.log("Detected", totalFindings, "findings in", fileCount, "files checked")

	return reports, nil
}

// LintFileは、指定されたファイルをlintしてreportを返す
// projectパラメタはnilにできる。その場合、ファイルパスからプロジェクトが検出される
func (l *Linter) LintFile(ctx context.Context, file string, project *Project) (*Report, error) {
	if project == nil {
		pa, err := l.projectInformation.GetProjectForPath(file)
		if err != nil {
			return nil, err
		}
		project = pa
	}
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("could not read %q source file: %w", file, err)
	}
	if l.currentWorkingDirectory != "" {
		if r, err := filepath.Rel(l.currentWorkingDirectory, file); err == nil {
			file = r
		}
	}
	report, err := l.lintSource(ctx, file, source, project)
	if err != nil {
		return nil, err
	}
	l.printReports([]*Report{report})
	return report, nil
}

// Lintはbyteのスライスとして与えられたソースをlintしてreportを返す
// pathパラメタは、コンテンツがどこからきたのかを示すfilepathまたはURLとして使用
// pathパラメタに<stdin>を入力すると出力がSTDINから来たことを示す
// projectパラメタはnilにできる。その場合、ファイルパスからプロジェクトが検出される
func (l *Linter) Lint(ctx context.Context, path string, content []byte, project *Project) (*Report, error) {
	if project == nil && path != "<stdin>" {
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			p, err := l.projectInformation.GetProjectForPath(path)
			if err != nil {
				return nil, err
			}
			project = p
		}
	}
	report, err := l.lintSource(ctx, path, content, project)
	if err != nil {
		return nil, err
	}
	l.printReports([]*Report{report})
	return report, nil
}

// lintSource analyzes one source and turns a parse error into a
// syntax-check finding so that other files still report.
func (l *Linter) lintSource(ctx context.Context, path string, source []byte, project *Project) (*Report, error) {
	report, err := l.analyze(ctx, path, source, project)
	var parseErr *ast.ParseError
	if errors.As(err, &parseErr) {
		l.log("could not parse", path, ":", parseErr)
		return Aggregate(path, source, []*Finding{syntaxFinding(path, parseErr)}), nil
	}
	return report, err
}

func syntaxFinding(path string, err *ast.ParseError) *Finding {
	return &Finding{
		RuleID:   SyntaxCheckRuleID,
		Severity: SeverityError,
		Category: CategoryLogic,
		Span:     ast.Span{Pos: err.Pos, EndPos: err.Pos},
		Message:  "syntax error: " + err.Message,
		FilePath: path,
	}
}

// printReportsは、-formatが指定されていない場合にfindingを出力する
func (l *Linter) printReports(reports []*Report) {
	if l.errorFormatter != nil {
		return
	}
	for _, r := range reports {
		l.displayErrors(r.Findings, r.Source)
	}
}

// FormatReportsは、-formatのテンプレートで全reportのfindingを一度に出力する
// テンプレートが一度だけ実行されるので、sarifなどの出力は1つのドキュメントになる
// -formatが指定されていない場合は何もしない
func (l *Linter) FormatReports(reports []*Report) error {
	if l.errorFormatter == nil {
		return nil
	}
	total := 0
	for _, r := range reports {
		total += len(r.Findings)
	}
	templateFields := make([]*TemplateFields, 0, total)
	for _, r := range reports {
		for _, f := range r.Findings {
			templateFields = append(templateFields, f.ExtractTemplateFields(r.Source))
		}
	}
	return l.errorFormatter.Print(l.errorOutput, templateFields)
}

// Analyzeは、1つのソースを解析してreportを返す。何も出力しない
// パースできない場合は*ast.ParseErrorをそのまま返す
func (l *Linter) Analyze(ctx context.Context, path string, source []byte) (*Report, error) {
	var project *Project
	if path != "" && path != "<stdin>" && fileExists(path) {
		p, err := l.projectInformation.GetProjectForPath(path)
		if err != nil {
			return nil, err
		}
		project = p
	}
	return l.analyze(ctx, path, source, project)
}

func makeRules(policies *PolicySet) []Rule {
	return []Rule{
		NewUnsafeEvalRule(),
		NewCommandInjectionRule(),
		NewInefficientConcatRule(),
		NewDeepCopyInLoopRule(),
		NewUnreachableCodeRule(),
		NewUnusedBindingRule(),
		NewInfiniteLoopRule(),
		NewChildProcessModuleRule(),
		NewHardcodedCredentialRule(),
		NewUnsafeInnerHTMLRule(),
		NewSQLInjectionRule(),
		NewRedeclarationRule(),
		NewConsoleLogRule(),
		NewLongLineRule(),
		NewPolicyRule(policies),
	}
}

// analyze runs parse, scope building, reachability, rule evaluation and
// aggregation in order.
func (l *Linter) analyze(ctx context.Context, filePath string, content []byte, project *Project) (*Report, error) {
	var validationStart time.Time
	if l.loggingLevel >= LogLevelDetailedOutput {
		validationStart = time.Now()
	}

	l.log("analyzing...", filePath)
	if project != nil {
		l.log("Detected project:", project.RootDirectory())
	}

	cfg := l.configFor(project)
	if cfg != nil {
		l.debug("setting configuration: %#v", cfg)
	} else {
		l.debug("no configuration file")
	}

	root, err := ast.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	scopes := analysis.BuildScopes(root)
	reachability := analysis.AnalyzeReachability(root)

	if l.loggingLevel >= LogLevelDetailedOutput {
		elapsed := time.Since(validationStart)
		l.log("parsed and indexed", filePath, "in", elapsed.Milliseconds(), "ms")
	}

	policies, err := l.policySetFor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, 16)
	for _, rule := range makeRules(policies) {
		if cfg.RuleEnabled(rule.RuleNames(), rule.EnabledByDefault()) {
			rules = append(rules, rule)
		} else {
			l.debug("rule %s is disabled", rule.RuleNames())
		}
	}
	if l.modifyCheckRules != nil {
		rules = l.modifyCheckRules(rules)
	}

	dbg := l.debugWriter()
	for _, rule := range rules {
		if dbg != nil {
			rule.EnableDebugOutput(dbg)
		}
		if err := rule.UpdateConfig(cfg); err != nil {
			return nil, err
		}
	}

	engine := NewEngine(NewConcurrentExecutor(l.parallelism), l.ruleTimeout)
	if dbg != nil {
		engine.EnableDebugOutput(dbg)
	}
	pass := &Pass{
		Context:      ctx,
		FilePath:     filePath,
		Source:       content,
		Root:         root,
		Scopes:       scopes,
		Reachability: reachability,
	}
	findings := engine.Evaluate(pass, rules)

	if l.errorFormatter != nil {
		for _, rule := range rules {
			l.errorFormatter.RegisterRule(rule)
		}
	}

	findings = l.filterFindings(findings, cfg)
	report := Aggregate(filePath, content, findings)

	if l.loggingLevel >= LogLevelDetailedOutput {
		elapsed := time.Since(validationStart)
		l.log("Found total", len(report.Findings), "findings in", elapsed.Milliseconds(), "ms", filePath)
	}
	return report, nil
}

// filterFindings drops findings below the severity floor, findings of
// categories not selected by the options or the config, and findings whose
// rule id matches an ignore pattern. Rule faults are kept whatever their
// category.
func (l *Linter) filterFindings(findings []*Finding, cfg *Config) []*Finding {
	patterns := l.errorIgnorePatterns
	if cfg != nil && len(cfg.Ignore) > 0 {
		patterns = append([]*regexp.Regexp{}, patterns...)
		for _, p := range cfg.Ignore {
			if re, err := regexp.Compile(p); err == nil {
				patterns = append(patterns, re)
			}
		}
	}
	filtered := make([]*Finding, 0, len(findings))
	for _, f := range findings {
		if !l.reported(f, cfg) {
			l.debug("dropping %s finding of %s at %s", f.Severity, f.RuleID, f.Span.Pos)
			continue
		}
		ignored := false
		for _, pattern := range patterns {
			if pattern.MatchString(f.RuleID) {
				ignored = true
				break
			}
		}
		if !ignored {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

func (l *Linter) reported(f *Finding, cfg *Config) bool {
	if !f.Severity.AtLeast(l.minimumSeverity) || !cfg.SeverityEnabled(f.Severity) {
		return false
	}
	if f.Category == CategoryInternal {
		return true
	}
	if l.categories != nil && !l.categories[f.Category] {
		return false
	}
	return cfg.CategoryEnabled(f.Category)
}

// displayErrorsは、指定されたfindingを出力する
func (l *Linter) displayErrors(findings []*Finding, source []byte) {
	for _, f := range findings {
		f.DisplayError(l.errorOutput, source)
	}
}
