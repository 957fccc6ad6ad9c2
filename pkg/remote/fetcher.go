package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// sourceExtensions はディレクトリから収集するファイルの拡張子
var sourceExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// SourceFile は取得したソースファイルを表す
type SourceFile struct {
	URL     string
	Content []byte
}

// Fetcher はafsを通してリモートのソースを取得する
type Fetcher struct {
	fs afs.Service
}

// NewFetcher は新しいFetcherを作成する
func NewFetcher() *Fetcher {
	return &Fetcher{fs: afs.New()}
}

// Fetch はURLのファイルを取得する。URLがディレクトリの場合は配下のJavaScriptファイルをすべて取得する
func (f *Fetcher) Fetch(ctx context.Context, URL string) ([]*SourceFile, error) {
	object, err := f.fs.Object(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("could not access %s: %w", URL, err)
	}
	if !object.IsDir() {
		file, err := f.FetchFile(ctx, URL)
		if err != nil {
			return nil, err
		}
		return []*SourceFile{file}, nil
	}

	urls, err := f.List(ctx, URL)
	if err != nil {
		return nil, err
	}
	files := make([]*SourceFile, 0, len(urls))
	for _, u := range urls {
		file, err := f.FetchFile(ctx, u)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// FetchFile は1つのファイルを取得する
func (f *Fetcher) FetchFile(ctx context.Context, URL string) (*SourceFile, error) {
	content, err := f.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("could not download %s: %w", URL, err)
	}
	return &SourceFile{URL: URL, Content: content}, nil
}

// List はディレクトリ配下のJavaScriptファイルのURLをソートして返す。node_modulesは除く
func (f *Fetcher) List(ctx context.Context, URL string) ([]string, error) {
	var urls []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() || strings.Contains("/"+parent+"/", "/node_modules/") {
			return true, nil
		}
		if isSourceFile(info.Name()) {
			urls = append(urls, url.Join(baseURL, path.Join(parent, info.Name())))
		}
		return true, nil
	}
	if err := f.fs.Walk(ctx, URL, visitor); err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", URL, err)
	}
	sort.Strings(urls)
	return urls, nil
}

func isSourceFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range sourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
