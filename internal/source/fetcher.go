// Package source fetches document collections from GitHub repositories, for
// bulk-ingesting a directory of policy or procedure documents into one
// conversation.
package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
)

// FetchedDoc is one document retrieved from a repository.
type FetchedDoc struct {
	Path    string // path relative to the base directory
	Content string // raw file content
	SHA     string // file's Git blob SHA
}

// Fetcher lists and fetches ingestible documents from one repository
// directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a document fetcher rooted at basePath of owner/repo.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ingestible matches the text formats worth pulling from a repository.
// Binary formats (PDF, DOCX) are uploaded directly, not synced from git.
func ingestible(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".txt")
}

// ListDocs recursively lists all ingestible files under the base directory.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocsRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if ingestible(*item.Name) {
				docs = append(docs, itemRelPath)
			}
		case "dir":
			subDocs, err := f.listDocsRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// FetchDoc fetches the content of one file under the base directory.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*FetchedDoc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	return &FetchedDoc{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
	}, nil
}
