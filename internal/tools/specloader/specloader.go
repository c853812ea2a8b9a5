// Package specloader fetches OpenAPI documents from local paths or remote
// sources and parses them.
package specloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"

	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
)

// Fetch downloads src into a temporary directory and returns its content.
// src is anything go-getter understands: a relative or absolute path, an
// http(s) URL, a git or s3 source.
func Fetch(ctx context.Context, src string) ([]byte, error) {
	basePath, err := os.MkdirTemp("", "oascontracts-")
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	defer os.RemoveAll(basePath)

	pwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dst := filepath.Join(basePath, "document")
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	contents, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return contents, nil
}

// Load fetches src and parses it as an OpenAPI 3 document.
func Load(ctx context.Context, src string) (oas2datatype.OASDocument, error) {
	contents, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	doc, err := oas2datatype.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", src, err)
	}
	return doc, nil
}
