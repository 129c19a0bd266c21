package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/telemetry"
)

const starterConfig = `// docnav site configuration.
// Run "docnav validate" after editing.
site: {
	title:       %q
	description: "Project documentation"
	base:        "/"

	headTags: [
		{tagName: "link", attributes: {rel: "icon", href: "/favicon.ico"}},
	]

	theme: {
		editLinkPattern: "https://github.com/OWNER/REPO/edit/main/%s/:path"
		editLinkText:    "Edit this page"

		searchProvider: provider: "local"

		nav: [
			{text: "Guide", link: "/guide/getting-started"},
		]

		sidebar: [
			{
				text: "Guide"
				items: [
					{text: "Getting started", link: "/guide/getting-started"},
				]
			},
		]

		socialLinks: [
			{icon: "github", link: "https://github.com/OWNER/REPO"},
		]
	}
}
`

const starterIndex = `---
title: Home
description: Welcome to the documentation.
---

# Welcome
`

const starterGuide = `# Getting started

Edit this page and run ` + "`docnav validate`" + `.
`

func newInitCommand() *cobra.Command {
	var (
		title string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter site configuration and content tree",
		Long: `Create a starter site configuration, a content root with two documents and,
when --index is given, an empty document index.

Existing files are left alone unless --force is set.`,
		Example: `  # Initialize in the current directory
  docnav init --title "Acme Docs"

  # Custom locations
  docnav init --config site/site.cue --content site/docs --index site/index.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "init", configPath)
			defer func() { op.End(err) }()

			out := cmd.OutOrStdout()

			files := []struct {
				path    string
				content string
			}{
				{configPath, fmt.Sprintf(starterConfig, title, editLinkDir(contentRoot))},
				{filepath.Join(contentRoot, "index.md"), starterIndex},
				{filepath.Join(contentRoot, "guide", "getting-started.md"), starterGuide},
			}

			for _, f := range files {
				written, err := writeStarterFile(f.path, f.content, force)
				if err != nil {
					return err
				}
				if written {
					fmt.Fprintf(out, "✓ Created %s\n", f.path)
				} else {
					fmt.Fprintf(out, "- Kept existing %s\n", f.path)
				}
			}

			if indexPath != "" {
				if err := ensureParentDir(indexPath); err != nil {
					return err
				}
				store, err := openStore(op.Ctx, indexPath)
				if err != nil {
					return err
				}
				if err := store.Close(); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Initialized index: %s\n", indexPath)
			}

			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "  1. Replace OWNER/REPO in %s\n", configPath)
			fmt.Fprintf(out, "  2. docnav validate --config %s --content %s\n", configPath, contentRoot)

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Documentation", "site title")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}

// editLinkDir is the repository directory used in the starter edit link.
func editLinkDir(root string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(root)), "/")
}

// writeStarterFile writes content to path unless the file exists and force
// is false. It reports whether the file was written.
func writeStarterFile(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := ensureParentDir(path); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
