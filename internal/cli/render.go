package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	In       string
	Out      string
	Document bool
}

// linksFile is the YAML input of the render command.
type linksFile struct {
	Title string              `yaml:"title"`
	Links []domain.LinkRecord `yaml:"links"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a YAML link list to SVG offline",
		Long: `Render a YAML link list with the same layout engine the server uses.

The input holds a title and a list of links:

  title: My Links
  links:
    - title: Blog
      url: https://example.com
    - title: GitHub
      url: https://github.com/me
      isSocial: true

With --document the full storable document is printed as JSON instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "YAML file with title and links (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file, stdout when empty")
	cmd.Flags().BoolVar(&opts.Document, "document", false, "print the storable document as JSON")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runRender(opts *RenderOptions, stdout io.Writer) error {
	data, err := os.ReadFile(opts.In)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.In, err)
	}

	var in linksFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.In, err)
	}
	if len(in.Links) == 0 {
		return fmt.Errorf("%s has no links", opts.In)
	}

	var out []byte
	if opts.Document {
		out, err = json.MarshalIndent(render.Document(in.Title, in.Links), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		out = append(out, '\n')
	} else {
		out = []byte(render.SVG(in.Title, domain.TruncateLinks(in.Links)))
	}

	if opts.Out == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.Out, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}
	return nil
}
