package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viant/imgvec/search"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

var (
	ingestConcurrency int
	ingestRate        float64
	ingestStrict      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir|file>...",
	Short: "Extract and store vectors for reference images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectImages(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		items := make([]search.Item, len(paths))
		for i, p := range paths {
			items[i] = search.FileItem(p)
		}
		opts := search.BatchOptions{
			Concurrency: a.cfg.Search.Concurrency,
			Rate:        a.cfg.Search.Rate,
			Burst:       a.cfg.Search.Burst,
		}
		if cmd.Flags().Changed("concurrency") {
			opts.Concurrency = ingestConcurrency
		}
		if cmd.Flags().Changed("rate") {
			opts.Rate = ingestRate
		}
		res, err := a.pipeline.Batch(cmd.Context(), items, opts)
		if res != nil {
			fmt.Fprintln(cmd.OutOrStdout(), renderBatch(res))
		}
		if err != nil {
			return err
		}
		if ingestStrict && res.Summary.Rejected > 0 {
			return fmt.Errorf("%d of %d images rejected", res.Summary.Rejected, res.Summary.Total)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "images processed at once (overrides search.concurrency)")
	ingestCmd.Flags().Float64Var(&ingestRate, "rate", 0, "max images per second, 0 for unlimited (overrides search.rate)")
	ingestCmd.Flags().BoolVar(&ingestStrict, "strict", false, "exit with an error when any image is rejected")
}

// collectImages expands directories into the image files they contain,
// sorted by path. Files named explicitly are kept whatever their extension.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", strings.Join(args, ", "))
	}
	return paths, nil
}
