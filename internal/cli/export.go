package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/model"
)

const (
	exportPageSize    = 100
	exportConcurrency = 4
	exportVersion     = 1
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export every memory (optionally filtered by type or status) with its upload list as JSON on stdout.",
		Run:   runExport,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type")
	cmd.Flags().String("status", "", "Filter by status")
	cmd.Flags().Bool("no-uploads", false, "Skip fetching upload lists")

	RootCmd.AddCommand(cmd)
}

type exportFile struct {
	Version    int              `json:"version"`
	Source     string           `json:"source"`
	ExportedAt time.Time        `json:"exportedAt"`
	Memories   []exportedMemory `json:"memories"`
}

type exportedMemory struct {
	model.Memory
	Uploads []model.Upload `json:"uploads,omitempty"`
}

type exportAPI interface {
	ListMemories(ctx context.Context, p api.ListMemoriesParams) ([]model.Memory, error)
	ListUploads(ctx context.Context, memoryID string) ([]model.Upload, error)
}

// collectExport pages through every memory matching filter, then fetches
// upload lists with bounded concurrency. Order follows the server's listing.
func collectExport(ctx context.Context, c exportAPI, filter api.ListMemoriesParams, withUploads bool) ([]exportedMemory, error) {
	out := []exportedMemory{}
	for skip := 0; ; skip += exportPageSize {
		p := filter
		p.Skip = model.Ptr(skip)
		p.Take = model.Ptr(exportPageSize)

		page, err := c.ListMemories(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			out = append(out, exportedMemory{Memory: m})
		}
		if len(page) < exportPageSize {
			break
		}
	}

	if !withUploads {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			ups, err := c.ListUploads(gctx, out[i].ID)
			if err != nil {
				return err
			}
			out[i].Uploads = ups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func runExport(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	noUploads, _ := cmd.Flags().GetBool("no-uploads")

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	filter := api.ListMemoriesParams{Type: model.MemoryType(typ), Status: model.MemoryStatus(status)}
	memories, err := collectExport(cmd.Context(), a.client, filter, !noUploads)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(exportFile{
		Version:    exportVersion,
		Source:     a.client.BaseURL(),
		ExportedAt: time.Now().UTC(),
		Memories:   memories,
	})
}
