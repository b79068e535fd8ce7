package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Import memories from JSON",
		Long:  "Import memories from JSON (file or stdin). Expects the format produced by export. Uploaded files are not re-sent; only their metadata was exported.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

type importAPI interface {
	CreateMemory(ctx context.Context, in model.MemoryCreate) (*model.Memory, error)
}

type importFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type importResult struct {
	OK       bool            `json:"ok"`
	Imported int             `json:"imported"`
	Failed   []importFailure `json:"failed,omitempty"`
}

func memoryCreateFrom(m model.Memory) model.MemoryCreate {
	in := model.MemoryCreate{
		Type:          m.Type,
		ContentHash:   m.ContentHash,
		Title:         m.Title,
		Summary:       m.Summary,
		ExtractedText: m.ExtractedText,
		SourceURL:     m.SourceURL,
	}
	if m.Status != "" {
		in.Status = model.Ptr(m.Status)
	}
	return in
}

// importMemories creates each memory in order. A failure is recorded and
// the rest are still attempted.
func importMemories(ctx context.Context, c importAPI, ms []exportedMemory, log *zap.Logger) importResult {
	res := importResult{OK: true}
	for _, m := range ms {
		if _, err := c.CreateMemory(ctx, memoryCreateFrom(m.Memory)); err != nil {
			log.Warn("import failed", zap.String("memory_id", m.ID), zap.Error(err))
			res.Failed = append(res.Failed, importFailure{ID: m.ID, Error: err.Error()})
			continue
		}
		res.Imported++
	}
	res.OK = len(res.Failed) == 0
	return res
}

func readExport(r io.Reader) ([]exportedMemory, error) {
	var f exportFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	if f.Version > exportVersion {
		return nil, fmt.Errorf("export version %d is newer than supported (%d)", f.Version, exportVersion)
	}
	return f.Memories, nil
}

func runImport(cmd *cobra.Command, args []string) {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open", err)
		}
		defer f.Close()
		in = f
	}

	memories, err := readExport(in)
	if err != nil {
		exitErr("parse json", err)
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	res := importMemories(cmd.Context(), a.client, memories, a.log)
	if jsonOutput() {
		printJSON(res)
	} else {
		fmt.Printf("Imported %d of %d memories.\n", res.Imported, len(memories))
		for _, f := range res.Failed {
			fmt.Printf("  %s: %s\n", f.ID, errColor(f.Error))
		}
	}
	if !res.OK {
		a.Close()
		os.Exit(1)
	}
}
