package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:     "memories",
		Aliases: []string{"mem"},
		Short:   "Manage memories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Run:   runMemoriesList,
	}
	list.Flags().StringP("type", "t", "", "Filter by type (pdf, image, video, text, webpage, youtube)")
	list.Flags().String("status", "", "Filter by status (processing, ready, failed)")
	list.Flags().Int("skip", 0, "Skip this many memories")
	list.Flags().IntP("take", "l", 0, "Return at most this many memories")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a memory and its uploads",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesGet,
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a memory",
		Long:  "Create a memory and optionally attach files. The content hash defaults to the SHA-256 of the files, the text or the URL, in that order.",
		Run:   runMemoriesAdd,
	}
	add.Flags().StringP("type", "t", "", "Memory type (required)")
	add.Flags().String("title", "", "Title")
	add.Flags().String("summary", "", "Summary")
	add.Flags().String("text", "", "Extracted text")
	add.Flags().String("url", "", "Source URL")
	add.Flags().String("hash", "", "Content hash (default: computed)")
	add.Flags().StringArray("file", nil, "File to upload (repeatable)")
	add.Flags().Bool("process", false, "Queue extraction after creating")
	add.MarkFlagRequired("type")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update fields of a memory",
		Long:  "Update only the fields whose flags are given.",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesUpdate,
	}
	update.Flags().String("title", "", "Title")
	update.Flags().String("summary", "", "Summary")
	update.Flags().String("text", "", "Extracted text")
	update.Flags().String("url", "", "Source URL")
	update.Flags().String("status", "", "Status")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a memory and its uploads",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesRm,
	}

	process := &cobra.Command{
		Use:   "process ID",
		Short: "Queue content extraction for a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesProcess,
	}

	cmd.AddCommand(list, get, add, update, rm, process)
	RootCmd.AddCommand(cmd)
}

func listParams(cmd *cobra.Command) api.ListMemoriesParams {
	typ, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	p := api.ListMemoriesParams{
		Type:   model.MemoryType(typ),
		Status: model.MemoryStatus(status),
	}
	if cmd.Flags().Changed("skip") {
		skip, _ := cmd.Flags().GetInt("skip")
		p.Skip = &skip
	}
	if cmd.Flags().Changed("take") {
		take, _ := cmd.Flags().GetInt("take")
		p.Take = &take
	}
	return p
}

func runMemoriesList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ms, err := a.client.ListMemories(cmd.Context(), listParams(cmd))
	if err != nil {
		exitErr("list memories", err)
	}
	if jsonOutput() {
		printJSON(ms)
		return
	}
	writeMemories(os.Stdout, ms)
}

type memoryWithUploads struct {
	*model.Memory
	Uploads []model.Upload `json:"uploads"`
}

func runMemoriesGet(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	var (
		m       *model.Memory
		uploads []model.Upload
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		m, err = a.client.GetMemory(ctx, args[0])
		return err
	})
	g.Go(func() error {
		var err error
		uploads, err = a.client.ListUploads(ctx, args[0])
		return err
	})
	if err := g.Wait(); err != nil {
		exitErr("get memory", err)
	}

	if jsonOutput() {
		printJSON(memoryWithUploads{Memory: m, Uploads: uploads})
		return
	}
	writeMemory(os.Stdout, m, uploads)
}

func optString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func runMemoriesAdd(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	hash, _ := cmd.Flags().GetString("hash")
	text, _ := cmd.Flags().GetString("text")
	sourceURL, _ := cmd.Flags().GetString("url")
	files, _ := cmd.Flags().GetStringArray("file")
	process, _ := cmd.Flags().GetBool("process")

	if hash == "" {
		var err error
		if hash, err = contentHash(text, sourceURL, files); err != nil {
			exitErr("content hash", err)
		}
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	m, err := a.client.CreateMemory(cmd.Context(), model.MemoryCreate{
		Type:          model.MemoryType(typ),
		ContentHash:   hash,
		Title:         optString(cmd, "title"),
		Summary:       optString(cmd, "summary"),
		ExtractedText: optString(cmd, "text"),
		SourceURL:     optString(cmd, "url"),
	})
	if err != nil {
		exitErr("create memory", err)
	}

	out := memoryWithUploads{Memory: m}
	if len(files) > 0 {
		if out.Uploads, err = uploadPaths(cmd, a.client, m.ID, files); err != nil {
			exitErr("upload files", err)
		}
	}
	if process {
		if _, err := a.client.ProcessMemory(cmd.Context(), m.ID); err != nil {
			exitErr("process memory", err)
		}
	}

	if jsonOutput() {
		printJSON(out)
		return
	}
	fmt.Printf("Created %s\n", m.ID)
	writeMemory(os.Stdout, m, out.Uploads)
}

// uploadPaths opens every path, sends them in one request, and closes them.
func uploadPaths(cmd *cobra.Command, client *api.Client, memoryID string, paths []string) ([]model.Upload, error) {
	files := make([]api.File, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	for _, p := range paths {
		f, c, err := api.OpenFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		closers = append(closers, c)
	}
	return client.UploadFiles(cmd.Context(), memoryID, files)
}

func runMemoriesUpdate(cmd *cobra.Command, args []string) {
	upd := model.MemoryUpdate{
		Title:         optString(cmd, "title"),
		Summary:       optString(cmd, "summary"),
		ExtractedText: optString(cmd, "text"),
		SourceURL:     optString(cmd, "url"),
	}
	if s := optString(cmd, "status"); s != nil {
		status := model.MemoryStatus(*s)
		upd.Status = &status
	}
	if upd.Empty() {
		exitErr("update memory", errors.New("nothing to update; pass at least one field flag"))
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	m, err := a.client.UpdateMemory(cmd.Context(), args[0], upd)
	if err != nil {
		exitErr("update memory", err)
	}
	if jsonOutput() {
		printJSON(m)
		return
	}
	writeMemory(os.Stdout, m, nil)
}

func runMemoriesRm(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	if err := a.client.DeleteMemory(cmd.Context(), args[0]); err != nil {
		exitErr("delete memory", err)
	}
	if jsonOutput() {
		fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
		return
	}
	fmt.Printf("Deleted %s\n", args[0])
}

func runMemoriesProcess(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ack, err := a.client.ProcessMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("process memory", err)
	}
	if jsonOutput() {
		printJSON(ack)
		return
	}
	fmt.Println(ack.Message)
}
