package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Manage files attached to memories",
	}

	list := &cobra.Command{
		Use:   "list MEMORY_ID",
		Short: "List a memory's uploads",
		Args:  cobra.ExactArgs(1),
		Run:   runUploadsList,
	}

	add := &cobra.Command{
		Use:   "add MEMORY_ID FILE...",
		Short: "Attach files to a memory",
		Args:  cobra.MinimumNArgs(2),
		Run:   runUploadsAdd,
	}

	rm := &cobra.Command{
		Use:   "rm UPLOAD_ID",
		Short: "Delete an upload",
		Args:  cobra.ExactArgs(1),
		Run:   runUploadsRm,
	}

	cmd.AddCommand(list, add, rm)
	RootCmd.AddCommand(cmd)
}

func runUploadsList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ups, err := a.client.ListUploads(cmd.Context(), args[0])
	if err != nil {
		exitErr("list uploads", err)
	}
	if jsonOutput() {
		printJSON(ups)
		return
	}
	writeUploads(os.Stdout, ups)
}

func runUploadsAdd(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ups, err := uploadPaths(cmd, a.client, args[0], args[1:])
	if err != nil {
		exitErr("upload files", err)
	}
	if jsonOutput() {
		printJSON(ups)
		return
	}
	writeUploads(os.Stdout, ups)
}

func runUploadsRm(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	if err := a.client.DeleteUpload(cmd.Context(), args[0]); err != nil {
		exitErr("delete upload", err)
	}
	if jsonOutput() {
		fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
		return
	}
	fmt.Printf("Deleted %s\n", args[0])
}
