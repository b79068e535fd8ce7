package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/synapse/internal/chat"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with your memories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List chats",
		Run:   runChatList,
	}

	newChat := &cobra.Command{
		Use:   "new [title]",
		Short: "Start a chat",
		Run:   runChatNew,
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a chat's messages",
		Args:  cobra.ExactArgs(1),
		Run:   runChatShow,
	}

	send := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a message and print the reply",
		Long:  "Send a message to the chat given by --chat, or to a new chat when --chat is omitted.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runChatSend,
	}
	send.Flags().StringP("chat", "c", "", "Chat ID (default: start a new chat)")

	rename := &cobra.Command{
		Use:   "rename ID [title]",
		Short: "Rename a chat",
		Long:  "Rename a chat. An empty title resets it to \"" + model.DefaultChatTitle + "\".",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runChatRename,
	}

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		Run:   runChatRm,
	}

	ask := &cobra.Command{
		Use:   "ask MESSAGE...",
		Short: "Ask a one-off question without saving a chat",
		Args:  cobra.MinimumNArgs(1),
		Run:   runChatAsk,
	}

	open := &cobra.Command{
		Use:   "open [ID]",
		Short: "Open the interactive chat view",
		Args:  cobra.MaximumNArgs(1),
		Run:   runChatOpen,
	}

	cmd.AddCommand(list, newChat, show, send, rename, rm, ask, open)
	RootCmd.AddCommand(cmd)
}

func runChatList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	chats, err := a.client.ListChats(cmd.Context())
	if err != nil {
		exitErr("list chats", err)
	}
	if jsonOutput() {
		if chats == nil {
			chats = []model.Chat{}
		}
		printJSON(chats)
		return
	}
	writeChats(os.Stdout, chats)
}

func runChatNew(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ch, err := a.client.CreateChat(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("create chat", err)
	}
	if jsonOutput() {
		printJSON(ch)
		return
	}
	writeChats(os.Stdout, []model.Chat{*ch})
}

func runChatShow(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	ch, err := a.client.GetChat(cmd.Context(), args[0])
	if err != nil {
		exitErr("get chat", err)
	}
	if jsonOutput() {
		printJSON(ch)
		return
	}
	fmt.Println(titleColor(ch.Title))
	fmt.Println()
	writeMessages(os.Stdout, ch.Messages)
}

func runChatSend(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")
	text := strings.Join(args, " ")

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	conv := chat.New(a.client, a.log)
	if chatID != "" {
		if err := conv.Open(cmd.Context(), chatID); err != nil {
			exitErr("open chat", err)
		}
	}

	reply, err := conv.Send(cmd.Context(), text)
	if err != nil {
		exitErr("send", err)
	}
	ch, _ := conv.Chat()

	if jsonOutput() {
		printJSON(struct {
			ChatID string            `json:"chatId"`
			Title  string            `json:"title"`
			Reply  model.ChatMessage `json:"reply"`
		}{ch.ID, conv.Title(), reply})
		return
	}
	if chatID == "" {
		fmt.Fprintf(os.Stderr, "chat %s (%s)\n", ch.ID, conv.Title())
	}
	fmt.Println(reply.Content)
}

func runChatRename(cmd *cobra.Command, args []string) {
	title := ""
	if len(args) > 1 {
		title = args[1]
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	conv := chat.New(a.client, a.log)
	if err := conv.Open(cmd.Context(), args[0]); err != nil {
		exitErr("open chat", err)
	}
	ch, err := conv.Rename(cmd.Context(), title)
	if err != nil {
		exitErr("rename chat", err)
	}
	if jsonOutput() {
		printJSON(ch)
		return
	}
	writeChats(os.Stdout, []model.Chat{ch})
}

func runChatRm(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	if err := a.client.DeleteChat(cmd.Context(), args[0]); err != nil {
		exitErr("delete chat", err)
	}
	if jsonOutput() {
		fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
		return
	}
	fmt.Printf("Deleted %s\n", args[0])
}

func runChatAsk(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	reply, err := a.client.Ask(cmd.Context(), strings.Join(args, " "), nil)
	if err != nil {
		exitErr("ask", err)
	}
	if jsonOutput() {
		printJSON(map[string]string{"reply": reply})
		return
	}
	fmt.Println(reply)
}

func runChatOpen(cmd *cobra.Command, args []string) {
	if jsonOutput() {
		exitErr("chat open", errors.New("the interactive view has no json output"))
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	conv := chat.New(a.client, a.log)
	if len(args) == 1 {
		if err := conv.Open(cmd.Context(), args[0]); err != nil {
			exitErr("open chat", err)
		}
	}
	if err := tui.Run(cmd.Context(), conv); err != nil {
		exitErr("chat open", err)
	}
}
