package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// sessionState is a lightbox snapshot as returned by the API
type sessionState struct {
	ID               string `json:"id"`
	IsOpen           bool   `json:"is_open"`
	CurrentIndex     int    `json:"current_index"`
	NavigationLocked bool   `json:"navigation_locked"`
	CanNext          bool   `json:"can_next"`
	CanPrev          bool   `json:"can_prev"`
	Length           int    `json:"length"`
	Zoom             struct {
		Scale   float64 `json:"scale"`
		OffsetX float64 `json:"offset_x"`
		OffsetY float64 `json:"offset_y"`
	} `json:"zoom"`
	CurrentItem  *galleryItem `json:"current_item"`
	Changed      bool         `json:"changed"`
	RestoreFocus string       `json:"restore_focus"`
}

type createRequest struct {
	ItemIDs    []string `json:"item_ids,omitempty"`
	Tag        string   `json:"tag,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	StartIndex *int     `json:"start_index,omitempty"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type keyRequest struct {
	Key string `json:"key"`
}

// keyAliases lets shell users type key names that are awkward to quote
var keyAliases = map[string]string{
	"esc":   "Escape",
	"right": "ArrowRight",
	"left":  "ArrowLeft",
	"space": " ",
	"plus":  "+",
	"minus": "-",
}

var lightboxCmd = &cobra.Command{
	Use:   "lightbox",
	Short: "Drive lightbox sessions",
}

var (
	createItemIDs []string
	createTag     string
	createLimit   int
	createStart   int
)

var lightboxCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a lightbox session over explicit ids or a tag listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := createRequest{ItemIDs: createItemIDs}
		if len(createItemIDs) == 0 {
			payload.Tag = createTag
			payload.Limit = createLimit
		}
		if cmd.Flags().Changed("start") {
			payload.StartIndex = &createStart
		}
		return sessionCall("POST", "/api/v1/lightbox/sessions", payload)
	},
}

var lightboxShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a session's state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionCall("GET", sessionPath(args[0], ""), nil)
	},
}

var lightboxOpenCmd = &cobra.Command{
	Use:   "open <session> <index>",
	Short: "Open the lightbox at an index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		return sessionCall("POST", sessionPath(args[0], "open"), indexRequest{Index: index})
	},
}

var lightboxKeyCmd = &cobra.Command{
	Use:   "key <session> <key>",
	Short: "Send a key press (Escape, ArrowRight, ArrowLeft, space, +, -)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[1]
		if alias, ok := keyAliases[strings.ToLower(key)]; ok {
			key = alias
		}
		return sessionCall("POST", sessionPath(args[0], "keys"), keyRequest{Key: key})
	},
}

func stepCmd(use, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionCall("POST", sessionPath(args[0], action), nil)
		},
	}
}

func init() {
	lightboxCreateCmd.Flags().StringSliceVar(&createItemIDs, "ids", nil, "Comma separated item ids")
	lightboxCreateCmd.Flags().StringVar(&createTag, "tag", "", "Build the session from items with this tag")
	lightboxCreateCmd.Flags().IntVar(&createLimit, "limit", 24, "Maximum items when building from a listing")
	lightboxCreateCmd.Flags().IntVar(&createStart, "start", 0, "Open at this index right away")

	lightboxCmd.AddCommand(lightboxCreateCmd)
	lightboxCmd.AddCommand(lightboxShowCmd)
	lightboxCmd.AddCommand(lightboxOpenCmd)
	lightboxCmd.AddCommand(lightboxKeyCmd)
	lightboxCmd.AddCommand(stepCmd("next", "next", "Advance one item"))
	lightboxCmd.AddCommand(stepCmd("previous", "previous", "Go back one item"))
	lightboxCmd.AddCommand(stepCmd("close", "close", "Close the lightbox"))
}

func sessionPath(id, action string) string {
	path := "/api/v1/lightbox/sessions/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path
}

func sessionCall(method, path string, payload interface{}) error {
	var state sessionState
	body, err := apiRequest(method, path, payload, &state)
	if err != nil {
		return err
	}
	if printJSON(body) {
		return nil
	}
	printSession(state)
	return nil
}

func printSession(s sessionState) {
	status := "closed"
	if s.IsOpen {
		status = fmt.Sprintf("open at %d/%d", s.CurrentIndex+1, s.Length)
	}
	fmt.Printf("Session %s (%s)\n", s.ID, status)

	if s.CurrentItem != nil {
		fmt.Print("  ")
		printItem(*s.CurrentItem)
	}
	if s.IsOpen {
		fmt.Printf("  zoom %.1fx (%.0f, %.0f)  prev:%t next:%t", s.Zoom.Scale, s.Zoom.OffsetX, s.Zoom.OffsetY, s.CanPrev, s.CanNext)
		if s.NavigationLocked {
			fmt.Print("  [cooling down]")
		}
		fmt.Println()
	}
	if !s.Changed {
		fmt.Println("  (no change)")
	}
	if s.RestoreFocus != "" {
		fmt.Printf("  restore focus to %s\n", s.RestoreFocus)
	}
}
