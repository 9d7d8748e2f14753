package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// galleryItem is the subset of a gallery item the CLI prints
type galleryItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	LikeCount int64    `json:"like_count"`
	ViewCount int64    `json:"view_count"`
	Locked    bool     `json:"locked"`
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse gallery items",
}

var (
	listTag     string
	listCreator string
	listLimit   int
	listOffset  int
)

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List gallery items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listGallery()
	},
}

var relatedLimit int

var galleryRelatedCmd = &cobra.Command{
	Use:   "related <item-id>",
	Short: "Show items related to a gallery item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelated(args[0])
	},
}

func init() {
	galleryListCmd.Flags().StringVar(&listTag, "tag", "", "Only items with this tag")
	galleryListCmd.Flags().StringVar(&listCreator, "creator", "", "Only items from this creator id")
	galleryListCmd.Flags().IntVar(&listLimit, "limit", 24, "Page size")
	galleryListCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")

	galleryRelatedCmd.Flags().IntVar(&relatedLimit, "limit", 8, "Maximum related items")

	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryRelatedCmd)
}

func listGallery() error {
	q := url.Values{}
	if listTag != "" {
		q.Set("tag", listTag)
	}
	if listCreator != "" {
		q.Set("creator_id", listCreator)
	}
	q.Set("limit", strconv.Itoa(listLimit))
	q.Set("offset", strconv.Itoa(listOffset))

	var resp struct {
		Items []galleryItem `json:"items"`
		Meta  struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	body, err := apiRequest("GET", "/api/v1/gallery?"+q.Encode(), nil, &resp)
	if err != nil {
		return err
	}
	if printJSON(body) {
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No gallery items found")
		return nil
	}
	fmt.Printf("Showing %d of %d items\n\n", len(resp.Items), resp.Meta.Total)
	for _, item := range resp.Items {
		printItem(item)
	}
	return nil
}

func showRelated(itemID string) error {
	var resp struct {
		Items []struct {
			Item   galleryItem `json:"item"`
			Score  float64     `json:"score"`
			Source string      `json:"source"`
			Reason string      `json:"reason"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/api/v1/gallery/%s/related?limit=%d", url.PathEscape(itemID), relatedLimit)
	body, err := apiRequest("GET", path, nil, &resp)
	if err != nil {
		return err
	}
	if printJSON(body) {
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No related items")
		return nil
	}
	for i, r := range resp.Items {
		fmt.Printf("%2d. [%s %.2f] ", i+1, r.Source, r.Score)
		printItem(r.Item)
		if r.Reason != "" {
			fmt.Printf("      %s\n", r.Reason)
		}
	}
	return nil
}

func printItem(item galleryItem) {
	lock := ""
	if item.Locked {
		lock = " 🔒"
	}
	tags := ""
	if len(item.Tags) > 0 {
		tags = "  #" + strings.Join(item.Tags, " #")
	}
	fmt.Printf("%s  %s%s  ♥ %d  👁 %d%s\n",
		item.ID, item.Title, lock, item.LikeCount, item.ViewCount, tags)
}
