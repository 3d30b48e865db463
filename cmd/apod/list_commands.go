package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"apod/internal/imagecache"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqCtx := ctx.requestContext(cmd)
			return ctx.withService(reqCtx, nil, func(svc *imagecache.Service) error {
				records, err := svc.Index().List(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					if records == nil {
						records = []imagecache.Record{}
					}
					return writeJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No cached images")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.Title,
						filepath.Base(rec.FilePath),
						fileSize(rec.FilePath),
						shortHash(rec.ContentHash),
					})
				}
				fmt.Fprintln(out, renderTable(out, listColumns, rows))
				return nil
			})
		},
	}
}

var listColumns = []column{
	{title: "ID", numeric: true},
	{title: "Title", wrap: 48},
	{title: "File", wrap: 48},
	{title: "Size", numeric: true},
	{title: "SHA-256"},
}

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "Print the title of every cached image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqCtx := ctx.requestContext(cmd)
			return ctx.withService(reqCtx, nil, func(svc *imagecache.Service) error {
				titles, err := svc.Index().ListTitles(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					if titles == nil {
						titles = []string{}
					}
					return writeJSON(cmd, titles)
				}
				out := cmd.OutOrStdout()
				for _, title := range titles {
					fmt.Fprintln(out, title)
				}
				return nil
			})
		},
	}
}

func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// fileSize renders the on-disk size of a cached image, or "missing" when the
// file was removed out of band.
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(info.Size()))
}
