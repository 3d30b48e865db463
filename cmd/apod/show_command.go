package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"apod/internal/imagecache"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|title>",
		Short: "Show a cached image record",
		Long:  "Show a cached image record. Numeric arguments are looked up as record ids first, anything else as an exact title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqCtx := ctx.requestContext(cmd)
			return ctx.withService(reqCtx, nil, func(svc *imagecache.Service) error {
				rec, err := svc.Resolve(reqCtx, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, rec)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %d\n", rec.ID)
				fmt.Fprintf(out, "Title:   %s\n", rec.Title)
				fmt.Fprintf(out, "File:    %s\n", rec.FilePath)
				fmt.Fprintf(out, "Size:    %s\n", fileSize(rec.FilePath))
				fmt.Fprintf(out, "SHA-256: %s\n", rec.ContentHash)
				if explanation := strings.TrimSpace(rec.Explanation); explanation != "" {
					fmt.Fprintf(out, "\n%s\n", explanation)
				}
				return nil
			})
		},
	}
}

func newWallpaperCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wallpaper <id|title>",
		Short: "Set a cached image as the desktop background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqCtx := ctx.requestContext(cmd)
			setter, err := ctx.wallpaperSetter()
			if err != nil {
				return err
			}
			return ctx.withService(reqCtx, nil, func(svc *imagecache.Service) error {
				rec, err := svc.Resolve(reqCtx, args[0])
				if err != nil {
					return err
				}
				if err := setter.Set(reqCtx, rec.FilePath); err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wallpaper set to #%d %s\n", rec.ID, rec.Title)
				return nil
			})
		},
	}
}
