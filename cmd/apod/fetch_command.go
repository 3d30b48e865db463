package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"apod/internal/apod"
	"apod/internal/imagecache"
	"apod/internal/services"
)

// fetchResult is the per-entry outcome printed by apod fetch.
type fetchResult struct {
	Date     string `json:"date"`
	ID       int64  `json:"id"`
	Title    string `json:"title,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"error_kind,omitempty"`
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		setWallpaper bool
		startFlag    string
		endFlag      string
		randomCount  int
	)

	cmd := &cobra.Command{
		Use:   "fetch [YYYY-MM-DD]",
		Short: "Download an APOD image into the cache (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := startFlag != "" || endFlag != "" || randomCount > 0
			if batch && len(args) > 0 {
				return services.Wrap(services.ErrValidation, "cli", "fetch", "a date argument cannot be combined with --start/--end or --random", nil)
			}
			if batch && setWallpaper {
				return services.Wrap(services.ErrValidation, "cli", "fetch", "--wallpaper only applies to a single date", nil)
			}
			if randomCount > 0 && (startFlag != "" || endFlag != "") {
				return services.Wrap(services.ErrValidation, "cli", "fetch", "--random cannot be combined with --start/--end", nil)
			}

			reqCtx := ctx.requestContext(cmd)
			client, err := ctx.newClient()
			if err != nil {
				return err
			}

			if !batch {
				date, err := ctx.resolveDate(args)
				if err != nil {
					return err
				}
				return ctx.withService(reqCtx, client, func(svc *imagecache.Service) error {
					return runFetchOne(reqCtx, cmd, ctx, svc, date, setWallpaper)
				})
			}

			var infos []apod.Info
			if randomCount > 0 {
				infos, err = client.Random(reqCtx, randomCount)
			} else {
				start, end, rangeErr := ctx.resolveRange(startFlag, endFlag)
				if rangeErr != nil {
					return rangeErr
				}
				infos, err = client.Range(reqCtx, start, end)
			}
			if err != nil {
				return err
			}
			return ctx.withService(reqCtx, client, func(svc *imagecache.Service) error {
				return runFetchBatch(reqCtx, cmd, ctx, svc, client, infos)
			})
		},
	}

	cmd.Flags().BoolVarP(&setWallpaper, "wallpaper", "w", false, "Also set the image as the desktop background")
	cmd.Flags().StringVar(&startFlag, "start", "", "First date of a range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Last date of a range (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&randomCount, "random", 0, "Cache N randomly chosen entries")
	return cmd
}

func runFetchOne(reqCtx context.Context, cmd *cobra.Command, ctx *commandContext, svc *imagecache.Service, date time.Time, setWallpaper bool) error {
	id, err := svc.EnsureCached(reqCtx, date)
	if err != nil {
		return err
	}
	rec, err := svc.Index().GetByID(reqCtx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return services.Wrap(services.ErrNotFound, "cli", "fetch", fmt.Sprintf("record %d vanished", id), nil)
	}

	if setWallpaper {
		setter, err := ctx.wallpaperSetter()
		if err != nil {
			return err
		}
		if err := setter.Set(reqCtx, rec.FilePath); err != nil {
			return err
		}
	}

	result := fetchResult{Date: apod.FormatDate(date), ID: rec.ID, Title: rec.Title, FilePath: rec.FilePath}
	if ctx.jsonMode() {
		return writeJSON(cmd, result)
	}
	printFetchResult(cmd, result)
	return nil
}

// runFetchBatch caches every entry independently; one failure does not stop
// the rest.
func runFetchBatch(reqCtx context.Context, cmd *cobra.Command, ctx *commandContext, svc *imagecache.Service, client *apod.Client, infos []apod.Info) error {
	results := make([]fetchResult, 0, len(infos))
	failed := 0
	bar := newBatchProgress(cmd, ctx, len(infos))
	for _, info := range infos {
		itemCtx := services.WithAPODDate(reqCtx, info.Date)
		result := fetchResult{Date: info.Date, Title: info.Title}

		item, err := client.FetchInfo(itemCtx, info)
		var id int64
		if err == nil {
			id, err = svc.Store(itemCtx, item)
		}
		if err == nil {
			rec, getErr := svc.Index().GetByID(itemCtx, id)
			if getErr != nil {
				err = getErr
			} else if rec != nil {
				result.ID = rec.ID
				result.FilePath = rec.FilePath
			}
		}
		if err != nil {
			failed++
			result.Error = err.Error()
			result.Kind = services.Kind(err)
		}
		results = append(results, result)
		_ = bar.Add(1)
		if !ctx.jsonMode() {
			printFetchResult(cmd, result)
		}
	}
	_ = bar.Finish()

	if ctx.jsonMode() {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d entries could not be cached", failed, len(infos))
	}
	return nil
}

// newBatchProgress draws a progress bar on stderr when it is a terminal and
// stays silent otherwise.
func newBatchProgress(cmd *cobra.Command, ctx *commandContext, total int) *progressbar.ProgressBar {
	errOut := cmd.ErrOrStderr()
	if ctx.jsonMode() || !isTerminal(errOut) {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSetDescription("caching"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func printFetchResult(cmd *cobra.Command, result fetchResult) {
	out := cmd.OutOrStdout()
	if result.Error != "" {
		fmt.Fprintf(out, "%s  failed  %s\n", result.Date, result.Error)
		return
	}
	fmt.Fprintf(out, "%s  #%d  %s\n", result.Date, result.ID, result.Title)
	fmt.Fprintf(out, "            %s\n", result.FilePath)
}

func (c *commandContext) resolveDate(args []string) (time.Time, error) {
	now := c.now()
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return apod.Today(now), nil
	}
	date, err := apod.ParseDate(args[0])
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "cli", "fetch", "", err)
	}
	if err := apod.ValidateDate(date, now); err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "cli", "fetch", "", err)
	}
	return date, nil
}

func (c *commandContext) resolveRange(startValue, endValue string) (time.Time, time.Time, error) {
	if strings.TrimSpace(startValue) == "" {
		return time.Time{}, time.Time{}, services.Wrap(services.ErrValidation, "cli", "fetch", "--end requires --start", nil)
	}
	start, err := c.resolveDate([]string{startValue})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := c.resolveDate([]string{endValue})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, services.Wrap(services.ErrValidation, "cli", "fetch",
			fmt.Sprintf("--end %s is before --start %s", apod.FormatDate(end), apod.FormatDate(start)), nil)
	}
	return start, end, nil
}
