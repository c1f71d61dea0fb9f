// bracketctl renders a tournament bracket once, without the live server.
// It reads a snapshot file or fetches one from the tournament server and
// writes the page, the SVG drawing or the computed layout as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/preston-bernstein/bracket-live-service/internal/app/bracketview"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/providers/fixture"
	"github.com/preston-bernstein/bracket-live-service/internal/providers/upstream"
	"github.com/preston-bernstein/bracket-live-service/internal/render"
	"github.com/preston-bernstein/bracket-live-service/internal/store"
)

type options struct {
	file       string
	baseURL    string
	apiKey     string
	tournament string
	format     string
	out        string
	width      float64
	height     float64
	fit        bool
	highlight  string
	timeout    time.Duration
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("bracketctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.file, "file", "f", "", "snapshot JSON file to render")
	flagSet.StringVar(&opts.baseURL, "base-url", "", "tournament server to fetch the snapshot from")
	flagSet.StringVar(&opts.apiKey, "api-key", "", "API key sent to the tournament server")
	flagSet.StringVarP(&opts.tournament, "tournament", "t", "", "tournament id (defaults to the file name)")
	flagSet.StringVar(&opts.format, "format", "html", "output format: html, svg or json")
	flagSet.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	flagSet.Float64Var(&opts.width, "width", 0, "viewport width used for fit mode")
	flagSet.Float64Var(&opts.height, "height", 0, "viewport height used for fit mode")
	flagSet.BoolVar(&opts.fit, "fit", false, "scale the bracket to the viewport")
	flagSet.StringVar(&opts.highlight, "highlight", "", "highlight participants matching this name")
	flagSet.DurationVar(&opts.timeout, "timeout", 15*time.Second, "fetch timeout")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	provider, id, err := opts.provider()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{Level: "warn", Service: "bracketctl", Output: stderr})
	mode := layout.ModeNative
	if opts.fit {
		mode = layout.ModeFit
	}
	svc := bracketview.NewService(provider, store.NewViewStore(), nil, logger, nil, bracketview.Config{Mode: mode})
	defer svc.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	v := svc.View(fetchCtx, bracketview.Request{
		TournamentID: id,
		Viewport:     layout.Size{W: opts.width, H: opts.height},
		Highlight:    opts.highlight,
	})

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return write(w, strings.ToLower(opts.format), v)
}

func (o options) provider() (providers.DataProvider, string, error) {
	switch {
	case o.file != "" && o.baseURL != "":
		return nil, "", errors.New("--file and --base-url are mutually exclusive")
	case o.file != "":
		id := o.tournament
		base := filepath.Base(o.file)
		if !strings.HasSuffix(base, ".json") {
			return nil, "", fmt.Errorf("snapshot file must end in .json: %s", o.file)
		}
		fileID := strings.TrimSuffix(base, ".json")
		if id != "" && id != fileID {
			return nil, "", fmt.Errorf("tournament %q does not match file %s", id, base)
		}
		return fixture.NewFS(os.DirFS(filepath.Dir(o.file))), fileID, nil
	case o.baseURL != "":
		if o.tournament == "" {
			return nil, "", errors.New("--tournament is required with --base-url")
		}
		return upstream.NewClient(upstream.Config{BaseURL: o.baseURL, APIKey: o.apiKey}), o.tournament, nil
	default:
		id := o.tournament
		if id == "" {
			id = "sample"
		}
		return fixture.New(""), id, nil
	}
}

func write(w io.Writer, format string, v render.View) error {
	switch format {
	case "html":
		return render.HTML(w, v)
	case "svg":
		if err := viewError(v); err != nil {
			return err
		}
		return render.SVG(w, v)
	case "json":
		if err := viewError(v); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Layout any          `json:"layout"`
			Scene  layout.Scene `json:"scene"`
		}{Layout: v.Layout, Scene: v.Scene})
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func viewError(v render.View) error {
	if v.Error != "" {
		return errors.New(render.ErrorMessage(v.Error))
	}
	if v.Layout == nil {
		return errors.New(render.EmptyMessage)
	}
	return nil
}
