// Command hxcalc evaluates a batch file of heat exchanger readings and
// prints the results table or the raw output as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"HeatX/internal/batchfile"
	"HeatX/internal/calc/chart"
	exchanger "HeatX/internal/calc/exchanger"
	"HeatX/internal/config"

	log "github.com/sirupsen/logrus"
)

type options struct {
	file   string
	area   float64
	cp     float64
	policy string
	format string
	watch  bool
	conf   string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "batch file (YAML or JSON)")
	flag.Float64Var(&opts.area, "area", 0, "heat transfer surface area in m², overrides the file")
	flag.Float64Var(&opts.cp, "cp", 0, "specific heat in J/(kg·°C), overrides the file")
	flag.StringVar(&opts.policy, "policy", "", "duty policy: min|average, overrides the file")
	flag.StringVar(&opts.format, "format", "table", "output format: table|json")
	flag.BoolVar(&opts.watch, "watch", false, "recompute whenever the file changes")
	flag.StringVar(&opts.conf, "conf", envOr("ENGINE_CONF", "conf/exchanger.ini"), "engine defaults INI file")
	flag.Parse()

	if opts.file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if opts.format != "table" && opts.format != "json" {
		log.Fatalf("unknown format %q: want table|json", opts.format)
	}

	engineConf, err := config.LoadEngine(opts.conf)
	if err != nil {
		log.Fatal(err)
	}
	engine := engineConf.NewEngine()

	in, err := batchfile.Load(opts.file)
	if err != nil {
		log.Fatal(err)
	}
	if err := run(os.Stdout, engine, opts, in); err != nil {
		log.Fatal(err)
	}
	if !opts.watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = batchfile.Watch(ctx, opts.file, func(in exchanger.Input) {
		fmt.Fprintln(os.Stdout)
		if err := run(os.Stdout, engine, opts, in); err != nil {
			log.Error(err)
		}
	})
	if err != nil {
		log.Fatal(err)
	}
}

// run applies the flag overrides to in, evaluates it and writes the result.
func run(w io.Writer, engine *exchanger.Engine, opts options, in exchanger.Input) error {
	if opts.area > 0 {
		in.SurfaceAreaM2 = opts.area
	}
	if opts.cp > 0 {
		in.SpecificHeat = opts.cp
	}
	if opts.policy != "" {
		in.Policy = exchanger.DutyPolicy(opts.policy)
	}

	out, err := engine.Calculate(in)
	if err != nil {
		return err
	}
	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printTable(w, out)
}

func printTable(w io.Writer, out exchanger.Output) error {
	table := chart.BuildTable(out)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\npolicy=%s cp=%g A=%g m²\n%s\n", out.Policy, out.SpecificHeat, out.SurfaceAreaM2, table.Footer)
	return err
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
