// Command taskpdf materializes PDF page selections and prints page layouts.
//
// Usage:
//
//	taskpdf [-log-level LEVEL] [-log-pretty] [-stats] COMMAND [flags] FILE ...
//
// Commands:
//
//	count FILE                 print the number of pages
//	pages [-out DIR] FILE N... write the pages N... (zero-based, in order) to DIR
//	layout [-params FILE] [-engine layout|plaintext] [-pages LIST] FILE
//	                           print page layouts as JSON keyed by page index
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/podder-ai/taskpdf"
	"github.com/podder-ai/taskpdf/internal/logger"
	"github.com/podder-ai/taskpdf/pagelayout"
)

var errUsage = errors.New("usage: taskpdf [-log-level LEVEL] [-log-pretty] [-stats] count|pages|layout [flags] FILE")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "taskpdf:", err)
		os.Exit(1)
	}
}

type app struct {
	stdout   io.Writer
	cfg      taskpdf.Config
	registry *prometheus.Registry
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("taskpdf", flag.ContinueOnError)
	global.SetOutput(stderr)
	logLevel := global.String("log-level", "warn", "log level (debug, info, warn, error)")
	logPretty := global.Bool("log-pretty", false, "human readable log output")
	stats := global.Bool("stats", false, "print cache statistics to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}

	a := &app{
		stdout:   stdout,
		cfg:      taskpdf.DefaultConfig(),
		registry: prometheus.NewRegistry(),
	}
	a.cfg.Logger = logger.New(logger.Config{Level: *logLevel, Pretty: *logPretty, Output: stderr}).Zerolog()
	a.cfg.Registerer = a.registry

	var err error
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "count":
		err = a.count(rest, stderr)
	case "pages":
		err = a.pages(rest, stderr)
	case "layout":
		err = a.layout(rest, stderr)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	if *stats {
		if serr := writeStats(stderr, a.registry); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func (a *app) open(path string) (*taskpdf.PDF, error) {
	return taskpdf.OpenWithConfig(path, a.cfg)
}

func (a *app) count(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskpdf count FILE")
	}

	doc, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()

	n, err := doc.PageCount()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, n)
	return nil
}

func (a *app) pages(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("pages", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("usage: taskpdf pages [-out DIR] FILE INDEX...")
	}

	doc, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()

	count, err := doc.PageCount()
	if err != nil {
		return err
	}
	indices, err := parsePages(strings.Join(fs.Args()[1:], ","), count)
	if err != nil {
		return err
	}

	produced, err := doc.SaveMultiplePages(indices)
	if err != nil {
		return err
	}

	dst := filepath.Join(*out, filepath.Base(produced))
	if produced == doc.Path() {
		dst = filepath.Join(*out, doc.Name()+"_page_0.pdf")
	}
	// the page file is cached now, SavePages only copies it
	if err := doc.SavePages(indices, dst); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, dst)
	return nil
}

func (a *app) layout(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	paramsFile := fs.String("params", "", "YAML file with layout parameters")
	engine := fs.String("engine", string(taskpdf.EngineLayout), "layout engine (layout, plaintext)")
	pageList := fs.String("pages", "", "comma separated zero-based pages or ranges, e.g. 0,2-4 (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskpdf layout [-params FILE] [-engine NAME] [-pages LIST] FILE")
	}

	a.cfg.Engine = taskpdf.Engine(*engine)
	if *paramsFile != "" {
		params, err := pagelayout.LoadParams(*paramsFile)
		if err != nil {
			return err
		}
		a.cfg.Params = params
	}

	doc, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()

	var result map[int]*pagelayout.Page
	if *pageList == "" {
		result, err = doc.AllPageLayouts()
	} else {
		var count int
		if count, err = doc.PageCount(); err != nil {
			return err
		}
		var indices []int
		if indices, err = parsePages(*pageList, count); err != nil {
			return err
		}
		result, err = doc.PageLayouts(indices)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// parsePages parses "0,2,5-7" into [0 2 5 6 7], keeping order and repeats.
// Ranges end at the last of pageCount pages; single pages are not checked.
func parsePages(s string, pageCount int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || start < 0 || start > end {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			if end >= pageCount {
				end = pageCount - 1
			}
			if start > end {
				return nil, fmt.Errorf("page range %q is beyond the last page %d", part, pageCount-1)
			}
			for i := start; i <= end; i++ {
				out = append(out, i)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("no pages selected")
	}
	return out, nil
}

// writeStats prints every gathered sample as "name{labels} value".
func writeStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, formatSample(mf, m))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

func formatSample(mf *dto.MetricFamily, m *dto.Metric) string {
	var labels []string
	for _, lp := range m.GetLabel() {
		labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	name := mf.GetName()
	if len(labels) > 0 {
		name += "{" + strings.Join(labels, ",") + "}"
	}

	switch mf.GetType() {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%s %g", name, m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%s %g", name, m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("%s count=%d sum=%gs", name, h.GetSampleCount(), h.GetSampleSum())
	default:
		return name
	}
}
