package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"rosterkit/adapters/file"
	"rosterkit/analytics"
	"rosterkit/codec"
	"rosterkit/core"
	"rosterkit/engine"
	"rosterkit/kit"
)

const (
	ExitSuccess           = 0
	ExitNotFound          = 1
	ExitInvalidInvocation = 2
	ExitDataError         = 3
	ExitInternalError     = 4
)

const defaultFile = "students.txt"

// InvocationError carries the exit code for a failed command.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	usage   string
	mutates bool
	run     func(ctx context.Context, env *env, args []string) error
}

type env struct {
	svc  *engine.RosterService
	path string
	out  io.Writer
}

var commands = []command{
	{name: "list", usage: "list", run: runList},
	{name: "add", usage: "add -id N -name NAME [-score X]", mutates: true, run: runAdd},
	{name: "find", usage: "find -id N [-search linear|binary|index]", run: runFind},
	{name: "score", usage: "score -id N -value X", mutates: true, run: runScore},
	{name: "rename", usage: "rename -id N -name NAME", mutates: true, run: runRename},
	{name: "remove", usage: "remove -id N", mutates: true, run: runRemove},
	{name: "sort", usage: "sort -by name|score|id", mutates: true, run: runSort},
	{name: "summary", usage: "summary", run: runSummary},
	{name: "report", usage: "report", run: runReport},
	{name: "rank", usage: "rank [-n 10]", run: runRank},
	{name: "convert", usage: "convert -to PATH", run: runConvert},
}

// Run executes one rosterctl invocation and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := run(ctx, args, stdout)
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(stderr, err)
	var invErr *InvocationError
	var ve *core.ValidationError
	var de *codec.DecodeError
	switch {
	case errors.As(err, &invErr):
		if invErr.ExitCode == ExitInvalidInvocation {
			fmt.Fprint(stderr, usage())
		}
		return invErr.ExitCode
	case errors.As(err, &de), errors.Is(err, codec.ErrUnsupportedVersion):
		return ExitDataError
	case errors.As(err, &ve):
		return ExitInvalidInvocation
	case errors.Is(err, core.ErrNotFound):
		return ExitNotFound
	default:
		return ExitInternalError
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rosterctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("file", defaultFile, "roster file; the extension picks the format")
	verbose := fs.Bool("v", false, "log roster events to stderr")
	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("%v", err)
	}
	if fs.NArg() == 0 {
		return invalidInvocationf("missing command")
	}
	name := fs.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		return invalidInvocationf("unknown command %q", name)
	}

	store, err := file.New(*path)
	if err != nil {
		return invalidInvocationf("%v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.Default()
	}
	svc, err := kit.New(
		kit.WithStorage(store),
		kit.WithDispatchMode(engine.DispatchSync),
		kit.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := svc.Load(ctx); err != nil {
		return err
	}
	e := &env{svc: svc, path: *path, out: stdout}
	if err := cmd.run(ctx, e, fs.Args()[1:]); err != nil {
		return err
	}
	if cmd.mutates {
		return svc.Save(ctx)
	}
	return nil
}

func usage() string {
	var b strings.Builder
	b.WriteString("usage: rosterctl [-file PATH] [-v] COMMAND [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %s\n", c.usage)
	}
	return b.String()
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return invalidInvocationf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}

func printRecords(w io.Writer, records []core.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCORE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\n", r.ID(), r.Name(), r.Score())
	}
	return tw.Flush()
}

func runList(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlags("list"), args); err != nil {
		return err
	}
	return printRecords(e.out, e.svc.Records(ctx))
}

func runAdd(ctx context.Context, e *env, args []string) error {
	fs := newFlags("add")
	id := fs.Int("id", 0, "record id")
	name := fs.String("name", "", "student name")
	score := fs.Float64("score", core.MinScore, "score")
	if err := parse(fs, args); err != nil {
		return err
	}
	rec, err := e.svc.Add(ctx, core.RecordID(*id), *name, *score)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "added %s\n", rec)
	return nil
}

func runFind(ctx context.Context, e *env, args []string) error {
	fs := newFlags("find")
	id := fs.Int("id", 0, "record id")
	search := fs.String("search", "", "linear, binary or index")
	if err := parse(fs, args); err != nil {
		return err
	}
	mode, err := engine.ParseSearchMode(*search)
	if err != nil {
		return err
	}
	rec, err := e.svc.Find(ctx, core.RecordID(*id), mode)
	if err != nil {
		return err
	}
	return printRecords(e.out, []core.Record{rec})
}

func runScore(ctx context.Context, e *env, args []string) error {
	fs := newFlags("score")
	id := fs.Int("id", 0, "record id")
	value := fs.Float64("value", -1, "new score")
	if err := parse(fs, args); err != nil {
		return err
	}
	rec, err := e.svc.UpdateScore(ctx, core.RecordID(*id), *value)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "updated %s\n", rec)
	return nil
}

func runRename(ctx context.Context, e *env, args []string) error {
	fs := newFlags("rename")
	id := fs.Int("id", 0, "record id")
	name := fs.String("name", "", "new name")
	if err := parse(fs, args); err != nil {
		return err
	}
	rec, err := e.svc.Rename(ctx, core.RecordID(*id), *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "updated %s\n", rec)
	return nil
}

func runRemove(ctx context.Context, e *env, args []string) error {
	fs := newFlags("remove")
	id := fs.Int("id", 0, "record id")
	if err := parse(fs, args); err != nil {
		return err
	}
	rec, err := e.svc.Remove(ctx, core.RecordID(*id))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "removed %s\n", rec)
	return nil
}

func runSort(ctx context.Context, e *env, args []string) error {
	fs := newFlags("sort")
	by := fs.String("by", "", "name, score or id")
	if err := parse(fs, args); err != nil {
		return err
	}
	key, err := engine.ParseSortKey(*by)
	if err != nil {
		return err
	}
	if err := e.svc.Sort(ctx, key); err != nil {
		return err
	}
	return printRecords(e.out, e.svc.Records(ctx))
}

func runSummary(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlags("summary"), args); err != nil {
		return err
	}
	s := e.svc.Summary(ctx)
	fmt.Fprintf(e.out, "count:   %d\naverage: %.2f\n", s.Count, s.Average)
	if s.Top != nil {
		fmt.Fprintf(e.out, "top:     %s\n", s.Top)
	}
	if s.Lowest != nil {
		fmt.Fprintf(e.out, "lowest:  %s\n", s.Lowest)
	}
	return nil
}

func runReport(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlags("report"), args); err != nil {
		return err
	}
	r := e.svc.Report(ctx)
	fmt.Fprintf(e.out, "count %d  mean %.2f  median %.2f  stddev %.2f  min %.2f  max %.2f\n",
		r.Count, r.Mean, r.Median, r.StdDev, r.Min, r.Max)
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tFROM\tCOUNT")
	for _, b := range r.Bands {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", b.Label, b.Min, b.Count)
	}
	return tw.Flush()
}

func runRank(ctx context.Context, e *env, args []string) error {
	fs := newFlags("rank")
	n := fs.Int("n", 10, "entries to show")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *n <= 0 {
		return invalidInvocationf("rank: -n must be positive")
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tSCORE\tCLASS")
	for _, en := range e.svc.Ranking(ctx, *n) {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%s\n", en.Rank, en.RecordID, en.Name, en.Score, analytics.Classify(en.Score))
	}
	return tw.Flush()
}

// runConvert writes the roster to another file; the target extension picks the format.
func runConvert(ctx context.Context, e *env, args []string) error {
	fs := newFlags("convert")
	to := fs.String("to", "", "target path")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *to == "" {
		return invalidInvocationf("convert: -to is required")
	}
	records := e.svc.Records(ctx)
	if err := codec.WriteFile(*to, records); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "wrote %d records to %s (%s)\n", len(records), *to, codec.ForPath(*to).Name())
	return nil
}
