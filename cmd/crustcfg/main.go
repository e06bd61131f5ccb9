// Command crustcfg inspects and edits Uncrustify configuration files.
//
// It lists, filters and exports the values of a configuration, changes
// them while keeping the "# Edited: YES" markers in sync, and can follow a
// file on disk, reloading it whenever it changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dshills/crustcfg/internal/app"
	"github.com/dshills/crustcfg/internal/config/watcher"
	"github.com/dshills/crustcfg/internal/document"
	"github.com/dshills/crustcfg/internal/filter"
	"github.com/dshills/crustcfg/internal/settings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are the flags shared by every command.
type Globals struct {
	Settings string `help:"Settings file (default: user config dir), or - for stdin." type:"path" placeholder:"PATH"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)." placeholder:"LEVEL"`
	CacheDir string `name:"cache-dir" help:"Directory for saved session state." type:"path" placeholder:"DIR"`
	Examples string `help:"Directory of example snippets, one <name>.txt per value." type:"path" placeholder:"DIR"`
	NoEnv    bool   `name:"no-env" help:"Ignore CRUSTCFG_* environment variables and .env files."`

	Version kong.VersionFlag `short:"v" help:"Print version information."`

	ctx    context.Context `kong:"-"`
	stdin  io.Reader       `kong:"-"`
	stdout io.Writer       `kong:"-"`
	stderr io.Writer       `kong:"-"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Show  ShowCmd  `cmd:"" help:"Show values with their description, hint, choices and example."`
	List  ListCmd  `cmd:"" help:"List values, optionally filtered and sorted."`
	Tags  TagsCmd  `cmd:"" help:"List the tags (name prefixes) of a configuration."`
	Set   SetCmd   `cmd:"" help:"Set values and mark them edited."`
	Reset ResetCmd `cmd:"" help:"Clear the edited marker of values."`
	Fmt   FmtCmd   `cmd:"" help:"Rewrite a configuration in canonical form."`
	Watch WatchCmd `cmd:"" help:"Follow a configuration, reporting every reload."`
	State StateCmd `cmd:"" help:"Saved session state."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	cli.ctx = ctx
	cli.stdin = stdin
	cli.stdout = stdout
	cli.stderr = stderr

	parser, err := kong.New(&cli,
		kong.Name("crustcfg"),
		kong.Description("Inspect and edit Uncrustify configuration files."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": fmt.Sprintf("crustcfg %s (commit %s, built %s)", version, commit, date)},
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := kctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// settings loads the layered settings and applies the global flags.
func (g *Globals) settings() (settings.Settings, error) {
	var opts []settings.Option
	switch g.Settings {
	case "":
	case "-":
		opts = append(opts, settings.WithReader(g.stdin))
	default:
		opts = append(opts, settings.WithPath(g.Settings))
	}
	if g.NoEnv {
		opts = append(opts, settings.WithoutEnv())
	}
	s, err := settings.Load(opts...)
	if err != nil {
		return s, err
	}

	if g.LogLevel != "" {
		s.Logging.Level = g.LogLevel
	}
	if g.CacheDir != "" {
		s.Paths.CacheDir = g.CacheDir
	}
	if g.Examples != "" {
		s.Examples.Dir = g.Examples
	}
	return s, s.Validate()
}

// session creates a session from the settings, logging to stderr.
func (g *Globals) session() (*app.Session, error) {
	s, err := g.settings()
	if err != nil {
		return nil, err
	}

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(s.Logging.Level),
		Output: g.stderr,
		Format: app.LogFormat(s.Logging.Format),
		Prefix: "crustcfg",
	})
	app.SetLogger(logger)

	return app.New(app.WithSettings(s), app.WithLogger(logger))
}

// open creates a session and opens path in it.
func (g *Globals) open(path string) (*app.Session, error) {
	sess, err := g.session()
	if err != nil {
		return nil, err
	}
	if err := sess.Open(g.ctx, path); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

// save writes the document to out, to stdout when out is "-", or back to
// the file it was opened from when out is empty.
func (g *Globals) save(sess *app.Session, out string) error {
	if out == "-" {
		data, err := sess.Bytes()
		if err != nil {
			return err
		}
		_, err = g.stdout.Write(data)
		return err
	}
	return sess.Save(g.ctx, out)
}

// ShowCmd prints the details of named values.
type ShowCmd struct {
	Config string   `arg:"" help:"Configuration file or URL."`
	Names  []string `arg:"" help:"Value names."`
}

func (c *ShowCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := sess.Settings().RenderOptions()
	for i, name := range c.Names {
		v, err := sess.Lookup(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(g.stdout)
		}
		printValue(g.stdout, v, opts)
	}
	return nil
}

func printValue(w io.Writer, v *document.Value, opts []document.RenderOption) {
	fmt.Fprintf(w, "%s = %s\n", v.Name, v.Value)
	fmt.Fprintf(w, "  tag:     %s\n", filter.Tag(v.Name))
	fmt.Fprintf(w, "  edited:  %t\n", v.Edited)
	if v.Hint != nil {
		fmt.Fprintf(w, "  hint:    %s\n", *v.Hint)
	}
	if choices, closed := v.Choices(); closed {
		fmt.Fprintf(w, "  choices: %s\n", strings.Join(choices, ", "))
	}
	if desc := v.Description(opts...); desc != "" {
		fmt.Fprintln(w, "  description:")
		printIndented(w, desc, "    ")
	}
	if v.Example != nil {
		fmt.Fprintln(w, "  example:")
		printIndented(w, *v.Example, "    ")
	}
}

func printIndented(w io.Writer, text, indent string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

// ListCmd lists the values passing a filter.
type ListCmd struct {
	Config   string `arg:"" help:"Configuration file or URL."`
	Search   string `short:"s" help:"Space-separated words that must all appear in the name or comments."`
	Tag      string `short:"t" help:"Only values whose name starts with this tag."`
	Lang     string `short:"l" help:"Only values for a language (c, cpp, oc)."`
	Edited   bool   `xor:"edited" help:"Only edited values."`
	Unedited bool   `xor:"edited" help:"Only values that are not edited."`
	Sort     bool   `help:"Sort by name instead of file order."`
	Format   string `short:"f" enum:"text,json,yaml" default:"text" help:"Output format (text, json, yaml)."`
	Examples bool   `name:"with-examples" short:"x" help:"Include examples in text output."`
}

func (c *ListCmd) state(base filter.State) (filter.State, error) {
	state := base
	if c.Search != "" {
		state.SearchText = c.Search
	}
	if c.Tag != "" {
		state.Tag = c.Tag
	}
	if c.Lang != "" {
		lang, err := filter.ParseLanguage(c.Lang)
		if err != nil {
			return state, err
		}
		state.Language = lang
	}
	switch {
	case c.Edited:
		state.Edited = filter.EditedOnly
	case c.Unedited:
		state.Edited = filter.EditedNone
	}
	if c.Sort {
		state.Sort = true
	}
	return state, nil
}

func (c *ListCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	state, err := c.state(sess.View().State())
	if err != nil {
		return err
	}
	sess.SetFilter(state)

	if c.Format != "text" {
		format, err := app.ParseExportFormat(c.Format)
		if err != nil {
			return err
		}
		return sess.Export(g.stdout, format)
	}

	for _, v := range sess.Values() {
		mark := " "
		if v.Edited {
			mark = "*"
		}
		fmt.Fprintf(g.stdout, "%s %s\n", mark, v.Line())
		if c.Examples && v.Example != nil {
			printIndented(g.stdout, *v.Example, "    | ")
		}
	}
	return nil
}

// TagsCmd lists the tags of a configuration.
type TagsCmd struct {
	Config string `arg:"" help:"Configuration file or URL."`
	Counts bool   `short:"c" help:"Show the number of values per tag."`
}

func (c *TagsCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	values := sess.Document().Values()
	counts := make(map[string]int)
	for _, v := range values {
		counts[filter.Tag(v.Name)]++
	}
	for _, tag := range filter.Tags(values) {
		if c.Counts {
			fmt.Fprintf(g.stdout, "%s\t%d\n", tag, counts[tag])
			continue
		}
		fmt.Fprintln(g.stdout, tag)
	}
	return nil
}

// SetCmd assigns values.
type SetCmd struct {
	Config      string   `arg:"" help:"Configuration file or URL."`
	Assignments []string `arg:"" help:"Assignments of the form name=value."`
	Output      string   `short:"o" help:"Write to this location instead of the input ('-' for stdout)."`
	SaveState   bool     `name:"save-state" help:"Also save the session state to the cache directory."`
}

func (c *SetCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, a := range c.Assignments {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("invalid assignment %q, want name=value", a)
		}
		if err := sess.SetValue(name, strings.TrimSpace(value)); err != nil {
			return err
		}
	}

	if err := g.save(sess, c.Output); err != nil {
		return err
	}
	if c.SaveState {
		return sess.SaveState(g.ctx)
	}
	return nil
}

// ResetCmd clears edited markers.
type ResetCmd struct {
	Config string   `arg:"" help:"Configuration file or URL."`
	Names  []string `arg:"" optional:"" help:"Value names."`
	All    bool     `short:"a" help:"Reset every edited value."`
	Output string   `short:"o" help:"Write to this location instead of the input ('-' for stdout)."`
}

func (c *ResetCmd) Run(g *Globals) error {
	if !c.All && len(c.Names) == 0 {
		return errors.New("no values named; use --all to reset every edited value")
	}

	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	names := c.Names
	if c.All {
		names = names[:0:0]
		for _, v := range sess.Document().Values() {
			if v.Edited {
				names = append(names, v.Name)
			}
		}
	}
	for _, name := range names {
		if err := sess.Reset(name); err != nil {
			return err
		}
	}
	return g.save(sess, c.Output)
}

// FmtCmd rewrites a configuration in canonical form.
type FmtCmd struct {
	Config string `arg:"" help:"Configuration file or URL."`
	Output string `short:"o" help:"Write to this location instead of the input ('-' for stdout)."`
}

func (c *FmtCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()
	return g.save(sess, c.Output)
}

// WatchCmd follows a configuration until interrupted.
type WatchCmd struct {
	Config   string        `arg:"" help:"Configuration file." type:"existingfile"`
	Debounce time.Duration `default:"100ms" help:"How long to wait for further changes before reloading."`
}

func (c *WatchCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	onReload := func(err error) {
		if err != nil {
			fmt.Fprintf(g.stderr, "reload %s: %v\n", c.Config, err)
			return
		}
		doc := sess.Document()
		fmt.Fprintf(g.stdout, "reloaded %s: %d values, %d edited\n",
			c.Config, len(doc.Values()), doc.EditedCount())
	}
	if err := sess.Watch(g.ctx, onReload, watcher.WithDebounce(c.Debounce)); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "watching %s\n", c.Config)

	<-g.ctx.Done()
	snap := sess.Metrics().Snapshot()
	fmt.Fprintf(g.stdout, "stopped after %d reloads (%d failed), average load %s\n",
		snap.ReloadCount, snap.LoadFailed, snap.AvgLoad())
	return nil
}

// StateCmd groups the session state commands.
type StateCmd struct {
	Save StateSaveCmd `cmd:"" help:"Save a configuration and sample code to the cache directory."`
	Show StateShowCmd `cmd:"" help:"Show the saved session state."`
}

// StateSaveCmd stores a session in the cache directory.
type StateSaveCmd struct {
	Config string `arg:"" help:"Configuration file or URL."`
	Code   string `help:"Sample source file kept with the state." type:"existingfile"`
}

func (c *StateSaveCmd) Run(g *Globals) error {
	sess, err := g.open(c.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	if c.Code != "" {
		code, err := os.ReadFile(c.Code)
		if err != nil {
			return err
		}
		sess.SetCode(string(code))
	}
	if err := sess.SaveState(g.ctx); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "saved state to %s\n", sess.CacheDir())
	return nil
}

// StateShowCmd prints a summary of the saved session.
type StateShowCmd struct {
	Config bool `help:"Print the saved configuration instead of a summary."`
}

func (c *StateShowCmd) Run(g *Globals) error {
	sess, err := g.session()
	if err != nil {
		return err
	}
	defer sess.Close()

	ok, err := sess.RestoreState(g.ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(g.stdout, "no saved state in %s\n", sess.CacheDir())
		return nil
	}
	if c.Config {
		return g.save(sess, "-")
	}

	doc := sess.Document()
	state := sess.View().State()
	fmt.Fprintf(g.stdout, "path:   %s\n", sess.Path())
	fmt.Fprintf(g.stdout, "values: %d (%d edited)\n", len(doc.Values()), doc.EditedCount())
	fmt.Fprintf(g.stdout, "code:   %d bytes\n", len(sess.Code()))
	fmt.Fprintf(g.stdout, "filter: search=%q tag=%q language=%s edited=%s sort=%t\n",
		state.SearchText, state.Tag, state.Language, state.Edited, state.Sort)
	return nil
}
