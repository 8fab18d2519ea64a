// celestemap - inspect, convert and archive Celeste map files
//
// Usage:
//
//	celestemap dump [-ids] [-enc] FILE           Print the element tree
//	celestemap stats FILE                        Print element and string counts
//	celestemap export [-format F] FILE           Write a json|msgpack|cbor snapshot to stdout
//	celestemap import [-format F] SNAPSHOT OUT   Encode a snapshot back into a map file
//	celestemap roundtrip FILE                    Decode, encode and decode again, then compare
//	celestemap store put -db DB NAME FILE        Store a map file
//	celestemap store get -db DB NAME OUT         Write a stored map file
//	celestemap store ls -db DB                   List stored maps
//	celestemap store rm -db DB NAME              Delete a stored map
//
// Common flags: -header overrides the magic header, -v enables debug logging.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/frqstbite/celestemap"
	"github.com/frqstbite/celestemap/store"
)

type common struct {
	header  string
	verbose bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.header, "header", celestemap.DefaultHeader, "magic header string")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
}

func (c *common) options() celestemap.Options {
	return celestemap.Options{
		Header:  c.header,
		Logger:  logger(c.verbose),
		Verbose: c.verbose,
	}
}

func logger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "dump":
		err = cmdDump(args)
	case "stats":
		err = cmdStats(args)
	case "export":
		err = cmdExport(args)
	case "import":
		err = cmdImport(args)
	case "roundtrip":
		err = cmdRoundtrip(args)
	case "store":
		err = cmdStore(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal("%s: %v", cmd, err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  celestemap dump [-ids] [-enc] FILE
  celestemap stats FILE
  celestemap export [-format json|msgpack|cbor] FILE
  celestemap import [-format json|msgpack|cbor] SNAPSHOT OUT
  celestemap roundtrip FILE
  celestemap store put|get|ls|rm -db DB ...`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "celestemap: "+format+"\n", args...)
	os.Exit(1)
}

func parse(fs *flag.FlagSet, args []string, nargs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != nargs {
		return nil, fmt.Errorf("expected %d arguments, got %d", nargs, fs.NArg())
	}
	return fs.Args(), nil
}

func load(path string, opt celestemap.Options) (*celestemap.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return celestemap.Decode(data, opt)
}

func cmdDump(args []string) error {
	var c common
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	c.register(fs)
	ids := fs.Bool("ids", false, "print element ids")
	encs := fs.Bool("enc", false, "print attribute encodings")
	files, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	m, err := load(files[0], c.options())
	if err != nil {
		return err
	}
	f := celestemap.DumpAttributes
	if *ids {
		f |= celestemap.DumpIDs
	}
	if *encs {
		f |= celestemap.DumpEncodings
	}
	fmt.Printf("package %s\n", m.Package)
	fmt.Print(celestemap.Dump(m.Tree, f))
	return nil
}

func cmdStats(args []string) error {
	var c common
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	c.register(fs)
	files, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	m, err := load(files[0], c.options())
	if err != nil {
		return err
	}
	s := celestemap.Stats(m.Tree)
	fp, err := m.Fingerprint()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "package\t%s\n", m.Package)
	fmt.Fprintf(w, "fingerprint\t%016x\n", fp)
	fmt.Fprintf(w, "elements\t%d\n", s.Elements)
	fmt.Fprintf(w, "attributes\t%d\n", s.Attributes)
	fmt.Fprintf(w, "max depth\t%d\n", s.MaxDepth)
	fmt.Fprintf(w, "strings\t%d\n", s.Strings)
	for _, typ := range s.Types() {
		fmt.Fprintf(w, "  %s\t%d\n", typ, s.ByType[typ])
	}
	return w.Flush()
}

func cmdExport(args []string) error {
	var c common
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	c.register(fs)
	format := fs.String("format", "json", "snapshot format: json, msgpack or cbor")
	files, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	sf, err := celestemap.ParseSnapshotFormat(*format)
	if err != nil {
		return err
	}
	m, err := load(files[0], c.options())
	if err != nil {
		return err
	}
	data, err := celestemap.EncodeSnapshot(m, sf)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdImport(args []string) error {
	var c common
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	c.register(fs)
	format := fs.String("format", "json", "snapshot format: json, msgpack or cbor")
	files, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	sf, err := celestemap.ParseSnapshotFormat(*format)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(files[0])
	if err != nil {
		return err
	}
	m, err := celestemap.DecodeSnapshot(raw, sf)
	if err != nil {
		return err
	}
	if m.Package == "" {
		m.Package = packageName(files[1])
	}
	data, err := celestemap.Encode(m, c.options())
	if err != nil {
		return err
	}
	return os.WriteFile(files[1], data, 0666)
}

// packageName derives the package name the game expects from a file name.
func packageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func cmdRoundtrip(args []string) error {
	var c common
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	c.register(fs)
	files, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	opt := c.options()
	m1, err := load(files[0], opt)
	if err != nil {
		return err
	}
	data, err := celestemap.Encode(m1, opt)
	if err != nil {
		return err
	}
	m2, err := celestemap.Decode(data, opt)
	if err != nil {
		return fmt.Errorf("re-decoding: %w", err)
	}
	d1 := celestemap.Dump(m1.Tree, celestemap.DumpAttributes|celestemap.DumpEncodings)
	d2 := celestemap.Dump(m2.Tree, celestemap.DumpAttributes|celestemap.DumpEncodings)
	if d1 != d2 || m1.Package != m2.Package {
		return errors.New("trees differ after round trip")
	}
	fmt.Printf("ok: %d elements, %d bytes\n", m2.Tree.Len(), len(data))
	return nil
}

func cmdStore(args []string) error {
	if len(args) < 1 {
		return errors.New("missing subcommand (put, get, ls, rm)")
	}
	sub, args := args[0], args[1:]

	var c common
	fs := flag.NewFlagSet("store "+sub, flag.ExitOnError)
	c.register(fs)
	dbPath := fs.String("db", "maps.db", "database file")

	nargs := map[string]int{"put": 2, "get": 2, "ls": 0, "rm": 1}
	n, ok := nargs[sub]
	if !ok {
		return fmt.Errorf("unknown subcommand: %s", sub)
	}
	rest, err := parse(fs, args, n)
	if err != nil {
		return err
	}

	st, err := store.Open(*dbPath, store.Options{Logger: logger(c.verbose), Verbose: c.verbose})
	if err != nil {
		return err
	}
	defer st.Close()

	switch sub {
	case "put":
		m, err := load(rest[1], c.options())
		if err != nil {
			return err
		}
		meta, written, err := st.PutMap(rest[0], m, c.options())
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("stored %s: %d bytes (%d compressed)\n", meta.Name, meta.Size, meta.Stored)
		} else {
			fmt.Printf("%s unchanged\n", meta.Name)
		}
	case "get":
		data, _, err := st.Get(rest[0])
		if err != nil {
			return err
		}
		return os.WriteFile(rest[1], data, 0666)
	case "ls":
		metas, err := st.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, meta := range metas {
			fmt.Fprintf(w, "%s\t%d\t%d\t%016x\t%s\n", meta.Name, meta.Size, meta.Stored, meta.Checksum, meta.Saved.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	case "rm":
		return st.Delete(rest[0])
	}
	return nil
}
