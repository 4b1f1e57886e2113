// Quill CLI - inspect the realized type table and round-trip arrays
// through a store.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/quillvm/quill/lib/store"
	"github.com/quillvm/quill/manifest"
	"github.com/quillvm/quill/vm"
	"github.com/quillvm/quill/vm/wire"
)

var log = commonlog.GetLogger("quill")

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity")
	storePath := flag.String("store", "", "Array store path (overrides quill.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quill [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects the realized type table and stores arrays.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  classes                    # List realized classes\n")
		fmt.Fprintf(os.Stderr, "  class <name>               # Show a class digest\n")
		fmt.Fprintf(os.Stderr, "  put <name> <code> [v...]   # Build an array and store it\n")
		fmt.Fprintf(os.Stderr, "  get <name>                 # Load a stored array\n")
		fmt.Fprintf(os.Stderr, "  list                       # List stored arrays\n")
		fmt.Fprintf(os.Stderr, "  del <name>                 # Delete a stored array\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill classes\n")
		fmt.Fprintf(os.Stderr, "  quill class array.array\n")
		fmt.Fprintf(os.Stderr, "  quill put temps d 18.5 19.1 21.0\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := vm.Shared()
	log.Infof("type table realized (%d classes)", ctx.Classes.Len())

	var err error
	switch args[0] {
	case "classes":
		err = runClasses(ctx)
	case "class":
		err = runClass(ctx, args[1:])
	case "put":
		err = runPut(ctx, *storePath, args[1:])
	case "get":
		err = runGet(ctx, *storePath, args[1:])
	case "list":
		err = runList(*storePath)
	case "del":
		err = runDel(*storePath, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runClasses(ctx *vm.Context) error {
	names := ctx.Classes.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runClass(ctx *vm.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("class requires exactly one name")
	}
	c, ok := ctx.Classes.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no class %q", args[0])
	}
	d := wire.DigestClass(c)
	fmt.Printf("%s\n", d.Name)
	if d.Module != "" {
		fmt.Printf("  module:    %s\n", d.Module)
	}
	fmt.Printf("  protocols: %s\n", strings.Join(d.Protocols, ", "))
	fmt.Printf("  attrs:     %s\n", strings.Join(d.Attrs, ", "))
	return nil
}

func openStore(storePath string) (*store.Store, error) {
	if storePath == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			return nil, err
		}
		if m != nil {
			storePath = m.StorePath()
		} else {
			storePath = "quill.db"
		}
	}
	log.Debugf("opening store %s", storePath)
	return store.Open(storePath)
}

func runPut(ctx *vm.Context, storePath string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("put requires a name and a typecode")
	}
	name, code := args[0], args[1]
	if len(code) != 1 {
		return fmt.Errorf("typecode must be one character")
	}
	kind, err := vm.KindForCode(code[0])
	if err != nil {
		return err
	}
	a := vm.NewArray(kind)
	values, err := parseValues(ctx, kind, args[2:])
	if err != nil {
		return err
	}
	if err := a.ExtendFromValues(ctx, values); err != nil {
		return err
	}
	st, err := openStore(storePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Put(name, a); err != nil {
		return err
	}
	log.Infof("stored %q (%d elements)", name, a.Len())
	return nil
}

func parseValues(ctx *vm.Context, kind vm.ElemKind, raw []string) ([]vm.Value, error) {
	values := make([]vm.Value, 0, len(raw))
	for _, s := range raw {
		switch {
		case kind == vm.KindCodePoint:
			values = append(values, ctx.NewStr(s))
		case kind == vm.KindFloat32 || kind == vm.KindFloat64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("bad element %q: %w", s, err)
			}
			values = append(values, vm.FromFloat(f))
		default:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad element %q: %w", s, err)
			}
			values = append(values, vm.FromInt(n))
		}
	}
	return values, nil
}

func runGet(ctx *vm.Context, storePath string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get requires exactly one name")
	}
	st, err := openStore(storePath)
	if err != nil {
		return err
	}
	defer st.Close()
	a, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	r, err := ctx.Repr(vm.FromObject(vm.NewObject(ctx.Types.Array, a)))
	if err != nil {
		return err
	}
	fmt.Println(r)
	return nil
}

func runList(storePath string) error {
	st, err := openStore(storePath)
	if err != nil {
		return err
	}
	defer st.Close()
	names, err := st.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runDel(storePath string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("del requires exactly one name")
	}
	st, err := openStore(storePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Delete(args[0]); err != nil {
		return err
	}
	log.Infof("deleted %q", args[0])
	return nil
}
