// Command ledbctl is a small inspection and maintenance tool for ledb
// environments: list collections, dump documents, run ad-hoc queries, and
// report environment statistics.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/ledb-go/ledb"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(out)
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "collections":
		return cmdCollections(rest, out, errOut)
	case "stats":
		return cmdStats(rest, out, errOut)
	case "dump":
		return cmdDump(rest, out, errOut)
	case "get":
		return cmdGet(rest, out, errOut)
	case "find":
		return cmdFind(rest, out, errOut)
	case "-h", "--help", "help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "ledbctl: unknown command %q\n", cmd)
		printUsage(errOut)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ledbctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  collections <db-path>                          list collections")
	fmt.Fprintln(w, "  stats <db-path>                                 print environment info and stats")
	fmt.Fprintln(w, "  dump <db-path> <collection>                     dump every document as JSON lines")
	fmt.Fprintln(w, "  get <db-path> <collection> <primary>            fetch one document by primary key")
	fmt.Fprintln(w, "  find <db-path> <collection> [flags]             run a filter/order/skip/take query")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "find flags: --filter=<json> --order=<json> --skip=N --take=N")
}

func openEnv(path string) (*ledb.Handle, error) {
	return ledb.DefaultPool.Open(path, ledb.Options{MaxReaders: ledb.DefaultMaxReaders})
}

func cmdCollections(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("collections", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	rest := flagSet.Args()
	if len(rest) != 1 {
		fmt.Fprintln(errOut, "error: expected <db-path>")
		return 1
	}

	h, err := openEnv(rest[0])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer h.Close()

	names, err := h.Env().GetCollections()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return 0
}

func cmdStats(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("stats", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	rest := flagSet.Args()
	if len(rest) != 1 {
		fmt.Fprintln(errOut, "error: expected <db-path>")
		return 1
	}

	h, err := openEnv(rest[0])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer h.Close()

	info := h.Env().GetInfo()
	fmt.Fprintf(out, "map_size=%d last_tx_id=%d max_readers=%d num_readers=%d\n",
		info.MapSize, info.LastTxID, info.MaxReaders, info.NumReaders)

	stats, err := h.Env().GetStats()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	fmt.Fprintf(out, "page_size=%d branch_pages=%d leaf_pages=%d key_n=%d\n",
		stats.PageSize, stats.BranchPages, stats.LeafPages, stats.KeyN)
	return 0
}

func cmdDump(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("dump", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	rest := flagSet.Args()
	if len(rest) != 2 {
		fmt.Fprintln(errOut, "error: expected <db-path> <collection>")
		return 1
	}

	h, err := openEnv(rest[0])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer h.Close()

	coll, err := h.Env().Collection(rest[1])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	cur, err := coll.Dump()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer cur.Close()

	return printDocuments(cur, out, errOut)
}

func cmdGet(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("get", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	rest := flagSet.Args()
	if len(rest) != 3 {
		fmt.Fprintln(errOut, "error: expected <db-path> <collection> <primary>")
		return 1
	}
	primary, err := strconv.ParseUint(rest[2], 10, 64)
	if err != nil {
		fmt.Fprintln(errOut, "error: invalid primary key:", rest[2])
		return 1
	}

	h, err := openEnv(rest[0])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer h.Close()

	coll, err := h.Env().Collection(rest[1])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	doc, ok, err := coll.Get(primary)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(errOut, "not found")
		return 1
	}
	b, err := ledb.MarshalJSON(doc)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	fmt.Fprintln(out, string(b))
	return 0
}

func cmdFind(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("find", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	filterFlag := flagSet.String("filter", "null", "JSON filter expression")
	orderFlag := flagSet.String("order", "", "JSON order expression")
	skip := flagSet.Int("skip", 0, "number of results to skip")
	take := flagSet.Int("take", -1, "maximum number of results (-1 for unbounded)")
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	rest := flagSet.Args()
	if len(rest) != 2 {
		fmt.Fprintln(errOut, "error: expected <db-path> <collection>")
		return 1
	}

	filter, err := ledb.ParseFilter([]byte(*filterFlag))
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	order, err := ledb.ParseOrder([]byte(*orderFlag))
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	h, err := openEnv(rest[0])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer h.Close()

	coll, err := h.Env().Collection(rest[1])
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	cur, err := coll.Find(filter, order)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer cur.Close()

	cur.Skip(*skip)
	if *take >= 0 {
		cur.Take(*take)
	}

	return printDocuments(cur, out, errOut)
}

func printDocuments(cur *ledb.Cursor, out, errOut io.Writer) int {
	for {
		doc, ok := cur.Next()
		if !ok {
			break
		}
		b, err := ledb.MarshalJSON(doc)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintln(out, string(b))
	}
	return 0
}
