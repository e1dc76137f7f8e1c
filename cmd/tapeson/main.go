// Command tapeson is a thin CLI wrapper around the tapeson package: read a
// JSON document (or NDJSON stream) and either validate it, minify it, or
// print its xxh3 checksum. It exists for quick manual inspection; the
// package itself has no CLI dependency.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/parsehq/tapeson"
)

func main() {
	minifyFlag := flag.Bool("minify", false, "print the minified form of the input")
	ndFlag := flag.Bool("nd", false, "treat input as newline-delimited JSON")
	checksumFlag := flag.Bool("checksum", false, "print the xxh3 checksum of the input and exit")
	backendFlag := flag.Bool("backend", false, "print the active backend name and exit")
	flag.Parse()

	if *backendFlag {
		fmt.Println(tapeson.BackendName())
		return
	}

	buf, err := readInput(flag.Args())
	if err != nil {
		log.Fatalf("tapeson: %v", err)
	}

	if *checksumFlag {
		fmt.Printf("%016x\n", tapeson.Checksum(buf))
		return
	}

	if *minifyFlag {
		out, merr := tapeson.Minify(buf)
		if merr != nil {
			log.Fatalf("tapeson: %v", merr)
		}
		os.Stdout.Write(out)
		fmt.Println()
		return
	}

	if *ndFlag {
		docs, perr := tapeson.ParseND(buf)
		if perr != nil {
			log.Fatalf("tapeson: %v", perr)
		}
		fmt.Printf("parsed %d document(s)\n", len(docs))
		return
	}

	if _, perr := tapeson.Parse(buf, nil); perr != nil {
		log.Fatalf("tapeson: %v", perr)
	}
	fmt.Println("ok")
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
