// Command gdbmdump exports a gdbmgo database to stdout, or imports one from
// stdin into a fresh database file.
package main

import (
	"fmt"
	"log"
	"os"

	gdbmgo "github.com/jgarzik/gdbmgo"
	"github.com/jgarzik/gdbmgo/dump"

	flag "github.com/spf13/pflag"
)

func main() {
	var (
		binary  = flag.BoolP("binary", "b", false, "use the binary dump format instead of ASCII")
		restore = flag.BoolP("restore", "r", false, "read a dump from stdin into a new database instead of writing one")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gdbmdump [-b|--binary] [-r|--restore] <database path>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *restore {
		if err := restoreDB(path, *binary); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := dumpDB(path, *binary); err != nil {
		log.Fatal(err)
	}
}

func dumpDB(path string, useBinary bool) error {
	db, err := gdbmgo.Open(path, gdbmgo.Options{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if useBinary {
		return dump.WriteBinary(os.Stdout, db, db.Alignment())
	}
	return dump.WriteASCII(os.Stdout, db)
}

func restoreDB(path string, useBinary bool) error {
	db, err := gdbmgo.Create(path, gdbmgo.Options{})
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer db.Close()

	if useBinary {
		err = dump.ReadBinary(os.Stdin, db, db.Alignment(), true)
	} else {
		err = dump.ReadASCII(os.Stdin, db, true)
	}
	if err != nil {
		return err
	}
	return db.Sync()
}
