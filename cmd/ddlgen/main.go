// Command ddlgen prints the CREATE TABLE statements for the projection
// tables of one storage backend.
//
//	ddlgen -kind postgres -prefix analytics.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"titanic/internal/ddlgen"
	"titanic/internal/storage"
	_ "titanic/internal/storage/all"
)

func main() {
	kind := flag.String("kind", "postgres", "storage backend: "+strings.Join(storage.ListKinds(), "|"))
	prefix := flag.String("prefix", "", "table name prefix, may carry a schema (e.g. analytics.)")
	flag.Parse()

	stmts, err := ddlgen.Generate(*kind, *prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, s := range stmts {
		fmt.Printf("-- %s\n%s\n\n", s.Table, s.SQL)
	}
}
