// odatagen generates Go entity declarations from an OData $metadata file.
//
// Usage:
//
//	odatagen -metadata metadata.xml [-out models_gen.go] [-pkg models] [-acronyms]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SimonThordal/go-odata/odatagen"
)

const version = "0.1.0"

func main() {
	metadataFile := flag.String("metadata", "", "Path to CSDL $metadata XML file (required)")
	outFile := flag.String("out", "", "Output Go file (default: stdout)")
	pkg := flag.String("pkg", "models", "Package name for generated code")
	acronyms := flag.Bool("acronyms", true, "Apply Go naming conventions for acronyms (ID, URL, etc.)")
	modulePath := flag.String("module", "github.com/SimonThordal/go-odata", "Import path of the go-odata module")
	versionStr := flag.String("schema-version", "", "Schema version string (included in generated header)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("odatagen %s\n", version)
		os.Exit(0)
	}

	if *metadataFile == "" {
		fmt.Fprintln(os.Stderr, "error: -metadata flag is required")
		flag.Usage()
		os.Exit(1)
	}

	schema, err := odatagen.ParseMetadataFile(*metadataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *outFile != "" {
		w, err = os.Create(*outFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating output: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
	}

	cfg := odatagen.RenderConfig{
		PackageName:   *pkg,
		ModulePath:    *modulePath,
		UseAcronyms:   *acronyms,
		SchemaVersion: *versionStr,
	}
	if err := odatagen.Render(w, schema, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
