// Package main writes a development CA and a server certificate signed
// by it. Run the server with -tls-cert/-tls-key pointing at the server
// pair and the client with --ca pointing at the CA certificate.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/FlashVocab/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated host names and IPs for the server certificate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			list = append(list, h)
		}
	}

	p, err := certgen.WriteDevCerts(*dir, list)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Certificates written to %s\n", *dir)
	fmt.Fprintf(out, "  server: -tls-cert %s -tls-key %s\n", p.ServerCert, p.ServerKey)
	fmt.Fprintf(out, "  client: --ca %s\n", p.CACert)
	return nil
}
