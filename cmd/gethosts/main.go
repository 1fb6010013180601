// Command gethosts turns a list of recipe site URLs into the registrable
// domain allow list used to mark hits as scrapable.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorecipes/internal/domain"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	in := flag.String("in", "./input_hosts.txt", "Input file with one site URL per line")
	out := flag.String("out", "./output_hosts.txt", "Output file of registrable domains")
	flag.Parse()

	n, err := run(*in, *out)
	if err != nil {
		log.Error().Err(err).Msg("gethosts failed")
		os.Exit(1)
	}
	log.Info().Int("domains", n).Str("out", *out).Msg("wrote allow list")
}

func run(inPath, outPath string) (int, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	domains, rejected, err := domain.ExtractDomains(f)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", inPath, err)
	}
	if rejected > 0 {
		log.Warn().Int("lines", rejected).Msg("skipped lines without a usable URL")
	}
	if err := os.WriteFile(outPath, []byte(strings.Join(domains, "\n")), 0o644); err != nil {
		return 0, err
	}
	return len(domains), nil
}
