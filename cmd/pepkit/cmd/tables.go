// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/natsort"
	"github.com/shenwei356/pepkit"
	"github.com/shenwei356/stable"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Write entries/peptides/cross-reference tables from a UniProt DAT corpus",
	Long: `Write entries/peptides/cross-reference tables from a UniProt DAT corpus

For each decoded entry: validate its organism against a taxa.tsv built
by "pepkit taxonomy", tryptic-digest its sequence, and append rows
across six correlated, monotonically-id'd TSVs.

Reads stdin by default; given one or more file arguments, reads them in
natural-sort order instead (each independently chunked, all entries fed
through the same monotonic counters).

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		taxaFile := getFlagString(cmd, "taxa")
		checkFileExists("taxa", taxaFile)

		minLen := getFlagPositiveInt(cmd, "peptide-min")
		maxLen := getFlagPositiveInt(cmd, "peptide-max")
		if minLen > maxLen {
			checkError(pepkit.ErrInvalidLengthBounds)
		}

		dbTypeOverride := getFlagString(cmd, "db-type")

		taxaIn, err := inStream(taxaFile)
		checkError(err)
		defer taxaIn.Close()

		if opt.Verbose {
			log.Infof("loading taxa from %s ...", taxaFile)
		}
		tax, err := pepkit.LoadTaxaTable(taxaIn)
		checkError(err)
		if opt.Verbose {
			log.Infof("loaded %s taxa", humanize.Comma(int64(len(tax.IDs()))))
		}

		sinks, closers := openTableSinks(cmd)
		defer closeAll(closers)

		writer := pepkit.NewTablesWriter(tax, minLen, maxLen, sinks, log)

		files := args
		if len(files) == 0 {
			files = []string{"-"}
		} else {
			natsort.Sort(files)
		}

		started := time.Now()
		for _, file := range files {
			if opt.Verbose {
				log.Infof("processing %s ...", file)
			}
			processDATFile(writer, file, dbTypeOverride, opt)
		}

		checkError(writer.Close())

		processed, filtered, entries, peptides := writer.Counts()
		printTablesSummary(processed, filtered, entries, peptides, time.Since(started))
	},
}

func processDATFile(writer *pepkit.TablesWriter, file, dbTypeOverride string, opt *Options) {
	infh, err := inStream(file)
	checkError(err)
	defer infh.Close()

	parser := pepkit.NewParser(infh, opt.NumCPUs)
	for {
		e, err := parser.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			if _, isEntryErr := err.(*pepkit.EntryError); isEntryErr {
				log.Warningf("%s: %s", file, err)
				continue
			}
			checkError(err)
		}

		if dbTypeOverride != "" && dbTypeOverride != "auto" {
			e.DBType = pepkit.ParseDatabaseType(dbTypeOverride)
		}

		checkError(writer.WriteEntry(e))
	}
}

// openTableSinks opens the six output streams named on the CLI;
// proteomes.tsv is the only optional one.
func openTableSinks(cmd *cobra.Command) (pepkit.TableSinks, []io.Closer) {
	var sinks pepkit.TableSinks
	var closers []io.Closer

	open := func(flag string) io.Writer {
		path := getFlagString(cmd, flag)
		if path == "" {
			checkError(fmt.Errorf("flag --%s is required", flag))
		}
		w, err := outStream(path)
		checkError(err)
		closers = append(closers, w)
		return w
	}

	sinks.Entries = open("uniprot-entries")
	sinks.Peptides = open("peptides")
	sinks.GO = open("go")
	sinks.EC = open("ec")
	sinks.InterPro = open("interpro")

	if p := getFlagString(cmd, "proteomes"); p != "" {
		w, err := outStream(p)
		checkError(err)
		closers = append(closers, w)
		sinks.Proteomes = w
	}

	return sinks, closers
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Warningf("closing output: %s", err)
		}
	}
}

func printTablesSummary(processed, filtered, entries, peptides int64, elapsed time.Duration) {
	style := &stable.TableStyle{
		Name:      "plain",
		HeaderRow: stable.RowStyle{Begin: "", Sep: "  ", End: ""},
		DataRow:   stable.RowStyle{Begin: "", Sep: "  ", End: ""},
		Padding:   "",
	}
	columns := []stable.Column{
		{Header: "entries processed", Align: stable.AlignRight},
		{Header: "entries filtered", Align: stable.AlignRight},
		{Header: "entries written", Align: stable.AlignRight},
		{Header: "peptides written", Align: stable.AlignRight},
		{Header: "elapsed", Align: stable.AlignRight},
	}
	tbl := stable.New()
	tbl.HeaderWithFormat(columns)
	tbl.AddRow([]interface{}{
		humanize.Comma(processed),
		humanize.Comma(filtered),
		humanize.Comma(entries),
		humanize.Comma(peptides),
		elapsed.String(),
	})
	os.Stderr.Write(tbl.Render(style))
}

func init() {
	RootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().StringP("db-type", "", "auto", "swissprot|trembl|auto: auto takes database_type per-entry from the DT line")
	tablesCmd.Flags().IntP("peptide-min", "", 7, "minimum emitted peptide length")
	tablesCmd.Flags().IntP("peptide-max", "", 50, "maximum emitted peptide length")
	tablesCmd.Flags().StringP("taxa", "", "", "taxa.tsv produced by `pepkit taxonomy`")
	tablesCmd.Flags().StringP("uniprot-entries", "", "entries.tsv", "output entries table")
	tablesCmd.Flags().StringP("peptides", "", "peptides.tsv", "output peptides table")
	tablesCmd.Flags().StringP("go", "", "go.tsv", "output GO cross-reference table")
	tablesCmd.Flags().StringP("ec", "", "ec.tsv", "output EC cross-reference table")
	tablesCmd.Flags().StringP("interpro", "", "ip.tsv", "output InterPro cross-reference table")
	tablesCmd.Flags().StringP("proteomes", "", "", "output Proteomes cross-reference table (optional)")
}
