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
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/pepkit"
	"github.com/shenwei356/stable"
	"github.com/spf13/cobra"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Build taxa and lineage tables from NCBI taxonomy dumps",
	Long: `Build taxa and lineage tables from NCBI taxonomy dumps

Reads names.dmp/nodes.dmp, constructs the parent-indexed taxon array,
runs the recursive validity-propagation pass, and writes taxa.tsv and
lineages.tsv.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		names := getFlagString(cmd, "names")
		nodes := getFlagString(cmd, "nodes")
		taxaFile := getFlagString(cmd, "taxa")
		lineagesFile := getFlagString(cmd, "lineages")
		stats := getFlagBool(cmd, "stats")
		cacheDir := getFlagString(cmd, "cache")

		checkFileExists("names", names)
		checkFileExists("nodes", nodes)
		if taxaFile == "" {
			checkError(fmt.Errorf("flag --taxa is required"))
		}
		if lineagesFile == "" {
			checkError(fmt.Errorf("flag --lineages is required"))
		}

		started := time.Now()
		if opt.Verbose {
			log.Infof("loading taxonomy from %s / %s ...", names, nodes)
		}

		tax, err := pepkit.LoadTaxonomy(names, nodes)
		checkError(err)

		if opt.Verbose {
			log.Infof("loaded %s taxa in %s", humanize.Comma(int64(len(tax.IDs()))), time.Since(started))
		}

		taxaOut, err := outStream(taxaFile)
		checkError(err)
		defer taxaOut.Close()
		checkError(tax.WriteTaxa(taxaOut))

		lineagesOut, err := outStream(lineagesFile)
		checkError(err)
		defer lineagesOut.Close()
		checkError(tax.WriteLineages(lineagesOut))

		if cacheDir != "" {
			if cacheDir == "default" {
				cacheDir, err = pepkit.DefaultCacheDir()
				checkError(err)
			}
			checkError(os.MkdirAll(cacheDir, 0755))
			cacheFile := cacheDir + string(os.PathSeparator) + "lineage.cache"
			f, err := os.Create(cacheFile)
			checkError(err)
			err = tax.SaveCache(f)
			f.Close()
			checkError(err)
			if opt.Verbose {
				log.Infof("wrote lineage cache to %s", cacheFile)
			}
		}

		if stats {
			printTaxonomyStats(tax)
		}
	},
}

// printTaxonomyStats renders the per-rank taxon-count breakdown after
// the main tables are written.
func printTaxonomyStats(tax *pepkit.Taxonomy) {
	counts := make(map[pepkit.Rank]int)
	invalid := make(map[pepkit.Rank]int)
	for _, id := range tax.IDs() {
		r := tax.RankOf(id)
		counts[r]++
		if !tax.Valid(int(id)) {
			invalid[r]++
		}
	}

	style := &stable.TableStyle{
		Name:      "plain",
		HeaderRow: stable.RowStyle{Begin: "", Sep: "  ", End: ""},
		DataRow:   stable.RowStyle{Begin: "", Sep: "  ", End: ""},
		Padding:   "",
	}
	columns := []stable.Column{
		{Header: "rank"},
		{Header: "taxa", Align: stable.AlignRight},
		{Header: "invalid", Align: stable.AlignRight},
	}
	tbl := stable.New()
	tbl.HeaderWithFormat(columns)
	for r := pepkit.Rank(0); int(r) < pepkit.NumRanks; r++ {
		if counts[r] == 0 {
			continue
		}
		tbl.AddRow([]interface{}{
			r.String(),
			humanize.Comma(int64(counts[r])),
			humanize.Comma(int64(invalid[r])),
		})
	}
	os.Stdout.Write(tbl.Render(style))
}

func init() {
	RootCmd.AddCommand(taxonomyCmd)

	taxonomyCmd.Flags().StringP("names", "", "", "NCBI names.dmp")
	taxonomyCmd.Flags().StringP("nodes", "", "", "NCBI nodes.dmp")
	taxonomyCmd.Flags().StringP("taxa", "", "taxa.tsv", "output taxa table")
	taxonomyCmd.Flags().StringP("lineages", "", "lineages.tsv", "output lineage table")
	taxonomyCmd.Flags().BoolP("stats", "", false, "print a per-rank taxon-count summary after writing")
	taxonomyCmd.Flags().StringP("cache", "", "", `also write a binary lineage cache here ("default" for ~/.pepkit)`)
}
