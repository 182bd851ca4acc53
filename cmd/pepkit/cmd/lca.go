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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/pepkit"
	"github.com/spf13/cobra"
)

var lcaCmd = &cobra.Command{
	Use:   "lca",
	Short: "Compute a streaming lowest-common-ancestor per peptide",
	Long: `Compute a streaming lowest-common-ancestor per peptide

Reads a sort-grouped "<peptide>\t<taxon_id>" stream (all rows for a
peptide contiguous) and writes one "<peptide>\t<lca_id>" line per
group to stdout, by intersecting rank-indexed lineage vectors rebuilt
from taxa.tsv.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		inputFile := getFlagString(cmd, "input-file")
		taxaFile := getFlagString(cmd, "taxa")
		checkFileExists("taxa", taxaFile)

		taxaIn, err := inStream(taxaFile)
		checkError(err)
		defer taxaIn.Close()

		if opt.Verbose {
			log.Infof("loading taxa from %s ...", taxaFile)
		}
		tax, err := pepkit.LoadTaxaTable(taxaIn)
		checkError(err)

		infh, err := inStream(inputFile)
		checkError(err)
		defer infh.Close()

		out := bufio.NewWriterSize(os.Stdout, 1<<20)
		defer out.Flush()

		started := time.Now()
		var groups int64
		scanner := bufio.NewScanner(infh)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		var curPeptide string
		var curTaxa []int32
		haveCur := false

		flush := func() {
			if !haveCur {
				return
			}
			lca := tax.GroupLCA(curTaxa)
			fmt.Fprintf(out, "%s\t%d\n", curPeptide, lca)
			groups++
			curTaxa = curTaxa[:0]
		}

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			fields := strings.SplitN(line, "\t", 2)
			if len(fields) != 2 {
				checkError(fmt.Errorf("malformed LCA input line: %q", line))
			}
			taxID, err := strconv.Atoi(fields[1])
			if err != nil {
				checkError(fmt.Errorf("malformed taxon id in line %q: %s", line, err))
			}

			if fields[0] != curPeptide {
				flush()
				curPeptide = fields[0]
				haveCur = true
			}
			curTaxa = append(curTaxa, int32(taxID))
		}
		flush()
		checkError(scanner.Err())

		if opt.Verbose {
			log.Infof("computed LCA for %s peptide groups in %s", humanize.Comma(groups), time.Since(started))
		}
	},
}

func init() {
	RootCmd.AddCommand(lcaCmd)

	lcaCmd.Flags().StringP("input-file", "", "-", `sorted "<peptide>\t<taxon_id>" stream ("-" for stdin)`)
	lcaCmd.Flags().StringP("taxa", "", "", "taxa.tsv produced by `pepkit taxonomy`")
}
