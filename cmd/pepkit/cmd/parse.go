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
	"io"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/pepkit"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Diagnostic: parse a UniProt DAT stream and report entry/error counts",
	Long: `Diagnostic: parse a UniProt DAT stream and report entry/error counts

Runs the byte-chunker and entry decoder over stdin without
writing any tables, useful for sanity-checking a DAT file or measuring
parse throughput at a given thread count before running "pepkit tables".

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		infh, err := inStream("-")
		checkError(err)
		defer infh.Close()

		parser := pepkit.NewParser(infh, opt.NumCPUs)

		started := time.Now()
		var ok, failed int64
		for {
			_, err := parser.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if _, isEntryErr := err.(*pepkit.EntryError); isEntryErr {
					failed++
					if opt.Verbose {
						log.Warningf("parse error: %s", err)
					}
					continue
				}
				checkError(err)
			}
			ok++
		}

		log.Infof("parsed %s entries (%s failed) in %s",
			humanize.Comma(ok), humanize.Comma(failed), time.Since(started))
	},
}

func init() {
	RootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("db-type", "", "auto", "swissprot|trembl|auto (diagnostic only; parse doesn't write database_type anywhere)")
}
