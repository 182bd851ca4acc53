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
	"runtime"

	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

// VERSION is the pepkit release version.
const VERSION = "0.1.0"

var log = logging.MustGetLogger("pepkit")

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "pepkit",
	Short: "Proteomics knowledge-base table builder",
	Long: fmt.Sprintf(`pepkit - proteomics knowledge-base table builder

A command-line toolkit that turns the UniProtKB flat-file (DAT) corpus
and the NCBI taxonomy dumps into normalized, load-ready TSV tables:
taxa, lineages, entries, peptides, and per-peptide cross-references
(GO, EC, InterPro, Proteomes) — plus a streaming lowest-common-ancestor
pass over a sorted peptide-to-taxon stream.

Version: %s

Documents  : https://github.com/shenwei356/pepkit
Source code: https://github.com/shenwei356/pepkit

`, VERSION),
}

// Execute adds all child commands to the root command and runs it. It is
// called exactly once by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()
	if defaultThreads > 2 {
		defaultThreads = 2
	}

	RootCmd.PersistentFlags().IntP("threads", "j", defaultThreads, "number of CPUs to use, 0 for all available")
	RootCmd.PersistentFlags().BoolP("verbose", "", false, "print verbose progress information")
}
